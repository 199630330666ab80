package progress

import "errors"

var (
	// ErrMissingUserID indicates a required user id was absent.
	ErrMissingUserID = errors.New("user id is required")
	// ErrInvalidInput indicates a negative counter value or malformed argument.
	ErrInvalidInput = errors.New("invalid input")
	// ErrMissingAchievementID indicates a grant operation without an achievement id.
	ErrMissingAchievementID = errors.New("achievement id is required")
)
