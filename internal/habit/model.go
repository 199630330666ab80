package habit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Habit holds the durable metadata of a tracked habit.
type Habit struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Frequency   string     `json:"frequency"`
	Points      int        `json:"points"`
	CreatedAt   time.Time  `json:"created_at"`
	DeletedAt   *time.Time `json:"-"`
}

// Completion records that a habit was completed on a given local day.
// The (habit, day) pair is the idempotency key: completing the same habit
// twice on one day stores a single record and awards points once.
type Completion struct {
	HabitID     string    `json:"habit_id"`
	Day         string    `json:"day"` // local day key, YYYY-MM-DD
	CompletedAt time.Time `json:"completed_at"`
}

// ValidFrequencies defines the allowed habit frequencies.
var ValidFrequencies = []string{
	"daily",
	"weekly",
}

const (
	defaultFrequency = "daily"
	defaultPoints    = 10
	maxPoints        = 1000

	dayLayout = "2006-01-02"
)

// CreateInput captures the data required to create a new habit.
type CreateInput struct {
	UserID      string
	Title       string
	Description string
	Frequency   string
	Points      int
}

// Validate ensures the input fields meet the domain constraints.
func (i CreateInput) Validate() error {
	var problems []string

	if i.UserID == "" {
		problems = append(problems, "user_id is required")
	}
	if strings.TrimSpace(i.Title) == "" {
		problems = append(problems, "title is required")
	}
	if i.Points < 0 {
		problems = append(problems, "points must be non-negative")
	}
	if i.Points > maxPoints {
		problems = append(problems, fmt.Sprintf("points must not exceed %d", maxPoints))
	}

	if i.Frequency != "" {
		valid := false
		for _, f := range ValidFrequencies {
			if f == i.Frequency {
				valid = true
				break
			}
		}
		if !valid {
			problems = append(problems, fmt.Sprintf("frequency must be one of: %s", strings.Join(ValidFrequencies, ", ")))
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// Repository encapsulates persistence for habits and their daily completions.
type Repository interface {
	Create(ctx context.Context, habit Habit) error
	GetByID(ctx context.Context, userID, habitID string) (Habit, error)
	List(ctx context.Context, userID string) ([]Habit, error)
	Delete(ctx context.Context, userID, habitID string, deletedAt time.Time) error

	// MarkCompleted conditionally creates the completion record for the
	// (habit, day) pair and reports whether it already existed.
	MarkCompleted(ctx context.Context, userID string, completion Completion) (alreadyCompleted bool, err error)
	// CompletionDays returns the set of local day keys with at least one
	// completion since the given instant.
	CompletionDays(ctx context.Context, userID string, since time.Time) (map[string]bool, error)
}

// ErrNotFound indicates the requested habit does not exist for the user.
var ErrNotFound = errors.New("habit not found")

// ErrConflict indicates a duplicate identifier collision.
var ErrConflict = errors.New("habit already exists")

// ErrInvalidInput indicates the provided data failed validation.
var ErrInvalidInput = errors.New("invalid input")

// Clock delivers the current time; extracted for deterministic testing.
type Clock interface {
	Now() time.Time
}

// IDGenerator produces unique identifiers for new habits.
type IDGenerator interface {
	NewID() string
}
