package progress

import (
	"context"
	"time"
)

// Progress is the per-user counter document that drives achievement evaluation.
// All counters except CurrentStreak only ever grow; CurrentStreak may reset to 0.
type Progress struct {
	UserID           string    `json:"user_id" firestore:"user_id"`
	TotalHabits      int       `json:"total_habits" firestore:"total_habits"`
	TotalCompletions int       `json:"total_completions" firestore:"total_completions"`
	TotalPoints      int       `json:"total_points" firestore:"total_points"`
	CurrentStreak    int       `json:"current_streak" firestore:"current_streak"`
	CreatedAt        time.Time `json:"created_at" firestore:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" firestore:"updated_at"`
}

// Grant is the permanent record that a user unlocked an achievement.
// The persistence key is the (userID, achievementID) pair; a grant is written
// at most once and never deleted.
type Grant struct {
	AchievementID string    `json:"achievement_id" firestore:"achievement_id"`
	UserID        string    `json:"user_id" firestore:"user_id"`
	Title         string    `json:"title" firestore:"title"`
	Description   string    `json:"description" firestore:"description"`
	DateEarned    time.Time `json:"date_earned" firestore:"date_earned"`
}

// Store encapsulates persistence for progress counters and achievement grants.
//
// Counter mutations are atomic read-modify-write operations against the
// persisted record, never blind overwrites, so concurrent events for the same
// user cannot lose updates. MarkUnlocked is a conditional create keyed by
// (userID, achievementID): the second writer observes alreadyGranted instead
// of duplicating the grant.
type Store interface {
	// GetProgress returns the user's counters, or a zero-valued Progress when
	// the user has no record yet.
	GetProgress(ctx context.Context, userID string) (Progress, error)
	// RecordHabitCreated increments total_habits by one.
	RecordHabitCreated(ctx context.Context, userID string) (Progress, error)
	// RecordCompletion increments total_completions by one and total_points by points.
	RecordCompletion(ctx context.Context, userID string, points int) (Progress, error)
	// SetStreak overwrites the current streak length.
	SetStreak(ctx context.Context, userID string, days int) (Progress, error)
	// SetPoints overwrites the point total.
	SetPoints(ctx context.Context, userID string, total int) (Progress, error)

	IsUnlocked(ctx context.Context, userID, achievementID string) (bool, error)
	// MarkUnlocked persists the grant unless one already exists for the pair.
	MarkUnlocked(ctx context.Context, userID string, grant Grant) (alreadyGranted bool, err error)
	UnlockedSet(ctx context.Context, userID string) (map[string]bool, error)
	ListGrants(ctx context.Context, userID string) ([]Grant, error)
}
