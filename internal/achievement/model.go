package achievement

import (
	"context"
	"time"

	"github.com/habitloop/achievement-service/internal/progress"
)

// Category identifies which counter an achievement's threshold applies to.
type Category string

const (
	CategoryHabitCreation   Category = "habit_creation"
	CategoryHabitCompletion Category = "habit_completion"
	CategoryStreak          Category = "streak"
	CategoryPoints          Category = "points"
	CategorySpecial         Category = "special"
)

// Achievement is a static catalog entry. IDs are persistence keys and must
// stay stable across releases.
type Achievement struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	// Threshold is interpreted per category: habits created, completions,
	// consecutive days, or point total. Unused for special achievements.
	Threshold int    `json:"threshold"`
	Icon      string `json:"icon"`
}

// EventKind names the activity event that triggered an evaluation pass.
type EventKind string

const (
	EventHabitCreated   EventKind = "habit_created"
	EventHabitCompleted EventKind = "habit_completed"
	EventStreakChanged  EventKind = "streak_changed"
	EventPointsChanged  EventKind = "points_changed"
)

// Event carries the per-event facts the evaluator needs beyond the counters.
type Event struct {
	Kind EventKind
	// CompletionHour is the local hour of day [0,23] of a completion event.
	CompletionHour int
}

// Status pairs a catalog entry with the user's earned state.
type Status struct {
	Achievement
	Earned     bool       `json:"earned"`
	DateEarned *time.Time `json:"date_earned,omitempty"`
}

// Overview is returned by GET /v1/achievements/me.
type Overview struct {
	TotalPoints      int      `json:"total_points"`
	TotalCompletions int      `json:"total_completions"`
	CurrentStreak    int      `json:"current_streak"`
	EarnedCount      int      `json:"earned_count"`
	TotalCount       int      `json:"total_count"`
	Achievements     []Status `json:"achievements"`
}

// Notifier receives granted achievements for the presentation layer.
// Delivery is best-effort; duplicate suppression already happened in the store.
type Notifier interface {
	AchievementGranted(ctx context.Context, userID string, ach Achievement, earnedAt time.Time)
}

// Service is the activity-event entry point for achievement bookkeeping.
type Service interface {
	OnHabitCreated(ctx context.Context, userID string) ([]progress.Grant, error)
	OnHabitCompleted(ctx context.Context, userID string, pointsAwarded, completionHour int) ([]progress.Grant, error)
	OnStreakChanged(ctx context.Context, userID string, days int) ([]progress.Grant, error)
	OnPointsChanged(ctx context.Context, userID string, total int) ([]progress.Grant, error)

	ListCatalog(ctx context.Context) ([]Achievement, error)
	GetOverview(ctx context.Context, userID string) (*Overview, error)
	GetProgress(ctx context.Context, userID string) (progress.Progress, error)
}

// Clock delivers the current time; extracted for deterministic testing.
type Clock interface {
	Now() time.Time
}
