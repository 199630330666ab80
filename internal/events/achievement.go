package events

import "time"

// AchievementGranted describes the payload produced when a user unlocks an achievement.
type AchievementGranted struct {
	UserID        string    `json:"userId"`
	AchievementID string    `json:"achievementId"`
	Title         string    `json:"title"`
	Category      string    `json:"category"`
	EarnedAt      time.Time `json:"earnedAt"`
}

// HabitCompleted is emitted when a habit completion is recorded for a day.
type HabitCompleted struct {
	UserID      string    `json:"userId"`
	HabitID     string    `json:"habitId"`
	Points      int       `json:"points"`
	CompletedAt time.Time `json:"completedAt"`
}
