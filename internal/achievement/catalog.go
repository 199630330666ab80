package achievement

import "errors"

// ErrUnknownAchievement indicates a lookup for an id not present in the catalog.
var ErrUnknownAchievement = errors.New("unknown achievement")

// Fallback display strings for unknown ids. Collaborators render these
// instead of surfacing the lookup failure to the end user.
const (
	fallbackTitle       = "Achievement"
	fallbackDescription = "Achievement unlocked"
)

// Catalog is the immutable, ordered set of achievements. Order is category
// declaration order then ascending threshold and is part of the contract:
// the evaluator emits newly-qualifying achievements in this order.
type Catalog struct {
	entries []Achievement
	byID    map[string]Achievement
}

// NewCatalog returns the canonical catalog.
// Keep the ids stable because they double as grant document keys.
func NewCatalog() *Catalog {
	entries := []Achievement{
		{
			ID:          "first_habit",
			Title:       "First Steps",
			Description: "Create your first habit",
			Category:    CategoryHabitCreation,
			Threshold:   1,
			Icon:        "🎯",
		},
		{
			ID:          "five_habits",
			Title:       "Habit Collector",
			Description: "Create 5 different habits",
			Category:    CategoryHabitCreation,
			Threshold:   5,
			Icon:        "📝",
		},
		{
			ID:          "ten_habits",
			Title:       "Habit Master",
			Description: "Create 10 different habits",
			Category:    CategoryHabitCreation,
			Threshold:   10,
			Icon:        "💪",
		},
		{
			ID:          "first_completion",
			Title:       "First Win",
			Description: "Complete any habit for the first time",
			Category:    CategoryHabitCompletion,
			Threshold:   1,
			Icon:        "✅",
		},
		{
			ID:          "ten_completions",
			Title:       "Ten Victories",
			Description: "Complete habits 10 times",
			Category:    CategoryHabitCompletion,
			Threshold:   10,
			Icon:        "🔥",
		},
		{
			ID:          "fifty_completions",
			Title:       "Half Century",
			Description: "Complete habits 50 times",
			Category:    CategoryHabitCompletion,
			Threshold:   50,
			Icon:        "⭐",
		},
		{
			ID:          "streak_3",
			Title:       "Three-Day Streak",
			Description: "Complete habits 3 days in a row",
			Category:    CategoryStreak,
			Threshold:   3,
			Icon:        "📅",
		},
		{
			ID:          "streak_7",
			Title:       "Week Champion",
			Description: "Complete habits 7 days in a row",
			Category:    CategoryStreak,
			Threshold:   7,
			Icon:        "🏆",
		},
		{
			ID:          "streak_30",
			Title:       "Month of Discipline",
			Description: "Complete habits 30 days in a row",
			Category:    CategoryStreak,
			Threshold:   30,
			Icon:        "👑",
		},
		{
			ID:          "hundred_points",
			Title:       "Hundred Points",
			Description: "Earn 100 points",
			Category:    CategoryPoints,
			Threshold:   100,
			Icon:        "💯",
		},
		{
			ID:          "five_hundred_points",
			Title:       "Five Hundred Points",
			Description: "Earn 500 points",
			Category:    CategoryPoints,
			Threshold:   500,
			Icon:        "💰",
		},
		{
			ID:          "thousand_points",
			Title:       "Thousand Points",
			Description: "Earn 1000 points",
			Category:    CategoryPoints,
			Threshold:   1000,
			Icon:        "🎖️",
		},
		{
			ID:          "early_bird",
			Title:       "Early Bird",
			Description: "Complete a habit before 8 in the morning",
			Category:    CategorySpecial,
			Threshold:   1,
			Icon:        "🌅",
		},
		{
			ID:          "night_owl",
			Title:       "Night Owl",
			Description: "Complete a habit after 10 in the evening",
			Category:    CategorySpecial,
			Threshold:   1,
			Icon:        "🌙",
		},
		// perfect_week is listed for display parity but has no trigger wired;
		// the mobile clients have always shown it as locked.
		{
			ID:          "perfect_week",
			Title:       "Perfect Week",
			Description: "Complete all habits every day of the week",
			Category:    CategorySpecial,
			Threshold:   7,
			Icon:        "🌟",
		},
	}

	byID := make(map[string]Achievement, len(entries))
	for _, entry := range entries {
		byID[entry.ID] = entry
	}

	return &Catalog{entries: entries, byID: byID}
}

// All returns the catalog in its fixed order; returning a copy keeps callers
// from mutating.
func (c *Catalog) All() []Achievement {
	out := make([]Achievement, len(c.entries))
	copy(out, c.entries)
	return out
}

// ByID looks up a single catalog entry.
func (c *Catalog) ByID(id string) (Achievement, error) {
	entry, ok := c.byID[id]
	if !ok {
		return Achievement{}, ErrUnknownAchievement
	}
	return entry, nil
}

// Len reports the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// DisplayTitle returns the entry title, or a placeholder for unknown ids.
func (c *Catalog) DisplayTitle(id string) string {
	if entry, ok := c.byID[id]; ok {
		return entry.Title
	}
	return fallbackTitle
}

// DisplayDescription returns the entry description, or a placeholder for unknown ids.
func (c *Catalog) DisplayDescription(id string) string {
	if entry, ok := c.byID[id]; ok {
		return entry.Description
	}
	return fallbackDescription
}
