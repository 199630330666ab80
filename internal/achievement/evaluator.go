package achievement

import "github.com/habitloop/achievement-service/internal/progress"

// Hour windows for the time-of-day specials, in the user's local time.
// Early bird covers 05:00-07:59; night owl covers 22:00-00:59.
const (
	earlyBirdStartHour = 5
	earlyBirdEndHour   = 7
	nightOwlStartHour  = 22
)

// Evaluate returns the catalog entries that newly qualify given the counter
// snapshot and the triggering event, in catalog order. Entries already in the
// unlocked set are never re-emitted.
//
// Each event kind only re-checks the categories it can affect: counters are
// monotonic (streak excepted), so a threshold that did not cross on this
// event cannot have crossed silently elsewhere. Evaluation is pure; the
// caller owns persistence.
func Evaluate(entries []Achievement, p progress.Progress, unlocked map[string]bool, ev Event) []Achievement {
	var qualified []Achievement
	for _, entry := range entries {
		if unlocked[entry.ID] {
			continue
		}
		if qualifies(entry, p, ev) {
			qualified = append(qualified, entry)
		}
	}
	return qualified
}

func qualifies(entry Achievement, p progress.Progress, ev Event) bool {
	switch entry.Category {
	case CategoryHabitCreation:
		return ev.Kind == EventHabitCreated && p.TotalHabits >= entry.Threshold
	case CategoryHabitCompletion:
		return ev.Kind == EventHabitCompleted && p.TotalCompletions >= entry.Threshold
	case CategoryStreak:
		return ev.Kind == EventStreakChanged && p.CurrentStreak >= entry.Threshold
	case CategoryPoints:
		// Completions award points, so both events re-check point thresholds.
		if ev.Kind != EventHabitCompleted && ev.Kind != EventPointsChanged {
			return false
		}
		return p.TotalPoints >= entry.Threshold
	case CategorySpecial:
		if ev.Kind != EventHabitCompleted {
			return false
		}
		return specialQualifies(entry.ID, ev.CompletionHour)
	default:
		return false
	}
}

func specialQualifies(id string, hour int) bool {
	switch id {
	case "early_bird":
		return hour >= earlyBirdStartHour && hour <= earlyBirdEndHour
	case "night_owl":
		return hour >= nightOwlStartHour || hour == 0
	default:
		// perfect_week has no trigger; it stays locked until one is defined.
		return false
	}
}
