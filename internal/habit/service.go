package habit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/habitloop/achievement-service/internal/achievement"
	"github.com/habitloop/achievement-service/internal/progress"
)

// streakLookbackDays bounds the completion-day scan used to derive the
// current streak. More than enough for the 30-day streak milestone.
const streakLookbackDays = 45

// CompleteResult summarizes a completion event and everything it unlocked.
type CompleteResult struct {
	Habit            Habit            `json:"habit"`
	Day              string           `json:"day"`
	AlreadyCompleted bool             `json:"already_completed"`
	PointsAwarded    int              `json:"points_awarded"`
	CurrentStreak    int              `json:"current_streak"`
	Unlocked         []progress.Grant `json:"unlocked"`
}

// Service orchestrates habit management and reports activity events to the
// achievement service.
type Service struct {
	repo         Repository
	achievements achievement.Service
	clock        Clock
	ids          IDGenerator
}

// NewService constructs a Service instance with the provided collaborators.
func NewService(repo Repository, achievements achievement.Service, clock Clock, ids IDGenerator) (*Service, error) {
	if repo == nil {
		return nil, errors.New("repo is required")
	}
	if achievements == nil {
		return nil, errors.New("achievement service is required")
	}
	if clock == nil {
		return nil, errors.New("clock is required")
	}
	if ids == nil {
		return nil, errors.New("id generator is required")
	}
	return &Service{repo: repo, achievements: achievements, clock: clock, ids: ids}, nil
}

// Create registers a new habit and reports the creation event.
func (s *Service) Create(ctx context.Context, input CreateInput) (Habit, []progress.Grant, error) {
	if err := input.Validate(); err != nil {
		return Habit{}, nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	points := input.Points
	if points == 0 {
		points = defaultPoints
	}
	frequency := input.Frequency
	if frequency == "" {
		frequency = defaultFrequency
	}

	habit := Habit{
		ID:          s.ids.NewID(),
		UserID:      input.UserID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Frequency:   frequency,
		Points:      points,
		CreatedAt:   s.clock.Now().UTC(),
	}

	if err := s.repo.Create(ctx, habit); err != nil {
		return Habit{}, nil, err
	}

	unlocked, err := s.achievements.OnHabitCreated(ctx, input.UserID)
	if err != nil {
		return habit, nil, err
	}

	return habit, unlocked, nil
}

// Get retrieves a single habit by its ID for the provided user.
func (s *Service) Get(ctx context.Context, userID, habitID string) (Habit, error) {
	if userID == "" || habitID == "" {
		return Habit{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, userID, habitID)
}

// List returns all active habits for the user.
func (s *Service) List(ctx context.Context, userID string) ([]Habit, error) {
	if userID == "" {
		return nil, ErrNotFound
	}
	return s.repo.List(ctx, userID)
}

// Delete removes a habit. Progress counters and grants are untouched:
// achievements are permanent.
func (s *Service) Delete(ctx context.Context, userID, habitID string) error {
	if userID == "" || habitID == "" {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, userID, habitID, s.clock.Now().UTC())
}

// Complete records a completion of the habit for the local day containing at,
// awards the habit's points once per day, recomputes the streak, and reports
// both events to the achievement service. at carries the user's local time so
// the time-of-day achievements see the right hour.
func (s *Service) Complete(ctx context.Context, userID, habitID string, at time.Time) (*CompleteResult, error) {
	if userID == "" || habitID == "" {
		return nil, ErrNotFound
	}
	if at.IsZero() {
		at = s.clock.Now()
	}

	habit, err := s.repo.GetByID(ctx, userID, habitID)
	if err != nil {
		return nil, err
	}

	day := at.Format(dayLayout)
	alreadyCompleted, err := s.repo.MarkCompleted(ctx, userID, Completion{
		HabitID:     habitID,
		Day:         day,
		CompletedAt: at.UTC(),
	})
	if err != nil {
		return nil, err
	}

	result := &CompleteResult{Habit: habit, Day: day, AlreadyCompleted: alreadyCompleted}
	if alreadyCompleted {
		streak, err := s.currentStreak(ctx, userID, at)
		if err != nil {
			return nil, err
		}
		result.CurrentStreak = streak
		return result, nil
	}

	unlocked, err := s.achievements.OnHabitCompleted(ctx, userID, habit.Points, at.Hour())
	if err != nil {
		return nil, err
	}
	result.PointsAwarded = habit.Points
	result.Unlocked = unlocked

	streak, err := s.currentStreak(ctx, userID, at)
	if err != nil {
		return nil, err
	}
	result.CurrentStreak = streak

	streakUnlocked, err := s.achievements.OnStreakChanged(ctx, userID, streak)
	if err != nil {
		return nil, err
	}
	result.Unlocked = append(result.Unlocked, streakUnlocked...)

	return result, nil
}

// currentStreak counts consecutive completion days ending with the day of at.
func (s *Service) currentStreak(ctx context.Context, userID string, at time.Time) (int, error) {
	since := at.AddDate(0, 0, -streakLookbackDays)
	days, err := s.repo.CompletionDays(ctx, userID, since)
	if err != nil {
		return 0, err
	}

	streak := 0
	for i := 0; i <= streakLookbackDays; i++ {
		key := at.AddDate(0, 0, -i).Format(dayLayout)
		if !days[key] {
			break
		}
		streak++
	}
	return streak, nil
}
