package habit

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu          sync.RWMutex
	habits      map[string]map[string]Habit      // userID -> habitID -> Habit
	completions map[string]map[string]Completion // userID -> habitID_day -> Completion
}

// NewMemoryRepository returns an in-memory repository intended for local development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		habits:      make(map[string]map[string]Habit),
		completions: make(map[string]map[string]Completion),
	}
}

func (r *memoryRepository) Create(_ context.Context, habit Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	userHabits, ok := r.habits[habit.UserID]
	if !ok {
		userHabits = make(map[string]Habit)
		r.habits[habit.UserID] = userHabits
	}

	if _, exists := userHabits[habit.ID]; exists {
		return ErrConflict
	}

	userHabits[habit.ID] = habit
	return nil
}

func (r *memoryRepository) GetByID(_ context.Context, userID, habitID string) (Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	habit, ok := r.habits[userID][habitID]
	if !ok || habit.DeletedAt != nil {
		return Habit{}, ErrNotFound
	}
	return habit, nil
}

func (r *memoryRepository) List(_ context.Context, userID string) ([]Habit, error) {
	r.mu.RLock()
	habits := make([]Habit, 0, len(r.habits[userID]))
	for _, habit := range r.habits[userID] {
		if habit.DeletedAt != nil {
			continue
		}
		habits = append(habits, habit)
	}
	r.mu.RUnlock()

	sort.Slice(habits, func(i, j int) bool {
		return habits[i].CreatedAt.Before(habits[j].CreatedAt)
	})
	return habits, nil
}

func (r *memoryRepository) Delete(_ context.Context, userID, habitID string, deletedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	habit, ok := r.habits[userID][habitID]
	if !ok || habit.DeletedAt != nil {
		return ErrNotFound
	}

	habit.DeletedAt = &deletedAt
	r.habits[userID][habitID] = habit
	return nil
}

func (r *memoryRepository) MarkCompleted(_ context.Context, userID string, completion Completion) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userCompletions, ok := r.completions[userID]
	if !ok {
		userCompletions = make(map[string]Completion)
		r.completions[userID] = userCompletions
	}

	key := completion.HabitID + "_" + completion.Day
	if _, exists := userCompletions[key]; exists {
		return true, nil
	}

	userCompletions[key] = completion
	return false, nil
}

func (r *memoryRepository) CompletionDays(_ context.Context, userID string, since time.Time) (map[string]bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	days := make(map[string]bool)
	for _, completion := range r.completions[userID] {
		if completion.CompletedAt.Before(since) {
			continue
		}
		days[completion.Day] = true
	}
	return days, nil
}
