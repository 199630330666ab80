package progress

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

type memoryStore struct {
	mu       sync.RWMutex
	progress map[string]Progress
	grants   map[string]map[string]Grant // userID -> achievementID -> Grant
}

// NewMemoryStore returns an in-memory store intended for local development and tests.
func NewMemoryStore() Store {
	return &memoryStore{
		progress: make(map[string]Progress),
		grants:   make(map[string]map[string]Grant),
	}
}

func (s *memoryStore) GetProgress(_ context.Context, userID string) (Progress, error) {
	if userID == "" {
		return Progress{}, ErrMissingUserID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.progress[userID]
	if !ok {
		return Progress{UserID: userID}, nil
	}
	return p, nil
}

func (s *memoryStore) RecordHabitCreated(_ context.Context, userID string) (Progress, error) {
	if userID == "" {
		return Progress{}, ErrMissingUserID
	}
	return s.mutate(userID, func(p *Progress) {
		p.TotalHabits++
	})
}

func (s *memoryStore) RecordCompletion(_ context.Context, userID string, points int) (Progress, error) {
	if userID == "" {
		return Progress{}, ErrMissingUserID
	}
	if points < 0 {
		return Progress{}, fmt.Errorf("%w: points must be non-negative", ErrInvalidInput)
	}
	return s.mutate(userID, func(p *Progress) {
		p.TotalCompletions++
		p.TotalPoints += points
	})
}

func (s *memoryStore) SetStreak(_ context.Context, userID string, days int) (Progress, error) {
	if userID == "" {
		return Progress{}, ErrMissingUserID
	}
	if days < 0 {
		return Progress{}, fmt.Errorf("%w: streak must be non-negative", ErrInvalidInput)
	}
	return s.mutate(userID, func(p *Progress) {
		p.CurrentStreak = days
	})
}

func (s *memoryStore) SetPoints(_ context.Context, userID string, total int) (Progress, error) {
	if userID == "" {
		return Progress{}, ErrMissingUserID
	}
	if total < 0 {
		return Progress{}, fmt.Errorf("%w: point total must be non-negative", ErrInvalidInput)
	}
	return s.mutate(userID, func(p *Progress) {
		p.TotalPoints = total
	})
}

// mutate applies fn under the write lock so concurrent events for the same
// user never lose updates.
func (s *memoryStore) mutate(userID string, fn func(*Progress)) (Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	p, ok := s.progress[userID]
	if !ok {
		p = Progress{UserID: userID, CreatedAt: now}
	}

	fn(&p)
	p.UpdatedAt = now
	s.progress[userID] = p
	return p, nil
}

func (s *memoryStore) IsUnlocked(_ context.Context, userID, achievementID string) (bool, error) {
	if userID == "" || achievementID == "" {
		return false, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	userGrants, ok := s.grants[userID]
	if !ok {
		return false, nil
	}
	_, unlocked := userGrants[achievementID]
	return unlocked, nil
}

func (s *memoryStore) MarkUnlocked(_ context.Context, userID string, grant Grant) (bool, error) {
	if userID == "" {
		return false, ErrMissingUserID
	}
	if grant.AchievementID == "" {
		return false, ErrMissingAchievementID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	userGrants, ok := s.grants[userID]
	if !ok {
		userGrants = make(map[string]Grant)
		s.grants[userID] = userGrants
	}

	if _, exists := userGrants[grant.AchievementID]; exists {
		return true, nil
	}

	grant.UserID = userID
	userGrants[grant.AchievementID] = grant
	return false, nil
}

func (s *memoryStore) UnlockedSet(_ context.Context, userID string) (map[string]bool, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	unlocked := make(map[string]bool, len(s.grants[userID]))
	for id := range s.grants[userID] {
		unlocked[id] = true
	}
	return unlocked, nil
}

func (s *memoryStore) ListGrants(_ context.Context, userID string) ([]Grant, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}

	s.mu.RLock()
	grants := make([]Grant, 0, len(s.grants[userID]))
	for _, g := range s.grants[userID] {
		grants = append(grants, g)
	}
	s.mu.RUnlock()

	sort.Slice(grants, func(i, j int) bool {
		if grants[i].DateEarned.Equal(grants[j].DateEarned) {
			return grants[i].AchievementID < grants[j].AchievementID
		}
		return grants[i].DateEarned.Before(grants[j].DateEarned)
	})
	return grants, nil
}
