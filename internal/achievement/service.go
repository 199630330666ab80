package achievement

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/habitloop/achievement-service/internal/progress"
)

type service struct {
	catalog  *Catalog
	store    progress.Store
	notifier Notifier
	clock    Clock
}

// NewService wires the catalog, progress store and notifier into the
// activity-event entry points.
func NewService(catalog *Catalog, store progress.Store, notifier Notifier, clock Clock) (Service, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if clock == nil {
		return nil, fmt.Errorf("clock is required")
	}
	return &service{catalog: catalog, store: store, notifier: notifier, clock: clock}, nil
}

func (s *service) OnHabitCreated(ctx context.Context, userID string) ([]progress.Grant, error) {
	if userID == "" {
		return nil, progress.ErrMissingUserID
	}

	p, err := s.store.RecordHabitCreated(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.evaluateAndGrant(ctx, userID, p, Event{Kind: EventHabitCreated})
}

func (s *service) OnHabitCompleted(ctx context.Context, userID string, pointsAwarded, completionHour int) ([]progress.Grant, error) {
	if userID == "" {
		return nil, progress.ErrMissingUserID
	}
	if pointsAwarded < 0 {
		return nil, fmt.Errorf("%w: points awarded must be non-negative", progress.ErrInvalidInput)
	}
	if completionHour < 0 || completionHour > 23 {
		return nil, fmt.Errorf("%w: completion hour must be in [0,23]", progress.ErrInvalidInput)
	}

	p, err := s.store.RecordCompletion(ctx, userID, pointsAwarded)
	if err != nil {
		return nil, err
	}

	return s.evaluateAndGrant(ctx, userID, p, Event{Kind: EventHabitCompleted, CompletionHour: completionHour})
}

func (s *service) OnStreakChanged(ctx context.Context, userID string, days int) ([]progress.Grant, error) {
	if userID == "" {
		return nil, progress.ErrMissingUserID
	}
	if days < 0 {
		return nil, fmt.Errorf("%w: streak must be non-negative", progress.ErrInvalidInput)
	}

	p, err := s.store.SetStreak(ctx, userID, days)
	if err != nil {
		return nil, err
	}

	return s.evaluateAndGrant(ctx, userID, p, Event{Kind: EventStreakChanged})
}

func (s *service) OnPointsChanged(ctx context.Context, userID string, total int) ([]progress.Grant, error) {
	if userID == "" {
		return nil, progress.ErrMissingUserID
	}
	if total < 0 {
		return nil, fmt.Errorf("%w: point total must be non-negative", progress.ErrInvalidInput)
	}

	p, err := s.store.SetPoints(ctx, userID, total)
	if err != nil {
		return nil, err
	}

	return s.evaluateAndGrant(ctx, userID, p, Event{Kind: EventPointsChanged})
}

// evaluateAndGrant runs the pure evaluation against the fresh counter
// snapshot and persists each newly-qualifying grant. The store's conditional
// create resolves races: a grant that lost the race is skipped silently, a
// persistence failure stops the pass and surfaces to the caller.
func (s *service) evaluateAndGrant(ctx context.Context, userID string, p progress.Progress, ev Event) ([]progress.Grant, error) {
	unlocked, err := s.store.UnlockedSet(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidates := Evaluate(s.catalog.All(), p, unlocked, ev)
	if len(candidates) == 0 {
		return nil, nil
	}

	now := s.clock.Now().UTC()
	var granted []progress.Grant
	for _, ach := range candidates {
		grant := progress.Grant{
			AchievementID: ach.ID,
			UserID:        userID,
			Title:         s.catalog.DisplayTitle(ach.ID),
			Description:   s.catalog.DisplayDescription(ach.ID),
			DateEarned:    now,
		}

		alreadyGranted, err := s.store.MarkUnlocked(ctx, userID, grant)
		if err != nil {
			return granted, err
		}
		if alreadyGranted {
			continue
		}

		granted = append(granted, grant)
		if s.notifier != nil {
			s.notifier.AchievementGranted(ctx, userID, ach, now)
		}
	}

	return granted, nil
}

func (s *service) ListCatalog(_ context.Context) ([]Achievement, error) {
	return s.catalog.All(), nil
}

func (s *service) GetOverview(ctx context.Context, userID string) (*Overview, error) {
	if userID == "" {
		return nil, progress.ErrMissingUserID
	}

	var (
		p      progress.Progress
		grants []progress.Grant
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		snapshot, err := s.store.GetProgress(ctx, userID)
		if err != nil {
			return err
		}
		p = snapshot
		return nil
	})

	g.Go(func() error {
		list, err := s.store.ListGrants(ctx, userID)
		if err != nil {
			return err
		}
		grants = list
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	earnedAt := make(map[string]progress.Grant, len(grants))
	for _, grant := range grants {
		earnedAt[grant.AchievementID] = grant
	}

	statuses := make([]Status, 0, s.catalog.Len())
	earnedCount := 0
	for _, entry := range s.catalog.All() {
		st := Status{Achievement: entry}
		if grant, ok := earnedAt[entry.ID]; ok {
			st.Earned = true
			date := grant.DateEarned
			st.DateEarned = &date
			earnedCount++
		}
		statuses = append(statuses, st)
	}

	return &Overview{
		TotalPoints:      p.TotalPoints,
		TotalCompletions: p.TotalCompletions,
		CurrentStreak:    p.CurrentStreak,
		EarnedCount:      earnedCount,
		TotalCount:       s.catalog.Len(),
		Achievements:     statuses,
	}, nil
}

func (s *service) GetProgress(ctx context.Context, userID string) (progress.Progress, error) {
	if userID == "" {
		return progress.Progress{}, progress.ErrMissingUserID
	}
	return s.store.GetProgress(ctx, userID)
}
