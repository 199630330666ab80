package achievement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/habitloop/achievement-service/internal/progress"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type fakeStore struct {
	getProgressFn        func(context.Context, string) (progress.Progress, error)
	recordHabitCreatedFn func(context.Context, string) (progress.Progress, error)
	recordCompletionFn   func(context.Context, string, int) (progress.Progress, error)
	setStreakFn          func(context.Context, string, int) (progress.Progress, error)
	setPointsFn          func(context.Context, string, int) (progress.Progress, error)
	isUnlockedFn         func(context.Context, string, string) (bool, error)
	markUnlockedFn       func(context.Context, string, progress.Grant) (bool, error)
	unlockedSetFn        func(context.Context, string) (map[string]bool, error)
	listGrantsFn         func(context.Context, string) ([]progress.Grant, error)
}

func (f *fakeStore) GetProgress(ctx context.Context, userID string) (progress.Progress, error) {
	if f.getProgressFn != nil {
		return f.getProgressFn(ctx, userID)
	}
	return progress.Progress{UserID: userID}, nil
}

func (f *fakeStore) RecordHabitCreated(ctx context.Context, userID string) (progress.Progress, error) {
	if f.recordHabitCreatedFn != nil {
		return f.recordHabitCreatedFn(ctx, userID)
	}
	return progress.Progress{}, errors.New("recordHabitCreatedFn not provided")
}

func (f *fakeStore) RecordCompletion(ctx context.Context, userID string, points int) (progress.Progress, error) {
	if f.recordCompletionFn != nil {
		return f.recordCompletionFn(ctx, userID, points)
	}
	return progress.Progress{}, errors.New("recordCompletionFn not provided")
}

func (f *fakeStore) SetStreak(ctx context.Context, userID string, days int) (progress.Progress, error) {
	if f.setStreakFn != nil {
		return f.setStreakFn(ctx, userID, days)
	}
	return progress.Progress{}, errors.New("setStreakFn not provided")
}

func (f *fakeStore) SetPoints(ctx context.Context, userID string, total int) (progress.Progress, error) {
	if f.setPointsFn != nil {
		return f.setPointsFn(ctx, userID, total)
	}
	return progress.Progress{}, errors.New("setPointsFn not provided")
}

func (f *fakeStore) IsUnlocked(ctx context.Context, userID, achievementID string) (bool, error) {
	if f.isUnlockedFn != nil {
		return f.isUnlockedFn(ctx, userID, achievementID)
	}
	return false, nil
}

func (f *fakeStore) MarkUnlocked(ctx context.Context, userID string, grant progress.Grant) (bool, error) {
	if f.markUnlockedFn != nil {
		return f.markUnlockedFn(ctx, userID, grant)
	}
	return false, nil
}

func (f *fakeStore) UnlockedSet(ctx context.Context, userID string) (map[string]bool, error) {
	if f.unlockedSetFn != nil {
		return f.unlockedSetFn(ctx, userID)
	}
	return map[string]bool{}, nil
}

func (f *fakeStore) ListGrants(ctx context.Context, userID string) ([]progress.Grant, error) {
	if f.listGrantsFn != nil {
		return f.listGrantsFn(ctx, userID)
	}
	return nil, nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	granted []string
}

func (n *recordingNotifier) AchievementGranted(_ context.Context, _ string, ach Achievement, _ time.Time) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.granted = append(n.granted, ach.ID)
}

func newTestService(t *testing.T, store progress.Store, notifier Notifier) Service {
	t.Helper()
	svc, err := NewService(NewCatalog(), store, notifier, fixedClock{now: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return svc
}

func grantIDs(grants []progress.Grant) []string {
	out := make([]string, 0, len(grants))
	for _, g := range grants {
		out = append(out, g.AchievementID)
	}
	return out
}

func TestOnHabitCreatedGrantsFirstHabit(t *testing.T) {
	store := progress.NewMemoryStore()
	notifier := &recordingNotifier{}
	svc := newTestService(t, store, notifier)

	granted, err := svc.OnHabitCreated(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("OnHabitCreated returned error: %v", err)
	}
	if len(granted) != 1 || granted[0].AchievementID != "first_habit" {
		t.Fatalf("expected first_habit, got %v", grantIDs(granted))
	}
	if granted[0].Title != "First Steps" {
		t.Fatalf("expected grant to carry display metadata, got %+v", granted[0])
	}
	if len(notifier.granted) != 1 || notifier.granted[0] != "first_habit" {
		t.Fatalf("expected notifier to observe first_habit, got %v", notifier.granted)
	}
}

func TestGrantIdempotence(t *testing.T) {
	store := progress.NewMemoryStore()
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	granted, err := svc.OnStreakChanged(ctx, "user-1", 7)
	if err != nil {
		t.Fatalf("OnStreakChanged returned error: %v", err)
	}
	if len(granted) != 2 {
		t.Fatalf("expected streak_3 and streak_7, got %v", grantIDs(granted))
	}

	// The same event again grants nothing new.
	granted, err = svc.OnStreakChanged(ctx, "user-1", 7)
	if err != nil {
		t.Fatalf("OnStreakChanged returned error: %v", err)
	}
	if len(granted) != 0 {
		t.Fatalf("expected no repeat grants, got %v", grantIDs(granted))
	}

	grants, err := store.ListGrants(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListGrants returned error: %v", err)
	}
	count := 0
	for _, g := range grants {
		if g.AchievementID == "streak_7" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one streak_7 grant, found %d", count)
	}
}

func TestStreakResetDoesNotRevoke(t *testing.T) {
	store := progress.NewMemoryStore()
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	if _, err := svc.OnStreakChanged(ctx, "user-1", 7); err != nil {
		t.Fatalf("OnStreakChanged returned error: %v", err)
	}
	if _, err := svc.OnStreakChanged(ctx, "user-1", 0); err != nil {
		t.Fatalf("OnStreakChanged returned error: %v", err)
	}

	unlocked, err := store.UnlockedSet(ctx, "user-1")
	if err != nil {
		t.Fatalf("UnlockedSet returned error: %v", err)
	}
	if !unlocked["streak_7"] {
		t.Fatalf("streak_7 must survive a streak reset")
	}

	// A later re-climb re-triggers only thresholds not yet unlocked.
	granted, err := svc.OnStreakChanged(ctx, "user-1", 30)
	if err != nil {
		t.Fatalf("OnStreakChanged returned error: %v", err)
	}
	if len(granted) != 1 || granted[0].AchievementID != "streak_30" {
		t.Fatalf("expected only streak_30, got %v", grantIDs(granted))
	}
}

func TestConcurrentCompletionGrantsOnce(t *testing.T) {
	store := progress.NewMemoryStore()
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([][]progress.Grant, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			granted, err := svc.OnHabitCompleted(ctx, "user-1", 10, 12)
			if err != nil {
				t.Errorf("OnHabitCompleted returned error: %v", err)
				return
			}
			results[i] = granted
		}(i)
	}
	wg.Wait()

	firstCompletionGrants := 0
	for _, granted := range results {
		for _, g := range granted {
			if g.AchievementID == "first_completion" {
				firstCompletionGrants++
			}
		}
	}
	if firstCompletionGrants != 1 {
		t.Fatalf("expected exactly one first_completion grant across racers, got %d", firstCompletionGrants)
	}

	grants, err := store.ListGrants(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListGrants returned error: %v", err)
	}
	persisted := 0
	for _, g := range grants {
		if g.AchievementID == "first_completion" {
			persisted++
		}
	}
	if persisted != 1 {
		t.Fatalf("expected exactly one persisted first_completion record, got %d", persisted)
	}
}

func TestCounterFailureAbortsEvaluation(t *testing.T) {
	wantErr := errors.New("firestore unavailable")
	evaluated := false
	store := &fakeStore{
		recordCompletionFn: func(context.Context, string, int) (progress.Progress, error) {
			return progress.Progress{}, wantErr
		},
		unlockedSetFn: func(context.Context, string) (map[string]bool, error) {
			evaluated = true
			return map[string]bool{}, nil
		},
	}
	svc := newTestService(t, store, nil)

	if _, err := svc.OnHabitCompleted(context.Background(), "user-1", 10, 6); !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
	if evaluated {
		t.Fatalf("evaluation must not run after a failed counter update")
	}
}

func TestGrantFailurePropagates(t *testing.T) {
	wantErr := errors.New("write failed")
	store := &fakeStore{
		recordHabitCreatedFn: func(_ context.Context, userID string) (progress.Progress, error) {
			return progress.Progress{UserID: userID, TotalHabits: 1}, nil
		},
		markUnlockedFn: func(context.Context, string, progress.Grant) (bool, error) {
			return false, wantErr
		},
	}
	svc := newTestService(t, store, nil)

	if _, err := svc.OnHabitCreated(context.Background(), "user-1"); !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
}

func TestInvalidInputRejected(t *testing.T) {
	svc := newTestService(t, progress.NewMemoryStore(), nil)
	ctx := context.Background()

	cases := []struct {
		name string
		call func() error
	}{
		{"missing user", func() error { _, err := svc.OnHabitCreated(ctx, ""); return err }},
		{"negative points", func() error { _, err := svc.OnHabitCompleted(ctx, "u", -1, 12); return err }},
		{"hour too large", func() error { _, err := svc.OnHabitCompleted(ctx, "u", 10, 24); return err }},
		{"negative hour", func() error { _, err := svc.OnHabitCompleted(ctx, "u", 10, -1); return err }},
		{"negative streak", func() error { _, err := svc.OnStreakChanged(ctx, "u", -5); return err }},
		{"negative total", func() error { _, err := svc.OnPointsChanged(ctx, "u", -100); return err }},
	}
	for _, tc := range cases {
		if err := tc.call(); err == nil {
			t.Fatalf("%s: expected an error", tc.name)
		}
	}
}

func TestEndToEndScenario(t *testing.T) {
	store := progress.NewMemoryStore()
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	granted, err := svc.OnHabitCreated(ctx, "user-1")
	if err != nil {
		t.Fatalf("OnHabitCreated returned error: %v", err)
	}
	if len(granted) != 1 || granted[0].AchievementID != "first_habit" {
		t.Fatalf("expected first_habit, got %v", grantIDs(granted))
	}

	for i := 0; i < 3; i++ {
		if _, err := svc.OnHabitCreated(ctx, "user-1"); err != nil {
			t.Fatalf("OnHabitCreated returned error: %v", err)
		}
	}
	granted, err = svc.OnHabitCreated(ctx, "user-1")
	if err != nil {
		t.Fatalf("OnHabitCreated returned error: %v", err)
	}
	if len(granted) != 1 || granted[0].AchievementID != "five_habits" {
		t.Fatalf("expected five_habits on the fifth habit, got %v", grantIDs(granted))
	}

	// One completion worth 50 points at 6 in the morning: first_completion and
	// early_bird unlock, but 50 < 100 so no points achievement yet.
	granted, err = svc.OnHabitCompleted(ctx, "user-1", 50, 6)
	if err != nil {
		t.Fatalf("OnHabitCompleted returned error: %v", err)
	}
	got := grantIDs(granted)
	if len(got) != 2 || got[0] != "first_completion" || got[1] != "early_bird" {
		t.Fatalf("expected [first_completion early_bird], got %v", got)
	}

	p, err := store.GetProgress(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetProgress returned error: %v", err)
	}
	if p.TotalHabits != 5 || p.TotalCompletions != 1 || p.TotalPoints != 50 {
		t.Fatalf("unexpected progress snapshot: %+v", p)
	}
}

func TestGetOverviewMergesGrants(t *testing.T) {
	store := progress.NewMemoryStore()
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	if _, err := svc.OnHabitCreated(ctx, "user-1"); err != nil {
		t.Fatalf("OnHabitCreated returned error: %v", err)
	}

	overview, err := svc.GetOverview(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetOverview returned error: %v", err)
	}

	if overview.TotalCount != NewCatalog().Len() {
		t.Fatalf("expected overview to cover the whole catalog, got %d", overview.TotalCount)
	}
	if overview.EarnedCount != 1 {
		t.Fatalf("expected one earned achievement, got %d", overview.EarnedCount)
	}

	for _, st := range overview.Achievements {
		if st.ID == "first_habit" {
			if !st.Earned || st.DateEarned == nil {
				t.Fatalf("first_habit should be earned with a date: %+v", st)
			}
		} else if st.Earned {
			t.Fatalf("unexpected earned achievement %q", st.ID)
		}
	}
}
