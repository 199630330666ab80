package progress

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	progressCollection = "progress"
	grantsCollection   = "achievements"
)

type firestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore returns a Firestore-backed progress store.
func NewFirestoreStore(client *firestore.Client) Store {
	return &firestoreStore{client: client}
}

func (s *firestoreStore) progressRef(userID string) *firestore.DocumentRef {
	return s.client.Collection(progressCollection).Doc(userID)
}

// grantRef keys grant documents by the composite userID_achievementID so the
// conditional create is the idempotency barrier.
func (s *firestoreStore) grantRef(userID, achievementID string) *firestore.DocumentRef {
	return s.client.Collection(grantsCollection).Doc(userID + "_" + achievementID)
}

func (s *firestoreStore) GetProgress(ctx context.Context, userID string) (Progress, error) {
	if userID == "" {
		return Progress{}, ErrMissingUserID
	}

	doc, err := s.progressRef(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Progress{UserID: userID}, nil
	}
	if err != nil {
		return Progress{}, err
	}

	var p Progress
	if err := doc.DataTo(&p); err != nil {
		return Progress{}, fmt.Errorf("unmarshal progress: %w", err)
	}
	p.UserID = userID
	return p, nil
}

func (s *firestoreStore) RecordHabitCreated(ctx context.Context, userID string) (Progress, error) {
	if userID == "" {
		return Progress{}, ErrMissingUserID
	}
	return s.applyUpdates(ctx, userID, []firestore.Update{
		{Path: "total_habits", Value: firestore.Increment(1)},
	})
}

func (s *firestoreStore) RecordCompletion(ctx context.Context, userID string, points int) (Progress, error) {
	if userID == "" {
		return Progress{}, ErrMissingUserID
	}
	if points < 0 {
		return Progress{}, fmt.Errorf("%w: points must be non-negative", ErrInvalidInput)
	}
	return s.applyUpdates(ctx, userID, []firestore.Update{
		{Path: "total_completions", Value: firestore.Increment(1)},
		{Path: "total_points", Value: firestore.Increment(int64(points))},
	})
}

func (s *firestoreStore) SetStreak(ctx context.Context, userID string, days int) (Progress, error) {
	if userID == "" {
		return Progress{}, ErrMissingUserID
	}
	if days < 0 {
		return Progress{}, fmt.Errorf("%w: streak must be non-negative", ErrInvalidInput)
	}
	return s.applyUpdates(ctx, userID, []firestore.Update{
		{Path: "current_streak", Value: days},
	})
}

func (s *firestoreStore) SetPoints(ctx context.Context, userID string, total int) (Progress, error) {
	if userID == "" {
		return Progress{}, ErrMissingUserID
	}
	if total < 0 {
		return Progress{}, fmt.Errorf("%w: point total must be non-negative", ErrInvalidInput)
	}
	return s.applyUpdates(ctx, userID, []firestore.Update{
		{Path: "total_points", Value: total},
	})
}

// applyUpdates runs the counter mutation inside a transaction so a missing
// progress document is created exactly once before the first update lands.
func (s *firestoreStore) applyUpdates(ctx context.Context, userID string, updates []firestore.Update) (Progress, error) {
	ref := s.progressRef(userID)
	now := time.Now().UTC()

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); status.Code(err) == codes.NotFound {
			if err := tx.Set(ref, map[string]any{
				"user_id":           userID,
				"total_habits":      0,
				"total_completions": 0,
				"total_points":      0,
				"current_streak":    0,
				"created_at":        now,
				"updated_at":        now,
			}); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		return tx.Update(ref, append(updates, firestore.Update{Path: "updated_at", Value: now}))
	})
	if err != nil {
		return Progress{}, err
	}

	return s.GetProgress(ctx, userID)
}

func (s *firestoreStore) IsUnlocked(ctx context.Context, userID, achievementID string) (bool, error) {
	if userID == "" || achievementID == "" {
		return false, nil
	}
	_, err := s.grantRef(userID, achievementID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *firestoreStore) MarkUnlocked(ctx context.Context, userID string, grant Grant) (bool, error) {
	if userID == "" {
		return false, ErrMissingUserID
	}
	if grant.AchievementID == "" {
		return false, ErrMissingAchievementID
	}

	ref := s.grantRef(userID, grant.AchievementID)
	alreadyGranted := false

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		alreadyGranted = false

		_, getErr := tx.Get(ref)
		if getErr == nil {
			alreadyGranted = true
			return nil
		}
		if status.Code(getErr) != codes.NotFound {
			return getErr
		}

		if err := tx.Create(ref, map[string]any{
			"achievement_id": grant.AchievementID,
			"user_id":        userID,
			"title":          grant.Title,
			"description":    grant.Description,
			"date_earned":    grant.DateEarned,
		}); err != nil {
			// If a race created it, treat as already granted.
			if status.Code(err) == codes.AlreadyExists {
				alreadyGranted = true
				return nil
			}
			return err
		}

		return nil
	})
	if err != nil {
		return false, err
	}

	return alreadyGranted, nil
}

func (s *firestoreStore) UnlockedSet(ctx context.Context, userID string) (map[string]bool, error) {
	grants, err := s.ListGrants(ctx, userID)
	if err != nil {
		return nil, err
	}

	unlocked := make(map[string]bool, len(grants))
	for _, g := range grants {
		unlocked[g.AchievementID] = true
	}
	return unlocked, nil
}

func (s *firestoreStore) ListGrants(ctx context.Context, userID string) ([]Grant, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}

	iter := s.client.Collection(grantsCollection).
		Where("user_id", "==", userID).
		OrderBy("date_earned", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var grants []Grant
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var g Grant
		if err := doc.DataTo(&g); err != nil {
			return nil, fmt.Errorf("unmarshal grant: %w", err)
		}
		grants = append(grants, g)
	}
	return grants, nil
}
