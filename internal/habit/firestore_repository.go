package habit

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
	habitsCollection      = "habits"
	completionsCollection = "habit_completions"
)

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository instantiates a Firestore-backed habit repository.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) habitCollection(userID string) *firestore.CollectionRef {
	return r.client.Collection("users").Doc(userID).Collection(habitsCollection)
}

func (r *firestoreRepository) completionCollection(userID string) *firestore.CollectionRef {
	return r.client.Collection("users").Doc(userID).Collection(completionsCollection)
}

func (r *firestoreRepository) Create(ctx context.Context, habit Habit) error {
	data := map[string]any{
		"title":       habit.Title,
		"description": habit.Description,
		"frequency":   habit.Frequency,
		"points":      habit.Points,
		"created_at":  habit.CreatedAt,
		"deleted":     false,
	}

	_, err := r.habitCollection(habit.UserID).Doc(habit.ID).Create(ctx, data)
	if status.Code(err) == codes.AlreadyExists {
		return ErrConflict
	}
	return err
}

func (r *firestoreRepository) GetByID(ctx context.Context, userID, habitID string) (Habit, error) {
	doc, err := r.habitCollection(userID).Doc(habitID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Habit{}, ErrNotFound
	}
	if err != nil {
		return Habit{}, err
	}

	if deleted, ok := doc.Data()["deleted"].(bool); ok && deleted {
		return Habit{}, ErrNotFound
	}

	return snapshotToHabit(userID, doc)
}

func (r *firestoreRepository) List(ctx context.Context, userID string) ([]Habit, error) {
	iter := r.habitCollection(userID).
		Where("deleted", "==", false).
		OrderBy("created_at", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var habits []Habit
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		habit, err := snapshotToHabit(userID, doc)
		if err != nil {
			return nil, err
		}
		habits = append(habits, habit)
	}
	return habits, nil
}

func (r *firestoreRepository) Delete(ctx context.Context, userID, habitID string, deletedAt time.Time) error {
	ref := r.habitCollection(userID).Doc(habitID)
	doc, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if deleted, ok := doc.Data()["deleted"].(bool); ok && deleted {
		return ErrNotFound
	}

	_, err = ref.Update(ctx, []firestore.Update{
		{Path: "deleted", Value: true},
		{Path: "deleted_at", Value: deletedAt},
	})
	return err
}

func (r *firestoreRepository) MarkCompleted(ctx context.Context, userID string, completion Completion) (bool, error) {
	ref := r.completionCollection(userID).Doc(completion.HabitID + "_" + completion.Day)
	_, err := ref.Create(ctx, map[string]any{
		"habit_id":     completion.HabitID,
		"day":          completion.Day,
		"completed_at": completion.CompletedAt,
	})
	if status.Code(err) == codes.AlreadyExists {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

func (r *firestoreRepository) CompletionDays(ctx context.Context, userID string, since time.Time) (map[string]bool, error) {
	iter := r.completionCollection(userID).
		Where("completed_at", ">=", since).
		Documents(ctx)
	defer iter.Stop()

	days := make(map[string]bool)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		if day, ok := doc.Data()["day"].(string); ok && day != "" {
			days[day] = true
		}
	}
	return days, nil
}

func snapshotToHabit(userID string, doc *firestore.DocumentSnapshot) (Habit, error) {
	var payload struct {
		Title       string    `firestore:"title"`
		Description string    `firestore:"description"`
		Frequency   string    `firestore:"frequency"`
		Points      int       `firestore:"points"`
		CreatedAt   time.Time `firestore:"created_at"`
	}
	if err := doc.DataTo(&payload); err != nil {
		return Habit{}, fmt.Errorf("decode habit snapshot: %w", err)
	}

	return Habit{
		ID:          doc.Ref.ID,
		UserID:      userID,
		Title:       payload.Title,
		Description: payload.Description,
		Frequency:   payload.Frequency,
		Points:      payload.Points,
		CreatedAt:   payload.CreatedAt,
	}, nil
}
