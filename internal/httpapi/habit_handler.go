package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/habitloop/achievement-service/internal/habit"
)

// RegisterHabitRoutes wires the habit management routes onto the provided router.
func RegisterHabitRoutes(r chi.Router, service *habit.Service, logger *slog.Logger) {
	r.Route("/v1/habits", func(r chi.Router) {
		r.Use(middleware.Recoverer)

		r.Get("/", listHabits(service, logger))
		r.Post("/", createHabit(service, logger))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", getHabit(service, logger))
			r.Delete("/", deleteHabit(service, logger))
			r.Post("/complete", completeHabit(service, logger))
		})
	})
}

type createHabitRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Frequency   string `json:"frequency"`
	Points      int    `json:"points"`
}

func createHabit(service *habit.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := requestUserID(r)
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "missing user ID")
			return
		}

		var body createHabitRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		created, unlocked, err := service.Create(ctx, habit.CreateInput{
			UserID:      userID,
			Title:       body.Title,
			Description: body.Description,
			Frequency:   body.Frequency,
			Points:      body.Points,
		})
		if err != nil {
			logRequestError(r.Context(), logger, "failed to create habit", err, userID)
			writeError(w, domainStatus(err), "failed to create habit")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"habit": created, "unlocked": unlocked})
	}
}

func listHabits(service *habit.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := requestUserID(r)
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "missing user ID")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		habits, err := service.List(ctx, userID)
		if err != nil {
			logRequestError(r.Context(), logger, "failed to list habits", err, userID)
			writeError(w, domainStatus(err), "failed to list habits")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"habits": habits})
	}
}

func getHabit(service *habit.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := requestUserID(r)
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "missing user ID")
			return
		}
		habitID := chi.URLParam(r, "id")
		if strings.TrimSpace(habitID) == "" {
			writeError(w, http.StatusBadRequest, "missing habit id")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		found, err := service.Get(ctx, userID, habitID)
		if err != nil {
			logRequestError(r.Context(), logger, "failed to load habit", err, userID)
			writeError(w, domainStatus(err), "failed to load habit")
			return
		}
		writeJSON(w, http.StatusOK, found)
	}
}

func deleteHabit(service *habit.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := requestUserID(r)
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "missing user ID")
			return
		}
		habitID := chi.URLParam(r, "id")
		if strings.TrimSpace(habitID) == "" {
			writeError(w, http.StatusBadRequest, "missing habit id")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		if err := service.Delete(ctx, userID, habitID); err != nil {
			logRequestError(r.Context(), logger, "failed to delete habit", err, userID)
			writeError(w, domainStatus(err), "failed to delete habit")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type completeHabitRequest struct {
	// CompletedAt is the client's local completion time, RFC 3339. The offset
	// matters: the hour of day feeds the time-of-day achievements.
	CompletedAt *string `json:"completed_at"`
}

func completeHabit(service *habit.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := requestUserID(r)
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "missing user ID")
			return
		}
		habitID := chi.URLParam(r, "id")
		if strings.TrimSpace(habitID) == "" {
			writeError(w, http.StatusBadRequest, "missing habit id")
			return
		}

		var body completeHabitRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
		}

		var completedAt time.Time
		if body.CompletedAt != nil {
			parsed, err := time.Parse(time.RFC3339, *body.CompletedAt)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid completed_at timestamp")
				return
			}
			completedAt = parsed
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		result, err := service.Complete(ctx, userID, habitID, completedAt)
		if err != nil {
			logRequestError(r.Context(), logger, "failed to complete habit", err, userID)
			writeError(w, domainStatus(err), "failed to complete habit")
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
