package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/habitloop/achievement-service/internal/achievement"
)

const serviceTimeout = 8 * time.Second

// RegisterAchievementRoutes wires the achievement and activity routes onto the provided router.
func RegisterAchievementRoutes(r chi.Router, service achievement.Service, logger *slog.Logger) {
	r.Route("/v1/achievements", func(r chi.Router) {
		r.Use(middleware.Recoverer)

		r.Get("/", listCatalog(service, logger))
		r.Get("/me", getOverview(service, logger))
	})

	r.Route("/v1/progress", func(r chi.Router) {
		r.Use(middleware.Recoverer)

		r.Get("/me", getProgress(service, logger))
	})

	r.Route("/v1/activity", func(r chi.Router) {
		r.Use(middleware.Recoverer)

		r.Post("/streak", postStreak(service, logger))
		r.Post("/points", postPoints(service, logger))
	})
}

func listCatalog(service achievement.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		entries, err := service.ListCatalog(ctx)
		if err != nil {
			logRequestError(r.Context(), logger, "failed to list achievements", err, "")
			writeError(w, http.StatusInternalServerError, "failed to list achievements")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"achievements": entries})
	}
}

func getOverview(service achievement.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := requestUserID(r)
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "missing user ID")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		overview, err := service.GetOverview(ctx, userID)
		if err != nil {
			logRequestError(r.Context(), logger, "failed to load achievements overview", err, userID)
			writeError(w, domainStatus(err), "failed to load achievements")
			return
		}
		writeJSON(w, http.StatusOK, overview)
	}
}

func getProgress(service achievement.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := requestUserID(r)
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "missing user ID")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		p, err := service.GetProgress(ctx, userID)
		if err != nil {
			logRequestError(r.Context(), logger, "failed to load progress", err, userID)
			writeError(w, domainStatus(err), "failed to load progress")
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func postStreak(service achievement.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := requestUserID(r)
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "missing user ID")
			return
		}

		var body struct {
			Days int `json:"days"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		unlocked, err := service.OnStreakChanged(ctx, userID, body.Days)
		if err != nil {
			logRequestError(r.Context(), logger, "failed to record streak change", err, userID)
			writeError(w, domainStatus(err), "failed to record streak change")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"unlocked": unlocked})
	}
}

func postPoints(service achievement.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := requestUserID(r)
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "missing user ID")
			return
		}

		var body struct {
			Total int `json:"total"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		unlocked, err := service.OnPointsChanged(ctx, userID, body.Total)
		if err != nil {
			logRequestError(r.Context(), logger, "failed to record points change", err, userID)
			writeError(w, domainStatus(err), "failed to record points change")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"unlocked": unlocked})
	}
}
