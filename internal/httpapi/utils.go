package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/habitloop/achievement-service/internal/achievement"
	"github.com/habitloop/achievement-service/internal/auth"
	apierrors "github.com/habitloop/achievement-service/internal/errors"
	"github.com/habitloop/achievement-service/internal/habit"
	"github.com/habitloop/achievement-service/internal/progress"
)

type errorResponse = apierrors.ErrorResponse

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	code := strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// domainStatus maps domain errors onto HTTP statuses; anything unrecognized is
// treated as a persistence failure.
func domainStatus(err error) int {
	switch {
	case errors.Is(err, habit.ErrNotFound), errors.Is(err, achievement.ErrUnknownAchievement):
		return apierrors.ToStatusCode("not_found")
	case errors.Is(err, habit.ErrInvalidInput),
		errors.Is(err, progress.ErrInvalidInput),
		errors.Is(err, progress.ErrMissingUserID),
		errors.Is(err, progress.ErrMissingAchievementID):
		return apierrors.ToStatusCode("bad_request")
	case errors.Is(err, habit.ErrConflict):
		return apierrors.ToStatusCode("conflict")
	default:
		return apierrors.ToStatusCode("internal")
	}
}

// requestUserID resolves the authenticated subject, falling back to the
// internal service-to-service header.
func requestUserID(r *http.Request) string {
	if user, ok := auth.UserFromContext(r.Context()); ok && user.UserID != "" {
		return user.UserID
	}
	if v := r.Header.Get("X-User-ID"); v != "" {
		return v
	}
	return r.Header.Get("x-user-id")
}

func logRequestError(ctx context.Context, logger *slog.Logger, message string, err error, userID string) {
	if logger == nil || err == nil {
		return
	}
	attrs := []any{
		slog.String("userId", userID),
		slog.Any("error", err),
	}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		attrs = append(attrs, slog.String("requestId", reqID))
	}
	logger.Error(message, attrs...)
}
