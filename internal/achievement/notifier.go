package achievement

import (
	"context"
	"log/slog"
	"time"

	"github.com/habitloop/achievement-service/internal/events"
	"github.com/habitloop/achievement-service/internal/pubsub"
)

type logNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a Notifier that records granted achievements as
// structured log events on the achievement topic. A message broker can be
// slotted in behind the same interface without touching the service.
func NewLogNotifier(logger *slog.Logger) Notifier {
	return &logNotifier{logger: logger}
}

func (n *logNotifier) AchievementGranted(ctx context.Context, userID string, ach Achievement, earnedAt time.Time) {
	if n.logger == nil {
		return
	}

	payload := events.AchievementGranted{
		UserID:        userID,
		AchievementID: ach.ID,
		Title:         ach.Title,
		Category:      string(ach.Category),
		EarnedAt:      earnedAt,
	}

	n.logger.InfoContext(ctx, "achievement granted",
		slog.String("topic", pubsub.TopicAchievementEvents),
		slog.String("userId", payload.UserID),
		slog.String("achievementId", payload.AchievementID),
		slog.String("category", payload.Category),
		slog.Time("earnedAt", payload.EarnedAt),
	)
}
