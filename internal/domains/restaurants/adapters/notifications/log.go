package notifications

import (
	"context"
	"log/slog"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/ports"
)

var _ ports.NotificationPort = (*LogSender)(nil)

// LogSender writes notifications to the log instead of delivering them. Local development only.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender falls back to slog.Default when logger is nil.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// Send logs the envelope; the body may contain a temporary password and is omitted.
func (s *LogSender) Send(ctx context.Context, n ports.Notification) error {
	s.logger.LogAttrs(ctx, slog.LevelInfo, "notification dispatched",
		slog.String("notification.kind", string(n.Kind)),
		slog.Int64("restaurant.id", n.RestaurantID),
		slog.String("notification.to", n.To),
		slog.String("notification.subject", n.Subject),
	)
	return nil
}
