// Package rabbitmq dials the AMQP broker used for notification dispatch.
package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	defaultAttempts = 5
	defaultBackoff  = 2 * time.Second
)

// Dial connects to uri, retrying while the broker starts up.
func Dial(ctx context.Context, uri string, logger *slog.Logger) (*amqp.Connection, error) {
	return dialWith(ctx, uri, logger, amqp.Dial, defaultAttempts, defaultBackoff)
}

func dialWith(ctx context.Context, uri string, logger *slog.Logger, dial func(string) (*amqp.Connection, error), attempts int, backoff time.Duration) (*amqp.Connection, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, fmt.Errorf("amqp URI is empty")
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		conn, err := dial(uri)
		if err == nil {
			if logger != nil {
				logger.Info("connected to AMQP broker", slog.Int("attempt", attempt))
			}
			return conn, nil
		}
		lastErr = err
		if logger != nil {
			logger.Warn("AMQP dial failed", slog.Int("attempt", attempt), slog.String("error", err.Error()))
		}
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return nil, fmt.Errorf("amqp dial failed after %d attempts: %w", attempts, lastErr)
}
