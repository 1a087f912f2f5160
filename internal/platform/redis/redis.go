// Package redis connects the shared Redis client used for cross-instance coordination.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

// Connect opens a client for addr and verifies it with PING.
func Connect(ctx context.Context, addr, password string) (*goredis.Client, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("redis address is empty")
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// ConnectOptional returns nil with a no-op cleanup when addr is empty or unreachable,
// logging why the caller falls back to process-local coordination.
func ConnectOptional(ctx context.Context, addr, password string, logger *slog.Logger) (*goredis.Client, func()) {
	if strings.TrimSpace(addr) == "" {
		if logger != nil {
			logger.Warn("REDIS_ADDR not set, in-flight guard is process-local")
		}
		return nil, func() {}
	}
	client, err := Connect(ctx, addr, password)
	if err != nil {
		if logger != nil {
			logger.Warn("failed to connect to redis, in-flight guard is process-local", slog.String("error", err.Error()))
		}
		return nil, func() {}
	}
	if logger != nil {
		logger.Info("redis connection established", slog.String("addr", addr))
	}
	return client, func() { _ = client.Close() }
}
