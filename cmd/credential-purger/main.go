package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/app/api"
	restaurantpostgres "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/adapters/persistence/postgres"
	platformpostgres "github.com/Apurer/go-gin-restaurant-onboarding/internal/platform/postgres"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	db, cleanup := platformpostgres.ConnectOptional(ctx, cfg.PostgresDSN, logger, platformpostgres.WithPool(2, 1))
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot purge credentials")
	}

	credentials := restaurantpostgres.NewCredentialStore(db)
	purged, err := credentials.PurgeExpired(ctx, time.Now())
	if err != nil {
		log.Fatalf("failed to purge expired credentials: %v", err)
	}
	keys := restaurantpostgres.NewIdempotencyStore(db, restaurantpostgres.DefaultIdempotencyRetention)
	expiredKeys, err := keys.PurgeExpired(ctx)
	if err != nil {
		log.Fatalf("failed to purge idempotency keys: %v", err)
	}
	logger.Info("credential purge completed",
		slog.Int64("credentials", purged),
		slog.Int64("idempotencyKeys", expiredKeys),
	)
}
