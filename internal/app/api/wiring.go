package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"gorm.io/gorm"

	backendclient "github.com/Apurer/go-gin-restaurant-onboarding/internal/clients/http/backend"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/adapters/httpbackend"
	restaurantmemory "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/adapters/memory"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/adapters/notifications"
	restaurantpostgres "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/adapters/persistence/postgres"
	restaurantredis "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/adapters/redis"
	restaurantapp "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/application"
	restaurantports "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/ports"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/platform/migrations"
	platformobservability "github.com/Apurer/go-gin-restaurant-onboarding/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-gin-restaurant-onboarding/internal/platform/postgres"
	platformrabbitmq "github.com/Apurer/go-gin-restaurant-onboarding/internal/platform/rabbitmq"
	platformredis "github.com/Apurer/go-gin-restaurant-onboarding/internal/platform/redis"
)

// Stores groups the persistence ports used by the onboarding service.
type Stores struct {
	Status      restaurantports.RestaurantStatusStore
	Credentials restaurantports.CredentialStore
	Markers     restaurantports.ApprovalMarkerStore
	Idempotency restaurantports.IdempotencyStore
	// Approver is set when the record store issues credentials on approval.
	Approver restaurantports.BackendApprover
	// DB is set when the local stores are backed by Postgres.
	DB *gorm.DB
}

// BuildStores selects the record store: the HTTP backend when BACKEND_BASE_URL is set,
// Postgres when a DSN connects, memory otherwise. Credentials, approval markers and
// idempotency keys always live locally. With the HTTP backend, approval and
// credential issuance go through the backend and local credentials only cache them.
func BuildStores(ctx context.Context, cfg Config, logger *slog.Logger) (*Stores, func()) {
	stores := &Stores{}
	cleanup := func() {}

	if cfg.PostgresDSN != "" {
		db, closeDB := platformpostgres.ConnectOptional(ctx, cfg.PostgresDSN, logger)
		if db != nil && cfg.DBAutoMigrate {
			if err := migrations.Run(db); err != nil {
				logger.Warn("postgres migrations failed, falling back to in-memory stores", slog.String("error", err.Error()))
				closeDB()
				db = nil
			}
		}
		if db != nil {
			stores.DB = db
			stores.Status = restaurantpostgres.NewStatusStore(db)
			stores.Credentials = restaurantpostgres.NewCredentialStore(db)
			stores.Markers = restaurantpostgres.NewMarkerStore(db)
			stores.Idempotency = restaurantpostgres.NewIdempotencyStore(db, restaurantpostgres.DefaultIdempotencyRetention)
			cleanup = closeDB
			logger.Info("restaurant stores configured with postgres")
		}
	} else {
		logger.Warn("POSTGRES_DSN not set, falling back to in-memory stores")
	}
	if stores.DB == nil {
		stores.Status = restaurantmemory.NewStatusStore()
		stores.Credentials = restaurantmemory.NewCredentialStore()
		stores.Markers = restaurantmemory.NewMarkerStore()
		stores.Idempotency = restaurantmemory.NewIdempotencyStore()
	}

	if cfg.BackendBaseURL != "" {
		backend, err := backendclient.NewClient(cfg.BackendBaseURL, &http.Client{Timeout: 10 * time.Second})
		if err != nil {
			logger.Warn("invalid BACKEND_BASE_URL, keeping local record store", slog.String("error", err.Error()))
		} else {
			backendStore := httpbackend.NewStatusStore(backend)
			stores.Status = backendStore
			stores.Approver = backendStore
			logger.Info("restaurant record store configured with HTTP backend", slog.String("baseURL", cfg.BackendBaseURL))
		}
	}
	return stores, cleanup
}

// BuildNotifier selects AMQP, then the HTTP email service, then logging.
func BuildNotifier(ctx context.Context, cfg Config, logger *slog.Logger) (restaurantports.NotificationPort, func()) {
	if cfg.RabbitMQURL != "" {
		conn, err := platformrabbitmq.Dial(ctx, cfg.RabbitMQURL, logger)
		if err == nil {
			logger.Info("notifications published to AMQP", slog.String("exchange", cfg.NotificationExchange))
			return notifications.NewAMQPSender(conn, notifications.WithExchange(cfg.NotificationExchange)), func() { _ = conn.Close() }
		}
		logger.Warn("AMQP unavailable, trying other notification channels", slog.String("error", err.Error()))
	}
	if cfg.NotificationURL != "" {
		logger.Info("notifications sent to HTTP email service", slog.String("url", cfg.NotificationURL))
		return notifications.NewHTTPSender(cfg.NotificationURL, notifications.WithHTTPClient(&http.Client{Timeout: 10 * time.Second})), func() {}
	}
	logger.Warn("no notification channel configured, notifications are logged only")
	return notifications.NewLogSender(logger), func() {}
}

// BuildGuard returns a Redis-backed in-flight guard when Redis is reachable.
func BuildGuard(ctx context.Context, cfg Config, logger *slog.Logger) (restaurantports.InFlightGuard, func()) {
	redisClient, cleanup := platformredis.ConnectOptional(ctx, cfg.RedisAddr, cfg.RedisPassword, logger)
	if redisClient == nil {
		return restaurantapp.NewLocalInFlightGuard(), cleanup
	}
	return restaurantredis.NewGuard(redisClient), cleanup
}

// ConnectTemporalClient dials Temporal with tracing and structured logging.
func ConnectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
