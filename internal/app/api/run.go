package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	onboardingserver "github.com/Apurer/go-gin-restaurant-onboarding/go"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/adapters/credentials"
	restaurantobs "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/adapters/observability"
	restaurantworkflows "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/adapters/workflows"
	restaurantapp "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/application"
	restaurantports "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/ports"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/platform/metrics"
	platformobservability "github.com/Apurer/go-gin-restaurant-onboarding/internal/platform/observability"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/shared/auth"
)

const applicationScope = "internal.restaurants.application"

// Run boots the restaurant onboarding HTTP API with observability, stores, and workflows wired.
// It returns when ctx is cancelled or the server fails.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, platformobservability.SettingsFromEnv(cfg.ServiceName))
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	stores, cleanupStores := BuildStores(ctx, cfg, logger)
	defer cleanupStores()
	notifier, cleanupNotifier := BuildNotifier(ctx, cfg, logger)
	defer cleanupNotifier()
	guard, cleanupGuard := BuildGuard(ctx, cfg, logger)
	defer cleanupGuard()

	coreService := restaurantapp.NewService(
		stores.Status,
		credentials.NewIssuer(stores.Credentials, credentials.WithTTL(cfg.CredentialTTL)),
		notifier,
		restaurantapp.WithInFlightGuard(guard),
		restaurantapp.WithApprovalMarkers(stores.Markers),
		restaurantapp.WithIdempotencyStore(stores.Idempotency),
		restaurantapp.WithBackendApproval(stores.Approver),
		restaurantapp.WithLogger(logger),
	)
	service := restaurantobs.New(
		coreService,
		restaurantobs.WithLogger(logger),
		restaurantobs.WithTracer(instruments.Tracer(applicationScope)),
		restaurantobs.WithMeter(instruments.Meter(applicationScope)),
	)

	var workflows restaurantports.WorkflowOrchestrator = restaurantworkflows.NewInlineRegistrationWorkflows(service)
	if temporalClient, err := ConnectTemporalClient(cfg, instruments); err != nil {
		logger.Warn("Temporal workflows unavailable, running registration inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		workflows = restaurantworkflows.NewTemporalRegistrationWorkflows(temporalClient, coreService)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	tokens, err := buildTokenIssuer(cfg, logger)
	if err != nil {
		return err
	}
	admin, err := auth.NewAdminAuthenticator(cfg.AdminUsername, cfg.AdminPasswordHash)
	if err != nil {
		logger.Warn("admin login disabled", slog.String("error", err.Error()))
		admin = nil
	}

	handlers := onboardingserver.ApiHandleFunctions{
		RestaurantAPI: onboardingserver.NewRestaurantAPI(service, workflows, tokens),
		AdminAPI:      onboardingserver.NewAdminAPI(service, tokens, admin),
		Tokens:        tokens,
		Limiter:       onboardingserver.NewRateLimiter(cfg.RegisterRateLimit, cfg.RegisterRateBurst),
		Metrics:       metrics.NewHTTPMetrics(""),
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), otelgin.Middleware(cfg.ServiceName))
	router := onboardingserver.NewRouterWithGinEngine(engine, handlers)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("restaurant onboarding API listening", slog.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("restaurant onboarding API exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down restaurant onboarding API")
		return server.Shutdown(shutdownCtx)
	}
}

// buildTokenIssuer signs with JWT_SECRET, or with a random per-process secret so
// tokens stop working on restart.
func buildTokenIssuer(cfg Config, logger *slog.Logger) (*auth.TokenIssuer, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generate token secret: %w", err)
		}
		secret = hex.EncodeToString(buf)
		logger.Warn("JWT_SECRET not set, using an ephemeral signing secret")
	}
	return auth.NewTokenIssuer(secret, auth.WithTTL(cfg.JWTTTL), auth.WithIssuer(cfg.ServiceName))
}
