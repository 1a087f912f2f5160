package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/app/api"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/adapters/credentials"
	restaurantapp "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/application"
	platformobservability "github.com/Apurer/go-gin-restaurant-onboarding/internal/platform/observability"
	restaurantactivities "github.com/Apurer/go-gin-restaurant-onboarding/internal/platform/temporal/activities/restaurants"
	restaurantworkflows "github.com/Apurer/go-gin-restaurant-onboarding/internal/platform/temporal/workflows/restaurants"
)

func main() {
	ctx := context.Background()
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	const serviceName = "restaurant-onboarding-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, platformobservability.SettingsFromEnv(serviceName))
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	stores, cleanupStores := api.BuildStores(ctx, cfg, logger)
	defer cleanupStores()
	notifier, cleanupNotifier := api.BuildNotifier(ctx, cfg, logger)
	defer cleanupNotifier()

	// The service gets no notifier: the registration email is its own activity.
	steps := restaurantapp.NewService(
		stores.Status,
		credentials.NewIssuer(stores.Credentials, credentials.WithTTL(cfg.CredentialTTL)),
		nil,
		restaurantapp.WithIdempotencyStore(stores.Idempotency),
		restaurantapp.WithLogger(logger),
	)
	restaurantActivities := restaurantactivities.NewActivities(steps, stores.Status, notifier)

	temporalClient, err := api.ConnectTemporalClient(cfg, instruments)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, cfg.TemporalTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(restaurantworkflows.RegistrationWorkflow, workflow.RegisterOptions{Name: restaurantworkflows.RegistrationWorkflowName})
	w.RegisterActivityWithOptions(restaurantActivities.CreatePendingRestaurant, activity.RegisterOptions{Name: restaurantactivities.CreatePendingRestaurantActivityName})
	w.RegisterActivityWithOptions(restaurantActivities.NotifyRegistrationReceived, activity.RegisterOptions{Name: restaurantactivities.NotifyRegistrationReceivedActivityName})

	logger.Info("worker listening", slog.String("taskQueue", cfg.TemporalTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
