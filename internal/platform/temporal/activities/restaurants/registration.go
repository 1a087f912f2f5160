package restaurants

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/application"
	restauranttypes "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/application/types"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/ports"
)

const (
	// CreatePendingRestaurantActivityName stores a registration as pending without notifying anyone.
	CreatePendingRestaurantActivityName = "restaurants.activities.CreatePendingRestaurant"
	// NotifyRegistrationReceivedActivityName sends the registration-received email.
	NotifyRegistrationReceivedActivityName = "restaurants.activities.NotifyRegistrationReceived"
)

// Application error types that callers translate back into service errors.
const (
	ErrTypeValidation = "RestaurantValidation"
	ErrTypeConflict   = "RestaurantConflict"
)

// Activities groups activities that operate on the restaurants bounded context.
type Activities struct {
	steps    ports.RegistrationSteps
	store    ports.RestaurantStatusStore
	notifier ports.NotificationPort
}

// NewActivities wires the restaurant collaborators into the Temporal activities bundle.
// steps should not send notifications itself to avoid duplicate emails.
func NewActivities(steps ports.RegistrationSteps, store ports.RestaurantStatusStore, notifier ports.NotificationPort) *Activities {
	return &Activities{steps: steps, store: store, notifier: notifier}
}

// CreatePendingRestaurant stores the application. A retry after a successful create
// reloads the recorded restaurant instead of creating another one.
func (a *Activities) CreatePendingRestaurant(ctx context.Context, input restauranttypes.RegisterInput) (*restauranttypes.RegistrationResult, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.steps == nil {
		logger.Error("create pending activity not initialized")
		return nil, errors.New("create pending activity not initialized")
	}

	var hb createHeartbeat
	if activity.HasHeartbeatDetails(ctx) {
		_ = activity.GetHeartbeatDetails(ctx, &hb)
	}
	if hb.RestaurantID != 0 && a.store != nil {
		logger.Info("CreatePendingRestaurant already stored in prior attempt; reloading", "restaurantId", hb.RestaurantID)
		projection, err := a.store.Get(ctx, hb.RestaurantID)
		if err == nil {
			return &restauranttypes.RegistrationResult{
				Restaurant:     projection,
				ApplicationRef: projection.Entity.ApplicationRef(),
			}, nil
		}
		logger.Warn("CreatePendingRestaurant reload failed; creating again", "restaurantId", hb.RestaurantID, "error", err)
	}

	logger.Info("CreatePendingRestaurant activity started", "restaurant", input.Application.Profile.Name)
	result, err := a.steps.CreatePending(ctx, input)
	if err != nil {
		logger.Error("CreatePendingRestaurant activity failed", "error", err)
		return nil, classify(err)
	}
	if result != nil && result.Restaurant != nil && result.Restaurant.Entity != nil {
		activity.RecordHeartbeat(ctx, createHeartbeat{RestaurantID: result.Restaurant.Entity.ID})
		logger.Info("CreatePendingRestaurant activity completed", "restaurantId", result.Restaurant.Entity.ID, "replayed", result.Replayed)
	}
	return result, nil
}

// NotifyRegistrationReceived loads the restaurant and sends its registration-received email.
func (a *Activities) NotifyRegistrationReceived(ctx context.Context, input restauranttypes.RestaurantIdentifier) error {
	logger := activity.GetLogger(ctx)
	if a == nil {
		logger.Error("notify activity not initialized", "restaurantId", input.ID)
		return errors.New("notify activity not initialized")
	}
	if a.notifier == nil {
		logger.Info("notification dispatch not configured; skipping", "restaurantId", input.ID)
		return nil
	}
	if a.store == nil {
		logger.Error("restaurant store not configured for notification", "restaurantId", input.ID)
		return errors.New("restaurant store not configured for notification")
	}

	var hb notifyHeartbeat
	if activity.HasHeartbeatDetails(ctx) {
		_ = activity.GetHeartbeatDetails(ctx, &hb)
	}
	if hb.Completed {
		logger.Info("NotifyRegistrationReceived already completed in prior attempt; skipping", "restaurantId", input.ID)
		return nil
	}

	logger.Info("NotifyRegistrationReceived activity started", "restaurantId", input.ID)
	projection, err := a.store.Get(ctx, input.ID)
	if err != nil {
		logger.Error("NotifyRegistrationReceived failed to load restaurant", "restaurantId", input.ID, "error", err)
		return err
	}
	if err := a.notifier.Send(ctx, application.RegistrationReceivedNotification(projection.Entity)); err != nil {
		logger.Error("NotifyRegistrationReceived failed", "restaurantId", input.ID, "error", err)
		return err
	}
	activity.RecordHeartbeat(ctx, notifyHeartbeat{Completed: true})
	logger.Info("NotifyRegistrationReceived activity completed", "restaurantId", input.ID)
	return nil
}

// classify marks caller errors as non-retryable so the workflow fails fast.
func classify(err error) error {
	switch {
	case errors.Is(err, application.ErrValidation):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeValidation, err)
	case errors.Is(err, application.ErrConflict):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeConflict, err)
	}
	return err
}

type createHeartbeat struct {
	RestaurantID int64
}

type notifyHeartbeat struct {
	Completed bool
}
