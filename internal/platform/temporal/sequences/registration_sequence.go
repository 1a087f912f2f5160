package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	restauranttypes "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/application/types"
	restaurantactivities "github.com/Apurer/go-gin-restaurant-onboarding/internal/platform/temporal/activities/restaurants"
)

// RunRegistrationSequence stores the application and then sends the registration-received email.
// A failed notification is logged and does not fail the registration.
func RunRegistrationSequence(ctx workflow.Context, input restauranttypes.RegisterInput) (*restauranttypes.RegistrationResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("registration sequence started", "restaurant", input.Application.Profile.Name)
	createOptions := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		HeartbeatTimeout:    30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	}
	notifyOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    10,
		},
	}

	var result restauranttypes.RegistrationResult
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, createOptions), restaurantactivities.CreatePendingRestaurantActivityName, input).Get(ctx, &result)
	if err != nil {
		logger.Error("registration sequence failed to store application", "error", err)
		return nil, err
	}
	if result.Restaurant == nil || result.Restaurant.Entity == nil {
		logger.Info("registration sequence stored nothing")
		return &result, nil
	}
	restaurantID := result.Restaurant.Entity.ID
	logger.Info("registration sequence stored application", "restaurantId", restaurantID, "replayed", result.Replayed)

	if !result.Replayed {
		notifyInput := restauranttypes.RestaurantIdentifier{ID: restaurantID}
		if err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, notifyOptions), restaurantactivities.NotifyRegistrationReceivedActivityName, notifyInput).Get(ctx, nil); err != nil {
			logger.Warn("registration sequence notification failed", "restaurantId", restaurantID, "error", err)
		} else {
			logger.Info("registration sequence notified", "restaurantId", restaurantID)
		}
	}
	return &result, nil
}
