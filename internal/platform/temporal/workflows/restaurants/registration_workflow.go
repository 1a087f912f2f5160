package restaurants

import (
	"go.temporal.io/sdk/workflow"

	restauranttypes "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/application/types"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/platform/temporal/sequences"
)

const (
	// RegistrationWorkflowName is the public identifier for registering the workflow.
	RegistrationWorkflowName = "restaurants.workflows.Registration"
	// RegistrationTaskQueue is the queue consumed by the worker processing registration workflows.
	RegistrationTaskQueue = "RESTAURANT_REGISTRATION"
)

// RegistrationWorkflowInput captures the payload required to register a restaurant.
type RegistrationWorkflowInput struct {
	Command restauranttypes.RegisterInput
	TraceID string
}

// RegistrationWorkflow orchestrates the activities of a restaurant registration.
func RegistrationWorkflow(ctx workflow.Context, input RegistrationWorkflowInput) (*restauranttypes.RegistrationResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("RegistrationWorkflow started", withTraceID(input.TraceID, "restaurant", input.Command.Application.Profile.Name)...)
	result, err := sequences.RunRegistrationSequence(ctx, input.Command)
	if err != nil {
		logger.Error("RegistrationWorkflow failed", withTraceID(input.TraceID, "error", err)...)
		return nil, err
	}
	if result != nil && result.Restaurant != nil && result.Restaurant.Entity != nil {
		logger.Info("RegistrationWorkflow completed", withTraceID(input.TraceID, "restaurantId", result.Restaurant.Entity.ID)...)
	} else {
		logger.Info("RegistrationWorkflow completed", withTraceID(input.TraceID)...)
	}
	return result, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
