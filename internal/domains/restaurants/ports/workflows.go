package ports

import (
	"context"

	restauranttypes "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/application/types"
)

// WorkflowOrchestrator exposes durable workflow operations required by registration intake.
type WorkflowOrchestrator interface {
	Register(ctx context.Context, input restauranttypes.RegisterInput) (*restauranttypes.RegistrationResult, error)
}

// RegistrationSteps are the individually retryable steps of a durable registration.
type RegistrationSteps interface {
	// CreatePending stores the application as pending without notifying anyone.
	CreatePending(ctx context.Context, input restauranttypes.RegisterInput) (*restauranttypes.RegistrationResult, error)
}
