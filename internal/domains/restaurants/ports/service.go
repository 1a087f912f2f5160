package ports

import (
	"context"

	restauranttypes "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/application/types"
)

// Service defines the onboarding use cases exposed to adapters (inbound/driving port).
type Service interface {
	Register(ctx context.Context, input restauranttypes.RegisterInput) (*restauranttypes.RegistrationResult, error)
	Get(ctx context.Context, input restauranttypes.RestaurantIdentifier) (*restauranttypes.RestaurantProjection, error)
	GetVisible(ctx context.Context, input restauranttypes.RestaurantIdentifier) (*restauranttypes.VisibleRestaurant, error)
	ListPending(ctx context.Context) ([]*restauranttypes.RestaurantProjection, error)
	ListPendingWithdrawals(ctx context.Context) ([]*restauranttypes.RestaurantProjection, error)
	ListVisible(ctx context.Context, input restauranttypes.ListVisibleInput) ([]restauranttypes.VisibleRestaurant, error)

	Approve(ctx context.Context, input restauranttypes.RestaurantIdentifier) (*restauranttypes.ApprovalResult, error)
	Reject(ctx context.Context, input restauranttypes.ConfirmedAction) (*restauranttypes.RestaurantProjection, error)
	RequestWithdrawal(ctx context.Context, input restauranttypes.RestaurantIdentifier) (*restauranttypes.RestaurantProjection, error)
	ApproveWithdrawal(ctx context.Context, input restauranttypes.ConfirmedAction) (*restauranttypes.RestaurantProjection, error)
	RejectWithdrawal(ctx context.Context, input restauranttypes.ConfirmedAction) (*restauranttypes.RestaurantProjection, error)

	Authenticate(ctx context.Context, input restauranttypes.LoginInput) (*restauranttypes.AuthenticatedRestaurant, error)
	EnterDashboard(ctx context.Context, input restauranttypes.RestaurantIdentifier) (*restauranttypes.DashboardView, error)
}
