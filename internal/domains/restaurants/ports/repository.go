package ports

import (
	"context"
	"errors"

	restauranttypes "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/application/types"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/domain"
)

var (
	ErrNotFound = errors.New("restaurant not found")
	// ErrStatusConflict is returned by SetStatus when the stored status no longer matches the expected one.
	ErrStatusConflict = errors.New("restaurant status changed concurrently")
	// ErrUnsupportedTransition is returned by stores that cannot express a status change.
	ErrUnsupportedTransition = errors.New("status change not supported by store")
	// ErrUnavailable marks failures reaching a remote collaborator.
	ErrUnavailable = errors.New("collaborator unavailable")
)

// RestaurantStatusStore is the system of record for restaurants and their status.
type RestaurantStatusStore interface {
	// Create persists a new pending restaurant, assigning an id when zero.
	Create(ctx context.Context, r *domain.Restaurant) (*restauranttypes.RestaurantProjection, error)
	Get(ctx context.Context, id int64) (*restauranttypes.RestaurantProjection, error)
	// SetStatus moves the restaurant from -> to atomically, failing with ErrStatusConflict otherwise.
	SetStatus(ctx context.Context, id int64, from, to domain.Status) (*restauranttypes.RestaurantProjection, error)
	ListByStatus(ctx context.Context, statuses ...domain.Status) ([]*restauranttypes.RestaurantProjection, error)
}
