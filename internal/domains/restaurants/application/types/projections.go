package types

import (
	"time"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/domain"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/shared/projection"
)

// RestaurantProjection transports a restaurant aggregate together with its persistence metadata.
type RestaurantProjection = projection.Projection[*domain.Restaurant]

// NewRestaurantProjection wraps an aggregate with persistence metadata.
func NewRestaurantProjection(r *domain.Restaurant, createdAt, updatedAt time.Time) *RestaurantProjection {
	if r == nil {
		return nil
	}
	return projection.New(r, createdAt, updatedAt)
}

// CloneProjection duplicates a projection including its aggregate.
func CloneProjection(src *RestaurantProjection) *RestaurantProjection {
	if src == nil {
		return nil
	}
	return &RestaurantProjection{Entity: src.Entity.Clone(), Metadata: src.Metadata}
}

// RegistrationResult is returned to the submitter after intake.
type RegistrationResult struct {
	Restaurant     *RestaurantProjection
	ApplicationRef string
	// Replayed is true when an idempotency key matched an earlier submission.
	Replayed bool
}

// ApprovalResult carries the one-time credentials shown to the approving admin.
type ApprovalResult struct {
	RestaurantID      int64
	Status            domain.Status
	Username          string
	TemporaryPassword string
	ExpiresAt         time.Time
}

// VisibleRestaurant is the customer-facing projection of an operational restaurant.
type VisibleRestaurant struct {
	Restaurant *domain.Restaurant
	Open       bool
	Orderable  bool
}

// DashboardViewKind selects what a restaurant sees after logging in.
type DashboardViewKind string

const (
	ViewPendingApproval DashboardViewKind = "pending_approval"
	ViewNotApproved     DashboardViewKind = "not_approved"
	ViewDashboard       DashboardViewKind = "dashboard"
)

// DashboardView is the outcome of the dashboard gate.
type DashboardView struct {
	Kind       DashboardViewKind
	Status     domain.Status
	Restaurant *domain.Restaurant
	// FirstApprovedSession is set once, on the first dashboard entry after approval.
	FirstApprovedSession bool
}

// HasOperationalAccess reports whether operational tooling may be exposed.
func (v DashboardView) HasOperationalAccess() bool {
	return v.Kind == ViewDashboard
}

// AuthenticatedRestaurant identifies a restaurant that passed credential verification.
type AuthenticatedRestaurant struct {
	RestaurantID int64
	Username     string
	Status       domain.Status
}
