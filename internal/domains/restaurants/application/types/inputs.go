package types

import (
	"time"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/domain"
)

// RegisterInput is the command submitted by registration intake.
type RegisterInput struct {
	Application    domain.RestaurantApplication
	IdempotencyKey string
}

// RestaurantIdentifier addresses a single restaurant.
type RestaurantIdentifier struct {
	ID int64
}

// ConfirmedAction is an admin command that must be explicitly confirmed by the operator.
type ConfirmedAction struct {
	ID        int64
	Confirmed bool
}

// ListVisibleInput selects the instant used for the open/closed computation.
type ListVisibleInput struct {
	At time.Time
}

// LoginInput carries restaurant credentials.
type LoginInput struct {
	Username string
	Password string
}
