package ports

import (
	"context"
	"errors"
)

// ErrInFlight signals another mutation of the same restaurant is still running.
var ErrInFlight = errors.New("restaurant mutation already in flight")

// InFlightGuard admits at most one mutating operation per restaurant id.
type InFlightGuard interface {
	// TryAcquire marks id as busy, returning false when it already is.
	TryAcquire(ctx context.Context, id int64) (bool, error)
	Release(ctx context.Context, id int64) error
}
