package ports

import (
	"context"
	"errors"
	"time"
)

// ErrIdempotencyConflict indicates the same key was used with a different payload or target.
var ErrIdempotencyConflict = errors.New("idempotency conflict")

// IdempotencyRecord associates a client-supplied key with the registration it produced.
type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	RestaurantID int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IdempotencyStore persists idempotency keys so registration retries can be replayed safely.
type IdempotencyStore interface {
	// Get returns the stored record for the key, or nil when unknown.
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	// Save persists the record; a matching existing record is returned as-is, a different one
	// is returned together with ErrIdempotencyConflict.
	Save(ctx context.Context, record IdempotencyRecord) (*IdempotencyRecord, error)
}
