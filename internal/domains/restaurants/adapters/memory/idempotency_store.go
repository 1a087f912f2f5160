package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore keeps registration idempotency keys in memory.
// Keys older than the retention window are forgotten.
type IdempotencyStore struct {
	mu        sync.RWMutex
	records   map[string]ports.IdempotencyRecord
	retention time.Duration
	now       func() time.Time
}

// DefaultIdempotencyRetention bounds how long a key replays its registration.
const DefaultIdempotencyRetention = 24 * time.Hour

// NewIdempotencyStore constructs an empty in-memory store.
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{
		records:   map[string]ports.IdempotencyRecord{},
		retention: DefaultIdempotencyRetention,
		now:       time.Now,
	}
}

// WithClock overrides the time source for deterministic testing.
func (s *IdempotencyStore) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithRetention changes how long keys are remembered; zero keeps them forever.
func (s *IdempotencyStore) WithRetention(d time.Duration) {
	s.retention = d
}

// Get returns the live record for key, or nil when absent or expired.
func (s *IdempotencyStore) Get(_ context.Context, key string) (*ports.IdempotencyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[key]
	if !ok || s.expired(record) {
		return nil, nil
	}
	copy := record
	return &copy, nil
}

// Save persists the record or returns the live record already stored under the key.
func (s *IdempotencyStore) Save(_ context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[record.Key]; ok && !s.expired(existing) {
		copy := existing
		if existing.RequestHash != record.RequestHash || existing.RestaurantID != record.RestaurantID {
			return &copy, ports.ErrIdempotencyConflict
		}
		return &copy, nil
	}

	now := s.now()
	record.CreatedAt = now
	record.UpdatedAt = now
	s.records[record.Key] = record
	saved := record
	return &saved, nil
}

func (s *IdempotencyStore) expired(record ports.IdempotencyRecord) bool {
	return s.retention > 0 && s.now().Sub(record.CreatedAt) > s.retention
}
