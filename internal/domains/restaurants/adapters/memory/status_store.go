package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	restauranttypes "github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/application/types"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/domain"
	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/ports"
)

var _ ports.RestaurantStatusStore = (*StatusStore)(nil)

type storedRestaurant struct {
	restaurant *domain.Restaurant
	createdAt  time.Time
	updatedAt  time.Time
}

// StatusStore is an in-memory restaurant record store.
type StatusStore struct {
	mu          sync.RWMutex
	restaurants map[int64]*storedRestaurant
	nextID      int64
	now         func() time.Time
}

// NewStatusStore constructs an empty store.
func NewStatusStore() *StatusStore {
	return &StatusStore{restaurants: map[int64]*storedRestaurant{}, now: time.Now}
}

// WithClock overrides the time source for deterministic testing.
func (s *StatusStore) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create stores a pending restaurant and assigns the next id when none is set.
func (s *StatusStore) Create(_ context.Context, r *domain.Restaurant) (*restauranttypes.RestaurantProjection, error) {
	if r == nil {
		return nil, errors.New("restaurant is nil")
	}
	clone := r.Clone()
	if clone.Status == "" {
		clone.Status = domain.StatusPending
	}
	if !clone.Status.IsValid() {
		return nil, domain.ErrInvalidStatus
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if clone.ID == 0 {
		s.nextID++
		clone.ID = s.nextID
	} else if _, exists := s.restaurants[clone.ID]; exists {
		return nil, fmt.Errorf("restaurant %d already exists", clone.ID)
	} else if clone.ID > s.nextID {
		s.nextID = clone.ID
	}
	now := s.now()
	entry := &storedRestaurant{restaurant: clone, createdAt: now, updatedAt: now}
	s.restaurants[clone.ID] = entry
	return entry.projection(), nil
}

// Get returns a copy of the restaurant.
func (s *StatusStore) Get(_ context.Context, id int64) (*restauranttypes.RestaurantProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.restaurants[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return entry.projection(), nil
}

// SetStatus performs a compare-and-set of the status field.
func (s *StatusStore) SetStatus(_ context.Context, id int64, from, to domain.Status) (*restauranttypes.RestaurantProjection, error) {
	if !to.IsValid() {
		return nil, domain.ErrInvalidStatus
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.restaurants[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if entry.restaurant.Status != from {
		return nil, fmt.Errorf("%w: restaurant %d is %s, expected %s", ports.ErrStatusConflict, id, entry.restaurant.Status, from)
	}
	entry.restaurant.Status = to
	entry.updatedAt = s.now()
	return entry.projection(), nil
}

// ListByStatus returns restaurants in any of the statuses ordered by id.
func (s *StatusStore) ListByStatus(_ context.Context, statuses ...domain.Status) ([]*restauranttypes.RestaurantProjection, error) {
	wanted := make(map[domain.Status]struct{}, len(statuses))
	for _, st := range statuses {
		wanted[st] = struct{}{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*restauranttypes.RestaurantProjection, 0)
	for _, entry := range s.restaurants {
		if _, ok := wanted[entry.restaurant.Status]; ok {
			result = append(result, entry.projection())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Entity.ID < result[j].Entity.ID })
	return result, nil
}

// Reset drops every stored restaurant.
func (s *StatusStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restaurants = map[int64]*storedRestaurant{}
	s.nextID = 0
}

func (e *storedRestaurant) projection() *restauranttypes.RestaurantProjection {
	return restauranttypes.NewRestaurantProjection(e.restaurant.Clone(), e.createdAt, e.updatedAt)
}
