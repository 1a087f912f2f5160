package memory

import (
	"context"
	"sync"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/ports"
)

var _ ports.ApprovalMarkerStore = (*MarkerStore)(nil)

// MarkerStore keeps approval-summary markers in a concurrent map.
type MarkerStore struct {
	seen sync.Map
}

// NewMarkerStore constructs an empty marker store.
func NewMarkerStore() *MarkerStore {
	return &MarkerStore{}
}

// MarkSeen reports true only for the first call per restaurant.
func (s *MarkerStore) MarkSeen(_ context.Context, restaurantID int64) (bool, error) {
	_, loaded := s.seen.LoadOrStore(restaurantID, struct{}{})
	return !loaded, nil
}
