package application

import (
	"context"
	"sync"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/ports"
)

var _ ports.InFlightGuard = (*LocalInFlightGuard)(nil)

// LocalInFlightGuard tracks restaurant ids under mutation within this process.
type LocalInFlightGuard struct {
	mu     sync.Mutex
	active map[int64]struct{}
}

// NewLocalInFlightGuard returns an empty guard.
func NewLocalInFlightGuard() *LocalInFlightGuard {
	return &LocalInFlightGuard{active: map[int64]struct{}{}}
}

// TryAcquire marks id as busy unless it already is.
func (g *LocalInFlightGuard) TryAcquire(_ context.Context, id int64) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.active[id]; busy {
		return false, nil
	}
	g.active[id] = struct{}{}
	return true, nil
}

// Release clears the busy marker for id.
func (g *LocalInFlightGuard) Release(_ context.Context, id int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, id)
	return nil
}
