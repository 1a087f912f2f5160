package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/Apurer/go-gin-restaurant-onboarding/internal/domains/restaurants/ports"
)

var _ ports.InFlightGuard = (*Guard)(nil)

// DefaultLease bounds how long a crashed holder can block a restaurant.
const DefaultLease = 2 * time.Minute

const keyPrefix = "onboarding:inflight:"

var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Guard admits one mutation per restaurant across processes using SET NX leases.
type Guard struct {
	client goredis.UniversalClient
	lease  time.Duration

	mu     sync.Mutex
	tokens map[int64]string
}

// Option customizes the guard.
type Option func(*Guard)

// WithLease overrides the lease duration.
func WithLease(d time.Duration) Option {
	return func(g *Guard) {
		if d > 0 {
			g.lease = d
		}
	}
}

// NewGuard wires a guard on top of an existing client. Caller owns the client lifecycle.
func NewGuard(client goredis.UniversalClient, opts ...Option) *Guard {
	g := &Guard{client: client, lease: DefaultLease, tokens: map[int64]string{}}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// TryAcquire sets the lease for id unless another holder owns it.
func (g *Guard) TryAcquire(ctx context.Context, id int64) (bool, error) {
	if g == nil || g.client == nil {
		return false, errors.New("redis guard not configured")
	}
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, key(id), token, g.lease).Result()
	if err != nil {
		return false, fmt.Errorf("%w: redis setnx: %w", ports.ErrUnavailable, err)
	}
	if !ok {
		return false, nil
	}
	g.mu.Lock()
	g.tokens[id] = token
	g.mu.Unlock()
	return true, nil
}

// Release drops the lease if this guard still owns it.
func (g *Guard) Release(ctx context.Context, id int64) error {
	if g == nil || g.client == nil {
		return errors.New("redis guard not configured")
	}
	g.mu.Lock()
	token, ok := g.tokens[id]
	delete(g.tokens, id)
	g.mu.Unlock()
	if !ok {
		return nil
	}
	if err := releaseScript.Run(ctx, g.client, []string{key(id)}, token).Err(); err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("%w: redis release: %w", ports.ErrUnavailable, err)
	}
	return nil
}

func key(id int64) string {
	return keyPrefix + strconv.FormatInt(id, 10)
}
