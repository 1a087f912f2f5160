package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGuard_RequiresClient(t *testing.T) {
	g := NewGuard(nil)
	_, err := g.TryAcquire(context.Background(), 1)
	require.Error(t, err)
	require.Error(t, g.Release(context.Background(), 1))
}

func TestGuard_Options(t *testing.T) {
	g := NewGuard(nil, WithLease(5*time.Second), WithLease(0))
	require.Equal(t, 5*time.Second, g.lease)
	require.Equal(t, "onboarding:inflight:42", key(42))
}
