package rate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(3, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		res, err := l.Allow(ctx, "ip:1")
		require.NoError(t, err)
		require.True(t, res.Allowed)
		require.EqualValues(t, 3-i, res.Remaining)
	}
	res, err := l.Allow(ctx, "ip:1")
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Equal(t, time.Minute, res.RetryAfter)

	// Otra clave tiene su propio contador.
	res, _ = l.Allow(ctx, "ip:2")
	require.True(t, res.Allowed)

	// Nueva ventana.
	now = now.Add(time.Minute)
	res, _ = l.Allow(ctx, "ip:1")
	require.True(t, res.Allowed)
}

func TestMemoryLimiter_Concurrent(t *testing.T) {
	t.Parallel()
	l := NewMemoryLimiter(50, time.Hour)
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := l.Allow(context.Background(), "k")
			if err == nil && res.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 50, allowed)
}

func TestPool_ReusesLimiterPerConfig(t *testing.T) {
	t.Parallel()
	p := NewMemoryPool()
	ctx := context.Background()

	lim := Fixed(p, 1, time.Hour)
	res, err := lim.Allow(ctx, "a")
	require.NoError(t, err)
	require.True(t, res.Allowed)
	res, _ = lim.Allow(ctx, "a")
	require.False(t, res.Allowed)

	// Misma clave con otro límite usa otro contador.
	res, _ = p.AllowWithLimits(ctx, "a", 5, time.Hour)
	require.True(t, res.Allowed)
	require.Len(t, p.limiters, 2)
}
