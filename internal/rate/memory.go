package rate

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter: fixed window en proceso sobre go-cache.
// Cada ventana es una clave con TTL = ventana; Add crea el contador y
// IncrementInt64 lo incrementa de forma atómica.
type MemoryLimiter struct {
	c      *gocache.Cache
	Max    int64
	Window time.Duration
	now    func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		c:      gocache.New(window, 2*window),
		Max:    int64(max),
		Window: window,
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.now().UTC()
	winStart := now.Truncate(l.Window)
	k := fmt.Sprintf("%s:%d", sanitizeKey(key), winStart.Unix())
	ttl := winStart.Add(l.Window).Sub(now)

	var hits int64 = 1
	if err := l.c.Add(k, int64(1), ttl); err != nil {
		// ya existe: incrementar
		n, err := l.c.IncrementInt64(k, 1)
		if err != nil {
			return Result{}, err
		}
		hits = n
	}
	return buildResult(hits, l.Max, ttl, l.Window), nil
}
