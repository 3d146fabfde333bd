package rate

import (
	"context"
	"fmt"
	"sync"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

// MultiLimiter permite usar diferentes límites por grupo de endpoints
// manteniendo el algoritmo fixed-window.
type MultiLimiter interface {
	AllowWithLimits(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

// Pool cachea un Limiter por configuración limit+window.
type Pool struct {
	mu       sync.RWMutex
	limiters map[string]Limiter
	build    func(limit int, window time.Duration) Limiter
}

// NewRedisPool crea limiters Redis que comparten cliente y prefijo.
func NewRedisPool(client *rdb.Client, prefix string) *Pool {
	return &Pool{
		limiters: make(map[string]Limiter),
		build: func(limit int, window time.Duration) Limiter {
			return NewRedisLimiter(client, fmt.Sprintf("%s%d:%s:", prefix, limit, window), limit, window)
		},
	}
}

// NewMemoryPool crea limiters en memoria.
func NewMemoryPool() *Pool {
	return &Pool{
		limiters: make(map[string]Limiter),
		build: func(limit int, window time.Duration) Limiter {
			return NewMemoryLimiter(limit, window)
		},
	}
}

// AllowWithLimits implementa MultiLimiter.
func (p *Pool) AllowWithLimits(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	configKey := fmt.Sprintf("%d:%s", limit, window.String())

	p.mu.RLock()
	limiter, exists := p.limiters[configKey]
	p.mu.RUnlock()

	if !exists {
		p.mu.Lock()
		// Double-check pattern para evitar race conditions
		if limiter, exists = p.limiters[configKey]; !exists {
			limiter = p.build(limit, window)
			p.limiters[configKey] = limiter
		}
		p.mu.Unlock()
	}
	return limiter.Allow(ctx, key)
}

// Fixed adapta un MultiLimiter a Limiter con un límite fijo.
func Fixed(m MultiLimiter, limit int, window time.Duration) Limiter {
	return fixed{m: m, limit: limit, window: window}
}

type fixed struct {
	m      MultiLimiter
	limit  int
	window time.Duration
}

func (f fixed) Allow(ctx context.Context, key string) (Result, error) {
	return f.m.AllowWithLimits(ctx, key, f.limit, f.window)
}
