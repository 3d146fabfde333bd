package biometric

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/facegate/internal/domain/repository"
)

const snapshotKey = "templates"

// TemplateSource serves the full template list from a short-lived snapshot.
// Concurrent misses are coalesced into a single repository read.
type TemplateSource struct {
	repo  repository.TemplateRepository
	cache *ttlcache.Cache[string, []repository.Template]
	sf    singleflight.Group
	gen   atomic.Uint64
}

// NewTemplateSource wraps repo with a snapshot cache. ttl <= 0 disables caching.
func NewTemplateSource(repo repository.TemplateRepository, ttl time.Duration) *TemplateSource {
	s := &TemplateSource{repo: repo}
	if ttl > 0 {
		s.cache = ttlcache.New(
			ttlcache.WithTTL[string, []repository.Template](ttl),
			ttlcache.WithDisableTouchOnHit[string, []repository.Template](),
		)
		go s.cache.Start()
	}
	return s
}

// All returns every enrolled template in enrollment order.
func (s *TemplateSource) All(ctx context.Context) ([]repository.Template, error) {
	if s.cache != nil {
		if item := s.cache.Get(snapshotKey); item != nil {
			return item.Value(), nil
		}
	}
	v, err, _ := s.sf.Do(snapshotKey, func() (any, error) {
		gen := s.gen.Load()
		list, err := s.repo.ListTemplates(ctx)
		if err != nil {
			return nil, err
		}
		// A load that raced with Invalidate must not repopulate the snapshot.
		if s.cache != nil && s.gen.Load() == gen {
			s.cache.Set(snapshotKey, list, ttlcache.DefaultTTL)
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]repository.Template), nil
}

// Invalidate drops the snapshot. Called after every enrollment.
func (s *TemplateSource) Invalidate() {
	s.gen.Add(1)
	if s.cache != nil {
		s.cache.Delete(snapshotKey)
	}
	s.sf.Forget(snapshotKey)
}

// Stop releases the cache janitor.
func (s *TemplateSource) Stop() {
	if s.cache != nil {
		s.cache.Stop()
	}
}
