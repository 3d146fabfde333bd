package biometric

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/facegate/internal/domain/repository"
)

type countingRepo struct {
	mu    sync.Mutex
	calls atomic.Int32
	list  []repository.Template
}

func (r *countingRepo) ListTemplates(context.Context) ([]repository.Template, error) {
	r.calls.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]repository.Template(nil), r.list...), nil
}

func (r *countingRepo) ListByUser(context.Context, string) ([]repository.Template, error) {
	return nil, nil
}

func (r *countingRepo) AddTemplate(_ context.Context, t repository.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, t)
	return nil
}

func TestTemplateSource_CachesUntilInvalidated(t *testing.T) {
	repo := &countingRepo{list: []repository.Template{{ID: "t1", UserID: "A", Vector: []float64{0}}}}
	src := NewTemplateSource(repo, time.Minute)
	defer src.Stop()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := src.All(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
	}
	require.EqualValues(t, 1, repo.calls.Load())

	require.NoError(t, repo.AddTemplate(ctx, repository.Template{ID: "t2", UserID: "B", Vector: []float64{1}}))
	src.Invalidate()

	got, err := src.All(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.EqualValues(t, 2, repo.calls.Load())
}

func TestTemplateSource_NoCache(t *testing.T) {
	repo := &countingRepo{}
	src := NewTemplateSource(repo, 0)
	defer src.Stop()

	_, _ = src.All(context.Background())
	_, _ = src.All(context.Background())
	require.EqualValues(t, 2, repo.calls.Load())
}
