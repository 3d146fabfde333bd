package biometric

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/facegate/internal/domain/repository"
)

func vec(vals ...float64) []float64 { return vals }

func TestLinearMatcher_AcceptsBelowThreshold(t *testing.T) {
	t.Parallel()
	m := NewLinearMatcher()
	cands := []repository.Template{
		{ID: "t1", UserID: "A", Vector: vec(0, 0)},
		{ID: "t2", UserID: "B", Vector: vec(5, 5)},
	}
	res, ok := m.Match(Vector{0.3, 0}, cands, DefaultThreshold)
	require.True(t, ok)
	require.Equal(t, "A", res.Template.UserID)
	require.InDelta(t, 0.3, res.Distance, 1e-9)
}

func TestLinearMatcher_StrictThreshold(t *testing.T) {
	t.Parallel()
	m := NewLinearMatcher()
	cands := []repository.Template{{ID: "t1", UserID: "A", Vector: vec(0, 0)}}

	res, ok := m.Match(Vector{0.6, 0}, cands, 0.6)
	require.False(t, ok, "distance equal to threshold must not match")
	require.Equal(t, "A", res.Template.UserID)
}

func TestLinearMatcher_TieFirstWins(t *testing.T) {
	t.Parallel()
	m := NewLinearMatcher()
	cands := []repository.Template{
		{ID: "t1", UserID: "first", Vector: vec(1, 0)},
		{ID: "t2", UserID: "second", Vector: vec(-1, 0)},
	}
	res, ok := m.Match(Vector{0, 0}, cands, 2)
	require.True(t, ok)
	require.Equal(t, "first", res.Template.UserID)
}

func TestLinearMatcher_SkipsMismatchedLengths(t *testing.T) {
	t.Parallel()
	m := NewLinearMatcher()
	cands := []repository.Template{
		{ID: "bad", UserID: "X", Vector: vec(0, 0, 0)},
		{ID: "t2", UserID: "B", Vector: vec(0.1, 0)},
	}
	res, ok := m.Match(Vector{0, 0}, cands, DefaultThreshold)
	require.True(t, ok)
	require.Equal(t, "B", res.Template.UserID)
}

func TestLinearMatcher_NoCandidates(t *testing.T) {
	t.Parallel()
	_, ok := NewLinearMatcher().Match(Vector{0, 0}, nil, DefaultThreshold)
	require.False(t, ok)
}

func TestLinearMatcher_ThresholdMonotonic(t *testing.T) {
	t.Parallel()
	m := NewLinearMatcher()
	cands := []repository.Template{
		{ID: "t1", UserID: "A", Vector: vec(0, 0)},
		{ID: "t2", UserID: "B", Vector: vec(0.9, 0.1)},
	}
	probes := []Vector{{0.1, 0.1}, {0.5, 0.5}, {0.4, 0}, {2, 2}}
	thresholds := []float64{1.5, 1.0, 0.6, 0.45, 0.2, 0.05}
	for _, p := range probes {
		prev := true
		for _, th := range thresholds {
			_, ok := m.Match(p, cands, th)
			if ok && !prev {
				t.Fatalf("probe %v matched at %.2f but not at a larger threshold", p, th)
			}
			prev = ok
		}
	}
}
