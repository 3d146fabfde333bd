package biometric

import (
	"github.com/dropDatabas3/facegate/internal/domain/repository"
)

// DefaultThreshold is the maximum (exclusive) distance accepted as a match.
const DefaultThreshold = 0.6

// Result is the closest candidate found by a Matcher.
type Result struct {
	Template repository.Template
	Distance float64
}

// Matcher finds the closest enrolled template to a probe.
type Matcher interface {
	// Match returns the closest candidate and whether its distance is
	// strictly below threshold. The Result is meaningful only when at least
	// one candidate had a comparable length; ok reports acceptance.
	Match(probe Vector, candidates []repository.Template, threshold float64) (Result, bool)
}

// LinearMatcher scans every candidate.
type LinearMatcher struct{}

// NewLinearMatcher returns a Matcher that scans all candidates.
func NewLinearMatcher() Matcher { return LinearMatcher{} }

// Match implements Matcher. Candidates with a different vector length are
// skipped. On equal distances the first candidate encountered wins.
func (LinearMatcher) Match(probe Vector, candidates []repository.Template, threshold float64) (Result, bool) {
	var (
		best  Result
		found bool
	)
	for _, c := range candidates {
		if len(c.Vector) != len(probe) || len(probe) == 0 {
			continue
		}
		d := Distance(probe, c.Vector)
		if !found || d < best.Distance {
			best = Result{Template: c, Distance: d}
			found = true
		}
	}
	if !found {
		return Result{}, false
	}
	return best, best.Distance < threshold
}
