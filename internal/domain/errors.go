package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCacheMiss is returned by the cache repository when no entry exists
// for a query key. Stale entries are surfaced by the repository and
// treated as absent by the acquisition layer.
var ErrCacheMiss = errors.New("comparables cache miss")

// ErrQuotaExhausted signals that a source's safety threshold has been
// reached for the current window. It is a routing signal, not a failure.
var ErrQuotaExhausted = errors.New("source quota exhausted")

// ErrNoSolution is reported when an iterative solver (IRR) fails to
// converge. The metric is undefined; other metrics remain valid.
var ErrNoSolution = errors.New("no numerical solution found")

// SourceFailure records why a single adapter failed during a waterfall pass
type SourceFailure struct {
	Source string
	Err    error
}

// AllSourcesFailedError is raised when every configured adapter, including
// the AI-estimation fallback, failed to produce a usable comparable set.
// The analyzer degrades to a purchase-price heuristic instead of blocking.
type AllSourcesFailedError struct {
	Failures []SourceFailure
}

func (e *AllSourcesFailedError) Error() string {
	if len(e.Failures) == 0 {
		return "all comparable data sources failed"
	}
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Source, f.Err))
	}
	return "all comparable data sources failed: " + strings.Join(parts, "; ")
}
