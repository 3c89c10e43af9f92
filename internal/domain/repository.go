package domain

import (
	"context"
	"time"
)

// QuotaWindow is the rolling window a source's call quota is scoped to
type QuotaWindow string

const (
	QuotaWindowMonthly QuotaWindow = "MONTHLY"
	QuotaWindowDaily   QuotaWindow = "DAILY"
)

// Key returns the storage key for the window containing now.
// Monthly windows key as "2006-01", daily windows as "2006-01-02".
func (w QuotaWindow) Key(now time.Time) string {
	if w == QuotaWindowDaily {
		return now.Format("2006-01-02")
	}
	return now.Format("2006-01")
}

// QuotaState is the usage snapshot for one source in one window
type QuotaState struct {
	Source    string
	Window    QuotaWindow
	WindowKey string
	Used      int
	Limit     int
}

// CacheEntry is a cached comparable set for a normalized property query.
// An entry is valid only while now - FetchedAt is below the configured TTL;
// older entries are logically absent even if physically retained.
type CacheEntry struct {
	Key         string
	Comparables []ComparableProperty
	FetchedAt   time.Time
}

// IsFresh reports whether the entry is still within its TTL
func (e *CacheEntry) IsFresh(ttl time.Duration, now time.Time) bool {
	return now.Sub(e.FetchedAt) < ttl
}

// CacheRepository persists comparable sets keyed by normalized query.
// Get returns ErrCacheMiss when no entry exists; staleness is decided
// by the caller so that expired rows never need eager deletion.
type CacheRepository interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, comps []ComparableProperty, fetchedAt time.Time) error
}

// QuotaRepository tracks per-source call counters scoped to window keys.
// Counters are advisory: a read-then-increment race across concurrent
// runs may overshoot a limit by a small margin, which is acceptable
// because the upstream provider enforces the real quota.
type QuotaRepository interface {
	// Usage returns the counter for a source in a window, 0 if absent
	Usage(ctx context.Context, source, windowKey string) (int, error)

	// Increment adds n calls to the counter, creating it if needed
	Increment(ctx context.Context, source, windowKey string, n int) error

	// Reset zeroes every counter for the given window key.
	// Reset is an explicit operation; stale counters persist until reset.
	Reset(ctx context.Context, windowKey string) error

	// List returns every tracked counter, for quota status reporting
	List(ctx context.Context) ([]QuotaState, error)
}
