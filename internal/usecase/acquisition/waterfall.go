package acquisition

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dealscout/dealscout-backend/internal/domain"
	"github.com/dealscout/dealscout-backend/internal/metrics"
)

// Config tunes the waterfall's caching and quota behavior
type Config struct {
	CacheTTL        time.Duration  // entries older than this are logically absent
	FetchTimeout    time.Duration  // per-adapter bound; a timeout falls through like any error
	SafetyThreshold float64        // fraction of a source's limit at which it stops being eligible
	Limits          map[string]int // per-source hard limits; 0 or absent means unlimited
}

// DefaultConfig returns the reference acquisition shape
func DefaultConfig() Config {
	return Config{
		CacheTTL:        24 * time.Hour,
		FetchTimeout:    15 * time.Second,
		SafetyThreshold: 0.90,
	}
}

// Service is the data-acquisition waterfall: it orders source adapters by
// priority, consults the cache and quota store, and returns the first
// successful non-empty comparable set. Adapter attempts are sequential by
// design; quota safety and simplicity win over latency here.
type Service struct {
	Sources  []domain.CompsSource // tried in slice order
	Fallback domain.CompsSource   // AI estimation; tried last, quota-blind
	Cache    domain.CacheRepository
	Quota    domain.QuotaRepository

	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new acquisition Service instance
func NewService(
	sources []domain.CompsSource,
	fallback domain.CompsSource,
	cache domain.CacheRepository,
	quota domain.QuotaRepository,
	cfg Config,
	logger *slog.Logger,
) *Service {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 15 * time.Second
	}
	if cfg.SafetyThreshold <= 0 || cfg.SafetyThreshold > 1 {
		cfg.SafetyThreshold = 0.90
	}
	return &Service{
		Sources:  sources,
		Fallback: fallback,
		Cache:    cache,
		Quota:    quota,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// FetchResult carries a resolved comparable set with its provenance
type FetchResult struct {
	Comparables []domain.ComparableProperty
	Source      string // winning adapter; empty when served from cache
	CacheHit    bool
}

// FetchComparables resolves just the comparable records for a query
func (s *Service) FetchComparables(ctx context.Context, query domain.PropertyQuery, forceRefresh bool) ([]domain.ComparableProperty, error) {
	res, err := s.Fetch(ctx, query, forceRefresh)
	if err != nil {
		return nil, err
	}
	return res.Comparables, nil
}

// Fetch resolves the comparable set for a query.
//
// Logic:
//  1. Unless forceRefresh, a fresh cache entry short-circuits everything
//  2. Each configured source is tried in priority order: skipped when its
//     quota safety threshold is reached, invoked under a bounded timeout,
//     and filtered to schema-valid records before the non-empty check
//  3. The AI-estimation fallback runs last regardless of quota
//  4. The first success increments that source's usage counter and is
//     written through to the cache; total failure raises a typed
//     AllSourcesFailedError
//
// Store unavailability is never fatal: cache errors count as misses and
// quota errors as available (fail open), so the user flow is not blocked.
func (s *Service) Fetch(ctx context.Context, query domain.PropertyQuery, forceRefresh bool) (*FetchResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	key := query.Key()

	if !forceRefresh {
		if comps, ok := s.lookupCache(ctx, key); ok {
			return &FetchResult{Comparables: comps, CacheHit: true}, nil
		}
	}

	var failures []domain.SourceFailure

	for _, source := range s.Sources {
		if !s.SourceEligible(ctx, source.Name(), source.QuotaWindow()) {
			s.logger.Debug("skipping source, quota threshold reached", "source", source.Name())
			metrics.SourceFetches.WithLabelValues(source.Name(), "quota_skipped").Inc()
			failures = append(failures, domain.SourceFailure{Source: source.Name(), Err: domain.ErrQuotaExhausted})
			continue
		}

		comps, err := s.trySource(ctx, source, query)
		if err != nil {
			s.logger.Warn("source adapter failed", "source", source.Name(), "error", err)
			failures = append(failures, domain.SourceFailure{Source: source.Name(), Err: err})
			continue
		}
		return &FetchResult{Comparables: comps, Source: source.Name()}, nil
	}

	// Last resort: the estimation fallback runs even over quota
	if s.Fallback != nil {
		comps, err := s.trySource(ctx, s.Fallback, query)
		if err != nil {
			s.logger.Warn("estimation fallback failed", "source", s.Fallback.Name(), "error", err)
			failures = append(failures, domain.SourceFailure{Source: s.Fallback.Name(), Err: err})
		} else {
			return &FetchResult{Comparables: comps, Source: s.Fallback.Name()}, nil
		}
	}

	return nil, &domain.AllSourcesFailedError{Failures: failures}
}

// trySource invokes one adapter under the fetch timeout, filters the
// result to valid records, and on success settles quota and cache.
func (s *Service) trySource(ctx context.Context, source domain.CompsSource, query domain.PropertyQuery) ([]domain.ComparableProperty, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	comps, err := source.FetchComparables(fetchCtx, query)
	if err != nil {
		metrics.SourceFetches.WithLabelValues(source.Name(), "error").Inc()
		return nil, err
	}

	// A non-empty but invalid list is an adapter failure, not a result
	valid := domain.FilterValid(comps)
	if len(valid) == 0 {
		metrics.SourceFetches.WithLabelValues(source.Name(), "empty").Inc()
		return nil, errors.New("no valid comparables in response")
	}

	metrics.SourceFetches.WithLabelValues(source.Name(), "success").Inc()
	s.settleSuccess(ctx, source, query.Key(), valid)
	return valid, nil
}

// settleSuccess increments the winning source's counter and writes the
// result through to the cache. Both are best-effort: a store failure is
// logged, not surfaced.
func (s *Service) settleSuccess(ctx context.Context, source domain.CompsSource, key string, comps []domain.ComparableProperty) {
	s.RecordUsage(ctx, source.Name(), source.QuotaWindow())
	if err := s.Cache.Set(ctx, key, comps, s.now()); err != nil {
		s.logger.Warn("failed to write comparables cache", "key", key, "error", err)
	}
}

// lookupCache returns a fresh cached set if one exists. Stale entries
// and store errors both count as misses.
func (s *Service) lookupCache(ctx context.Context, key string) ([]domain.ComparableProperty, bool) {
	entry, err := s.Cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			metrics.CacheLookups.WithLabelValues("miss").Inc()
		} else {
			s.logger.Warn("cache lookup failed, treating as miss", "key", key, "error", err)
			metrics.CacheLookups.WithLabelValues("error").Inc()
		}
		return nil, false
	}
	if !entry.IsFresh(s.cfg.CacheTTL, s.now()) {
		metrics.CacheLookups.WithLabelValues("stale").Inc()
		return nil, false
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return entry.Comparables, true
}

// SourceEligible checks a metered source against its safety threshold.
// Advisory only: concurrent runs may overshoot slightly, which the
// upstream provider's own enforcement absorbs. Any metered provider
// call, comparable fetch or AVM estimate alike, goes through here.
func (s *Service) SourceEligible(ctx context.Context, name string, window domain.QuotaWindow) bool {
	limit := s.cfg.Limits[name]
	if limit <= 0 {
		return true
	}

	used, err := s.Quota.Usage(ctx, name, window.Key(s.now()))
	if err != nil {
		s.logger.Warn("quota lookup failed, treating as available", "source", name, "error", err)
		return true
	}
	return float64(used) < float64(limit)*s.cfg.SafetyThreshold
}

// RecordUsage counts one metered provider call. Best-effort: a store
// failure is logged, never surfaced.
func (s *Service) RecordUsage(ctx context.Context, name string, window domain.QuotaWindow) {
	if err := s.Quota.Increment(ctx, name, window.Key(s.now()), 1); err != nil {
		s.logger.Warn("failed to increment quota usage", "source", name, "error", err)
	}
}

// QuotaStatus reports every tracked counter with its configured limit
func (s *Service) QuotaStatus(ctx context.Context) ([]domain.QuotaState, error) {
	states, err := s.Quota.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range states {
		states[i].Limit = s.cfg.Limits[states[i].Source]
	}
	return states, nil
}

// ResetQuota zeroes the counters for the window containing now.
// Explicit by contract; counters never reset themselves.
func (s *Service) ResetQuota(ctx context.Context, window domain.QuotaWindow) error {
	return s.Quota.Reset(ctx, window.Key(s.now()))
}
