package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var once sync.Once

var (
	// CacheLookups counts comparable-cache lookups by outcome.
	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dealscout",
		Subsystem: "acquisition",
		Name:      "cache_lookups_total",
		Help:      "Total comparable-cache lookups, labeled hit, stale, miss, or error.",
	}, []string{"result"})

	// SourceFetches counts upstream adapter attempts by source and outcome.
	SourceFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dealscout",
		Subsystem: "acquisition",
		Name:      "source_fetch_total",
		Help:      "Total upstream comparable fetches, labeled by source and result (success, error, empty, quota_skipped).",
	}, []string{"source", "result"})

	// AnalysesTotal counts completed analysis runs by outcome.
	AnalysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dealscout",
		Subsystem: "engine",
		Name:      "analyses_total",
		Help:      "Total analysis runs, labeled ok, degraded, or error.",
	}, []string{"result"})

	// AnalysisDuration is end-to-end analysis latency including acquisition.
	AnalysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "dealscout",
		Subsystem: "engine",
		Name:      "analysis_duration_seconds",
		Help:      "End-to-end time for one analysis run.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})
)

// Register installs the collectors on the default registry. Safe to call
// more than once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			CacheLookups,
			SourceFetches,
			AnalysesTotal,
			AnalysisDuration,
		)
	})
}
