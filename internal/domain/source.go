package domain

import "context"

// CompsSource is the contract every upstream data provider adapter
// implements. The acquisition waterfall tries sources in priority order
// and accepts the first non-empty, valid comparable set.
type CompsSource interface {
	// Name returns the stable source identifier used for quota
	// counters and comparable attribution
	Name() string

	// QuotaWindow returns the window the provider's call quota rolls over
	QuotaWindow() QuotaWindow

	// FetchComparables resolves comparable sales for the subject property.
	// Implementations must honor ctx cancellation and bound their own
	// network timeouts.
	FetchComparables(ctx context.Context, query PropertyQuery) ([]ComparableProperty, error)
}

// ExternalEstimate is an automated valuation returned by a provider,
// independent of the comp-derived estimate.
type ExternalEstimate struct {
	Source     string
	Value      float64
	Confidence float64      // 0..1, provider self-reported or derived
	History    []PricePoint // optional price history for trend validation
}

// ValueEstimator is implemented by providers that expose an automated
// valuation model alongside (or instead of) comparable sales. Estimate
// calls are metered against the same quota counters as comparable
// fetches, so the window is part of the contract.
type ValueEstimator interface {
	Name() string
	QuotaWindow() QuotaWindow
	EstimateValue(ctx context.Context, query PropertyQuery) (*ExternalEstimate, error)
}

// PricePoint is one observation in a historical value series
type PricePoint struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}
