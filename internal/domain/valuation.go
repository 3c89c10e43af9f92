package domain

import "github.com/shopspring/decimal"

// ConfidenceLevel buckets the blended confidence score for presentation
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "HIGH"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceLow    ConfidenceLevel = "LOW"
)

// LevelForConfidence maps a 0..1 confidence score to a level
func LevelForConfidence(score float64) ConfidenceLevel {
	switch {
	case score >= 0.75:
		return ConfidenceHigh
	case score >= 0.45:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// ValuationEstimate is one source's contribution to the blended ARV.
// Weights over the sources that actually returned data sum to 1.0;
// failed sources are excluded and the remainder renormalized.
type ValuationEstimate struct {
	Source     string
	Value      decimal.Decimal
	Weight     float64
	Confidence float64
}

// ARVEstimate is the aggregated after-repair value for the subject
type ARVEstimate struct {
	Value      decimal.Decimal
	Confidence float64 // 0..1 blended confidence
	Level      ConfidenceLevel
	Sources    []ValuationEstimate
	CompCount  int
	Warnings   []string

	// Degraded is true when every source failed and the value is the
	// purchase-price heuristic rather than market data
	Degraded bool
}
