package domain

import "github.com/shopspring/decimal"

// ScenarioAdjustment is a named set of deltas applied to baseline inputs.
// Percentage deltas are fractions (+0.10 = +10%); RateDelta is an absolute
// shift of the annual interest rate; TimelineDeltaMonths extends or
// shortens the flip timeline. The single-scenario and Monte-Carlo paths
// apply adjustments through the same code path.
type ScenarioAdjustment struct {
	Name                string
	ARVPct              float64
	RehabPct            float64
	RentPct             float64
	RateDelta           float64
	TimelineDeltaMonths int
}

// IsZero reports whether the adjustment changes nothing
func (s ScenarioAdjustment) IsZero() bool {
	return s.ARVPct == 0 && s.RehabPct == 0 && s.RentPct == 0 &&
		s.RateDelta == 0 && s.TimelineDeltaMonths == 0
}

// ScenarioDeltas captures headline movements versus the base case
type ScenarioDeltas struct {
	NetProfit      decimal.Decimal
	ROI            float64
	AnnualCashFlow decimal.Decimal
	CapRate        float64
	DSCR           float64
}

// ScenarioResult pairs the re-run analyses with their deltas from base
type ScenarioResult struct {
	Adjustment ScenarioAdjustment
	Flip       FlipAnalysis
	Rental     RentalAnalysis
	Deltas     ScenarioDeltas
}

// MetricStats summarizes one output metric across Monte-Carlo trials
type MetricStats struct {
	Mean   float64
	Median float64
	P10    float64
	P90    float64
	Min    float64
	Max    float64
	StdDev float64
}

// MonteCarloStats aggregates a randomized multi-trial simulation.
// Truncated is set when the wall-clock budget cut the batch short, so
// short-sample statistics are never silently reported as complete.
type MonteCarloStats struct {
	TrialsRequested int
	TrialsRun       int
	TrialsFailed    int
	Truncated       bool
	Seed            int64

	NetProfit      MetricStats
	FlipROI        MetricStats
	AnnualCashFlow MetricStats
	CapRate        MetricStats

	// ProfitProbability is the share of completed trials with positive
	// flip net profit
	ProfitProbability float64
}
