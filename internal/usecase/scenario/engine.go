package scenario

import (
	"github.com/shopspring/decimal"

	"github.com/dealscout/dealscout-backend/internal/domain"
	"github.com/dealscout/dealscout-backend/internal/usecase/finance"
)

// Apply perturbs a baseline input set with a named adjustment and
// returns the adjusted inputs plus the adjusted ARV. The single-scenario
// and Monte-Carlo paths both go through this function so a zero
// adjustment reproduces the base case exactly.
func Apply(a domain.Assumptions, arv decimal.Decimal, adj domain.ScenarioAdjustment) (domain.Assumptions, decimal.Decimal) {
	adjusted := a // value copy; result records are never mutated in place

	adjustedARV := arv.Mul(decimal.NewFromFloat(1 + adj.ARVPct))
	adjusted.RehabCost = a.RehabCost.Mul(decimal.NewFromFloat(1 + adj.RehabPct))
	adjusted.MonthlyRent = a.MonthlyRent.Mul(decimal.NewFromFloat(1 + adj.RentPct))

	adjusted.InterestRate = a.InterestRate + adj.RateDelta
	if adjusted.InterestRate < 0 {
		adjusted.InterestRate = 0
	}

	adjusted.MonthsToFlip = a.MonthsToFlip + adj.TimelineDeltaMonths
	if adjusted.MonthsToFlip < 1 {
		adjusted.MonthsToFlip = 1
	}

	return adjusted, adjustedARV
}

// Run re-runs the calculation core under one adjustment and reports both
// the absolute results and the deltas from the supplied base case.
func Run(
	a domain.Assumptions,
	arv decimal.Decimal,
	baseFlip domain.FlipAnalysis,
	baseRental domain.RentalAnalysis,
	adj domain.ScenarioAdjustment,
) domain.ScenarioResult {
	adjusted, adjustedARV := Apply(a, arv, adj)

	flip := finance.AnalyzeFlip(adjusted, adjustedARV)
	rental := finance.AnalyzeRental(adjusted, adjustedARV)

	return domain.ScenarioResult{
		Adjustment: adj,
		Flip:       flip,
		Rental:     rental,
		Deltas: domain.ScenarioDeltas{
			NetProfit:      flip.NetProfit.Sub(baseFlip.NetProfit),
			ROI:            flip.ROI - baseFlip.ROI,
			AnnualCashFlow: rental.AnnualCashFlow.Sub(baseRental.AnnualCashFlow),
			CapRate:        rental.CapRate - baseRental.CapRate,
			DSCR:           rental.DSCR - baseRental.DSCR,
		},
	}
}

// RunAll evaluates a list of named what-if scenarios against one base case
func RunAll(
	a domain.Assumptions,
	arv decimal.Decimal,
	baseFlip domain.FlipAnalysis,
	baseRental domain.RentalAnalysis,
	adjustments []domain.ScenarioAdjustment,
) []domain.ScenarioResult {
	results := make([]domain.ScenarioResult, 0, len(adjustments))
	for _, adj := range adjustments {
		results = append(results, Run(a, arv, baseFlip, baseRental, adj))
	}
	return results
}
