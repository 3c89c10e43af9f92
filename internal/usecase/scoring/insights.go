package scoring

import (
	"fmt"

	"github.com/dealscout/dealscout-backend/internal/domain"
)

// BuildInsights turns the numbers into short human-readable observations
// for the presentation layer. Purely derived; no thresholds here feed
// scoring or alerts.
func BuildInsights(
	flip domain.FlipAnalysis,
	rental domain.RentalAnalysis,
	arv domain.ARVEstimate,
	metrics domain.AdvancedMetrics,
) []string {
	var insights []string

	if flip.NetProfit.IsPositive() && rental.AnnualCashFlow.IsPositive() {
		if flip.AnnualizedROI > rental.CashOnCash {
			insights = append(insights, fmt.Sprintf(
				"both strategies work; flipping returns %.1f%% annualized versus %.1f%% cash-on-cash as a rental",
				flip.AnnualizedROI*100, rental.CashOnCash*100))
		} else {
			insights = append(insights, fmt.Sprintf(
				"both strategies work; holding as a rental returns %.1f%% cash-on-cash versus %.1f%% annualized as a flip",
				rental.CashOnCash*100, flip.AnnualizedROI*100))
		}
	} else if flip.NetProfit.IsPositive() {
		insights = append(insights, "the numbers favor a flip; the rental cash flow does not carry the debt")
	} else if rental.AnnualCashFlow.IsPositive() {
		insights = append(insights, "the numbers favor holding as a rental; the flip margin is under water")
	}

	if metrics.BreakEvenRent.IsPositive() {
		insights = append(insights, fmt.Sprintf(
			"rent can fall to $%s/month before the rental stops covering its costs",
			metrics.BreakEvenRent.Round(0)))
	}
	if metrics.BreakEvenOccupancy > 1 {
		insights = append(insights, "the rental cannot break even at full occupancy under the current rent")
	}

	if metrics.IRRDefined {
		insights = append(insights, fmt.Sprintf("projected IRR over the hold period is %.1f%%", metrics.IRR*100))
	} else {
		insights = append(insights, "IRR is undefined for this cash-flow profile")
	}

	if rental.Refinance != nil && rental.Refinance.CapitalReturned {
		insights = append(insights, "the refinance returns all deployed capital; remaining cash flow is an infinite-return position")
	}

	if arv.CompCount > 0 {
		insights = append(insights, fmt.Sprintf(
			"valuation rests on %d comparable sales (%s confidence)", arv.CompCount, arv.Level))
	}

	return insights
}
