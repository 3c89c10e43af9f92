package scoring

import (
	"fmt"

	"github.com/dealscout/dealscout-backend/internal/domain"
)

// AlertThresholds configures the independent alert checks. Alerts never
// feed back into scoring: a deal can score well and still carry warnings.
type AlertThresholds struct {
	MinFlipROI           float64 // below this, warn
	MinDSCR              float64 // lender comfort line
	MinCapRate           float64
	MinProfitProbability float64 // Monte-Carlo downside line
}

// DefaultAlertThresholds returns the reference alert lines
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		MinFlipROI:           0.10,
		MinDSCR:              1.20,
		MinCapRate:           0.05,
		MinProfitProbability: 0.50,
	}
}

// BuildAlerts runs every threshold check against the analysis outputs.
// Each check is independent; ordering is presentation-stable
// (errors first, then warnings, then informational).
func BuildAlerts(
	t AlertThresholds,
	flip domain.FlipAnalysis,
	rental domain.RentalAnalysis,
	arv domain.ARVEstimate,
	mc *domain.MonteCarloStats,
) []domain.Alert {
	var alerts []domain.Alert

	if rental.AnnualCashFlow.IsNegative() {
		monthly := rental.MonthlyCashFlow.Round(0)
		alerts = append(alerts, domain.Alert{
			Type:       domain.AlertError,
			Priority:   domain.PriorityHigh,
			Message:    fmt.Sprintf("negative rental cash flow of $%s/month", monthly),
			Suggestion: "raise rent, increase the down payment, or renegotiate the purchase price",
		})
	}

	if flip.NetProfit.IsNegative() {
		alerts = append(alerts, domain.Alert{
			Type:       domain.AlertError,
			Priority:   domain.PriorityHigh,
			Message:    fmt.Sprintf("flip loses $%s at the estimated ARV", flip.NetProfit.Abs().Round(0)),
			Suggestion: "lower the offer or cut the rehab scope",
		})
	} else if flip.ROI < t.MinFlipROI {
		alerts = append(alerts, domain.Alert{
			Type:       domain.AlertWarning,
			Priority:   domain.PriorityMedium,
			Message:    fmt.Sprintf("flip ROI of %.1f%% is below the %.0f%% minimum", flip.ROI*100, t.MinFlipROI*100),
			Suggestion: "thin margins leave no room for surprises; negotiate harder",
		})
	}

	if rental.AnnualDebtService.IsPositive() && rental.DSCR < t.MinDSCR {
		alerts = append(alerts, domain.Alert{
			Type:       domain.AlertWarning,
			Priority:   domain.PriorityHigh,
			Message:    fmt.Sprintf("DSCR of %.2f is below the %.2f most lenders require", rental.DSCR, t.MinDSCR),
			Suggestion: "a larger down payment or longer term would improve coverage",
		})
	}

	if rental.CapRate > 0 && rental.CapRate < t.MinCapRate {
		alerts = append(alerts, domain.Alert{
			Type:       domain.AlertWarning,
			Priority:   domain.PriorityLow,
			Message:    fmt.Sprintf("cap rate of %.1f%% is below the %.1f%% floor for this market", rental.CapRate*100, t.MinCapRate*100),
			Suggestion: "the price may be rich relative to the income it produces",
		})
	}

	if arv.Degraded {
		alerts = append(alerts, domain.Alert{
			Type:       domain.AlertWarning,
			Priority:   domain.PriorityHigh,
			Message:    "every comparable data source failed; ARV is a purchase-price heuristic",
			Suggestion: "re-run the analysis later or supply a manual ARV",
		})
	} else if arv.Level == domain.ConfidenceLow {
		alerts = append(alerts, domain.Alert{
			Type:       domain.AlertWarning,
			Priority:   domain.PriorityMedium,
			Message:    "low confidence in the ARV estimate",
			Suggestion: "verify the valuation with a local agent before committing",
		})
	}

	if mc != nil {
		if mc.Truncated {
			alerts = append(alerts, domain.Alert{
				Type:     domain.AlertInfo,
				Priority: domain.PriorityLow,
				Message: fmt.Sprintf("simulation truncated at %d of %d trials by the time budget",
					mc.TrialsRun, mc.TrialsRequested),
				Suggestion: "statistics reflect a partial batch",
			})
		}
		if mc.TrialsRun > 0 && mc.ProfitProbability < t.MinProfitProbability {
			alerts = append(alerts, domain.Alert{
				Type:       domain.AlertWarning,
				Priority:   domain.PriorityHigh,
				Message:    fmt.Sprintf("only %.0f%% of simulated outcomes were profitable", mc.ProfitProbability*100),
				Suggestion: "the deal is sensitive to its assumptions; stress the inputs",
			})
		}
	}

	if len(alerts) == 0 {
		alerts = append(alerts, domain.Alert{
			Type:     domain.AlertSuccess,
			Priority: domain.PriorityLow,
			Message:  "no threshold concerns detected",
		})
	}

	return alerts
}
