package scenario

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealscout/dealscout-backend/internal/domain"
	"github.com/dealscout/dealscout-backend/internal/usecase/finance"
)

func baseAssumptions() domain.Assumptions {
	return domain.Assumptions{
		PurchasePrice:     decimal.NewFromInt(400000),
		RehabCost:         decimal.NewFromInt(40000),
		DownPaymentRate:   0.20,
		InterestRate:      0.065,
		LoanTermYears:     30,
		MonthsToFlip:      6,
		SellingCostRate:   0.06,
		MonthlyRent:       decimal.NewFromInt(2800),
		VacancyRate:       0.05,
		MaintenanceRate:   0.01,
		ManagementRate:    0.08,
		ManagementEnabled: true,
		PropertyTaxAnnual: decimal.NewFromInt(4800),
		InsuranceAnnual:   decimal.NewFromInt(1600),
		HoldYears:         5,
	}
}

func TestRun_ZeroAdjustmentReproducesBaseCase(t *testing.T) {
	// A 0% adjustment applied to any base case must reproduce the base
	// case's results exactly; the calculation core is pure.
	a := baseAssumptions()
	arv := decimal.NewFromInt(480000)

	baseFlip := finance.AnalyzeFlip(a, arv)
	baseRental := finance.AnalyzeRental(a, arv)

	result := Run(a, arv, baseFlip, baseRental, domain.ScenarioAdjustment{Name: "no-op"})

	assert.True(t, result.Flip.NetProfit.Equal(baseFlip.NetProfit))
	assert.Equal(t, baseFlip.ROI, result.Flip.ROI)
	assert.True(t, result.Rental.AnnualCashFlow.Equal(baseRental.AnnualCashFlow))
	assert.Equal(t, baseRental.DSCR, result.Rental.DSCR)

	assert.True(t, result.Deltas.NetProfit.IsZero())
	assert.Zero(t, result.Deltas.ROI)
	assert.True(t, result.Deltas.AnnualCashFlow.IsZero())
}

func TestRun_ARVDownsideMovesDeltasNegative(t *testing.T) {
	a := baseAssumptions()
	arv := decimal.NewFromInt(480000)
	baseFlip := finance.AnalyzeFlip(a, arv)
	baseRental := finance.AnalyzeRental(a, arv)

	result := Run(a, arv, baseFlip, baseRental, domain.ScenarioAdjustment{
		Name:   "arv -10%",
		ARVPct: -0.10,
	})

	assert.True(t, result.Deltas.NetProfit.IsNegative())
	assert.Negative(t, result.Deltas.ROI)
	// A cheaper valuation raises cap rate (same NOI on a smaller value)
	assert.Positive(t, result.Deltas.CapRate)
}

func TestApply_RateFloorAndTimelineFloor(t *testing.T) {
	a := baseAssumptions()

	adjusted, _ := Apply(a, decimal.NewFromInt(480000), domain.ScenarioAdjustment{
		RateDelta:           -1.0, // would push the rate below zero
		TimelineDeltaMonths: -12,  // would push months below one
	})

	assert.Zero(t, adjusted.InterestRate)
	assert.Equal(t, 1, adjusted.MonthsToFlip)
}

func TestRunAll_PreservesOrder(t *testing.T) {
	a := baseAssumptions()
	arv := decimal.NewFromInt(480000)
	baseFlip := finance.AnalyzeFlip(a, arv)
	baseRental := finance.AnalyzeRental(a, arv)

	results := RunAll(a, arv, baseFlip, baseRental, []domain.ScenarioAdjustment{
		{Name: "best", ARVPct: 0.10},
		{Name: "worst", ARVPct: -0.10, RehabPct: 0.30},
	})

	require.Len(t, results, 2)
	assert.Equal(t, "best", results[0].Adjustment.Name)
	assert.Equal(t, "worst", results[1].Adjustment.Name)
	assert.True(t, results[0].Flip.NetProfit.GreaterThan(results[1].Flip.NetProfit))
}
