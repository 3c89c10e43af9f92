package finance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealscout/dealscout-backend/internal/domain"
)

func TestNPV_KnownSeries(t *testing.T) {
	// -1000 now, +1100 in one year, discounted at 10%: NPV = 0
	npv := NPV(0.10, []float64{-1000, 1100})
	assert.InDelta(t, 0, npv, 1e-9)

	// At a lower discount rate the same series is positive
	assert.Positive(t, NPV(0.05, []float64{-1000, 1100}))
}

func TestIRR_SimpleTwoPeriod(t *testing.T) {
	// -1000 then +1100: the rate that zeroes NPV is exactly 10%
	irr, err := IRR([]float64{-1000, 1100})
	require.NoError(t, err)
	assert.InDelta(t, 0.10, irr, 1e-6)
}

func TestIRR_MultiYearSeries(t *testing.T) {
	// -10,000 followed by five years of 3,000 has an IRR near 15.24%
	irr, err := IRR([]float64{-10000, 3000, 3000, 3000, 3000, 3000})
	require.NoError(t, err)
	assert.InDelta(t, 0.1524, irr, 1e-3)

	// Sanity: NPV at the solved rate is ~zero
	assert.InDelta(t, 0, NPV(irr, []float64{-10000, 3000, 3000, 3000, 3000, 3000}), 1e-4)
}

func TestIRR_NoSolution(t *testing.T) {
	// All-positive flows have no real root; the solver must report
	// no-solution within its iteration budget instead of spinning.
	_, err := IRR([]float64{1000, 1000, 1000})
	assert.ErrorIs(t, err, domain.ErrNoSolution)

	// Degenerate series
	_, err = IRR([]float64{-1000})
	assert.ErrorIs(t, err, domain.ErrNoSolution)
}

func TestBreakEvenOccupancy_AboveOneWhenUnderwater(t *testing.T) {
	// Rig the deal so even full occupancy cannot cover debt + expenses
	a := baseRentalAssumptions()
	a.MonthlyRent = decimal.NewFromInt(900)
	arv := decimal.NewFromInt(350000)

	base := AnalyzeRental(a, arv)
	occupancy := BreakEvenOccupancy(a, arv, base.AnnualDebtService)
	assert.Greater(t, occupancy, 1.0)
}

func TestCompareLoans_InterestOnlyVersusAmortizing(t *testing.T) {
	noi := decimal.NewFromInt(18000)
	loan := decimal.NewFromInt(225000)

	comparisons := CompareLoans(noi, loan, []domain.LoanTerms{
		{Label: "30yr fixed", Rate: 0.065, TermYears: 30},
		{Label: "interest only", Rate: 0.065, TermYears: 30, InterestOnly: true},
	})
	require.Len(t, comparisons, 2)

	amortizing, interestOnly := comparisons[0], comparisons[1]

	// Interest-only payment: 225,000 x 6.5% / 12 = 1,218.75
	ioPayment, _ := interestOnly.MonthlyPayment.Float64()
	assert.InDelta(t, 1218.75, ioPayment, 0.01)

	// Interest-only payment is lower, so its cash flow is higher
	assert.True(t, interestOnly.MonthlyPayment.LessThan(amortizing.MonthlyPayment))
	assert.True(t, interestOnly.AnnualCashFlow.GreaterThan(amortizing.AnnualCashFlow))
	assert.Greater(t, interestOnly.DSCR, amortizing.DSCR)
}

func TestAdvancedMetricsFor_FullAssembly(t *testing.T) {
	a := baseRentalAssumptions()
	a.DiscountRate = 0.08
	a.AppreciationRate = 0.03
	a.RentGrowthRate = 0.02
	arv := decimal.NewFromInt(350000)

	rental := AnalyzeRental(a, arv)
	metrics := AdvancedMetricsFor(a, arv, rental, []domain.LoanTerms{
		{Label: "15yr fixed", Rate: 0.0575, TermYears: 15},
	})

	// A deal with appreciation and a sale at the end should solve
	assert.True(t, metrics.IRRDefined)
	assert.Greater(t, metrics.IRR, -1.0)
	assert.True(t, metrics.BreakEvenRent.IsPositive())
	assert.Positive(t, metrics.BreakEvenOccupancy)
	assert.Len(t, metrics.LoanComparisons, 1)
}

func TestHoldCashFlows_ShapeAndTerminalValue(t *testing.T) {
	a := baseRentalAssumptions()
	a.AppreciationRate = 0.03
	a.SellingCostRate = 0.06
	arv := decimal.NewFromInt(350000)

	rental := AnalyzeRental(a, arv)
	flows := HoldCashFlows(a, arv, rental)

	require.Len(t, flows, a.HoldYears+1)
	deployed, _ := rental.CashDeployed.Float64()
	assert.InDelta(t, -deployed, flows[0], 1e-9)

	// Terminal year dwarfs the interim years because it includes the sale
	assert.Greater(t, flows[a.HoldYears], flows[1]*5)
}
