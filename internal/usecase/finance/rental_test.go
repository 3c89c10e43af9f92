package finance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealscout/dealscout-backend/internal/domain"
)

func baseRentalAssumptions() domain.Assumptions {
	return domain.Assumptions{
		PurchasePrice:     decimal.NewFromInt(300000),
		RehabCost:         decimal.NewFromInt(20000),
		DownPaymentRate:   0.25,
		InterestRate:      0.065,
		LoanTermYears:     30,
		MonthlyRent:       decimal.NewFromInt(2500),
		VacancyRate:       0.05,
		MaintenanceRate:   0.01,
		ManagementRate:    0.08,
		ManagementEnabled: true,
		PropertyTaxAnnual: decimal.NewFromInt(3600),
		InsuranceAnnual:   decimal.NewFromInt(1400),
		HOAMonthly:        decimal.Zero,
		UtilitiesMonthly:  decimal.Zero,
		MonthsToFlip:      6,
		HoldYears:         5,
	}
}

func TestAnalyzeRental_IncomeWaterfall(t *testing.T) {
	a := baseRentalAssumptions()
	arv := decimal.NewFromInt(350000)

	result := AnalyzeRental(a, arv)

	// Gross: 2,500 x 12 = 30,000; vacancy 5% = 1,500; EGI = 28,500
	assert.True(t, result.GrossScheduledIncome.Equal(decimal.NewFromInt(30000)))
	assert.True(t, result.VacancyLoss.Equal(decimal.NewFromInt(1500)))
	assert.True(t, result.EffectiveGrossIncome.Equal(decimal.NewFromInt(28500)))

	// opEx: 3,600 tax + 1,400 insurance + 3,500 maintenance (1% of 350k)
	// + 2,280 management (8% of EGI) = 10,780
	assert.True(t, result.OperatingExpenses.Equal(decimal.NewFromInt(10780)),
		"opEx: %s", result.OperatingExpenses)

	// NOI = 28,500 - 10,780 = 17,720
	assert.True(t, result.NOI.Equal(decimal.NewFromInt(17720)))

	// Cap rate = NOI / value
	assert.InDelta(t, 17720.0/350000.0, result.CapRate, 1e-9)
}

func TestAnalyzeRental_ManagementToggle(t *testing.T) {
	a := baseRentalAssumptions()
	a.ManagementEnabled = false

	result := AnalyzeRental(a, decimal.NewFromInt(350000))

	// Without management the 2,280 fee disappears from opEx
	assert.True(t, result.OperatingExpenses.Equal(decimal.NewFromInt(8500)),
		"opEx without management: %s", result.OperatingExpenses)
}

func TestAnalyzeRental_DSCRBoundary(t *testing.T) {
	// Construct a deal where NOI exactly equals annual debt service:
	// DSCR must be exactly 1.00.
	a := baseRentalAssumptions()
	arv := decimal.NewFromInt(350000)

	base := AnalyzeRental(a, arv)
	require.True(t, base.AnnualDebtService.IsPositive())

	// Back-solve the rent that makes NOI equal debt service, then verify
	rent := BreakEvenRent(a, arv, base.AnnualDebtService)
	a.MonthlyRent = rent

	result := AnalyzeRental(a, arv)
	assert.InDelta(t, 1.00, result.DSCR, 1e-6)
	// Break-even by construction: cash flow is zero
	cashFlowF, _ := result.AnnualCashFlow.Float64()
	assert.InDelta(t, 0, cashFlowF, 1e-4)
}

func TestAnalyzeRental_NoDebt(t *testing.T) {
	a := baseRentalAssumptions()
	a.DownPaymentRate = 1.0 // all-cash purchase

	result := AnalyzeRental(a, decimal.NewFromInt(350000))

	assert.True(t, result.AnnualDebtService.IsZero())
	assert.Zero(t, result.DSCR)
	// All-cash: cash flow equals NOI
	assert.True(t, result.AnnualCashFlow.Equal(result.NOI))
}

func TestAnalyzeRental_DepreciationAndAfterTax(t *testing.T) {
	a := baseRentalAssumptions()
	a.TaxRate = 0.24
	a.LandValueRate = 0.20
	arv := decimal.NewFromInt(350000)

	result := AnalyzeRental(a, arv)

	// Improvement basis: 300,000 x 80% + 20,000 rehab = 260,000;
	// straight-line over 27.5 years
	depF, _ := result.AnnualDepreciation.Float64()
	assert.InDelta(t, 260000.0/27.5, depF, 1e-6)

	// Taxable income deducts year-one mortgage interest and depreciation
	interest := InterestForYear(decimal.NewFromInt(225000), a.InterestRate, a.LoanTermYears, 1)
	expectedTaxable := result.NOI.Sub(interest).Sub(result.AnnualDepreciation)
	assert.True(t, result.TaxableIncome.Equal(expectedTaxable),
		"taxable: %s want %s", result.TaxableIncome, expectedTaxable)

	expectedTax := expectedTaxable.Mul(decimal.NewFromFloat(0.24))
	assert.True(t, result.TaxLiability.Equal(expectedTax))
	assert.True(t, result.AfterTaxCashFlow.Equal(result.AnnualCashFlow.Sub(expectedTax)))
}

func TestAnalyzeRental_PaperLossSheltersIncome(t *testing.T) {
	// Depreciation plus interest exceeding NOI produces a negative tax
	// liability, so after-tax cash flow beats pre-tax cash flow
	a := baseRentalAssumptions()
	a.TaxRate = 0.32
	a.MonthlyRent = decimal.NewFromInt(1500)

	result := AnalyzeRental(a, decimal.NewFromInt(350000))

	require.True(t, result.TaxableIncome.IsNegative())
	assert.True(t, result.TaxLiability.IsNegative())
	assert.True(t, result.AfterTaxCashFlow.GreaterThan(result.AnnualCashFlow))
}

func TestAnalyzeRental_ZeroTaxRateLeavesCashFlowUntouched(t *testing.T) {
	a := baseRentalAssumptions()

	result := AnalyzeRental(a, decimal.NewFromInt(350000))

	// Depreciation is still reported; the liability is simply zero
	assert.True(t, result.AnnualDepreciation.IsPositive())
	assert.True(t, result.TaxLiability.IsZero())
	assert.True(t, result.AfterTaxCashFlow.Equal(result.AnnualCashFlow))
}

func TestAnalyzeRental_RefinanceCashOut(t *testing.T) {
	a := baseRentalAssumptions()
	a.Refinance = &domain.RefinanceAssumptions{
		LTV:          0.75,
		Rate:         0.07,
		TermYears:    30,
		ClosingCosts: decimal.NewFromInt(5000),
	}
	arv := decimal.NewFromInt(400000)

	result := AnalyzeRental(a, arv)
	require.NotNil(t, result.Refinance)
	refi := result.Refinance

	// New loan: 400,000 x 75% = 300,000
	assert.True(t, refi.NewLoanAmount.Equal(decimal.NewFromInt(300000)))

	// Payoff is the purchase loan: 300,000 x 75% = 225,000
	assert.True(t, refi.LoanPayoff.Equal(decimal.NewFromInt(225000)))

	// Cash out: 300,000 - 225,000 - 5,000 = 70,000
	assert.True(t, refi.CashOut.Equal(decimal.NewFromInt(70000)))

	// Deployed was 75,000 down + 20,000 rehab = 95,000; 25,000 stays in
	assert.True(t, refi.CashLeftInDeal.Equal(decimal.NewFromInt(25000)))
	assert.False(t, refi.CapitalReturned)
	assert.Positive(t, refi.DSCR)
}

func TestAnalyzeRental_RefinanceFullCapitalReturn(t *testing.T) {
	// A refinance that pulls out more than was deployed makes the
	// cash-on-cash denominator vanish; flag it instead of dividing.
	a := baseRentalAssumptions()
	a.RehabCost = decimal.Zero
	a.Refinance = &domain.RefinanceAssumptions{
		LTV:       0.80,
		Rate:      0.07,
		TermYears: 30,
	}

	result := AnalyzeRental(a, decimal.NewFromInt(500000))
	require.NotNil(t, result.Refinance)

	// New loan 400,000 vs payoff 225,000: cash out 175,000 > 75,000 deployed
	assert.True(t, result.Refinance.CapitalReturned)
	assert.Zero(t, result.Refinance.CashOnCash)
}
