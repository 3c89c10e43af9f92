package domain

import (
	"github.com/shopspring/decimal"
)

// RefinanceAssumptions configures the BRRRR refinance leg of a rental run
type RefinanceAssumptions struct {
	LTV          float64 // new loan as fraction of ARV
	Rate         float64 // annual, fraction
	TermYears    int
	ClosingCosts decimal.Decimal
}

// Assumptions is the configuration bag of financing and expense inputs
// supplied by the caller alongside the property query. Numeric fields are
// expected to be pre-validated; Clamp defensively normalizes them anyway.
// Percentages are carried as fractions internally.
type Assumptions struct {
	PurchasePrice   decimal.Decimal
	RehabCost       decimal.Decimal
	ContingencyRate float64 // fraction of rehab held in reserve
	AcquisitionCost decimal.Decimal

	DownPaymentRate float64
	InterestRate    float64 // annual, fraction
	LoanTermYears   int
	HelocAmount     decimal.Decimal
	HelocRate       float64
	DirectCash      decimal.Decimal // cash invested outside financing

	MonthsToFlip    int
	SellingCostRate float64

	MonthlyRent       decimal.Decimal
	VacancyRate       float64
	MaintenanceRate   float64 // fraction of property value, annual
	ManagementRate    float64 // fraction of effective gross income
	ManagementEnabled bool
	PropertyTaxAnnual decimal.Decimal
	InsuranceAnnual   decimal.Decimal
	HOAMonthly        decimal.Decimal
	UtilitiesMonthly  decimal.Decimal

	// Long-horizon inputs for IRR/NPV
	HoldYears        int
	DiscountRate     float64
	AppreciationRate float64
	RentGrowthRate   float64

	// Tax inputs for the after-tax rental leg. LandValueRate is the share
	// of the purchase price attributed to land, which does not depreciate.
	TaxRate       float64
	LandValueRate float64

	Refinance *RefinanceAssumptions
}

// Clamp normalizes rate fields into [0, 1] and floors negative currency
// amounts at zero. The caller validates; this is the engine's last line.
func (a *Assumptions) Clamp() {
	clampRate := func(r *float64) {
		if *r < 0 {
			*r = 0
		}
		if *r > 1 {
			*r = *r / 100 // caller sent a percentage, not a fraction
		}
		if *r > 1 {
			*r = 1
		}
	}
	clampRate(&a.ContingencyRate)
	clampRate(&a.DownPaymentRate)
	clampRate(&a.InterestRate)
	clampRate(&a.HelocRate)
	clampRate(&a.SellingCostRate)
	clampRate(&a.VacancyRate)
	clampRate(&a.MaintenanceRate)
	clampRate(&a.ManagementRate)
	clampRate(&a.DiscountRate)
	clampRate(&a.TaxRate)
	clampRate(&a.LandValueRate)

	floor := func(d *decimal.Decimal) {
		if d.IsNegative() {
			*d = decimal.Zero
		}
	}
	floor(&a.PurchasePrice)
	floor(&a.RehabCost)
	floor(&a.AcquisitionCost)
	floor(&a.HelocAmount)
	floor(&a.DirectCash)
	floor(&a.MonthlyRent)
	floor(&a.PropertyTaxAnnual)
	floor(&a.InsuranceAnnual)
	floor(&a.HOAMonthly)
	floor(&a.UtilitiesMonthly)

	if a.MonthsToFlip <= 0 {
		a.MonthsToFlip = 6
	}
	if a.LoanTermYears <= 0 {
		a.LoanTermYears = 30
	}
	if a.HoldYears <= 0 {
		a.HoldYears = 5
	}
	if a.Refinance != nil {
		clampRate(&a.Refinance.LTV)
		clampRate(&a.Refinance.Rate)
		if a.Refinance.TermYears <= 0 {
			a.Refinance.TermYears = 30
		}
		floor(&a.Refinance.ClosingCosts)
	}
}

// FlipAnalysis is the immutable result record of a fix-and-flip run
type FlipAnalysis struct {
	PurchasePrice decimal.Decimal
	RehabCost     decimal.Decimal // includes contingency
	ARV           decimal.Decimal
	TotalCost     decimal.Decimal
	HoldingCosts  decimal.Decimal
	SellingCosts  decimal.Decimal
	NetProfit     decimal.Decimal
	CashDeployed  decimal.Decimal
	ROI           float64 // fraction of cash deployed
	AnnualizedROI float64
	MonthsHeld    int
}

// RefinanceAnalysis is the post-refinance leg of a BRRRR rental run
type RefinanceAnalysis struct {
	NewLoanAmount     decimal.Decimal
	LoanPayoff        decimal.Decimal
	CashOut           decimal.Decimal
	CashLeftInDeal    decimal.Decimal
	AnnualDebtService decimal.Decimal
	AnnualCashFlow    decimal.Decimal
	CashOnCash        float64
	DSCR              float64

	// CapitalReturned is true when the refinance pulled out at least the
	// full cash deployed, which makes cash-on-cash undefined (division by
	// zero or negative basis)
	CapitalReturned bool
}

// RentalAnalysis is the immutable result record of a buy-and-hold run
type RentalAnalysis struct {
	GrossScheduledIncome decimal.Decimal // annual
	VacancyLoss          decimal.Decimal
	EffectiveGrossIncome decimal.Decimal
	OperatingExpenses    decimal.Decimal
	NOI                  decimal.Decimal
	AnnualDebtService    decimal.Decimal
	AnnualCashFlow       decimal.Decimal
	MonthlyCashFlow      decimal.Decimal
	CashDeployed         decimal.Decimal
	CapRate              float64
	CashOnCash           float64
	DSCR                 float64

	// After-tax leg: straight-line depreciation on the improvement basis
	// plus the year-one mortgage-interest deduction. TaxLiability goes
	// negative when the paper loss shelters other income.
	AnnualDepreciation decimal.Decimal
	TaxableIncome      decimal.Decimal
	TaxLiability       decimal.Decimal
	AfterTaxCashFlow   decimal.Decimal

	Refinance *RefinanceAnalysis
}

// AmortizationRow decomposes one scheduled payment
type AmortizationRow struct {
	Period    int
	Payment   decimal.Decimal
	Interest  decimal.Decimal
	Principal decimal.Decimal
	Balance   decimal.Decimal
}

// LoanTerms describes one loan structure for side-by-side comparison
type LoanTerms struct {
	Label        string
	Rate         float64 // annual, fraction
	TermYears    int
	InterestOnly bool
}

// LoanComparison is the outcome of running one LoanTerms alternative
// through the same payment math as the base case
type LoanComparison struct {
	Terms             LoanTerms
	MonthlyPayment    decimal.Decimal
	AnnualDebtService decimal.Decimal
	AnnualCashFlow    decimal.Decimal
	TotalInterest     decimal.Decimal
	DSCR              float64
}

// AdvancedMetrics carries the long-horizon metrics of a rental hold
type AdvancedMetrics struct {
	IRR                float64
	IRRDefined         bool // false when the solver found no real root
	NPV                decimal.Decimal
	BreakEvenRent      decimal.Decimal // monthly rent at zero cash flow
	BreakEvenOccupancy float64         // occupancy fraction at zero cash flow
	LoanComparisons    []LoanComparison
}
