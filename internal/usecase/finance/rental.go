package finance

import (
	"github.com/shopspring/decimal"

	"github.com/dealscout/dealscout-backend/internal/domain"
)

// depreciationLife is the residential straight-line recovery period
// in years
var depreciationLife = decimal.NewFromFloat(27.5)

// AnalyzeRental computes the buy-and-hold economics for one set of inputs.
// The stabilized (after-repair) value is used for cap rate and for the
// maintenance reserve, since the strategy assumes the rehab is done.
//
// Logic:
//  1. EGI = grossRent x 12 x (1 - vacancyRate)
//  2. opEx = tax + insurance + maintenance(% of value) + management(% of EGI) + HOA + utilities
//  3. NOI = EGI - opEx
//  4. cashFlow = NOI - annual debt service (annuity payment on the purchase loan)
//  5. capRate = NOI / value; CoC = cashFlow / cash deployed; DSCR = NOI / debt service
//  6. after-tax: depreciation = improvement basis / 27.5; taxable = NOI -
//     year-one interest - depreciation; afterTaxCashFlow = cashFlow - taxable x taxRate
//
// When refinance assumptions are present the BRRRR leg re-levers the deal
// against ARV and reports the post-refinance position.
func AnalyzeRental(a domain.Assumptions, arv decimal.Decimal) domain.RentalAnalysis {
	gross := a.MonthlyRent.Mul(twelve)
	vacancyLoss := gross.Mul(decimal.NewFromFloat(a.VacancyRate))
	egi := gross.Sub(vacancyLoss)

	maintenance := arv.Mul(decimal.NewFromFloat(a.MaintenanceRate))
	management := decimal.Zero
	if a.ManagementEnabled {
		management = egi.Mul(decimal.NewFromFloat(a.ManagementRate))
	}
	opEx := a.PropertyTaxAnnual.
		Add(a.InsuranceAnnual).
		Add(maintenance).
		Add(management).
		Add(a.HOAMonthly.Mul(twelve)).
		Add(a.UtilitiesMonthly.Mul(twelve))

	noi := egi.Sub(opEx)

	downPayment := a.PurchasePrice.Mul(decimal.NewFromFloat(a.DownPaymentRate))
	loanAmount := a.PurchasePrice.Sub(downPayment)
	payment := MonthlyPayment(loanAmount, a.InterestRate, a.LoanTermYears)
	debtService := payment.Mul(twelve)

	cashFlow := noi.Sub(debtService)
	rehab := a.RehabCost.Mul(one.Add(decimal.NewFromFloat(a.ContingencyRate)))
	cashDeployed := downPayment.Add(rehab).Add(a.DirectCash)

	var capRate, coc, dscr float64
	if arv.IsPositive() {
		capRate, _ = noi.Div(arv).Float64()
	}
	if cashDeployed.IsPositive() {
		coc, _ = cashFlow.Div(cashDeployed).Float64()
	}
	if debtService.IsPositive() {
		dscr, _ = noi.Div(debtService).Float64()
	}

	// Land does not depreciate; the rehab adds to the improvement basis
	improvementBasis := a.PurchasePrice.
		Mul(one.Sub(decimal.NewFromFloat(a.LandValueRate))).
		Add(rehab)
	depreciation := improvementBasis.Div(depreciationLife)
	yearOneInterest := InterestForYear(loanAmount, a.InterestRate, a.LoanTermYears, 1)
	taxable := noi.Sub(yearOneInterest).Sub(depreciation)
	taxLiability := taxable.Mul(decimal.NewFromFloat(a.TaxRate))

	result := domain.RentalAnalysis{
		GrossScheduledIncome: gross,
		VacancyLoss:          vacancyLoss,
		EffectiveGrossIncome: egi,
		OperatingExpenses:    opEx,
		NOI:                  noi,
		AnnualDebtService:    debtService,
		AnnualCashFlow:       cashFlow,
		MonthlyCashFlow:      cashFlow.Div(twelve),
		CashDeployed:         cashDeployed,
		CapRate:              capRate,
		CashOnCash:           coc,
		DSCR:                 dscr,
		AnnualDepreciation:   depreciation,
		TaxableIncome:        taxable,
		TaxLiability:         taxLiability,
		AfterTaxCashFlow:     cashFlow.Sub(taxLiability),
	}

	if a.Refinance != nil {
		refi := analyzeRefinance(a, arv, noi, loanAmount, cashDeployed)
		result.Refinance = &refi
	}

	return result
}

// analyzeRefinance models the BRRRR leg: a new loan at the refinance LTV
// of ARV pays off the purchase loan; any remaining proceeds return
// deployed capital and shrink the cash-on-cash denominator.
func analyzeRefinance(
	a domain.Assumptions,
	arv decimal.Decimal,
	noi decimal.Decimal,
	purchaseLoan decimal.Decimal,
	cashDeployed decimal.Decimal,
) domain.RefinanceAnalysis {
	refi := a.Refinance
	newLoan := arv.Mul(decimal.NewFromFloat(refi.LTV))

	cashOut := newLoan.Sub(purchaseLoan).Sub(refi.ClosingCosts)
	if cashOut.IsNegative() {
		cashOut = decimal.Zero
	}
	cashLeft := cashDeployed.Sub(cashOut)

	payment := MonthlyPayment(newLoan, refi.Rate, refi.TermYears)
	debtService := payment.Mul(twelve)
	cashFlow := noi.Sub(debtService)

	var coc, dscr float64
	capitalReturned := !cashLeft.IsPositive()
	if !capitalReturned {
		coc, _ = cashFlow.Div(cashLeft).Float64()
	}
	if debtService.IsPositive() {
		dscr, _ = noi.Div(debtService).Float64()
	}

	return domain.RefinanceAnalysis{
		NewLoanAmount:     newLoan,
		LoanPayoff:        purchaseLoan,
		CashOut:           cashOut,
		CashLeftInDeal:    cashLeft,
		AnnualDebtService: debtService,
		AnnualCashFlow:    cashFlow,
		CashOnCash:        coc,
		DSCR:              dscr,
		CapitalReturned:   capitalReturned,
	}
}
