package finance

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/dealscout/dealscout-backend/internal/domain"
)

const (
	irrMaxIterations = 60
	irrTolerance     = 1e-7
)

// NPV discounts a cash-flow series at the given annual rate.
// cashFlows[0] is the time-zero flow (typically negative).
func NPV(rate float64, cashFlows []float64) float64 {
	total := 0.0
	for t, cf := range cashFlows {
		total += cf / math.Pow(1+rate, float64(t))
	}
	return total
}

// IRR finds the rate at which the series' NPV is zero using
// Newton-Raphson with a bisection fallback. Returns ErrNoSolution when
// neither converges within the iteration budget, rather than looping
// indefinitely; callers report the metric as undefined.
func IRR(cashFlows []float64) (float64, error) {
	if len(cashFlows) < 2 {
		return 0, domain.ErrNoSolution
	}

	rate := 0.1
	for i := 0; i < irrMaxIterations; i++ {
		npv := NPV(rate, cashFlows)
		if math.Abs(npv) < irrTolerance {
			return rate, nil
		}

		// Analytic derivative of the NPV polynomial
		deriv := 0.0
		for t := 1; t < len(cashFlows); t++ {
			deriv -= float64(t) * cashFlows[t] / math.Pow(1+rate, float64(t+1))
		}
		if math.Abs(deriv) < 1e-12 {
			break
		}

		next := rate - npv/deriv
		if next <= -1 || math.IsNaN(next) || math.IsInf(next, 0) {
			break
		}
		if math.Abs(next-rate) < irrTolerance {
			return next, nil
		}
		rate = next
	}

	return irrBisect(cashFlows)
}

// irrBisect scans for a sign change over a wide bracket and bisects.
// Covers series where Newton-Raphson diverges (e.g. early sign flips).
func irrBisect(cashFlows []float64) (float64, error) {
	lo, hi := -0.99, 10.0
	fLo := NPV(lo, cashFlows)
	fHi := NPV(hi, cashFlows)
	if fLo*fHi > 0 {
		return 0, domain.ErrNoSolution
	}

	for i := 0; i < 200; i++ {
		mid := (lo + hi) / 2
		fMid := NPV(mid, cashFlows)
		if math.Abs(fMid) < irrTolerance || (hi-lo)/2 < irrTolerance {
			return mid, nil
		}
		if fLo*fMid < 0 {
			hi = mid
		} else {
			lo = mid
			fLo = fMid
		}
	}
	return 0, domain.ErrNoSolution
}

// HoldCashFlows builds the multi-year series for a rental hold:
// time zero is the deployed cash going out, each year the (rent-grown)
// cash flow, and the terminal year additionally the net sale proceeds
// after selling costs and the remaining loan balance.
func HoldCashFlows(a domain.Assumptions, arv decimal.Decimal, rental domain.RentalAnalysis) []float64 {
	deployed, _ := rental.CashDeployed.Float64()
	annualCF, _ := rental.AnnualCashFlow.Float64()
	arvF, _ := arv.Float64()

	downPayment := a.PurchasePrice.Mul(decimal.NewFromFloat(a.DownPaymentRate))
	loanAmount := a.PurchasePrice.Sub(downPayment)

	flows := make([]float64, 0, a.HoldYears+1)
	flows = append(flows, -deployed)

	for year := 1; year <= a.HoldYears; year++ {
		cf := annualCF * math.Pow(1+a.RentGrowthRate, float64(year-1))
		if year == a.HoldYears {
			saleValue := arvF * math.Pow(1+a.AppreciationRate, float64(a.HoldYears))
			balance, _ := BalanceAfter(loanAmount, a.InterestRate, a.LoanTermYears, a.HoldYears*12).Float64()
			cf += saleValue*(1-a.SellingCostRate) - balance
		}
		flows = append(flows, cf)
	}
	return flows
}

// BreakEvenRent solves algebraically for the monthly rent at which the
// rental cash flow is exactly zero, holding the expense structure fixed.
// Management fees scale with EGI, so they stay on the income side of the
// equation: rent*12*(1-vacancy)*(1-mgmt) = debtService + fixed expenses.
func BreakEvenRent(a domain.Assumptions, arv decimal.Decimal, debtService decimal.Decimal) decimal.Decimal {
	fixed := a.PropertyTaxAnnual.
		Add(a.InsuranceAnnual).
		Add(arv.Mul(decimal.NewFromFloat(a.MaintenanceRate))).
		Add(a.HOAMonthly.Mul(twelve)).
		Add(a.UtilitiesMonthly.Mul(twelve))

	mgmt := 0.0
	if a.ManagementEnabled {
		mgmt = a.ManagementRate
	}
	denominator := 12 * (1 - a.VacancyRate) * (1 - mgmt)
	if denominator <= 0 {
		return decimal.Zero
	}

	return debtService.Add(fixed).Div(decimal.NewFromFloat(denominator))
}

// BreakEvenOccupancy solves for the occupancy fraction at which cash
// flow is zero at the scheduled rent. Values above 1 mean the deal
// cannot break even even fully occupied.
func BreakEvenOccupancy(a domain.Assumptions, arv decimal.Decimal, debtService decimal.Decimal) float64 {
	fixed := a.PropertyTaxAnnual.
		Add(a.InsuranceAnnual).
		Add(arv.Mul(decimal.NewFromFloat(a.MaintenanceRate))).
		Add(a.HOAMonthly.Mul(twelve)).
		Add(a.UtilitiesMonthly.Mul(twelve))

	mgmt := 0.0
	if a.ManagementEnabled {
		mgmt = a.ManagementRate
	}
	gross := a.MonthlyRent.Mul(twelve)
	denominator := gross.Mul(decimal.NewFromFloat(1 - mgmt))
	if !denominator.IsPositive() {
		return 0
	}

	occupancy, _ := debtService.Add(fixed).Div(denominator).Float64()
	return occupancy
}

// CompareLoans runs each alternative loan structure through the same
// payment math as the base case and reports side-by-side outcomes.
// Interest-only structures never amortize: the payment is pure interest
// and the full principal remains as total interest is accrued over term.
func CompareLoans(noi, loanAmount decimal.Decimal, alternatives []domain.LoanTerms) []domain.LoanComparison {
	comparisons := make([]domain.LoanComparison, 0, len(alternatives))
	for _, terms := range alternatives {
		var payment, totalInterest decimal.Decimal

		if terms.InterestOnly {
			payment = loanAmount.Mul(decimal.NewFromFloat(terms.Rate)).Div(twelve)
			totalInterest = payment.Mul(decimal.NewFromInt(int64(terms.TermYears) * 12))
		} else {
			payment = MonthlyPayment(loanAmount, terms.Rate, terms.TermYears)
			n := decimal.NewFromInt(int64(terms.TermYears) * 12)
			totalInterest = payment.Mul(n).Sub(loanAmount)
		}

		debtService := payment.Mul(twelve)
		cashFlow := noi.Sub(debtService)

		var dscr float64
		if debtService.IsPositive() {
			dscr, _ = noi.Div(debtService).Float64()
		}

		comparisons = append(comparisons, domain.LoanComparison{
			Terms:             terms,
			MonthlyPayment:    payment,
			AnnualDebtService: debtService,
			AnnualCashFlow:    cashFlow,
			TotalInterest:     totalInterest,
			DSCR:              dscr,
		})
	}
	return comparisons
}

// AdvancedMetricsFor assembles the long-horizon metrics of a rental hold
func AdvancedMetricsFor(
	a domain.Assumptions,
	arv decimal.Decimal,
	rental domain.RentalAnalysis,
	alternatives []domain.LoanTerms,
) domain.AdvancedMetrics {
	flows := HoldCashFlows(a, arv, rental)

	metrics := domain.AdvancedMetrics{
		NPV:                decimal.NewFromFloat(NPV(a.DiscountRate, flows)),
		BreakEvenRent:      BreakEvenRent(a, arv, rental.AnnualDebtService),
		BreakEvenOccupancy: BreakEvenOccupancy(a, arv, rental.AnnualDebtService),
	}

	if irr, err := IRR(flows); err == nil {
		metrics.IRR = irr
		metrics.IRRDefined = true
	}

	if len(alternatives) > 0 {
		downPayment := a.PurchasePrice.Mul(decimal.NewFromFloat(a.DownPaymentRate))
		loanAmount := a.PurchasePrice.Sub(downPayment)
		metrics.LoanComparisons = CompareLoans(rental.NOI, loanAmount, alternatives)
	}

	return metrics
}
