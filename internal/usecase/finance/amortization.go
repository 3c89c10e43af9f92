package finance

import (
	"github.com/shopspring/decimal"

	"github.com/dealscout/dealscout-backend/internal/domain"
)

var (
	one    = decimal.NewFromInt(1)
	twelve = decimal.NewFromInt(12)
)

// MonthlyPayment computes the fixed monthly payment for a fully
// amortizing loan via the closed-form annuity formula.
// Zero-rate loans degrade to straight-line principal repayment.
func MonthlyPayment(principal decimal.Decimal, annualRate float64, termYears int) decimal.Decimal {
	if principal.LessThanOrEqual(decimal.Zero) || termYears <= 0 {
		return decimal.Zero
	}
	n := int64(termYears) * 12
	if annualRate <= 0 {
		return principal.Div(decimal.NewFromInt(n))
	}

	r := decimal.NewFromFloat(annualRate).Div(twelve)
	factor := one.Add(r).Pow(decimal.NewFromInt(n)) // (1+r)^n
	return principal.Mul(r).Mul(factor).Div(factor.Sub(one))
}

// Schedule builds the full amortization table for a fixed-rate loan.
// Each payment decomposes into interest (balance x periodic rate) and
// principal (payment - interest). The final row is adjusted so the
// balance lands exactly at zero rather than drifting by accumulated
// division error.
func Schedule(principal decimal.Decimal, annualRate float64, termYears int) []domain.AmortizationRow {
	if principal.LessThanOrEqual(decimal.Zero) || termYears <= 0 {
		return nil
	}

	n := termYears * 12
	payment := MonthlyPayment(principal, annualRate, termYears)
	periodicRate := decimal.NewFromFloat(annualRate).Div(twelve)

	rows := make([]domain.AmortizationRow, 0, n)
	balance := principal

	for period := 1; period <= n; period++ {
		interest := balance.Mul(periodicRate)
		principalPart := payment.Sub(interest)
		rowPayment := payment

		// Floor the balance at zero on the final payment
		if principalPart.GreaterThan(balance) || period == n {
			principalPart = balance
			rowPayment = interest.Add(principalPart)
		}

		balance = balance.Sub(principalPart)
		rows = append(rows, domain.AmortizationRow{
			Period:    period,
			Payment:   rowPayment,
			Interest:  interest,
			Principal: principalPart,
			Balance:   balance,
		})

		if balance.IsZero() {
			break
		}
	}

	return rows
}

// InterestForYear sums the interest portion of the payments scheduled in
// the given year (1-based). Years past the payoff return zero.
func InterestForYear(principal decimal.Decimal, annualRate float64, termYears, year int) decimal.Decimal {
	if year <= 0 {
		return decimal.Zero
	}
	rows := Schedule(principal, annualRate, termYears)

	total := decimal.Zero
	first := (year - 1) * 12
	for period := first; period < first+12 && period < len(rows); period++ {
		total = total.Add(rows[period].Interest)
	}
	return total
}

// BalanceAfter returns the remaining principal after the given number
// of scheduled payments
func BalanceAfter(principal decimal.Decimal, annualRate float64, termYears, months int) decimal.Decimal {
	if months <= 0 {
		return principal
	}
	rows := Schedule(principal, annualRate, termYears)
	if len(rows) == 0 {
		return decimal.Zero
	}
	if months >= len(rows) {
		return decimal.Zero
	}
	return rows[months-1].Balance
}
