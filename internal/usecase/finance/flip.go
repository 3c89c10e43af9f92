package finance

import (
	"github.com/shopspring/decimal"

	"github.com/dealscout/dealscout-backend/internal/domain"
)

// AnalyzeFlip computes the fix-and-flip economics for one set of inputs.
// Pure function: identical inputs always produce identical outputs, which
// the scenario and Monte-Carlo engines rely on.
//
// Logic:
//  1. Rehab carries its contingency reserve: rehab x (1 + contingencyRate)
//  2. totalCost = purchase + rehab + acquisition costs
//  3. Holding costs = (mortgage interest + HELOC interest + tax + insurance) x months
//  4. Selling costs = ARV x sellingRate
//  5. netProfit = ARV - totalCost - holding - selling
//  6. ROI = netProfit / cash deployed (down payment + rehab + direct cash;
//     financed amounts are excluded)
func AnalyzeFlip(a domain.Assumptions, arv decimal.Decimal) domain.FlipAnalysis {
	rehab := a.RehabCost.Mul(one.Add(decimal.NewFromFloat(a.ContingencyRate)))
	downPayment := a.PurchasePrice.Mul(decimal.NewFromFloat(a.DownPaymentRate))
	loanAmount := a.PurchasePrice.Sub(downPayment)

	totalCost := a.PurchasePrice.Add(rehab).Add(a.AcquisitionCost)

	// Monthly carry while the property is held
	mortgageInterest := loanAmount.Mul(decimal.NewFromFloat(a.InterestRate)).Div(twelve)
	helocInterest := a.HelocAmount.Mul(decimal.NewFromFloat(a.HelocRate)).Div(twelve)
	monthlyCarry := mortgageInterest.
		Add(helocInterest).
		Add(a.PropertyTaxAnnual.Div(twelve)).
		Add(a.InsuranceAnnual.Div(twelve))
	holding := monthlyCarry.Mul(decimal.NewFromInt(int64(a.MonthsToFlip)))

	selling := arv.Mul(decimal.NewFromFloat(a.SellingCostRate))
	netProfit := arv.Sub(totalCost).Sub(holding).Sub(selling)

	cashDeployed := downPayment.Add(rehab).Add(a.DirectCash)

	var roi, annualized float64
	if cashDeployed.IsPositive() {
		roi, _ = netProfit.Div(cashDeployed).Float64()
		annualized = roi * 12 / float64(a.MonthsToFlip)
	}

	return domain.FlipAnalysis{
		PurchasePrice: a.PurchasePrice,
		RehabCost:     rehab,
		ARV:           arv,
		TotalCost:     totalCost,
		HoldingCosts:  holding,
		SellingCosts:  selling,
		NetProfit:     netProfit,
		CashDeployed:  cashDeployed,
		ROI:           roi,
		AnnualizedROI: annualized,
		MonthsHeld:    a.MonthsToFlip,
	}
}
