package finance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealscout/dealscout-backend/internal/domain"
)

// baseFlipAssumptions mirrors the worked reference deal: $500k purchase,
// $50k rehab, 20% down at 6%, six-month timeline, 6% selling costs.
func baseFlipAssumptions() domain.Assumptions {
	return domain.Assumptions{
		PurchasePrice:     decimal.NewFromInt(500000),
		RehabCost:         decimal.NewFromInt(50000),
		ContingencyRate:   0,
		AcquisitionCost:   decimal.Zero,
		DownPaymentRate:   0.20,
		InterestRate:      0.06,
		LoanTermYears:     30,
		MonthsToFlip:      6,
		SellingCostRate:   0.06,
		PropertyTaxAnnual: decimal.NewFromInt(6000),
		InsuranceAnnual:   decimal.NewFromInt(1200),
	}
}

func TestAnalyzeFlip_ReferenceDeal(t *testing.T) {
	a := baseFlipAssumptions()
	arv := decimal.NewFromInt(575000)

	result := AnalyzeFlip(a, arv)

	// totalCost = 500,000 + 50,000 + 0 = 550,000
	assert.True(t, result.TotalCost.Equal(decimal.NewFromInt(550000)),
		"total cost: %s", result.TotalCost)

	// Monthly carry: 400,000 x 6% / 12 = 2,000 interest
	// + 500 tax + 100 insurance = 2,600; x 6 months = 15,600
	assert.True(t, result.HoldingCosts.Equal(decimal.NewFromInt(15600)),
		"holding costs: %s", result.HoldingCosts)

	// Selling: 575,000 x 6% = 34,500
	assert.True(t, result.SellingCosts.Equal(decimal.NewFromInt(34500)),
		"selling costs: %s", result.SellingCosts)

	// Net: 575,000 - 550,000 - 15,600 - 34,500 = -25,100
	assert.True(t, result.NetProfit.Equal(decimal.NewFromInt(-25100)),
		"net profit: %s", result.NetProfit)

	// Cash deployed: 100,000 down + 50,000 rehab = 150,000
	assert.True(t, result.CashDeployed.Equal(decimal.NewFromInt(150000)))
	assert.InDelta(t, -25100.0/150000.0, result.ROI, 1e-9)
}

func TestAnalyzeFlip_ROIMonotonicInARV(t *testing.T) {
	// Holding purchase price, financing, and timeline fixed, increasing
	// ARV must strictly increase both net profit and ROI.
	a := baseFlipAssumptions()

	previous := AnalyzeFlip(a, decimal.NewFromInt(550000))
	for _, arv := range []int64{575000, 600000, 650000, 700000} {
		current := AnalyzeFlip(a, decimal.NewFromInt(arv))

		assert.True(t, current.NetProfit.GreaterThan(previous.NetProfit),
			"net profit should strictly increase at ARV %d", arv)
		assert.Greater(t, current.ROI, previous.ROI,
			"ROI should strictly increase at ARV %d", arv)
		previous = current
	}
}

func TestAnalyzeFlip_ContingencyInflatesRehab(t *testing.T) {
	a := baseFlipAssumptions()
	a.ContingencyRate = 0.10

	result := AnalyzeFlip(a, decimal.NewFromInt(575000))

	// 50,000 x 1.10 = 55,000 rehab including contingency
	assert.True(t, result.RehabCost.Equal(decimal.NewFromInt(55000)))
	assert.True(t, result.TotalCost.Equal(decimal.NewFromInt(555000)))
	// Deployed cash grows with the contingency as well
	assert.True(t, result.CashDeployed.Equal(decimal.NewFromInt(155000)))
}

func TestAnalyzeFlip_HelocCarry(t *testing.T) {
	a := baseFlipAssumptions()
	a.HelocAmount = decimal.NewFromInt(60000)
	a.HelocRate = 0.08

	result := AnalyzeFlip(a, decimal.NewFromInt(575000))

	// HELOC adds 60,000 x 8% / 12 = 400/month, 2,400 over six months
	withoutHeloc := AnalyzeFlip(baseFlipAssumptions(), decimal.NewFromInt(575000))
	delta := result.HoldingCosts.Sub(withoutHeloc.HoldingCosts)
	require.True(t, delta.Equal(decimal.NewFromInt(2400)), "heloc delta: %s", delta)
}

func TestAnalyzeFlip_ZeroCashDeployed(t *testing.T) {
	// Fully financed deal with no rehab and no direct cash must not
	// divide by zero; ROI reports as zero.
	a := baseFlipAssumptions()
	a.DownPaymentRate = 0
	a.RehabCost = decimal.Zero

	result := AnalyzeFlip(a, decimal.NewFromInt(575000))
	assert.Zero(t, result.ROI)
	assert.Zero(t, result.AnnualizedROI)
}
