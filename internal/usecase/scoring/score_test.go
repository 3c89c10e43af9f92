package scoring

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealscout/dealscout-backend/internal/domain"
)

func strongFlip() domain.FlipAnalysis {
	return domain.FlipAnalysis{
		NetProfit:     decimal.NewFromInt(60000),
		ROI:           0.25,
		AnnualizedROI: 0.50,
		MonthsHeld:    4,
	}
}

func strongRental() domain.RentalAnalysis {
	return domain.RentalAnalysis{
		MonthlyCashFlow:   decimal.NewFromInt(450),
		AnnualCashFlow:    decimal.NewFromInt(5400),
		AnnualDebtService: decimal.NewFromInt(15000),
		CashOnCash:        0.13,
		CapRate:           0.085,
		DSCR:              1.60,
	}
}

func TestScoreFlip_ExcellentAcrossTheBoard(t *testing.T) {
	scorer := NewScorer(DefaultConfig())

	breakdown := scorer.ScoreFlip(strongFlip(), 0.9, nil)

	assert.Equal(t, "flip", breakdown.Strategy)
	assert.InDelta(t, 100, breakdown.Total, 1e-9)
	require.Len(t, breakdown.Components, 4)

	// Weights follow the reference 40/30/15/15 split
	assert.InDelta(t, 0.40, breakdown.Components[0].Weight, 1e-9)
	assert.InDelta(t, 0.30, breakdown.Components[1].Weight, 1e-9)
	assert.InDelta(t, 0.15, breakdown.Components[2].Weight, 1e-9)
	assert.InDelta(t, 0.15, breakdown.Components[3].Weight, 1e-9)
}

func TestScoreFlip_PoorDealScoresLow(t *testing.T) {
	scorer := NewScorer(DefaultConfig())

	weak := domain.FlipAnalysis{
		NetProfit:  decimal.NewFromInt(2000),
		ROI:        0.02,
		MonthsHeld: 12,
	}
	breakdown := scorer.ScoreFlip(weak, 0.3, nil)

	assert.InDelta(t, 30, breakdown.Total, 1e-9) // every band lands on poor
}

func TestScoreFlip_MonteCarloBlendsIntoRisk(t *testing.T) {
	scorer := NewScorer(DefaultConfig())

	// High valuation confidence but a coin-flip simulation drags risk down
	mc := &domain.MonteCarloStats{TrialsRun: 1000, ProfitProbability: 0.30}
	withMC := scorer.ScoreFlip(strongFlip(), 0.9, mc)
	withoutMC := scorer.ScoreFlip(strongFlip(), 0.9, nil)

	assert.Less(t, withMC.Total, withoutMC.Total)
}

func TestScoreRental_WeightsAndTotal(t *testing.T) {
	scorer := NewScorer(DefaultConfig())

	breakdown := scorer.ScoreRental(strongRental(), decimal.NewFromInt(350000), decimal.NewFromInt(3500))

	assert.Equal(t, "rental", breakdown.Strategy)
	require.Len(t, breakdown.Components, 5)
	assert.InDelta(t, 100, breakdown.Total, 1e-9)

	weightSum := 0.0
	for _, c := range breakdown.Components {
		weightSum += c.Weight
	}
	assert.InDelta(t, 1.0, weightSum, 1e-9)
}

func TestScoreRental_UnleveragedDSCRIsNotPenalized(t *testing.T) {
	scorer := NewScorer(DefaultConfig())

	allCash := strongRental()
	allCash.AnnualDebtService = decimal.Zero
	allCash.DSCR = 0

	breakdown := scorer.ScoreRental(allCash, decimal.NewFromInt(350000), decimal.NewFromInt(3500))

	for _, c := range breakdown.Components {
		if c.Name == "dscr" {
			assert.InDelta(t, 100, c.Score, 1e-9)
		}
	}
}

func TestBand_LowerIsBetter(t *testing.T) {
	timeline := Band{Excellent: 4, Good: 6, Fair: 9, LowerIsBetter: true}

	assert.Equal(t, 100.0, timeline.Score(3))
	assert.Equal(t, 100.0, timeline.Score(4))
	assert.Equal(t, 80.0, timeline.Score(6))
	assert.Equal(t, 60.0, timeline.Score(8))
	assert.Equal(t, 30.0, timeline.Score(12))
}

func TestTierFor_ErrorAlertForcesCaution(t *testing.T) {
	// An error-level alert forces the lowest non-pass tier regardless of
	// how well the deal scores.
	errorAlert := []domain.Alert{{Type: domain.AlertError, Priority: domain.PriorityHigh}}

	assert.Equal(t, domain.TierCaution, TierFor(95, errorAlert))
	assert.Equal(t, domain.TierCaution, TierFor(40, errorAlert))
}

func TestTierFor_MonotonicBands(t *testing.T) {
	clean := []domain.Alert{{Type: domain.AlertSuccess}}

	assert.Equal(t, domain.TierStrongBuy, TierFor(85, clean))
	assert.Equal(t, domain.TierBuy, TierFor(70, clean))
	assert.Equal(t, domain.TierConsider, TierFor(55, clean))
	assert.Equal(t, domain.TierCaution, TierFor(40, clean))
	assert.Equal(t, domain.TierPass, TierFor(20, clean))
}

func TestBuildAlerts_NegativeCashFlowIsError(t *testing.T) {
	underwater := strongRental()
	underwater.AnnualCashFlow = decimal.NewFromInt(-3600)
	underwater.MonthlyCashFlow = decimal.NewFromInt(-300)

	alerts := BuildAlerts(DefaultAlertThresholds(), strongFlip(), underwater, domain.ARVEstimate{Level: domain.ConfidenceHigh}, nil)

	assert.True(t, domain.HasError(alerts))
	assert.Equal(t, domain.PriorityHigh, alerts[0].Priority)
	assert.NotEmpty(t, alerts[0].Suggestion)
}

func TestBuildAlerts_ThinROIWarnsWithoutError(t *testing.T) {
	thin := strongFlip()
	thin.NetProfit = decimal.NewFromInt(5000)
	thin.ROI = 0.04

	alerts := BuildAlerts(DefaultAlertThresholds(), thin, strongRental(), domain.ARVEstimate{Level: domain.ConfidenceHigh}, nil)

	assert.False(t, domain.HasError(alerts))
	found := false
	for _, a := range alerts {
		if a.Type == domain.AlertWarning {
			found = true
		}
	}
	assert.True(t, found)
}

func TestBuildAlerts_DegradedARVWarns(t *testing.T) {
	alerts := BuildAlerts(DefaultAlertThresholds(), strongFlip(), strongRental(),
		domain.ARVEstimate{Degraded: true, Level: domain.ConfidenceLow}, nil)

	found := false
	for _, a := range alerts {
		if a.Type == domain.AlertWarning && a.Priority == domain.PriorityHigh {
			found = true
		}
	}
	assert.True(t, found, "degraded ARV should raise a high-priority warning")
}

func TestBuildAlerts_TruncatedSimulationIsReported(t *testing.T) {
	mc := &domain.MonteCarloStats{
		TrialsRequested:   1000,
		TrialsRun:         412,
		Truncated:         true,
		ProfitProbability: 0.9,
	}

	alerts := BuildAlerts(DefaultAlertThresholds(), strongFlip(), strongRental(), domain.ARVEstimate{Level: domain.ConfidenceHigh}, mc)

	found := false
	for _, a := range alerts {
		if a.Type == domain.AlertInfo {
			found = true
		}
	}
	assert.True(t, found, "partial batches must be surfaced, not hidden")
}

func TestBuildAlerts_CleanDealGetsSuccess(t *testing.T) {
	alerts := BuildAlerts(DefaultAlertThresholds(), strongFlip(), strongRental(), domain.ARVEstimate{Level: domain.ConfidenceHigh}, nil)

	require.Len(t, alerts, 1)
	assert.Equal(t, domain.AlertSuccess, alerts[0].Type)
}
