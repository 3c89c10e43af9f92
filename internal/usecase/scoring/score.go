package scoring

import (
	"github.com/shopspring/decimal"

	"github.com/dealscout/dealscout-backend/internal/domain"
)

// Band maps a raw metric to an excellent/good/fair/poor sub-score.
// Thresholds are read top-down; LowerIsBetter inverts the comparison
// (timelines, risk measures).
type Band struct {
	Excellent     float64
	Good          float64
	Fair          float64
	LowerIsBetter bool
}

// Sub-score values per quality band
const (
	scoreExcellent = 100.0
	scoreGood      = 80.0
	scoreFair      = 60.0
	scorePoor      = 30.0
)

// Score maps a raw value through the band table
func (b Band) Score(value float64) float64 {
	if b.LowerIsBetter {
		switch {
		case value <= b.Excellent:
			return scoreExcellent
		case value <= b.Good:
			return scoreGood
		case value <= b.Fair:
			return scoreFair
		default:
			return scorePoor
		}
	}
	switch {
	case value >= b.Excellent:
		return scoreExcellent
	case value >= b.Good:
		return scoreGood
	case value >= b.Fair:
		return scoreFair
	default:
		return scorePoor
	}
}

// FlipWeights apportions the flip score across its sub-metrics
type FlipWeights struct {
	ROI      float64
	Profit   float64
	Timeline float64
	Risk     float64
}

// RentalWeights apportions the rental score across its sub-metrics
type RentalWeights struct {
	CashFlow float64
	ROI      float64
	CapRate  float64
	DSCR     float64
	Market   float64
}

// Config carries the weighting scheme and threshold tables. The weights
// are product-tuned reference values; both they and the bands are
// configuration rather than hard-coded truths.
type Config struct {
	Flip   FlipWeights
	Rental RentalWeights

	FlipROIBand      Band // fraction of cash deployed
	FlipProfitBand   Band // dollars
	FlipTimelineBand Band // months, lower is better
	RiskBand         Band // 0..1 confidence in the outcome

	RentalCashFlowBand Band // monthly dollars
	RentalROIBand      Band // cash-on-cash fraction
	CapRateBand        Band // fraction
	DSCRBand           Band // ratio
	RentToValueBand    Band // monthly rent / value, the "1% rule" family
}

// DefaultConfig returns the reference scoring shape:
// flip 40/30/15/15, rental 25/25/20/15/15.
func DefaultConfig() Config {
	return Config{
		Flip:   FlipWeights{ROI: 0.40, Profit: 0.30, Timeline: 0.15, Risk: 0.15},
		Rental: RentalWeights{CashFlow: 0.25, ROI: 0.25, CapRate: 0.20, DSCR: 0.15, Market: 0.15},

		FlipROIBand:      Band{Excellent: 0.20, Good: 0.12, Fair: 0.06},
		FlipProfitBand:   Band{Excellent: 50000, Good: 30000, Fair: 15000},
		FlipTimelineBand: Band{Excellent: 4, Good: 6, Fair: 9, LowerIsBetter: true},
		RiskBand:         Band{Excellent: 0.80, Good: 0.60, Fair: 0.40},

		RentalCashFlowBand: Band{Excellent: 400, Good: 200, Fair: 50},
		RentalROIBand:      Band{Excellent: 0.12, Good: 0.08, Fair: 0.04},
		CapRateBand:        Band{Excellent: 0.08, Good: 0.06, Fair: 0.045},
		DSCRBand:           Band{Excellent: 1.50, Good: 1.25, Fair: 1.10},
		RentToValueBand:    Band{Excellent: 0.010, Good: 0.008, Fair: 0.006},
	}
}

// Scorer maps calculation outputs to 0-100 deal-quality scores
type Scorer struct {
	cfg Config
}

// NewScorer creates a new Scorer instance
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// ScoreFlip scores a flip run. Risk blends the valuation confidence with
// the Monte-Carlo profit probability when a simulation ran.
func (s *Scorer) ScoreFlip(flip domain.FlipAnalysis, confidence float64, mc *domain.MonteCarloStats) domain.ScoreBreakdown {
	netProfit, _ := flip.NetProfit.Float64()

	risk := confidence
	if mc != nil && mc.TrialsRun > 0 {
		risk = (confidence + mc.ProfitProbability) / 2
	}

	components := []domain.SubScore{
		{Name: "roi", Raw: flip.ROI, Score: s.cfg.FlipROIBand.Score(flip.ROI), Weight: s.cfg.Flip.ROI},
		{Name: "profit", Raw: netProfit, Score: s.cfg.FlipProfitBand.Score(netProfit), Weight: s.cfg.Flip.Profit},
		{Name: "timeline", Raw: float64(flip.MonthsHeld), Score: s.cfg.FlipTimelineBand.Score(float64(flip.MonthsHeld)), Weight: s.cfg.Flip.Timeline},
		{Name: "risk", Raw: risk, Score: s.cfg.RiskBand.Score(risk), Weight: s.cfg.Flip.Risk},
	}

	return domain.ScoreBreakdown{
		Strategy:   "flip",
		Total:      weightedTotal(components),
		Components: components,
	}
}

// ScoreRental scores a buy-and-hold run. The market-relative component
// uses the monthly rent-to-value ratio against the 1% rule family.
func (s *Scorer) ScoreRental(rental domain.RentalAnalysis, value decimal.Decimal, monthlyRent decimal.Decimal) domain.ScoreBreakdown {
	monthlyCF, _ := rental.MonthlyCashFlow.Float64()

	rentToValue := 0.0
	if value.IsPositive() {
		rentToValue, _ = monthlyRent.Div(value).Float64()
	}

	// An unleveraged deal has no debt-service risk; treat DSCR as excellent
	dscrScore := scoreExcellent
	if rental.AnnualDebtService.IsPositive() {
		dscrScore = s.cfg.DSCRBand.Score(rental.DSCR)
	}

	components := []domain.SubScore{
		{Name: "cash_flow", Raw: monthlyCF, Score: s.cfg.RentalCashFlowBand.Score(monthlyCF), Weight: s.cfg.Rental.CashFlow},
		{Name: "roi", Raw: rental.CashOnCash, Score: s.cfg.RentalROIBand.Score(rental.CashOnCash), Weight: s.cfg.Rental.ROI},
		{Name: "cap_rate", Raw: rental.CapRate, Score: s.cfg.CapRateBand.Score(rental.CapRate), Weight: s.cfg.Rental.CapRate},
		{Name: "dscr", Raw: rental.DSCR, Score: dscrScore, Weight: s.cfg.Rental.DSCR},
		{Name: "rent_to_value", Raw: rentToValue, Score: s.cfg.RentToValueBand.Score(rentToValue), Weight: s.cfg.Rental.Market},
	}

	return domain.ScoreBreakdown{
		Strategy:   "rental",
		Total:      weightedTotal(components),
		Components: components,
	}
}

// weightedTotal folds sub-scores into the 0-100 headline number
func weightedTotal(components []domain.SubScore) float64 {
	total := 0.0
	weightSum := 0.0
	for _, c := range components {
		total += c.Score * c.Weight
		weightSum += c.Weight
	}
	if weightSum == 0 {
		return 0
	}
	return total / weightSum
}

// TierFor assigns the recommendation tier. Any error-level alert forces
// the lowest non-pass tier regardless of score; otherwise the tier is a
// monotonic function of the score bands, with the strongest tier
// requiring both a score of at least 80 and a clean alert slate.
func TierFor(score float64, alerts []domain.Alert) domain.RecommendationTier {
	if domain.HasError(alerts) {
		return domain.TierCaution
	}
	switch {
	case score >= 80:
		return domain.TierStrongBuy
	case score >= 65:
		return domain.TierBuy
	case score >= 50:
		return domain.TierConsider
	case score >= 35:
		return domain.TierCaution
	default:
		return domain.TierPass
	}
}
