package valuation

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dealscout/dealscout-backend/internal/domain"
)

// CompSourceName attributes the comp-derived estimate in the source list
const CompSourceName = "comparables"

// Config carries the blending knobs. The reference weights
// (0.50 comps, 0.25 per external estimate) are product-tuned values
// without a documented derivation, so they are configuration, not
// constants.
type Config struct {
	CompWeight     float64 // weight of the comp-derived estimate
	ExternalWeight float64 // weight of each external automated estimate

	MinCompCount        int     // below this, confidence is penalized
	DispersionThreshold float64 // coefficient of variation above this is penalized
	TrendDeviationPct   float64 // ARV vs trend-projection divergence that warrants a warning
}

// DefaultConfig returns the reference blending shape
func DefaultConfig() Config {
	return Config{
		CompWeight:          0.50,
		ExternalWeight:      0.25,
		MinCompCount:        5,
		DispersionThreshold: 0.25,
		TrendDeviationPct:   0.15,
	}
}

// Aggregator combines the comp-derived estimate with external automated
// valuations into a single ARV with a blended confidence score
type Aggregator struct {
	cfg Config
	now func() time.Time
}

// NewAggregator creates a new Aggregator instance
func NewAggregator(cfg Config) *Aggregator {
	return &Aggregator{cfg: cfg, now: time.Now}
}

// AggregateARV blends all available estimates into one after-repair value.
//
// Logic:
//  1. Derive a comp estimate: distance/recency-weighted mean sale price,
//     scaled by price-per-square-foot when the subject's square footage
//     differs from the comp set's average
//  2. Assign the configured weights (comps 0.50, each external 0.25) to
//     the sources that actually returned data, renormalized to sum to 1.0
//  3. Blend values and confidences by weight
//  4. Validate against the historical appreciation trend; a divergence
//     above the threshold adds a warning but never blocks
func (ag *Aggregator) AggregateARV(
	query domain.PropertyQuery,
	comps []domain.ComparableProperty,
	externals []domain.ExternalEstimate,
) domain.ARVEstimate {
	var sources []domain.ValuationEstimate
	var warnings []string

	if len(comps) > 0 {
		value, confidence, compWarnings := ag.compEstimate(query, comps)
		warnings = append(warnings, compWarnings...)
		sources = append(sources, domain.ValuationEstimate{
			Source:     CompSourceName,
			Value:      value,
			Weight:     ag.cfg.CompWeight,
			Confidence: confidence,
		})
	}

	for _, ext := range externals {
		if ext.Value <= 0 {
			continue
		}
		sources = append(sources, domain.ValuationEstimate{
			Source:     ext.Source,
			Value:      decimal.NewFromFloat(ext.Value),
			Weight:     ag.cfg.ExternalWeight,
			Confidence: ext.Confidence,
		})
	}

	if len(sources) == 0 {
		return domain.ARVEstimate{
			Level:    domain.ConfidenceLow,
			Warnings: append(warnings, "no valuation sources available"),
		}
	}

	renormalize(sources)

	arv := decimal.Zero
	blendedConfidence := 0.0
	for _, s := range sources {
		arv = arv.Add(s.Value.Mul(decimal.NewFromFloat(s.Weight)))
		blendedConfidence += s.Weight * s.Confidence
	}

	if warning := ag.trendWarning(arv, comps, externals); warning != "" {
		warnings = append(warnings, warning)
	}

	return domain.ARVEstimate{
		Value:      arv,
		Confidence: blendedConfidence,
		Level:      domain.LevelForConfidence(blendedConfidence),
		Sources:    sources,
		CompCount:  len(comps),
		Warnings:   warnings,
	}
}

// renormalize scales weights proportionally so they sum to exactly 1.0
// over the sources that returned data
func renormalize(sources []domain.ValuationEstimate) {
	total := 0.0
	for _, s := range sources {
		total += s.Weight
	}
	if total <= 0 {
		equal := 1.0 / float64(len(sources))
		for i := range sources {
			sources[i].Weight = equal
		}
		return
	}
	for i := range sources {
		sources[i].Weight /= total
	}
}

// compEstimate derives a value from the comparable set and scores its
// reliability. Weighting favors recent, nearby sales; the confidence
// degrades with thin comp counts, wide price dispersion, and reliance on
// model-estimated records.
func (ag *Aggregator) compEstimate(
	query domain.PropertyQuery,
	comps []domain.ComparableProperty,
) (decimal.Decimal, float64, []string) {
	var warnings []string
	now := ag.now()

	weightedSum := 0.0
	weightTotal := 0.0
	sqftSum := 0.0
	sqftCount := 0
	nonEmpirical := 0

	prices := make([]float64, 0, len(comps))
	for _, c := range comps {
		weight := 1.0
		if !c.SaleDate.IsZero() {
			ageYears := now.Sub(c.SaleDate).Hours() / (24 * 365.25)
			if ageYears < 0 {
				ageYears = 0
			}
			weight /= 1 + ageYears
		}
		if c.DistanceMiles > 0 {
			weight /= 1 + c.DistanceMiles
		}

		weightedSum += c.Price * weight
		weightTotal += weight
		prices = append(prices, c.Price)

		if c.SquareFeet > 0 {
			sqftSum += c.SquareFeet
			sqftCount++
		}
		if !c.Empirical {
			nonEmpirical++
		}
	}

	estimate := weightedSum / weightTotal

	// Price-per-square-foot scaling when both sides are known
	if query.SquareFeet > 0 && sqftCount > 0 {
		avgSqft := sqftSum / float64(sqftCount)
		if avgSqft > 0 && math.Abs(query.SquareFeet-avgSqft)/avgSqft > 0.01 {
			estimate *= query.SquareFeet / avgSqft
		}
	}

	confidence := 0.95
	if len(comps) < ag.cfg.MinCompCount {
		confidence -= 0.08 * float64(ag.cfg.MinCompCount-len(comps))
		warnings = append(warnings, fmt.Sprintf("only %d comparable sales found, below the %d needed for a reliable estimate", len(comps), ag.cfg.MinCompCount))
	}

	if cv := coefficientOfVariation(prices); cv > ag.cfg.DispersionThreshold {
		confidence -= 0.15
		warnings = append(warnings, fmt.Sprintf("comparable prices are widely dispersed (cv %.2f)", cv))
	}

	if nonEmpirical > 0 {
		share := float64(nonEmpirical) / float64(len(comps))
		confidence -= 0.30 * share
		if share == 1 {
			warnings = append(warnings, "all comparables are model-estimated, not recorded sales")
		}
	}

	if confidence < 0.05 {
		confidence = 0.05
	}

	return decimal.NewFromFloat(estimate), confidence, warnings
}

// coefficientOfVariation is the price dispersion measure: stddev / mean
func coefficientOfVariation(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	if mean == 0 {
		return 0
	}
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return math.Sqrt(variance) / mean
}

// trendWarning validates the aggregated ARV against a compound
// appreciation trend from whatever price history is available: a
// provider series first, else yearly means of the comps themselves.
// Divergence only warns; it never blocks the analysis.
func (ag *Aggregator) trendWarning(arv decimal.Decimal, comps []domain.ComparableProperty, externals []domain.ExternalEstimate) string {
	history := longestHistory(externals)
	if len(history) < 2 {
		history = compHistory(comps)
	}
	if len(history) < 2 {
		return ""
	}

	sort.Slice(history, func(i, j int) bool { return history[i].Year < history[j].Year })
	first, last := history[0], history[len(history)-1]
	years := last.Year - first.Year
	if years <= 0 || first.Value <= 0 || last.Value <= 0 {
		return ""
	}

	cagr := math.Pow(last.Value/first.Value, 1/float64(years)) - 1
	yearsForward := ag.now().Year() - last.Year
	if yearsForward < 0 {
		yearsForward = 0
	}
	projected := last.Value * math.Pow(1+cagr, float64(yearsForward))
	if projected <= 0 {
		return ""
	}

	arvF, _ := arv.Float64()
	deviation := math.Abs(arvF-projected) / projected
	if deviation > ag.cfg.TrendDeviationPct {
		return fmt.Sprintf("aggregated ARV deviates %.0f%% from the trend-projected value of %.0f", deviation*100, projected)
	}
	return ""
}

// longestHistory picks the richest provider price series
func longestHistory(externals []domain.ExternalEstimate) []domain.PricePoint {
	var best []domain.PricePoint
	for _, ext := range externals {
		if len(ext.History) > len(best) {
			best = ext.History
		}
	}
	return best
}

// compHistory builds a yearly mean-price series from dated comps
func compHistory(comps []domain.ComparableProperty) []domain.PricePoint {
	sums := map[int]float64{}
	counts := map[int]int{}
	for _, c := range comps {
		if c.SaleDate.IsZero() || c.Price <= 0 {
			continue
		}
		year := c.SaleDate.Year()
		sums[year] += c.Price
		counts[year]++
	}

	points := make([]domain.PricePoint, 0, len(sums))
	for year, sum := range sums {
		points = append(points, domain.PricePoint{Year: year, Value: sum / float64(counts[year])})
	}
	return points
}
