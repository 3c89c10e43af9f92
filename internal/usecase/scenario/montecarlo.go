package scenario

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dealscout/dealscout-backend/internal/domain"
	"github.com/dealscout/dealscout-backend/internal/usecase/finance"
)

// Range bounds a uniform draw for one perturbed variable
type Range struct {
	Min float64
	Max float64
}

// MonteCarloConfig sizes and seeds a simulation batch. Ranges default to
// the reference perturbations; they are product-tuned values, not derived
// truths, so they stay configurable end to end.
type MonteCarloConfig struct {
	Trials int
	Seed   int64

	// Deadline is the wall-clock budget for the whole batch. When the
	// budget runs out mid-batch the remaining trials are dropped and the
	// result is flagged Truncated rather than silently short-sampled.
	Deadline time.Duration

	ARVRange      Range // default -0.15 .. +0.15
	RehabRange    Range // default -0.10 .. +0.30
	RentRange     Range // default -0.10 .. +0.10
	RateRange     Range // absolute rate delta, default -0.01 .. +0.01
	TimelineRange Range // months delta, default 0 .. +3, drawn then rounded
}

// DefaultMonteCarloConfig returns the reference simulation shape
func DefaultMonteCarloConfig() MonteCarloConfig {
	return MonteCarloConfig{
		Trials:        1000,
		Deadline:      10 * time.Second,
		ARVRange:      Range{Min: -0.15, Max: 0.15},
		RehabRange:    Range{Min: -0.10, Max: 0.30},
		RentRange:     Range{Min: -0.10, Max: 0.10},
		RateRange:     Range{Min: -0.01, Max: 0.01},
		TimelineRange: Range{Min: 0, Max: 3},
	}
}

func (r Range) draw(rng *rand.Rand) float64 {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

// RunMonteCarlo runs N randomized trials of the full calculation core and
// aggregates distribution statistics per output metric. Each variable is
// drawn independently from its bounded uniform range. A failing trial is
// skipped and counted, never aborting the batch.
func RunMonteCarlo(a domain.Assumptions, arv decimal.Decimal, cfg MonteCarloConfig) domain.MonteCarloStats {
	if cfg.Trials <= 0 {
		cfg.Trials = 1000
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	stats := domain.MonteCarloStats{
		TrialsRequested: cfg.Trials,
		Seed:            seed,
	}

	netProfits := make([]float64, 0, cfg.Trials)
	rois := make([]float64, 0, cfg.Trials)
	cashFlows := make([]float64, 0, cfg.Trials)
	capRates := make([]float64, 0, cfg.Trials)
	profitable := 0

	start := time.Now()
	for i := 0; i < cfg.Trials; i++ {
		if cfg.Deadline > 0 && time.Since(start) > cfg.Deadline {
			stats.Truncated = true
			break
		}

		adj := domain.ScenarioAdjustment{
			Name:                fmt.Sprintf("trial-%d", i),
			ARVPct:              cfg.ARVRange.draw(rng),
			RehabPct:            cfg.RehabRange.draw(rng),
			RentPct:             cfg.RentRange.draw(rng),
			RateDelta:           cfg.RateRange.draw(rng),
			TimelineDeltaMonths: int(math.Round(cfg.TimelineRange.draw(rng))),
		}

		flip, rental, ok := runTrial(a, arv, adj)
		if !ok {
			stats.TrialsFailed++
			continue
		}

		netProfit, _ := flip.NetProfit.Float64()
		cashFlow, _ := rental.AnnualCashFlow.Float64()

		netProfits = append(netProfits, netProfit)
		rois = append(rois, flip.ROI)
		cashFlows = append(cashFlows, cashFlow)
		capRates = append(capRates, rental.CapRate)
		if netProfit > 0 {
			profitable++
		}
		stats.TrialsRun++
	}

	if stats.TrialsRun > 0 {
		stats.NetProfit = summarize(netProfits)
		stats.FlipROI = summarize(rois)
		stats.AnnualCashFlow = summarize(cashFlows)
		stats.CapRate = summarize(capRates)
		stats.ProfitProbability = float64(profitable) / float64(stats.TrialsRun)
	}

	return stats
}

// runTrial isolates one trial so a panic in the calculation core skips
// the trial instead of killing the batch
func runTrial(a domain.Assumptions, arv decimal.Decimal, adj domain.ScenarioAdjustment) (flip domain.FlipAnalysis, rental domain.RentalAnalysis, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	adjusted, adjustedARV := Apply(a, arv, adj)
	flip = finance.AnalyzeFlip(adjusted, adjustedARV)
	rental = finance.AnalyzeRental(adjusted, adjustedARV)
	return flip, rental, true
}

// summarize computes distribution statistics over one metric's samples
func summarize(samples []float64) domain.MetricStats {
	if len(samples) == 0 {
		return domain.MetricStats{}
	}

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))

	variance := 0.0
	for _, v := range sorted {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(sorted))

	return domain.MetricStats{
		Mean:   mean,
		Median: percentile(sorted, 0.50),
		P10:    percentile(sorted, 0.10),
		P90:    percentile(sorted, 0.90),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		StdDev: math.Sqrt(variance),
	}
}

// percentile interpolates linearly between the two nearest ranks
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	weight := rank - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
