package analyzer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealscout/dealscout-backend/internal/domain"
	"github.com/dealscout/dealscout-backend/internal/metrics"
	"github.com/dealscout/dealscout-backend/internal/usecase/acquisition"
	"github.com/dealscout/dealscout-backend/internal/usecase/finance"
	"github.com/dealscout/dealscout-backend/internal/usecase/scenario"
	"github.com/dealscout/dealscout-backend/internal/usecase/scoring"
	"github.com/dealscout/dealscout-backend/internal/usecase/valuation"
)

// degradedARVMarkup is the purchase-price heuristic used when every
// comparable data source failed: ARV = purchase price * 1.15
var degradedARVMarkup = decimal.NewFromFloat(1.15)

const degradedConfidence = 0.20

// CompsFetcher is the slice of the acquisition waterfall the analyzer needs
type CompsFetcher interface {
	Fetch(ctx context.Context, query domain.PropertyQuery, forceRefresh bool) (*acquisition.FetchResult, error)
}

// QuotaGate meters direct AVM calls against the same counters the
// waterfall uses for comparable fetches. A nil gate meters nothing.
type QuotaGate interface {
	SourceEligible(ctx context.Context, source string, window domain.QuotaWindow) bool
	RecordUsage(ctx context.Context, source string, window domain.QuotaWindow)
}

// Request is one complete analysis invocation
type Request struct {
	Query        domain.PropertyQuery
	Assumptions  domain.Assumptions
	ForceRefresh bool

	// Optional what-if work on top of the base run
	Scenarios        []domain.ScenarioAdjustment
	MonteCarlo       *scenario.MonteCarloConfig
	LoanAlternatives []domain.LoanTerms
}

// DataQuality summarizes how trustworthy the inputs behind a run were
type DataQuality struct {
	Degraded       bool // ARV is a purchase-price heuristic
	CacheHit       bool // comparables came from the 24h cache
	CompCount      int
	EmpiricalComps int
	Sources        []string // distinct comparable sources, in encounter order
	Warnings       []string
}

// Result is the immutable output record of one analysis run
type Result struct {
	RunID       uuid.UUID
	GeneratedAt time.Time
	Query       domain.PropertyQuery
	Assumptions domain.Assumptions

	ARV     domain.ARVEstimate
	Flip    domain.FlipAnalysis
	Rental  domain.RentalAnalysis
	Metrics domain.AdvancedMetrics

	Scenarios  []domain.ScenarioResult
	MonteCarlo *domain.MonteCarloStats

	FlipScore   domain.ScoreBreakdown
	RentalScore domain.ScoreBreakdown
	Alerts      []domain.Alert
	Insights    []string

	DataQuality DataQuality
}

// Service orchestrates one analysis run end to end: acquisition,
// valuation, the calculation core, optional simulation, and scoring.
type Service struct {
	Comps      CompsFetcher
	Quota      QuotaGate
	Estimators []domain.ValueEstimator
	Aggregator *valuation.Aggregator
	Scorer     *scoring.Scorer
	Thresholds scoring.AlertThresholds

	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new analyzer Service instance
func NewService(
	comps CompsFetcher,
	quota QuotaGate,
	estimators []domain.ValueEstimator,
	aggregator *valuation.Aggregator,
	scorer *scoring.Scorer,
	thresholds scoring.AlertThresholds,
	logger *slog.Logger,
) *Service {
	return &Service{
		Comps:      comps,
		Quota:      quota,
		Estimators: estimators,
		Aggregator: aggregator,
		Scorer:     scorer,
		Thresholds: thresholds,
		logger:     logger,
		now:        time.Now,
	}
}

// Analyze runs the full pipeline for one property.
//
// Logic:
//  1. Normalize the assumptions and resolve comparables through the
//     acquisition waterfall; total source failure degrades the run
//     instead of blocking it
//  2. Collect external automated valuations and blend everything into
//     a weighted ARV
//  3. Run the calculation core: flip, rental (with optional refinance),
//     and the long-horizon metrics
//  4. Re-run the core under any requested scenarios and Monte-Carlo config
//  5. Score both strategies, derive alerts and insights, and assign tiers
func (s *Service) Analyze(ctx context.Context, req Request) (*Result, error) {
	start := s.now()

	a := req.Assumptions
	a.Clamp()

	result := &Result{
		RunID:       uuid.New(),
		GeneratedAt: start,
		Query:       req.Query,
		Assumptions: a,
	}

	arvEstimate, fetched, err := s.resolveARV(ctx, req, a)
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	result.ARV = arvEstimate
	result.DataQuality = dataQualityFor(arvEstimate, fetched)

	arv := arvEstimate.Value

	result.Flip = finance.AnalyzeFlip(a, arv)
	result.Rental = finance.AnalyzeRental(a, arv)
	result.Metrics = finance.AdvancedMetricsFor(a, arv, result.Rental, req.LoanAlternatives)

	if len(req.Scenarios) > 0 {
		result.Scenarios = scenario.RunAll(a, arv, result.Flip, result.Rental, req.Scenarios)
	}
	if req.MonteCarlo != nil {
		stats := scenario.RunMonteCarlo(a, arv, *req.MonteCarlo)
		result.MonteCarlo = &stats
	}

	result.Alerts = scoring.BuildAlerts(s.Thresholds, result.Flip, result.Rental, arvEstimate, result.MonteCarlo)
	result.Insights = scoring.BuildInsights(result.Flip, result.Rental, arvEstimate, result.Metrics)

	result.FlipScore = s.Scorer.ScoreFlip(result.Flip, arvEstimate.Confidence, result.MonteCarlo)
	result.FlipScore.Tier = scoring.TierFor(result.FlipScore.Total, result.Alerts)
	result.RentalScore = s.Scorer.ScoreRental(result.Rental, arv, a.MonthlyRent)
	result.RentalScore.Tier = scoring.TierFor(result.RentalScore.Total, result.Alerts)

	outcome := "ok"
	if result.DataQuality.Degraded {
		outcome = "degraded"
	}
	metrics.AnalysesTotal.WithLabelValues(outcome).Inc()
	metrics.AnalysisDuration.Observe(s.now().Sub(start).Seconds())

	s.logger.Info("analysis complete",
		"run_id", result.RunID,
		"address", req.Query.Address,
		"arv", arv,
		"flip_score", result.FlipScore.Total,
		"rental_score", result.RentalScore.Total,
		"degraded", result.DataQuality.Degraded,
	)

	return result, nil
}

// resolveARV fetches comparables and external estimates and blends them.
// Total source failure yields the degraded purchase-price heuristic; any
// other acquisition error (bad query) is surfaced to the caller.
func (s *Service) resolveARV(ctx context.Context, req Request, a domain.Assumptions) (domain.ARVEstimate, *acquisition.FetchResult, error) {
	res, err := s.Comps.Fetch(ctx, req.Query, req.ForceRefresh)
	if err != nil {
		var allFailed *domain.AllSourcesFailedError
		if !errors.As(err, &allFailed) {
			return domain.ARVEstimate{}, nil, err
		}

		s.logger.Warn("all comparable sources failed, degrading to purchase-price heuristic",
			"address", req.Query.Address, "error", err)

		return domain.ARVEstimate{
			Value:      a.PurchasePrice.Mul(degradedARVMarkup),
			Confidence: degradedConfidence,
			Level:      domain.ConfidenceLow,
			Degraded:   true,
			Warnings:   []string{"ARV estimated from purchase price; no comparable data was available"},
		}, nil, nil
	}

	externals := s.collectEstimates(ctx, req.Query)
	return s.Aggregator.AggregateARV(req.Query, res.Comparables, externals), res, nil
}

// collectEstimates asks each configured AVM provider for its valuation.
// Estimator failures are logged and skipped; the comp-derived estimate
// carries the run on its own when needed. Every estimate is a metered
// provider call: sources over their safety threshold are skipped and
// successful calls count against the same window as comparable fetches.
func (s *Service) collectEstimates(ctx context.Context, query domain.PropertyQuery) []domain.ExternalEstimate {
	estimates := make([]domain.ExternalEstimate, 0, len(s.Estimators))
	for _, est := range s.Estimators {
		if s.Quota != nil && !s.Quota.SourceEligible(ctx, est.Name(), est.QuotaWindow()) {
			s.logger.Debug("skipping estimator, quota threshold reached", "source", est.Name())
			continue
		}

		value, err := est.EstimateValue(ctx, query)
		if err != nil {
			s.logger.Warn("external estimate unavailable", "source", est.Name(), "error", err)
			continue
		}
		if s.Quota != nil {
			s.Quota.RecordUsage(ctx, est.Name(), est.QuotaWindow())
		}
		estimates = append(estimates, *value)
	}
	return estimates
}

func dataQualityFor(arv domain.ARVEstimate, res *acquisition.FetchResult) DataQuality {
	quality := DataQuality{
		Degraded: arv.Degraded,
		Warnings: arv.Warnings,
	}
	if res == nil {
		return quality
	}
	quality.CacheHit = res.CacheHit
	quality.CompCount = len(res.Comparables)

	seen := map[string]bool{}
	for _, c := range res.Comparables {
		if c.Empirical {
			quality.EmpiricalComps++
		}
		if c.Source != "" && !seen[c.Source] {
			seen[c.Source] = true
			quality.Sources = append(quality.Sources, c.Source)
		}
	}
	return quality
}
