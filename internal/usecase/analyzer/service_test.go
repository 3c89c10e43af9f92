package analyzer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealscout/dealscout-backend/internal/domain"
	"github.com/dealscout/dealscout-backend/internal/usecase/acquisition"
	"github.com/dealscout/dealscout-backend/internal/usecase/scenario"
	"github.com/dealscout/dealscout-backend/internal/usecase/scoring"
	"github.com/dealscout/dealscout-backend/internal/usecase/valuation"
)

type fetcherFunc func(ctx context.Context, query domain.PropertyQuery, forceRefresh bool) (*acquisition.FetchResult, error)

func (f fetcherFunc) Fetch(ctx context.Context, query domain.PropertyQuery, forceRefresh bool) (*acquisition.FetchResult, error) {
	return f(ctx, query, forceRefresh)
}

// fetchComps wraps a static comparable set as a waterfall result
func fetchComps(comps []domain.ComparableProperty) fetcherFunc {
	return func(_ context.Context, _ domain.PropertyQuery, _ bool) (*acquisition.FetchResult, error) {
		return &acquisition.FetchResult{Comparables: comps, Source: "rentcast"}, nil
	}
}

type stubEstimator struct {
	name     string
	window   domain.QuotaWindow
	estimate *domain.ExternalEstimate
	err      error
	calls    int
}

func (s *stubEstimator) Name() string { return s.name }

func (s *stubEstimator) QuotaWindow() domain.QuotaWindow {
	if s.window == "" {
		return domain.QuotaWindowMonthly
	}
	return s.window
}

func (s *stubEstimator) EstimateValue(_ context.Context, _ domain.PropertyQuery) (*domain.ExternalEstimate, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.estimate, nil
}

// stubGate scripts estimator eligibility and records metered usage
type stubGate struct {
	blocked  map[string]bool
	recorded []string
}

func (g *stubGate) SourceEligible(_ context.Context, source string, _ domain.QuotaWindow) bool {
	return !g.blocked[source]
}

func (g *stubGate) RecordUsage(_ context.Context, source string, _ domain.QuotaWindow) {
	g.recorded = append(g.recorded, source)
}

func goodComps() []domain.ComparableProperty {
	comps := make([]domain.ComparableProperty, 0, 6)
	prices := []float64{395000, 405000, 410000, 415000, 420000, 430000}
	for _, p := range prices {
		comps = append(comps, domain.ComparableProperty{
			Price:      p,
			SquareFeet: 1800,
			Beds:       3,
			Baths:      2,
			Source:     "rentcast",
			Empirical:  true,
		})
	}
	return comps
}

func baseAssumptions() domain.Assumptions {
	return domain.Assumptions{
		PurchasePrice:     decimal.NewFromInt(300000),
		RehabCost:         decimal.NewFromInt(40000),
		DownPaymentRate:   0.20,
		InterestRate:      0.06,
		LoanTermYears:     30,
		MonthsToFlip:      6,
		SellingCostRate:   0.06,
		MonthlyRent:       decimal.NewFromInt(2800),
		VacancyRate:       0.05,
		MaintenanceRate:   0.01,
		PropertyTaxAnnual: decimal.NewFromInt(6000),
		InsuranceAnnual:   decimal.NewFromInt(1800),
		HoldYears:         5,
		DiscountRate:      0.08,
	}
}

func newTestService(fetch fetcherFunc, gate QuotaGate, estimators ...domain.ValueEstimator) *Service {
	return NewService(
		fetch,
		gate,
		estimators,
		valuation.NewAggregator(valuation.DefaultConfig()),
		scoring.NewScorer(scoring.DefaultConfig()),
		scoring.DefaultAlertThresholds(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func analysisRequest() Request {
	return Request{
		Query: domain.PropertyQuery{
			Address: "123 Main St", City: "Austin", State: "TX", Zip: "78701",
			SquareFeet: 1800, Beds: 3, Baths: 2,
		},
		Assumptions: baseAssumptions(),
	}
}

func TestAnalyze_FullPipeline(t *testing.T) {
	avm := &stubEstimator{name: "attom", estimate: &domain.ExternalEstimate{
		Source: "attom", Value: 418000, Confidence: 0.82,
	}}

	svc := newTestService(fetchComps(goodComps()), &stubGate{}, avm)

	result, err := svc.Analyze(context.Background(), analysisRequest())

	require.NoError(t, err)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", result.RunID.String())
	assert.False(t, result.GeneratedAt.IsZero())

	// The ARV blends comps with the AVM estimate
	assert.False(t, result.ARV.Degraded)
	require.Len(t, result.ARV.Sources, 2)
	assert.Equal(t, valuation.CompSourceName, result.ARV.Sources[0].Source)
	assert.True(t, result.ARV.Value.IsPositive())

	// The calculation core ran against the blended ARV
	assert.Equal(t, result.ARV.Value, result.Flip.ARV)
	assert.True(t, result.Rental.NOI.IsPositive())
	assert.True(t, result.Metrics.BreakEvenRent.IsPositive())

	// Scores carry tiers from the shared alert slate
	assert.NotEmpty(t, result.FlipScore.Tier)
	assert.NotEmpty(t, result.RentalScore.Tier)
	assert.NotEmpty(t, result.Alerts)
	assert.NotEmpty(t, result.Insights)

	assert.Equal(t, 6, result.DataQuality.CompCount)
	assert.Equal(t, 6, result.DataQuality.EmpiricalComps)
	assert.Equal(t, []string{"rentcast"}, result.DataQuality.Sources)
	assert.False(t, result.DataQuality.CacheHit)
}

func TestAnalyze_AllSourcesFailedDegradesToHeuristic(t *testing.T) {
	fetch := fetcherFunc(func(_ context.Context, _ domain.PropertyQuery, _ bool) (*acquisition.FetchResult, error) {
		return nil, &domain.AllSourcesFailedError{Failures: []domain.SourceFailure{
			{Source: "rentcast", Err: errors.New("timeout")},
		}}
	})

	svc := newTestService(fetch, &stubGate{})

	result, err := svc.Analyze(context.Background(), analysisRequest())

	require.NoError(t, err, "total source failure degrades, it does not block")
	assert.True(t, result.ARV.Degraded)
	assert.True(t, result.DataQuality.Degraded)
	assert.Equal(t, domain.ConfidenceLow, result.ARV.Level)

	// ARV = purchase price * 1.15
	expected := decimal.NewFromInt(300000).Mul(decimal.NewFromFloat(1.15))
	assert.True(t, result.ARV.Value.Equal(expected), "got %s", result.ARV.Value)

	// A high-priority warning surfaces the degradation
	found := false
	for _, a := range result.Alerts {
		if a.Type == domain.AlertWarning && a.Priority == domain.PriorityHigh {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAnalyze_AcquisitionErrorIsSurfaced(t *testing.T) {
	fetch := fetcherFunc(func(_ context.Context, _ domain.PropertyQuery, _ bool) (*acquisition.FetchResult, error) {
		return nil, errors.New("property address cannot be empty")
	})

	svc := newTestService(fetch, &stubGate{})

	_, err := svc.Analyze(context.Background(), analysisRequest())

	require.Error(t, err)
}

func TestAnalyze_EstimatorFailureIsSkipped(t *testing.T) {
	broken := &stubEstimator{name: "attom", err: errors.New("upstream 500")}
	gate := &stubGate{}

	svc := newTestService(fetchComps(goodComps()), gate, broken)

	result, err := svc.Analyze(context.Background(), analysisRequest())

	require.NoError(t, err)
	require.Len(t, result.ARV.Sources, 1, "only the comp estimate remains")
	assert.InDelta(t, 1.0, result.ARV.Sources[0].Weight, 1e-9)
	assert.Empty(t, gate.recorded, "a failed estimate must not consume quota")
}

func TestAnalyze_EstimatorOverQuotaIsSkipped(t *testing.T) {
	avm := &stubEstimator{name: "attom", estimate: &domain.ExternalEstimate{
		Source: "attom", Value: 418000, Confidence: 0.82,
	}}
	gate := &stubGate{blocked: map[string]bool{"attom": true}}

	svc := newTestService(fetchComps(goodComps()), gate, avm)

	result, err := svc.Analyze(context.Background(), analysisRequest())

	require.NoError(t, err)
	require.Len(t, result.ARV.Sources, 1, "a source at its threshold contributes no estimate")
	assert.Zero(t, avm.calls, "an ineligible estimator must never be invoked")
	assert.Empty(t, gate.recorded)
}

func TestAnalyze_EstimatorUsageIsMetered(t *testing.T) {
	avm := &stubEstimator{name: "attom", window: domain.QuotaWindowMonthly, estimate: &domain.ExternalEstimate{
		Source: "attom", Value: 418000, Confidence: 0.82,
	}}
	gate := &stubGate{}

	svc := newTestService(fetchComps(goodComps()), gate, avm)

	_, err := svc.Analyze(context.Background(), analysisRequest())

	require.NoError(t, err)
	assert.Equal(t, []string{"attom"}, gate.recorded, "each successful AVM call counts against its window")
}

func TestAnalyze_CacheHitSurfacesInDataQuality(t *testing.T) {
	fetch := fetcherFunc(func(_ context.Context, _ domain.PropertyQuery, _ bool) (*acquisition.FetchResult, error) {
		return &acquisition.FetchResult{Comparables: goodComps(), CacheHit: true}, nil
	})

	svc := newTestService(fetch, &stubGate{})

	result, err := svc.Analyze(context.Background(), analysisRequest())

	require.NoError(t, err)
	assert.True(t, result.DataQuality.CacheHit)
}

func TestAnalyze_ScenariosAndMonteCarloOnRequest(t *testing.T) {
	svc := newTestService(fetchComps(goodComps()), &stubGate{})

	req := analysisRequest()
	req.Scenarios = []domain.ScenarioAdjustment{
		{Name: "arv-down-10", ARVPct: -0.10},
		{Name: "rehab-over-20", RehabPct: 0.20},
	}
	mcCfg := scenario.DefaultMonteCarloConfig()
	mcCfg.Trials = 200
	mcCfg.Seed = 42
	req.MonteCarlo = &mcCfg

	result, err := svc.Analyze(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, result.Scenarios, 2)
	assert.Equal(t, "arv-down-10", result.Scenarios[0].Adjustment.Name)
	assert.True(t, result.Scenarios[0].Deltas.NetProfit.IsNegative())

	require.NotNil(t, result.MonteCarlo)
	assert.Equal(t, 200, result.MonteCarlo.TrialsRun)
	assert.Equal(t, int64(42), result.MonteCarlo.Seed)
}

func TestAnalyze_BaseRunOmitsOptionalWork(t *testing.T) {
	svc := newTestService(fetchComps(goodComps()), &stubGate{})

	result, err := svc.Analyze(context.Background(), analysisRequest())

	require.NoError(t, err)
	assert.Empty(t, result.Scenarios)
	assert.Nil(t, result.MonteCarlo)
	assert.Empty(t, result.Metrics.LoanComparisons)
}
