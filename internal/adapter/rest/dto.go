package rest

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dealscout/dealscout-backend/internal/domain"
	"github.com/dealscout/dealscout-backend/internal/usecase/analyzer"
	"github.com/dealscout/dealscout-backend/internal/usecase/scenario"
)

// Wire DTOs for the analysis API. Money travels as float64 dollars and
// is rounded to cents here, at the boundary; internally every currency
// amount stays a decimal.

type propertyDTO struct {
	Address    string  `json:"address"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	Zip        string  `json:"zip"`
	SquareFeet float64 `json:"square_feet,omitempty"`
	Beds       int     `json:"beds,omitempty"`
	Baths      float64 `json:"baths,omitempty"`
}

type refinanceDTO struct {
	LTV          float64 `json:"ltv"`
	Rate         float64 `json:"rate"`
	TermYears    int     `json:"term_years"`
	ClosingCosts float64 `json:"closing_costs"`
}

type assumptionsDTO struct {
	PurchasePrice   float64 `json:"purchase_price"`
	RehabCost       float64 `json:"rehab_cost"`
	ContingencyRate float64 `json:"contingency_rate"`
	AcquisitionCost float64 `json:"acquisition_cost"`

	DownPaymentRate float64 `json:"down_payment_rate"`
	InterestRate    float64 `json:"interest_rate"`
	LoanTermYears   int     `json:"loan_term_years"`
	HelocAmount     float64 `json:"heloc_amount"`
	HelocRate       float64 `json:"heloc_rate"`
	DirectCash      float64 `json:"direct_cash"`

	MonthsToFlip    int     `json:"months_to_flip"`
	SellingCostRate float64 `json:"selling_cost_rate"`

	MonthlyRent       float64 `json:"monthly_rent"`
	VacancyRate       float64 `json:"vacancy_rate"`
	MaintenanceRate   float64 `json:"maintenance_rate"`
	ManagementRate    float64 `json:"management_rate"`
	ManagementEnabled bool    `json:"management_enabled"`
	PropertyTaxAnnual float64 `json:"property_tax_annual"`
	InsuranceAnnual   float64 `json:"insurance_annual"`
	HOAMonthly        float64 `json:"hoa_monthly"`
	UtilitiesMonthly  float64 `json:"utilities_monthly"`

	HoldYears        int     `json:"hold_years"`
	DiscountRate     float64 `json:"discount_rate"`
	AppreciationRate float64 `json:"appreciation_rate"`
	RentGrowthRate   float64 `json:"rent_growth_rate"`

	TaxRate       float64 `json:"tax_rate"`
	LandValueRate float64 `json:"land_value_rate"`

	Refinance *refinanceDTO `json:"refinance,omitempty"`
}

type scenarioAdjustmentDTO struct {
	Name                string  `json:"name"`
	ARVPct              float64 `json:"arv_pct"`
	RehabPct            float64 `json:"rehab_pct"`
	RentPct             float64 `json:"rent_pct"`
	RateDelta           float64 `json:"rate_delta"`
	TimelineDeltaMonths int     `json:"timeline_delta_months"`
}

type monteCarloRequestDTO struct {
	Trials     int   `json:"trials"`
	Seed       int64 `json:"seed"`
	DeadlineMs int64 `json:"deadline_ms"`
}

type loanTermsDTO struct {
	Label        string  `json:"label"`
	Rate         float64 `json:"rate"`
	TermYears    int     `json:"term_years"`
	InterestOnly bool    `json:"interest_only"`
}

type analyzeRequestDTO struct {
	Property     propertyDTO             `json:"property"`
	Assumptions  assumptionsDTO          `json:"assumptions"`
	ForceRefresh bool                    `json:"force_refresh"`
	Scenarios    []scenarioAdjustmentDTO `json:"scenarios,omitempty"`
	MonteCarlo   *monteCarloRequestDTO   `json:"monte_carlo,omitempty"`
	Loans        []loanTermsDTO          `json:"loan_alternatives,omitempty"`
}

func (dto analyzeRequestDTO) toRequest() analyzer.Request {
	req := analyzer.Request{
		Query: domain.PropertyQuery{
			Address:    dto.Property.Address,
			City:       dto.Property.City,
			State:      dto.Property.State,
			Zip:        dto.Property.Zip,
			SquareFeet: dto.Property.SquareFeet,
			Beds:       dto.Property.Beds,
			Baths:      dto.Property.Baths,
		},
		Assumptions:  dto.Assumptions.toDomain(),
		ForceRefresh: dto.ForceRefresh,
	}

	for _, s := range dto.Scenarios {
		req.Scenarios = append(req.Scenarios, domain.ScenarioAdjustment{
			Name:                s.Name,
			ARVPct:              s.ARVPct,
			RehabPct:            s.RehabPct,
			RentPct:             s.RentPct,
			RateDelta:           s.RateDelta,
			TimelineDeltaMonths: s.TimelineDeltaMonths,
		})
	}

	if dto.MonteCarlo != nil {
		cfg := scenario.DefaultMonteCarloConfig()
		if dto.MonteCarlo.Trials > 0 {
			cfg.Trials = dto.MonteCarlo.Trials
		}
		cfg.Seed = dto.MonteCarlo.Seed
		if dto.MonteCarlo.DeadlineMs > 0 {
			cfg.Deadline = time.Duration(dto.MonteCarlo.DeadlineMs) * time.Millisecond
		}
		req.MonteCarlo = &cfg
	}

	for _, l := range dto.Loans {
		req.LoanAlternatives = append(req.LoanAlternatives, domain.LoanTerms{
			Label:        l.Label,
			Rate:         l.Rate,
			TermYears:    l.TermYears,
			InterestOnly: l.InterestOnly,
		})
	}

	return req
}

func (dto assumptionsDTO) toDomain() domain.Assumptions {
	a := domain.Assumptions{
		PurchasePrice:   decimal.NewFromFloat(dto.PurchasePrice),
		RehabCost:       decimal.NewFromFloat(dto.RehabCost),
		ContingencyRate: dto.ContingencyRate,
		AcquisitionCost: decimal.NewFromFloat(dto.AcquisitionCost),

		DownPaymentRate: dto.DownPaymentRate,
		InterestRate:    dto.InterestRate,
		LoanTermYears:   dto.LoanTermYears,
		HelocAmount:     decimal.NewFromFloat(dto.HelocAmount),
		HelocRate:       dto.HelocRate,
		DirectCash:      decimal.NewFromFloat(dto.DirectCash),

		MonthsToFlip:    dto.MonthsToFlip,
		SellingCostRate: dto.SellingCostRate,

		MonthlyRent:       decimal.NewFromFloat(dto.MonthlyRent),
		VacancyRate:       dto.VacancyRate,
		MaintenanceRate:   dto.MaintenanceRate,
		ManagementRate:    dto.ManagementRate,
		ManagementEnabled: dto.ManagementEnabled,
		PropertyTaxAnnual: decimal.NewFromFloat(dto.PropertyTaxAnnual),
		InsuranceAnnual:   decimal.NewFromFloat(dto.InsuranceAnnual),
		HOAMonthly:        decimal.NewFromFloat(dto.HOAMonthly),
		UtilitiesMonthly:  decimal.NewFromFloat(dto.UtilitiesMonthly),

		HoldYears:        dto.HoldYears,
		DiscountRate:     dto.DiscountRate,
		AppreciationRate: dto.AppreciationRate,
		RentGrowthRate:   dto.RentGrowthRate,

		TaxRate:       dto.TaxRate,
		LandValueRate: dto.LandValueRate,
	}

	if dto.Refinance != nil {
		a.Refinance = &domain.RefinanceAssumptions{
			LTV:          dto.Refinance.LTV,
			Rate:         dto.Refinance.Rate,
			TermYears:    dto.Refinance.TermYears,
			ClosingCosts: decimal.NewFromFloat(dto.Refinance.ClosingCosts),
		}
	}

	return a
}

type valuationSourceDTO struct {
	Source     string  `json:"source"`
	Value      float64 `json:"value"`
	Weight     float64 `json:"weight"`
	Confidence float64 `json:"confidence"`
}

type arvDTO struct {
	Value      float64              `json:"value"`
	Confidence float64              `json:"confidence"`
	Level      string               `json:"level"`
	Degraded   bool                 `json:"degraded"`
	CompCount  int                  `json:"comp_count"`
	Sources    []valuationSourceDTO `json:"sources,omitempty"`
	Warnings   []string             `json:"warnings,omitempty"`
}

type flipDTO struct {
	PurchasePrice float64 `json:"purchase_price"`
	RehabCost     float64 `json:"rehab_cost"`
	ARV           float64 `json:"arv"`
	TotalCost     float64 `json:"total_cost"`
	HoldingCosts  float64 `json:"holding_costs"`
	SellingCosts  float64 `json:"selling_costs"`
	NetProfit     float64 `json:"net_profit"`
	CashDeployed  float64 `json:"cash_deployed"`
	ROI           float64 `json:"roi"`
	AnnualizedROI float64 `json:"annualized_roi"`
	MonthsHeld    int     `json:"months_held"`
}

type refinanceResultDTO struct {
	NewLoanAmount     float64 `json:"new_loan_amount"`
	LoanPayoff        float64 `json:"loan_payoff"`
	CashOut           float64 `json:"cash_out"`
	CashLeftInDeal    float64 `json:"cash_left_in_deal"`
	AnnualDebtService float64 `json:"annual_debt_service"`
	AnnualCashFlow    float64 `json:"annual_cash_flow"`
	CashOnCash        float64 `json:"cash_on_cash"`
	DSCR              float64 `json:"dscr"`
	CapitalReturned   bool    `json:"capital_returned"`
}

type rentalDTO struct {
	GrossScheduledIncome float64 `json:"gross_scheduled_income"`
	VacancyLoss          float64 `json:"vacancy_loss"`
	EffectiveGrossIncome float64 `json:"effective_gross_income"`
	OperatingExpenses    float64 `json:"operating_expenses"`
	NOI                  float64 `json:"noi"`
	AnnualDebtService    float64 `json:"annual_debt_service"`
	AnnualCashFlow       float64 `json:"annual_cash_flow"`
	MonthlyCashFlow      float64 `json:"monthly_cash_flow"`
	CashDeployed         float64 `json:"cash_deployed"`
	CapRate              float64 `json:"cap_rate"`
	CashOnCash           float64 `json:"cash_on_cash"`
	DSCR                 float64 `json:"dscr"`

	AnnualDepreciation float64 `json:"annual_depreciation"`
	TaxableIncome      float64 `json:"taxable_income"`
	TaxLiability       float64 `json:"tax_liability"`
	AfterTaxCashFlow   float64 `json:"after_tax_cash_flow"`

	Refinance *refinanceResultDTO `json:"refinance,omitempty"`
}

type loanComparisonDTO struct {
	Label             string  `json:"label"`
	Rate              float64 `json:"rate"`
	TermYears         int     `json:"term_years"`
	InterestOnly      bool    `json:"interest_only"`
	MonthlyPayment    float64 `json:"monthly_payment"`
	AnnualDebtService float64 `json:"annual_debt_service"`
	AnnualCashFlow    float64 `json:"annual_cash_flow"`
	TotalInterest     float64 `json:"total_interest"`
	DSCR              float64 `json:"dscr"`
}

type metricsDTO struct {
	IRR                float64             `json:"irr"`
	IRRDefined         bool                `json:"irr_defined"`
	NPV                float64             `json:"npv"`
	BreakEvenRent      float64             `json:"break_even_rent"`
	BreakEvenOccupancy float64             `json:"break_even_occupancy"`
	LoanComparisons    []loanComparisonDTO `json:"loan_comparisons,omitempty"`
}

type scenarioDeltasDTO struct {
	NetProfit      float64 `json:"net_profit"`
	ROI            float64 `json:"roi"`
	AnnualCashFlow float64 `json:"annual_cash_flow"`
	CapRate        float64 `json:"cap_rate"`
	DSCR           float64 `json:"dscr"`
}

type scenarioResultDTO struct {
	Name   string            `json:"name"`
	Flip   flipDTO           `json:"flip"`
	Rental rentalDTO         `json:"rental"`
	Deltas scenarioDeltasDTO `json:"deltas"`
}

type metricStatsDTO struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P10    float64 `json:"p10"`
	P90    float64 `json:"p90"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
}

type monteCarloDTO struct {
	TrialsRequested   int            `json:"trials_requested"`
	TrialsRun         int            `json:"trials_run"`
	TrialsFailed      int            `json:"trials_failed"`
	Truncated         bool           `json:"truncated"`
	Seed              int64          `json:"seed"`
	NetProfit         metricStatsDTO `json:"net_profit"`
	FlipROI           metricStatsDTO `json:"flip_roi"`
	AnnualCashFlow    metricStatsDTO `json:"annual_cash_flow"`
	CapRate           metricStatsDTO `json:"cap_rate"`
	ProfitProbability float64        `json:"profit_probability"`
}

type subScoreDTO struct {
	Name   string  `json:"name"`
	Raw    float64 `json:"raw"`
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
}

type scoreDTO struct {
	Strategy   string        `json:"strategy"`
	Total      float64       `json:"total"`
	Tier       string        `json:"tier"`
	Components []subScoreDTO `json:"components"`
}

type alertDTO struct {
	Type       string `json:"type"`
	Priority   string `json:"priority"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

type dataQualityDTO struct {
	Degraded       bool     `json:"degraded"`
	CacheHit       bool     `json:"cache_hit"`
	CompCount      int      `json:"comp_count"`
	EmpiricalComps int      `json:"empirical_comps"`
	Sources        []string `json:"sources,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}

type analyzeResponseDTO struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`

	ARV     arvDTO     `json:"arv"`
	Flip    flipDTO    `json:"flip"`
	Rental  rentalDTO  `json:"rental"`
	Metrics metricsDTO `json:"metrics"`

	Scenarios  []scenarioResultDTO `json:"scenarios,omitempty"`
	MonteCarlo *monteCarloDTO      `json:"monte_carlo,omitempty"`

	FlipScore   scoreDTO       `json:"flip_score"`
	RentalScore scoreDTO       `json:"rental_score"`
	Alerts      []alertDTO     `json:"alerts"`
	Insights    []string       `json:"insights"`
	DataQuality dataQualityDTO `json:"data_quality"`
}

// cents rounds a decimal dollar amount to two places for the wire
func cents(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func toResponse(result *analyzer.Result) analyzeResponseDTO {
	resp := analyzeResponseDTO{
		RunID:       result.RunID.String(),
		GeneratedAt: result.GeneratedAt,
		ARV:         toARVDTO(result.ARV),
		Flip:        toFlipDTO(result.Flip),
		Rental:      toRentalDTO(result.Rental),
		Metrics:     toMetricsDTO(result.Metrics),
		FlipScore:   toScoreDTO(result.FlipScore),
		RentalScore: toScoreDTO(result.RentalScore),
		Insights:    result.Insights,
		DataQuality: dataQualityDTO{
			Degraded:       result.DataQuality.Degraded,
			CacheHit:       result.DataQuality.CacheHit,
			CompCount:      result.DataQuality.CompCount,
			EmpiricalComps: result.DataQuality.EmpiricalComps,
			Sources:        result.DataQuality.Sources,
			Warnings:       result.DataQuality.Warnings,
		},
	}

	for _, s := range result.Scenarios {
		resp.Scenarios = append(resp.Scenarios, scenarioResultDTO{
			Name:   s.Adjustment.Name,
			Flip:   toFlipDTO(s.Flip),
			Rental: toRentalDTO(s.Rental),
			Deltas: scenarioDeltasDTO{
				NetProfit:      cents(s.Deltas.NetProfit),
				ROI:            s.Deltas.ROI,
				AnnualCashFlow: cents(s.Deltas.AnnualCashFlow),
				CapRate:        s.Deltas.CapRate,
				DSCR:           s.Deltas.DSCR,
			},
		})
	}

	if result.MonteCarlo != nil {
		mc := toMonteCarloDTO(*result.MonteCarlo)
		resp.MonteCarlo = &mc
	}

	for _, a := range result.Alerts {
		resp.Alerts = append(resp.Alerts, alertDTO{
			Type:       string(a.Type),
			Priority:   string(a.Priority),
			Message:    a.Message,
			Suggestion: a.Suggestion,
		})
	}

	return resp
}

func toARVDTO(arv domain.ARVEstimate) arvDTO {
	dto := arvDTO{
		Value:      cents(arv.Value),
		Confidence: arv.Confidence,
		Level:      string(arv.Level),
		Degraded:   arv.Degraded,
		CompCount:  arv.CompCount,
		Warnings:   arv.Warnings,
	}
	for _, s := range arv.Sources {
		dto.Sources = append(dto.Sources, valuationSourceDTO{
			Source:     s.Source,
			Value:      cents(s.Value),
			Weight:     s.Weight,
			Confidence: s.Confidence,
		})
	}
	return dto
}

func toFlipDTO(flip domain.FlipAnalysis) flipDTO {
	return flipDTO{
		PurchasePrice: cents(flip.PurchasePrice),
		RehabCost:     cents(flip.RehabCost),
		ARV:           cents(flip.ARV),
		TotalCost:     cents(flip.TotalCost),
		HoldingCosts:  cents(flip.HoldingCosts),
		SellingCosts:  cents(flip.SellingCosts),
		NetProfit:     cents(flip.NetProfit),
		CashDeployed:  cents(flip.CashDeployed),
		ROI:           flip.ROI,
		AnnualizedROI: flip.AnnualizedROI,
		MonthsHeld:    flip.MonthsHeld,
	}
}

func toRentalDTO(rental domain.RentalAnalysis) rentalDTO {
	dto := rentalDTO{
		GrossScheduledIncome: cents(rental.GrossScheduledIncome),
		VacancyLoss:          cents(rental.VacancyLoss),
		EffectiveGrossIncome: cents(rental.EffectiveGrossIncome),
		OperatingExpenses:    cents(rental.OperatingExpenses),
		NOI:                  cents(rental.NOI),
		AnnualDebtService:    cents(rental.AnnualDebtService),
		AnnualCashFlow:       cents(rental.AnnualCashFlow),
		MonthlyCashFlow:      cents(rental.MonthlyCashFlow),
		CashDeployed:         cents(rental.CashDeployed),
		CapRate:              rental.CapRate,
		CashOnCash:           rental.CashOnCash,
		DSCR:                 rental.DSCR,
		AnnualDepreciation:   cents(rental.AnnualDepreciation),
		TaxableIncome:        cents(rental.TaxableIncome),
		TaxLiability:         cents(rental.TaxLiability),
		AfterTaxCashFlow:     cents(rental.AfterTaxCashFlow),
	}

	if rental.Refinance != nil {
		dto.Refinance = &refinanceResultDTO{
			NewLoanAmount:     cents(rental.Refinance.NewLoanAmount),
			LoanPayoff:        cents(rental.Refinance.LoanPayoff),
			CashOut:           cents(rental.Refinance.CashOut),
			CashLeftInDeal:    cents(rental.Refinance.CashLeftInDeal),
			AnnualDebtService: cents(rental.Refinance.AnnualDebtService),
			AnnualCashFlow:    cents(rental.Refinance.AnnualCashFlow),
			CashOnCash:        rental.Refinance.CashOnCash,
			DSCR:              rental.Refinance.DSCR,
			CapitalReturned:   rental.Refinance.CapitalReturned,
		}
	}

	return dto
}

func toMetricsDTO(m domain.AdvancedMetrics) metricsDTO {
	dto := metricsDTO{
		IRR:                m.IRR,
		IRRDefined:         m.IRRDefined,
		NPV:                cents(m.NPV),
		BreakEvenRent:      cents(m.BreakEvenRent),
		BreakEvenOccupancy: m.BreakEvenOccupancy,
	}
	for _, lc := range m.LoanComparisons {
		dto.LoanComparisons = append(dto.LoanComparisons, loanComparisonDTO{
			Label:             lc.Terms.Label,
			Rate:              lc.Terms.Rate,
			TermYears:         lc.Terms.TermYears,
			InterestOnly:      lc.Terms.InterestOnly,
			MonthlyPayment:    cents(lc.MonthlyPayment),
			AnnualDebtService: cents(lc.AnnualDebtService),
			AnnualCashFlow:    cents(lc.AnnualCashFlow),
			TotalInterest:     cents(lc.TotalInterest),
			DSCR:              lc.DSCR,
		})
	}
	return dto
}

func toMonteCarloDTO(mc domain.MonteCarloStats) monteCarloDTO {
	return monteCarloDTO{
		TrialsRequested:   mc.TrialsRequested,
		TrialsRun:         mc.TrialsRun,
		TrialsFailed:      mc.TrialsFailed,
		Truncated:         mc.Truncated,
		Seed:              mc.Seed,
		NetProfit:         toMetricStatsDTO(mc.NetProfit),
		FlipROI:           toMetricStatsDTO(mc.FlipROI),
		AnnualCashFlow:    toMetricStatsDTO(mc.AnnualCashFlow),
		CapRate:           toMetricStatsDTO(mc.CapRate),
		ProfitProbability: mc.ProfitProbability,
	}
}

func toMetricStatsDTO(s domain.MetricStats) metricStatsDTO {
	return metricStatsDTO{
		Mean:   s.Mean,
		Median: s.Median,
		P10:    s.P10,
		P90:    s.P90,
		Min:    s.Min,
		Max:    s.Max,
		StdDev: s.StdDev,
	}
}

func toScoreDTO(s domain.ScoreBreakdown) scoreDTO {
	dto := scoreDTO{
		Strategy: s.Strategy,
		Total:    s.Total,
		Tier:     string(s.Tier),
	}
	for _, c := range s.Components {
		dto.Components = append(dto.Components, subScoreDTO{
			Name:   c.Name,
			Raw:    c.Raw,
			Score:  c.Score,
			Weight: c.Weight,
		})
	}
	return dto
}

type quotaStateDTO struct {
	Source    string `json:"source"`
	Window    string `json:"window"`
	WindowKey string `json:"window_key"`
	Used      int    `json:"used"`
	Limit     int    `json:"limit"` // 0 means unlimited
}

type quotaResetRequestDTO struct {
	Window string `json:"window"`
}

type errorResponseDTO struct {
	Error string `json:"error"`
}
