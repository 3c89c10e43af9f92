package domain

// AlertType is the severity class of a derived alert
type AlertType string

const (
	AlertError   AlertType = "ERROR"
	AlertWarning AlertType = "WARNING"
	AlertInfo    AlertType = "INFO"
	AlertSuccess AlertType = "SUCCESS"
)

// AlertPriority orders alerts for presentation
type AlertPriority string

const (
	PriorityHigh   AlertPriority = "HIGH"
	PriorityMedium AlertPriority = "MEDIUM"
	PriorityLow    AlertPriority = "LOW"
)

// Alert is a threshold-triggered message derived from analysis outputs.
// Alerts are independent of scoring: a deal can score well and still
// carry warnings.
type Alert struct {
	Type       AlertType
	Priority   AlertPriority
	Message    string
	Suggestion string
}

// HasError reports whether any alert in the slice is error-level
func HasError(alerts []Alert) bool {
	for _, a := range alerts {
		if a.Type == AlertError {
			return true
		}
	}
	return false
}

// RecommendationTier is the ladder a scored deal lands on
type RecommendationTier string

const (
	TierStrongBuy RecommendationTier = "STRONG_BUY"
	TierBuy       RecommendationTier = "BUY"
	TierConsider  RecommendationTier = "CONSIDER"
	TierCaution   RecommendationTier = "CAUTION"
	TierPass      RecommendationTier = "PASS"
)

// SubScore is one weighted component of a strategy score
type SubScore struct {
	Name   string
	Raw    float64 // the underlying metric value
	Score  float64 // 0..100 after threshold mapping
	Weight float64 // fraction of the total
}

// ScoreBreakdown is a 0..100 deal-quality score with its components
type ScoreBreakdown struct {
	Strategy   string // "flip" or "rental"
	Total      float64
	Components []SubScore
	Tier       RecommendationTier
}
