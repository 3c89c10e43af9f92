package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dealscout/dealscout-backend/internal/domain"
)

// EstimatorSource is the AI-estimation fallback: when every empirical
// data source fails or is out of quota, it asks a language model for a
// value estimate with synthetic comparables. Records it produces are
// marked non-empirical so the aggregator can discount them.
//
// The endpoint speaks the OpenAI chat-completions wire format, which
// also covers self-hosted compatible servers. Metered daily.
type EstimatorSource struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewEstimatorSource creates a new EstimatorSource instance
func NewEstimatorSource(baseURL, apiKey, model string) *EstimatorSource {
	return &EstimatorSource{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (s *EstimatorSource) Name() string { return "ai-estimator" }

func (s *EstimatorSource) QuotaWindow() domain.QuotaWindow { return domain.QuotaWindowDaily }

const estimatorSystemPrompt = `You are a residential real-estate valuation assistant. ` +
	`Given a property, respond with a JSON object only: ` +
	`{"estimated_value": number, "confidence": number between 0 and 1, ` +
	`"comparables": [{"price": number, "beds": integer, "baths": number, ` +
	`"square_feet": number, "condition": "REMODELED"|"UNREMODELED"|"UNKNOWN"}]}. ` +
	`Provide 3 to 5 plausible comparables for the neighborhood.`

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type estimatorPayload struct {
	EstimatedValue float64 `json:"estimated_value"`
	Confidence     float64 `json:"confidence"`
	Comparables    []struct {
		Price      float64 `json:"price"`
		Beds       int     `json:"beds"`
		Baths      float64 `json:"baths"`
		SquareFeet float64 `json:"square_feet"`
		Condition  string  `json:"condition"`
	} `json:"comparables"`
}

// FetchComparables asks the model for synthetic comparables
func (s *EstimatorSource) FetchComparables(ctx context.Context, query domain.PropertyQuery) ([]domain.ComparableProperty, error) {
	payload, err := s.estimate(ctx, query)
	if err != nil {
		return nil, err
	}

	comps := make([]domain.ComparableProperty, 0, len(payload.Comparables))
	for _, c := range payload.Comparables {
		condition := domain.ConditionTag(c.Condition)
		if condition != domain.ConditionRemodeled && condition != domain.ConditionUnremodeled {
			condition = domain.ConditionUnknown
		}
		comps = append(comps, domain.ComparableProperty{
			Price:      c.Price,
			Beds:       c.Beds,
			Baths:      c.Baths,
			SquareFeet: c.SquareFeet,
			Condition:  condition,
			Source:     s.Name(),
			Empirical:  false,
		})
	}
	return comps, nil
}

// EstimateValue returns the model's point estimate. Confidence is capped
// so a model estimate never outranks an empirical AVM in the blend.
func (s *EstimatorSource) EstimateValue(ctx context.Context, query domain.PropertyQuery) (*domain.ExternalEstimate, error) {
	payload, err := s.estimate(ctx, query)
	if err != nil {
		return nil, err
	}

	confidence := payload.Confidence
	if confidence <= 0 || confidence > 0.50 {
		confidence = 0.50
	}

	return &domain.ExternalEstimate{
		Source:     s.Name(),
		Value:      payload.EstimatedValue,
		Confidence: confidence,
	}, nil
}

func (s *EstimatorSource) estimate(ctx context.Context, query domain.PropertyQuery) (*estimatorPayload, error) {
	prompt := fmt.Sprintf("Estimate the value of %s, %s, %s %s", query.Address, query.City, query.State, query.Zip)
	if query.SquareFeet > 0 {
		prompt += fmt.Sprintf(", %.0f sqft", query.SquareFeet)
	}
	if query.Beds > 0 {
		prompt += fmt.Sprintf(", %d bed / %.1f bath", query.Beds, query.Baths)
	}

	reqBody := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: estimatorSystemPrompt},
			{Role: "user", Content: prompt},
		},
	}
	reqBody.ResponseFormat.Type = "json_object"

	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal estimator request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build estimator request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("estimator request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("estimator returned status %d", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read estimator response: %w", err)
	}

	var chat chatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return nil, fmt.Errorf("decode estimator response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("estimator returned no choices")
	}

	content := []byte(chat.Choices[0].Message.Content)
	if err := validatePayload("estimator/value", content); err != nil {
		return nil, fmt.Errorf("estimator payload rejected: %w", err)
	}

	var payload estimatorPayload
	if err := json.Unmarshal(content, &payload); err != nil {
		return nil, fmt.Errorf("decode estimator payload: %w", err)
	}
	return &payload, nil
}
