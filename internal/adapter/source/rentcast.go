package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dealscout/dealscout-backend/internal/domain"
)

// RentCastSource pulls comparable sales and an automated valuation from
// the RentCast AVM endpoint. RentCast meters by calendar month.
type RentCastSource struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewRentCastSource creates a new RentCastSource instance
func NewRentCastSource(baseURL, apiKey string) *RentCastSource {
	return &RentCastSource{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *RentCastSource) Name() string { return "rentcast" }

func (s *RentCastSource) QuotaWindow() domain.QuotaWindow { return domain.QuotaWindowMonthly }

type rentcastComparable struct {
	Price         float64 `json:"price"`
	Bedrooms      int     `json:"bedrooms"`
	Bathrooms     float64 `json:"bathrooms"`
	SquareFootage float64 `json:"squareFootage"`
	YearBuilt     int     `json:"yearBuilt"`
	RemovedDate   string  `json:"removedDate"`
	Distance      float64 `json:"distance"`
}

type rentcastValueResponse struct {
	Price          float64              `json:"price"`
	PriceRangeLow  float64              `json:"priceRangeLow"`
	PriceRangeHigh float64              `json:"priceRangeHigh"`
	Comparables    []rentcastComparable `json:"comparables"`
	History        []domain.PricePoint  `json:"history"`
}

// FetchComparables resolves recent comparable sales near the subject
func (s *RentCastSource) FetchComparables(ctx context.Context, query domain.PropertyQuery) ([]domain.ComparableProperty, error) {
	payload, err := s.fetchValue(ctx, query)
	if err != nil {
		return nil, err
	}

	comps := make([]domain.ComparableProperty, 0, len(payload.Comparables))
	for _, c := range payload.Comparables {
		comp := domain.ComparableProperty{
			Price:         c.Price,
			Beds:          c.Bedrooms,
			Baths:         c.Bathrooms,
			SquareFeet:    c.SquareFootage,
			YearBuilt:     c.YearBuilt,
			DistanceMiles: c.Distance,
			Condition:     domain.ConditionUnknown,
			Source:        s.Name(),
			Empirical:     true,
		}
		if c.RemovedDate != "" {
			if t, err := time.Parse(time.RFC3339, c.RemovedDate); err == nil {
				comp.SaleDate = t
			}
		}
		comps = append(comps, comp)
	}
	return comps, nil
}

// EstimateValue returns RentCast's own model valuation with its price
// history, used by the aggregator for blending and trend validation.
func (s *RentCastSource) EstimateValue(ctx context.Context, query domain.PropertyQuery) (*domain.ExternalEstimate, error) {
	payload, err := s.fetchValue(ctx, query)
	if err != nil {
		return nil, err
	}

	// Confidence is derived from the provider's value range: a tight
	// range means a confident model.
	confidence := 0.75
	if payload.PriceRangeHigh > payload.PriceRangeLow && payload.Price > 0 {
		spread := (payload.PriceRangeHigh - payload.PriceRangeLow) / payload.Price
		confidence = 1 - spread
		if confidence < 0.10 {
			confidence = 0.10
		}
	}

	return &domain.ExternalEstimate{
		Source:     s.Name(),
		Value:      payload.Price,
		Confidence: confidence,
		History:    payload.History,
	}, nil
}

func (s *RentCastSource) fetchValue(ctx context.Context, query domain.PropertyQuery) (*rentcastValueResponse, error) {
	params := url.Values{}
	params.Set("address", fmt.Sprintf("%s, %s, %s %s", query.Address, query.City, query.State, query.Zip))
	if query.SquareFeet > 0 {
		params.Set("squareFootage", strconv.FormatFloat(query.SquareFeet, 'f', 0, 64))
	}
	if query.Beds > 0 {
		params.Set("bedrooms", strconv.Itoa(query.Beds))
	}
	if query.Baths > 0 {
		params.Set("bathrooms", strconv.FormatFloat(query.Baths, 'f', 1, 64))
	}

	addr := fmt.Sprintf("%s/avm/value?%s", s.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("build rentcast request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", s.apiKey)

	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rentcast request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rentcast returned status %d", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read rentcast response: %w", err)
	}
	if err := validatePayload("rentcast/value", body); err != nil {
		return nil, fmt.Errorf("rentcast payload rejected: %w", err)
	}

	var payload rentcastValueResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode rentcast response: %w", err)
	}
	return &payload, nil
}
