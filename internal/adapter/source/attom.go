package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dealscout/dealscout-backend/internal/domain"
)

// AttomSource pulls comparable sales and an AVM reading from the ATTOM
// sale snapshot endpoint. ATTOM meters by calendar month.
type AttomSource struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewAttomSource creates a new AttomSource instance
func NewAttomSource(baseURL, apiKey string) *AttomSource {
	return &AttomSource{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *AttomSource) Name() string { return "attom" }

func (s *AttomSource) QuotaWindow() domain.QuotaWindow { return domain.QuotaWindowMonthly }

type attomSale struct {
	SaleAmount    float64 `json:"saleAmount"`
	Beds          int     `json:"beds"`
	BathsTotal    float64 `json:"bathsTotal"`
	UniversalSize float64 `json:"universalSize"`
	YearBuilt     int     `json:"yearBuilt"`
	SaleDate      string  `json:"saleDate"`
	Distance      float64 `json:"distance"`
}

type attomSnapshotResponse struct {
	AVM struct {
		Value           float64 `json:"value"`
		ConfidenceScore float64 `json:"confidenceScore"` // 0..100 per ATTOM
	} `json:"avm"`
	Sales []attomSale `json:"sales"`
}

// FetchComparables resolves recorded sales near the subject property
func (s *AttomSource) FetchComparables(ctx context.Context, query domain.PropertyQuery) ([]domain.ComparableProperty, error) {
	payload, err := s.fetchSnapshot(ctx, query)
	if err != nil {
		return nil, err
	}

	comps := make([]domain.ComparableProperty, 0, len(payload.Sales))
	for _, sale := range payload.Sales {
		comp := domain.ComparableProperty{
			Price:         sale.SaleAmount,
			Beds:          sale.Beds,
			Baths:         sale.BathsTotal,
			SquareFeet:    sale.UniversalSize,
			YearBuilt:     sale.YearBuilt,
			DistanceMiles: sale.Distance,
			Condition:     domain.ConditionUnknown,
			Source:        s.Name(),
			Empirical:     true,
		}
		if sale.SaleDate != "" {
			if t, err := time.Parse("2006-01-02", sale.SaleDate); err == nil {
				comp.SaleDate = t
			}
		}
		comps = append(comps, comp)
	}
	return comps, nil
}

// EstimateValue returns ATTOM's AVM reading when the snapshot carries one
func (s *AttomSource) EstimateValue(ctx context.Context, query domain.PropertyQuery) (*domain.ExternalEstimate, error) {
	payload, err := s.fetchSnapshot(ctx, query)
	if err != nil {
		return nil, err
	}
	if payload.AVM.Value <= 0 {
		return nil, fmt.Errorf("attom snapshot carries no AVM value")
	}

	return &domain.ExternalEstimate{
		Source:     s.Name(),
		Value:      payload.AVM.Value,
		Confidence: payload.AVM.ConfidenceScore / 100,
	}, nil
}

func (s *AttomSource) fetchSnapshot(ctx context.Context, query domain.PropertyQuery) (*attomSnapshotResponse, error) {
	params := url.Values{}
	params.Set("address1", query.Address)
	params.Set("address2", fmt.Sprintf("%s, %s %s", query.City, query.State, query.Zip))

	addr := fmt.Sprintf("%s/propertyapi/v1.0.0/sale/snapshot?%s", s.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("build attom request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", s.apiKey)

	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("attom request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("attom returned status %d", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read attom response: %w", err)
	}
	if err := validatePayload("attom/snapshot", body); err != nil {
		return nil, fmt.Errorf("attom payload rejected: %w", err)
	}

	var payload attomSnapshotResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode attom response: %w", err)
	}
	return &payload, nil
}
