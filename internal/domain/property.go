package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ConditionTag classifies the renovation state of a comparable sale
type ConditionTag string

const (
	ConditionRemodeled   ConditionTag = "REMODELED"
	ConditionUnremodeled ConditionTag = "UNREMODELED"
	ConditionUnknown     ConditionTag = "UNKNOWN"
)

// PropertyQuery identifies the subject property of an analysis run.
// It is immutable for the duration of a run and its normalized form
// is the cache key for comparable lookups.
type PropertyQuery struct {
	Address string
	City    string
	State   string
	Zip     string

	// Optional subject attributes used by the valuation aggregator
	// for price-per-square-foot scaling. Zero means unknown.
	SquareFeet float64
	Beds       int
	Baths      float64
}

// Key returns the normalized cache key for this query.
// Format: address|city|state|zip, lower-cased, inner whitespace collapsed.
func (q PropertyQuery) Key() string {
	parts := []string{q.Address, q.City, q.State, q.Zip}
	for i, p := range parts {
		parts[i] = strings.Join(strings.Fields(strings.ToLower(p)), " ")
	}
	return strings.Join(parts, "|")
}

// Validate ensures the query has enough identity to be resolved upstream
func (q PropertyQuery) Validate() error {
	if strings.TrimSpace(q.Address) == "" {
		return errors.New("property address cannot be empty")
	}
	if strings.TrimSpace(q.City) == "" && strings.TrimSpace(q.Zip) == "" {
		return errors.New("property query needs a city or a zip code")
	}
	return nil
}

// ComparableProperty is a single comparable sale returned by a data source.
// Empirical is false for model-estimated records (AI fallback), true for
// records backed by an actual recorded sale.
type ComparableProperty struct {
	Price         float64      `json:"price"`
	Beds          int          `json:"beds"`
	Baths         float64      `json:"baths"`
	SquareFeet    float64      `json:"square_feet"`
	YearBuilt     int          `json:"year_built"`
	SaleDate      time.Time    `json:"sale_date"` // zero time means unknown
	DistanceMiles float64      `json:"distance_miles"`
	Condition     ConditionTag `json:"condition"`
	Source        string       `json:"source"`
	Empirical     bool         `json:"empirical"`
}

// Validate checks the record against the domain invariants.
// Records failing validation are filtered out by the acquisition
// waterfall before the non-empty check.
func (c ComparableProperty) Validate() error {
	if c.Price <= 0 {
		return fmt.Errorf("comparable price must be positive, got %.2f", c.Price)
	}
	if c.SquareFeet < 0 {
		return fmt.Errorf("comparable square footage cannot be negative, got %.2f", c.SquareFeet)
	}
	return nil
}

// FilterValid returns only the comparables that pass Validate
func FilterValid(comps []ComparableProperty) []ComparableProperty {
	valid := make([]ComparableProperty, 0, len(comps))
	for _, c := range comps {
		if err := c.Validate(); err == nil {
			valid = append(valid, c)
		}
	}
	return valid
}
