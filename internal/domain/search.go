package domain

import (
	"errors"
	"strings"
)

// Search request limits.
const (
	MaxQueryLength = 200
	DefaultKeyword = "nonprofit"
)

// ErrEmptyQuery is returned when a search request has no query string.
var ErrEmptyQuery = errors.New("query must not be empty")

// ErrQueryTooLong is returned when the query exceeds MaxQueryLength.
var ErrQueryTooLong = errors.New("query too long")

// SearchRequest is a tiered nonprofit search request. The query is a free
// text string; a leading 5-digit token is treated as a ZIP code.
type SearchRequest struct {
	Query string `json:"q"`
}

// Validate checks the request and normalizes the query.
func (r *SearchRequest) Validate() error {
	r.Query = strings.TrimSpace(r.Query)
	if r.Query == "" {
		return ErrEmptyQuery
	}
	if len(r.Query) > MaxQueryLength {
		return ErrQueryTooLong
	}
	return nil
}

// TierCounts reports how many results landed in each geographic tier.
type TierCounts struct {
	ExactCity int `json:"exact_city"`
	County    int `json:"county"`
	State     int `json:"state"`
	Other     int `json:"other"`
}

// SearchResponse is the tiered search result. Error is set (with HTTP 200)
// when an upstream dependency failed and the results are empty or partial.
type SearchResponse struct {
	Query    string               `json:"query"`
	Keyword  string               `json:"keyword"`
	Location *Location            `json:"location,omitempty"`
	Results  []OrganizationRecord `json:"results"`
	Tiers    TierCounts           `json:"tiers"`
	Total    int                  `json:"total"`
	Message  string               `json:"message,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// RankRequest asks for a ranked comparison of organizations by EIN, with
// optional weight overrides.
type RankRequest struct {
	EINs    []string           `json:"eins"`
	Weights map[string]float64 `json:"weights,omitempty"`
}

// Validate checks the rank request.
func (r *RankRequest) Validate() error {
	if len(r.EINs) == 0 {
		return errors.New("eins must not be empty")
	}
	return nil
}
