package db

import "github.com/kailas-cloud/gymdex/internal/domain/search/filter"

// TextMatch is the full-text part of a query. Terms are raw user words; the
// store escapes them. Empty Terms or "*" matches every document.
type TextMatch struct {
	Terms  string
	Fields []string // restrict matching to these TEXT attributes (all when empty)
	Prefix bool     // treat each term as a prefix
}

// IsWildcard reports whether the text part matches everything.
func (t TextMatch) IsWildcard() bool {
	return t.Terms == "" || t.Terms == "*"
}

// SortBy orders results by a SORTABLE attribute.
type SortBy struct {
	Field string
	Desc  bool
}

// FacetRequest asks for value counts of one attribute over the matched set.
type FacetRequest struct {
	Field string
	Limit int
}

// SearchQuery is the input of a single search round trip.
type SearchQuery struct {
	IndexName    string
	Text         TextMatch
	Filters      filter.Expression
	SortBy       *SortBy
	Offset       int
	Limit        int
	WithScores   bool
	ReturnFields []string
	Facets       []FacetRequest
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
	// Facets holds the raw value->count breakdown per requested attribute.
	// An attribute with no matches may be missing entirely.
	Facets map[string]map[string]int
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
