package result

import "github.com/kailas-cloud/gymdex/internal/domain/document"

// Hit is a single search hit.
type Hit struct {
	doc      document.Document
	score    float64
	distance *float64
}

// New creates a search hit. distance is in miles and nil when no geo filter was active.
func New(doc document.Document, score float64, distance *float64) Hit {
	return Hit{doc: doc, score: score, distance: distance}
}

// Document returns the indexed document.
func (h *Hit) Document() document.Document { return h.doc }

// Score returns the text-match score (0 when the query had no text).
func (h *Hit) Score() float64 { return h.score }

// Distance returns miles from the geo center, or nil.
func (h *Hit) Distance() *float64 { return h.distance }

// Suggestion is an autocomplete entry.
type Suggestion struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	City  string `json:"city"`
	State string `json:"state,omitempty"`
}

// Page is one page of hits with the raw facet counts of the whole match set.
type Page struct {
	Hits   []Hit
	Total  int
	Facets map[string]map[string]int
}
