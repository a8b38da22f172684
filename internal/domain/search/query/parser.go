// Package query pulls known locations out of free-text search input and
// cleans the remaining words into search terms.
package query

import "strings"

// Wildcard is the search-terms value meaning "match any text".
const Wildcard = "*"

// Parsed is the parser output.
type Parsed struct {
	// SearchTerms is never empty; Wildcard when nothing meaningful remains.
	SearchTerms string
	// Locations holds canonical location names, deduplicated, in match order.
	Locations []string
}

// Parser extracts locations and stopwords from queries.
type Parser struct {
	resolver  LocationResolver
	stopwords map[string]struct{}
}

// NewParser creates a parser. A nil resolver uses the built-in dictionary.
func NewParser(resolver LocationResolver) *Parser {
	if resolver == nil {
		resolver = DefaultDictionary()
	}
	sw := make(map[string]struct{}, len(defaultStopwords))
	for _, w := range defaultStopwords {
		sw[w] = struct{}{}
	}
	return &Parser{resolver: resolver, stopwords: sw}
}

// Parse lower-cases raw, removes every resolved alias and drops stopwords.
func (p *Parser) Parse(raw string) Parsed {
	working := strings.ToLower(raw)

	var locations []string
	seen := make(map[string]bool)
	for _, m := range p.resolver.Resolve(working) {
		working, _ = eraseWord(working, m.Alias)
		if !seen[m.Canonical] {
			seen[m.Canonical] = true
			locations = append(locations, m.Canonical)
		}
	}

	tokens := strings.Fields(working)
	kept := tokens[:0]
	for _, tok := range tokens {
		if _, stop := p.stopwords[tok]; stop {
			continue
		}
		kept = append(kept, tok)
	}

	terms := strings.Join(kept, " ")
	if terms == "" {
		terms = Wildcard
	}
	return Parsed{SearchTerms: terms, Locations: locations}
}

var defaultStopwords = []string{
	"gym", "gyms",
	"near", "nearby", "me", "around", "close", "to",
	"with", "the", "in", "a", "an", "and", "or", "for", "at", "of", "on",
	"best", "top", "good", "find",
}
