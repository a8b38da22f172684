package search

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/gymdex/internal/db"
	"github.com/kailas-cloud/gymdex/internal/domain/collection"
	domdoc "github.com/kailas-cloud/gymdex/internal/domain/document"
	"github.com/kailas-cloud/gymdex/internal/domain/geo"
	"github.com/kailas-cloud/gymdex/internal/domain/search/compiler"
	"github.com/kailas-cloud/gymdex/internal/domain/search/filter"
	"github.com/kailas-cloud/gymdex/internal/domain/search/mode"
	"github.com/kailas-cloud/gymdex/internal/domain/search/result"
	docrepo "github.com/kailas-cloud/gymdex/internal/repository/document"
)

// DefaultWindow is how many leading hits may be ranked in process.
const DefaultWindow = 1000

// returnAll asks FT.SEARCH for the whole JSON document.
var returnAll = []string{"$"}

// store is the consumer interface for search operations (ISP).
type store interface {
	Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
}

// Repo implements usecase/search.Repository.
type Repo struct {
	store      store
	coll       collection.Collection
	window     int
	facetLimit int
}

// New creates a search repository. window <= 0 selects DefaultWindow.
func New(s store, coll collection.Collection, window int) *Repo {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Repo{store: s, coll: coll, window: window}
}

// WithFacetLimit caps the values returned per facet.
func (r *Repo) WithFacetLimit(n int) *Repo {
	if n > 0 {
		r.facetLimit = n
	}
	return r
}

// Search runs the compiled query and its facet aggregations in one round trip.
// text holds the parsed search terms; "" or "*" matches everything.
//
// Relevance with text and distance orderings have no single SORTBY equivalent,
// so the first Offset+Limit hits are fetched and ranked here. Pages past the
// window keep the engine's order.
func (r *Repo) Search(
	ctx context.Context, terms string, c compiler.Compiled,
	offset, limit int, facets []string,
) (result.Page, error) {
	text := db.TextMatch{Terms: terms}

	dq := &db.SearchQuery{
		IndexName:    r.coll.IndexName(),
		Text:         text,
		Filters:      c.Filter,
		Offset:       offset,
		Limit:        limit,
		WithScores:   !text.IsWildcard(),
		ReturnFields: returnAll,
	}
	for _, f := range facets {
		dq.Facets = append(dq.Facets, db.FacetRequest{Field: f, Limit: r.facetLimit})
	}

	local := false
	switch c.Sort.Mode {
	case mode.Newest, mode.Name:
		if len(c.Sort.Keys) > 0 {
			k := c.Sort.Keys[0]
			dq.SortBy = &db.SortBy{Field: k.Field, Desc: k.Desc}
		}
	case mode.Distance:
		local = c.Center != nil
	default:
		if text.IsWildcard() {
			dq.SortBy = &db.SortBy{Field: domdoc.FieldBoostScore, Desc: true}
		} else {
			local = true
		}
	}
	if local && offset+limit <= r.window {
		dq.Offset, dq.Limit = 0, offset+limit
	} else {
		local = false
	}

	sr, err := r.store.Search(ctx, dq)
	if err != nil {
		return result.Page{}, fmt.Errorf("search %s: %w", r.coll.Name(), err)
	}

	hits := r.toHits(sr.Entries, c.Center)
	if local {
		rank(hits, c.Sort.Mode)
		hits = slice(hits, offset, limit)
	}

	return result.Page{Hits: hits, Total: sr.Total, Facets: sr.Facets}, nil
}

// Autocomplete returns up to limit suggestions whose name or city starts with
// the words of prefix, best boosted first.
func (r *Repo) Autocomplete(
	ctx context.Context, prefix string, expr filter.Expression, limit int,
) ([]result.Suggestion, error) {
	dq := &db.SearchQuery{
		IndexName: r.coll.IndexName(),
		Text: db.TextMatch{
			Terms:  prefix,
			Fields: []string{domdoc.FieldName, domdoc.FieldCityText},
			Prefix: true,
		},
		Filters:      expr,
		SortBy:       &db.SortBy{Field: domdoc.FieldBoostScore, Desc: true},
		Limit:        limit,
		ReturnFields: returnAll,
	}

	sr, err := r.store.Search(ctx, dq)
	if err != nil {
		return nil, fmt.Errorf("autocomplete %s: %w", r.coll.Name(), err)
	}

	out := make([]result.Suggestion, 0, len(sr.Entries))
	for _, h := range r.toHits(sr.Entries, nil) {
		d := h.Document()
		out = append(out, result.Suggestion{ID: d.ID, Name: d.Name, Slug: d.Slug, City: d.City, State: d.State})
	}
	return out, nil
}

// toHits decodes entries. Entries whose payload cannot be decoded are skipped.
func (r *Repo) toHits(entries []db.SearchEntry, center *filter.GeoRadius) []result.Hit {
	hits := make([]result.Hit, 0, len(entries))
	for _, e := range entries {
		doc, err := docrepo.ParseStored(e.Fields["$"])
		if err != nil {
			continue
		}
		if doc.ID == "" {
			if id, ok := r.coll.IDFromKey(e.Key); ok {
				doc.ID = id
			}
		}

		var dist *float64
		if center != nil {
			miles := geo.MetersToMiles(geo.Haversine(center.Lat, center.Lng, doc.Lat(), doc.Lng()))
			dist = &miles
		}
		hits = append(hits, result.New(doc, e.Score, dist))
	}
	return hits
}

// rank orders hits in place: by distance ascending, or by text score then boost.
func rank(hits []result.Hit, m mode.Mode) {
	if m == mode.Distance {
		sort.SliceStable(hits, func(i, j int) bool {
			return *hits[i].Distance() < *hits[j].Distance()
		})
		return
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score() != hits[j].Score() {
			return hits[i].Score() > hits[j].Score()
		}
		di, dj := hits[i].Document(), hits[j].Document()
		return di.BoostScore > dj.BoostScore
	})
}

func slice(hits []result.Hit, offset, limit int) []result.Hit {
	if offset >= len(hits) {
		return []result.Hit{}
	}
	end := offset + limit
	if end > len(hits) {
		end = len(hits)
	}
	return hits[offset:end]
}
