package search

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gymdex/internal/domain"
	domdoc "github.com/kailas-cloud/gymdex/internal/domain/document"
	"github.com/kailas-cloud/gymdex/internal/domain/search/compiler"
	"github.com/kailas-cloud/gymdex/internal/domain/search/filter"
	"github.com/kailas-cloud/gymdex/internal/domain/search/mode"
	"github.com/kailas-cloud/gymdex/internal/domain/search/query"
	"github.com/kailas-cloud/gymdex/internal/domain/search/request"
	"github.com/kailas-cloud/gymdex/internal/domain/search/result"
)

// --- Mocks ---

type mockRepo struct {
	page   result.Page
	err    error
	called bool

	lastTerms    string
	lastCompiled compiler.Compiled
	lastOffset   int
	lastLimit    int
	lastFacets   []string

	suggestions []result.Suggestion
	lastPrefix  string
	lastExpr    filter.Expression
	lastACLimit int
}

func (m *mockRepo) Search(
	_ context.Context, terms string, c compiler.Compiled,
	offset, limit int, facets []string,
) (result.Page, error) {
	m.called = true
	m.lastTerms, m.lastCompiled = terms, c
	m.lastOffset, m.lastLimit, m.lastFacets = offset, limit, facets
	return m.page, m.err
}

func (m *mockRepo) Autocomplete(
	_ context.Context, prefix string, expr filter.Expression, limit int,
) ([]result.Suggestion, error) {
	m.called = true
	m.lastPrefix, m.lastExpr, m.lastACLimit = prefix, expr, limit
	return m.suggestions, m.err
}

func newRequest(t *testing.T, p request.Params) *request.Request {
	t.Helper()
	r, err := request.New(p)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return &r
}

func hit(id string) result.Hit {
	return result.New(domdoc.Document{ID: id}, 1, nil)
}

// --- Tests ---

func TestSearch_ExtractsLocations(t *testing.T) {
	repo := &mockRepo{page: result.Page{Hits: []result.Hit{hit("a")}, Total: 41}}
	svc := New(repo, nil, zap.NewNop())

	resp, err := svc.Search(context.Background(), newRequest(t, request.Params{
		Query:   "crossfit gym in new york",
		Page:    2,
		PerPage: 20,
		Cities:  []string{"Brooklyn"},
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.lastTerms != "crossfit" {
		t.Errorf("terms = %q, want crossfit", repo.lastTerms)
	}
	var cities []string
	for _, p := range repo.lastCompiled.Filter.Predicates() {
		if p.Field() == domdoc.FieldCity {
			cities = p.Values()
		}
	}
	if len(cities) != 2 || cities[0] != "Brooklyn" || cities[1] != "New York" {
		t.Errorf("city predicate = %v", cities)
	}
	if repo.lastOffset != 20 || repo.lastLimit != 20 {
		t.Errorf("offset/limit = %d/%d", repo.lastOffset, repo.lastLimit)
	}
	if len(repo.lastFacets) != len(domdoc.FacetFields) {
		t.Errorf("facets = %v", repo.lastFacets)
	}

	if resp.Total != 41 || resp.Page != 2 || resp.TotalPages != 3 {
		t.Errorf("resp = total %d page %d pages %d", resp.Total, resp.Page, resp.TotalPages)
	}
	if len(resp.Results) != 1 {
		t.Errorf("results = %d", len(resp.Results))
	}
}

func TestSearch_EmptyQuerySkipsParser(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, panicParser{}, zap.NewNop())

	resp, err := svc.Search(context.Background(), newRequest(t, request.Params{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastTerms != query.Wildcard {
		t.Errorf("terms = %q, want wildcard", repo.lastTerms)
	}
	if resp.Results == nil || resp.TotalPages != 0 {
		t.Errorf("resp = %+v", resp)
	}
}

type panicParser struct{}

func (panicParser) Parse(string) query.Parsed { panic("parser must not run for empty queries") }

func TestSearch_AllStopwordsKeepsFilters(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, nil, zap.NewNop())

	_, err := svc.Search(context.Background(), newRequest(t, request.Params{
		Query:    "the gym near me",
		GymTypes: []string{"crossfit"},
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastTerms != query.Wildcard {
		t.Errorf("terms = %q", repo.lastTerms)
	}
	if repo.lastCompiled.Filter.Count(domdoc.FieldGymType) != 1 {
		t.Error("gym type predicate dropped")
	}
	if repo.lastCompiled.Filter.Count(domdoc.FieldStatus) != 1 {
		t.Error("status predicate must be present exactly once")
	}
}

func TestSearch_GeoAndDistanceSort(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, nil, zap.NewNop())

	_, err := svc.Search(context.Background(), newRequest(t, request.Params{
		Geo:  &request.GeoQuery{Latitude: 25.79, Longitude: -80.13, RadiusMiles: 10},
		Sort: mode.Distance,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := repo.lastCompiled
	if c.Center == nil || c.Center.RadiusKm < 16.09 || c.Center.RadiusKm > 16.1 {
		t.Errorf("center = %+v, want 16.0934 km", c.Center)
	}
	if c.Sort.String() != "location:asc" {
		t.Errorf("sort = %q", c.Sort.String())
	}
}

func TestSearch_DistanceWithoutCenterFallsBack(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, nil, zap.NewNop())

	if _, err := svc.Search(context.Background(), newRequest(t, request.Params{Sort: mode.Distance})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := repo.lastCompiled.Sort.String(); got != "_text_match:desc,boost_score:desc" {
		t.Errorf("sort = %q", got)
	}
}

func TestSearch_FacetsAlwaysPresent(t *testing.T) {
	repo := &mockRepo{page: result.Page{
		Total:  3,
		Facets: map[string]map[string]int{domdoc.FieldGymType: {"crossfit": 1, "boxing": 2}},
	}}
	svc := New(repo, nil, zap.NewNop())

	resp, err := svc.Search(context.Background(), newRequest(t, request.Params{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gt := resp.Facets[domdoc.FieldGymType]
	if len(gt) != 2 || gt[0].Value != "boxing" {
		t.Errorf("gym_type facet = %+v", gt)
	}
	for _, f := range domdoc.FacetFields {
		if resp.Facets[f] == nil {
			t.Errorf("facet %s is nil", f)
		}
	}
}

func TestSearch_Unavailable(t *testing.T) {
	repo := &mockRepo{err: errors.New("dial tcp: i/o timeout")}
	svc := New(repo, nil, zap.NewNop())

	resp, err := svc.Search(context.Background(), newRequest(t, request.Params{Query: "yoga", Page: 3}))
	if !errors.Is(err, domain.ErrSearchUnavailable) {
		t.Fatalf("expected ErrSearchUnavailable, got %v", err)
	}
	if resp.Results == nil || len(resp.Results) != 0 || resp.Total != 0 || resp.Page != 3 {
		t.Errorf("degraded resp = %+v", resp)
	}
	if len(resp.Facets) != len(domdoc.FacetFields) {
		t.Errorf("degraded facets = %v", resp.Facets)
	}
}

func TestAutocomplete_ShortPrefix(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, nil, zap.NewNop())

	for _, p := range []string{"", " ", "g", " m "} {
		got, err := svc.Autocomplete(context.Background(), p)
		if err != nil || got == nil || len(got) != 0 {
			t.Errorf("Autocomplete(%q) = %v, %v", p, got, err)
		}
	}
	if repo.called {
		t.Error("index must not be queried for short prefixes")
	}
}

func TestAutocomplete(t *testing.T) {
	repo := &mockRepo{suggestions: []result.Suggestion{{ID: "1", Name: "Gold's Gym"}}}
	svc := New(repo, nil, zap.NewNop()).WithAutocompleteLimit(5)

	got, err := svc.Autocomplete(context.Background(), "  GOL ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d suggestions", len(got))
	}
	if repo.lastPrefix != "gol" || repo.lastACLimit != 5 {
		t.Errorf("prefix=%q limit=%d", repo.lastPrefix, repo.lastACLimit)
	}
	if repo.lastExpr.Count(domdoc.FieldStatus) != 1 || len(repo.lastExpr.Predicates()) != 1 {
		t.Errorf("filter = %s, want status only", repo.lastExpr)
	}
}

func TestAutocomplete_Unavailable(t *testing.T) {
	svc := New(&mockRepo{err: errors.New("down")}, nil, zap.NewNop())
	got, err := svc.Autocomplete(context.Background(), "gold")
	if !errors.Is(err, domain.ErrSearchUnavailable) {
		t.Fatalf("expected ErrSearchUnavailable, got %v", err)
	}
	if got == nil {
		t.Error("expected empty non-nil suggestions")
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct{ total, per, want int }{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{250, 100, 3},
	}
	for _, tc := range tests {
		if got := totalPages(tc.total, tc.per); got != tc.want {
			t.Errorf("totalPages(%d, %d) = %d, want %d", tc.total, tc.per, got, tc.want)
		}
	}
}
