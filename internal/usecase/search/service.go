package search

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gymdex/internal/domain"
	domdoc "github.com/kailas-cloud/gymdex/internal/domain/document"
	"github.com/kailas-cloud/gymdex/internal/domain/search/compiler"
	"github.com/kailas-cloud/gymdex/internal/domain/search/facet"
	"github.com/kailas-cloud/gymdex/internal/domain/search/query"
	"github.com/kailas-cloud/gymdex/internal/domain/search/request"
	"github.com/kailas-cloud/gymdex/internal/domain/search/result"
	"github.com/kailas-cloud/gymdex/internal/metrics"
)

// Autocomplete defaults.
const (
	DefaultAutocompleteLimit = 8
	MinPrefixLength          = 2
)

const (
	kindSearch       = "search"
	kindAutocomplete = "autocomplete"
)

// Response is one page of search results.
type Response struct {
	Results          []result.Hit
	Total            int
	Page             int
	TotalPages       int
	Facets           map[string][]facet.Count
	ProcessingTimeMs int64
}

// Service answers search and autocomplete queries against the index.
type Service struct {
	repo              Repository
	parser            QueryParser
	logger            *zap.Logger
	autocompleteLimit int
}

// New creates a search service. A nil parser uses the built-in location dictionary.
func New(repo Repository, parser QueryParser, logger *zap.Logger) *Service {
	if parser == nil {
		parser = query.NewParser(nil)
	}
	return &Service{
		repo:              repo,
		parser:            parser,
		logger:            logger,
		autocompleteLimit: DefaultAutocompleteLimit,
	}
}

// WithAutocompleteLimit configures how many suggestions are returned.
func (s *Service) WithAutocompleteLimit(n int) *Service {
	if n > 0 {
		s.autocompleteLimit = n
	}
	return s
}

// Search parses, compiles and runs req. When the index cannot answer, the
// error wraps domain.ErrSearchUnavailable and the returned Response is an
// empty page with empty facets that callers may render as is.
func (s *Service) Search(ctx context.Context, req *request.Request) (Response, error) {
	start := time.Now()

	terms := query.Wildcard
	var locations []string
	if req.Query() != "" {
		parsed := s.parser.Parse(req.Query())
		terms, locations = parsed.SearchTerms, parsed.Locations
	}

	params := compiler.Params{
		GymTypes:    req.GymTypes(),
		PriceRanges: req.PriceRanges(),
		Attributes:  req.Attributes(),
		Cities:      compiler.MergeCities(req.Cities(), locations),
		Countries:   req.Countries(),
		Is24Hour:    req.Is24Hour(),
		Tier:        req.Tier(),
		Sort:        req.Sort(),
	}
	if g := req.Geo(); g != nil {
		params.Geo = &compiler.Geo{Lat: g.Latitude, Lng: g.Longitude, RadiusMiles: g.RadiusMiles}
	}

	compiled, err := compiler.Compile(params)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}

	page, err := s.repo.Search(ctx, terms, compiled, req.Offset(), req.PerPage(), domdoc.FacetFields)
	elapsed := time.Since(start)
	metrics.SearchDuration.WithLabelValues(kindSearch).Observe(elapsed.Seconds())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(kindSearch, metrics.StatusUnavailable).Inc()
		s.logger.Error("Search failed",
			zap.String("terms", terms),
			zap.String("filter", compiled.Filter.String()),
			zap.Error(err),
		)
		return Response{
			Results:          []result.Hit{},
			Page:             req.Page(),
			Facets:           facet.Empty(domdoc.FacetFields),
			ProcessingTimeMs: elapsed.Milliseconds(),
		}, fmt.Errorf("%w: %w", domain.ErrSearchUnavailable, err)
	}
	metrics.SearchRequestsTotal.WithLabelValues(kindSearch, metrics.StatusOK).Inc()

	hits := page.Hits
	if hits == nil {
		hits = []result.Hit{}
	}

	s.logger.Debug("Search completed",
		zap.String("terms", terms),
		zap.Strings("locations", locations),
		zap.String("sort", compiled.Sort.String()),
		zap.Int("total", page.Total),
		zap.Duration("duration", elapsed),
	)

	return Response{
		Results:          hits,
		Total:            page.Total,
		Page:             req.Page(),
		TotalPages:       totalPages(page.Total, req.PerPage()),
		Facets:           facet.Aggregate(page.Facets, domdoc.FacetFields),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

// Autocomplete returns typeahead suggestions for prefix. Prefixes shorter than
// MinPrefixLength return no suggestions without querying the index.
func (s *Service) Autocomplete(ctx context.Context, prefix string) ([]result.Suggestion, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if utf8.RuneCountInString(prefix) < MinPrefixLength {
		return []result.Suggestion{}, nil
	}
	if len(prefix) > request.MaxQueryLength {
		return nil, fmt.Errorf("%w: prefix too long", domain.ErrInvalidQuery)
	}

	// status-only filter
	compiled, err := compiler.Compile(compiler.Params{})
	if err != nil {
		return nil, fmt.Errorf("compile eligibility filter: %w", err)
	}

	start := time.Now()
	out, err := s.repo.Autocomplete(ctx, prefix, compiled.Filter, s.autocompleteLimit)
	metrics.SearchDuration.WithLabelValues(kindAutocomplete).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(kindAutocomplete, metrics.StatusUnavailable).Inc()
		s.logger.Error("Autocomplete failed", zap.String("prefix", prefix), zap.Error(err))
		return []result.Suggestion{}, fmt.Errorf("%w: %w", domain.ErrSearchUnavailable, err)
	}
	metrics.SearchRequestsTotal.WithLabelValues(kindAutocomplete, metrics.StatusOK).Inc()

	if out == nil {
		out = []result.Suggestion{}
	}
	return out, nil
}

func totalPages(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}
