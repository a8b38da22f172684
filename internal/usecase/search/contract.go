package search

import (
	"context"

	"github.com/kailas-cloud/gymdex/internal/domain/search/compiler"
	"github.com/kailas-cloud/gymdex/internal/domain/search/filter"
	"github.com/kailas-cloud/gymdex/internal/domain/search/query"
	"github.com/kailas-cloud/gymdex/internal/domain/search/result"
)

// Repository defines the index read contract.
type Repository interface {
	Search(
		ctx context.Context, terms string, c compiler.Compiled,
		offset, limit int, facets []string,
	) (result.Page, error)

	Autocomplete(ctx context.Context, prefix string, expr filter.Expression, limit int) ([]result.Suggestion, error)
}

// QueryParser splits free text into search terms and locations.
type QueryParser interface {
	Parse(raw string) query.Parsed
}
