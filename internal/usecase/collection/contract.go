package collection

import (
	"context"

	repocol "github.com/kailas-cloud/gymdex/internal/repository/collection"
)

// Repository defines the index lifecycle contract.
type Repository interface {
	Ensure(ctx context.Context, recreate bool) (repocol.EnsureResult, error)
	Exists(ctx context.Context) (bool, error)
	Count(ctx context.Context) (int, error)
}
