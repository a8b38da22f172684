package indexsync

import (
	"context"

	"github.com/kailas-cloud/gymdex/internal/domain/batch"
	domdoc "github.com/kailas-cloud/gymdex/internal/domain/document"
	"github.com/kailas-cloud/gymdex/internal/domain/listing"
)

// ListingReader reads the Listing Store.
type ListingReader interface {
	Get(ctx context.Context, id string) (*listing.Listing, error)
	ListEligible(ctx context.Context, offset, limit int) (listing.Page, error)
}

// DocumentWriter writes search documents. Delete of a missing document succeeds.
type DocumentWriter interface {
	Upsert(ctx context.Context, doc *domdoc.Document) error
	BatchUpsert(ctx context.Context, docs []domdoc.Document) []batch.Result
	Delete(ctx context.Context, id string) error
}
