package collection

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/gymdex/internal/db"
	"github.com/kailas-cloud/gymdex/internal/domain/collection"
)

// store is the consumer interface for index lifecycle (ISP).
type store interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// EnsureResult reports what Ensure did.
type EnsureResult struct {
	Created   bool
	Recreated bool
}

// Repo manages the search collection's index.
type Repo struct {
	store store
	coll  collection.Collection
}

// New creates a collection repository.
func New(s store, coll collection.Collection) *Repo {
	return &Repo{store: s, coll: coll}
}

// Collection returns the managed keyspace.
func (r *Repo) Collection() collection.Collection { return r.coll }

// Ensure creates the index when missing. An existing index is kept unless
// recreate is set, in which case it is dropped together with its documents first.
func (r *Repo) Ensure(ctx context.Context, recreate bool) (EnsureResult, error) {
	name := r.coll.IndexName()

	exists, err := r.store.IndexExists(ctx, name)
	if err != nil {
		return EnsureResult{}, fmt.Errorf("check index %s: %w", name, err)
	}

	var res EnsureResult
	if exists {
		if !recreate {
			return res, nil
		}
		if err := r.store.DropIndex(ctx, name, true); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
			return EnsureResult{}, fmt.Errorf("drop index %s: %w", name, err)
		}
		res.Recreated = true
	}

	if err := r.store.CreateIndex(ctx, Schema(r.coll)); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			// created concurrently by another process
			return res, nil
		}
		return EnsureResult{}, fmt.Errorf("create index %s: %w", name, err)
	}
	res.Created = true
	return res, nil
}

// Exists reports whether the index exists.
func (r *Repo) Exists(ctx context.Context) (bool, error) {
	ok, err := r.store.IndexExists(ctx, r.coll.IndexName())
	if err != nil {
		return false, fmt.Errorf("check index: %w", err)
	}
	return ok, nil
}

// Count returns the number of indexed documents.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, r.coll.IndexName(), "*")
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", r.coll.Name(), err)
	}
	return n, nil
}
