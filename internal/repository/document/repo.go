package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/gymdex/internal/db"
	"github.com/kailas-cloud/gymdex/internal/domain"
	"github.com/kailas-cloud/gymdex/internal/domain/batch"
	"github.com/kailas-cloud/gymdex/internal/domain/collection"
	domdoc "github.com/kailas-cloud/gymdex/internal/domain/document"
)

// store is the consumer interface for documents (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONSetMulti(ctx context.Context, items []db.JSONSetItem) []error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Repo implements usecase/indexsync.DocumentWriter.
type Repo struct {
	store store
	coll  collection.Collection
}

// New creates a document repository.
func New(s store, coll collection.Collection) *Repo {
	return &Repo{store: s, coll: coll}
}

// Upsert writes the whole document; the last write wins.
func (r *Repo) Upsert(ctx context.Context, doc *domdoc.Document) error {
	data, err := marshalDoc(doc)
	if err != nil {
		return err
	}
	key := r.coll.Key(doc.ID)
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

// BatchUpsert writes docs in one pipelined round-trip.
// One result per document; a rejected document does not affect the others.
func (r *Repo) BatchUpsert(ctx context.Context, docs []domdoc.Document) []batch.Result {
	results := make([]batch.Result, len(docs))
	items := make([]db.JSONSetItem, 0, len(docs))
	pos := make([]int, 0, len(docs))

	for i := range docs {
		data, err := marshalDoc(&docs[i])
		if err != nil {
			results[i] = batch.NewError(docs[i].ID, err)
			continue
		}
		items = append(items, db.JSONSetItem{Key: r.coll.Key(docs[i].ID), Path: "$", Data: data})
		pos = append(pos, i)
	}

	if len(items) == 0 {
		return results
	}

	errs := r.store.JSONSetMulti(ctx, items)
	for j, i := range pos {
		var err error
		if j < len(errs) {
			err = errs[j]
		}
		if err != nil {
			results[i] = batch.NewError(docs[i].ID, err)
		} else {
			results[i] = batch.NewOK(docs[i].ID)
		}
	}
	return results
}

// Delete removes a document. Deleting an absent document succeeds.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := r.coll.Key(id)
	if err := r.store.Del(ctx, key); err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil
		}
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// Get returns a stored document by listing ID.
func (r *Repo) Get(ctx context.Context, id string) (domdoc.Document, error) {
	key := r.coll.Key(id)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domdoc.Document{}, domain.ErrDocumentNotFound
		}
		return domdoc.Document{}, fmt.Errorf("json.get %s: %w", key, err)
	}
	return ParseStored(string(raw))
}

// Exists reports whether a document is stored for id.
func (r *Repo) Exists(ctx context.Context, id string) (bool, error) {
	key := r.coll.Key(id)
	ok, err := r.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", key, err)
	}
	return ok, nil
}
