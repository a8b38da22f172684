package collection

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/gymdex/internal/db"
	"github.com/kailas-cloud/gymdex/internal/domain/collection"
	domdoc "github.com/kailas-cloud/gymdex/internal/domain/document"
)

func TestSchema(t *testing.T) {
	def := Schema(collection.MustNew("gymdex:", "listings"))

	if def.Name != "gymdex:listings:idx" || def.StorageType != db.StorageJSON {
		t.Fatalf("def = %s", def)
	}
	if len(def.Prefixes) != 1 || def.Prefixes[0] != "gymdex:listings:" {
		t.Errorf("prefixes = %v", def.Prefixes)
	}

	for _, attr := range append([]string{
		domdoc.FieldStatus, domdoc.FieldIs24Hour, domdoc.FieldTier, domdoc.FieldLocation,
		domdoc.FieldCityText, domdoc.FieldDescription, domdoc.FieldCreatedAt,
	}, domdoc.FacetFields...) {
		if _, ok := def.Field(attr); !ok {
			t.Errorf("schema lacks attribute %q", attr)
		}
	}

	boost, _ := def.Field(domdoc.FieldBoostScore)
	if boost.Type != db.IndexFieldNumeric || !boost.Sortable {
		t.Errorf("boost_score = %+v, want sortable NUMERIC", boost)
	}
	loc, _ := def.Field(domdoc.FieldLocation)
	if loc.Type != db.IndexFieldGeo || loc.Name != "$.geo" {
		t.Errorf("location = %+v", loc)
	}
}

func TestEnsure_CreatesWhenMissing(t *testing.T) {
	repo, ms := newTestRepo(t)
	created := false
	ms.createIndexFn = func(_ context.Context, def *db.IndexDefinition) error {
		created = def.Name == "gymdex:listings:idx"
		return nil
	}
	ms.dropIndexFn = func(context.Context, string, bool) error {
		t.Fatal("must not drop a missing index")
		return nil
	}

	res, err := repo.Ensure(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created || !res.Created || res.Recreated {
		t.Errorf("res = %+v created=%v", res, created)
	}
}

func TestEnsure_KeepsExisting(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.indexExistsFn = func(context.Context, string) (bool, error) { return true, nil }
	ms.createIndexFn = func(context.Context, *db.IndexDefinition) error {
		t.Fatal("must not create when the index exists")
		return nil
	}

	res, err := repo.Ensure(context.Background(), false)
	if err != nil || res.Created {
		t.Errorf("res = %+v err = %v", res, err)
	}
}

func TestEnsure_Recreate(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.indexExistsFn = func(context.Context, string) (bool, error) { return true, nil }

	var dropped, withDocs bool
	ms.dropIndexFn = func(_ context.Context, _ string, deleteDocs bool) error {
		dropped, withDocs = true, deleteDocs
		return nil
	}

	res, err := repo.Ensure(context.Background(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dropped || !withDocs {
		t.Errorf("dropped=%v withDocs=%v, want both", dropped, withDocs)
	}
	if !res.Created || !res.Recreated {
		t.Errorf("res = %+v", res)
	}
}

func TestEnsure_ConcurrentCreate(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.createIndexFn = func(context.Context, *db.IndexDefinition) error { return db.ErrIndexExists }

	res, err := repo.Ensure(context.Background(), false)
	if err != nil || res.Created {
		t.Errorf("res = %+v err = %v", res, err)
	}
}

func TestEnsure_Errors(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.indexExistsFn = func(context.Context, string) (bool, error) { return false, context.DeadlineExceeded }
	if _, err := repo.Ensure(context.Background(), false); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected wrapped deadline error, got %v", err)
	}

	ms.indexExistsFn = nil
	ms.createIndexFn = func(context.Context, *db.IndexDefinition) error { return errors.New("boom") }
	if _, err := repo.Ensure(context.Background(), false); err == nil {
		t.Error("expected create error")
	}
}

func TestCount(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchCountFn = func(_ context.Context, index, query string) (int, error) {
		if index != "gymdex:listings:idx" || query != "*" {
			t.Errorf("index=%q query=%q", index, query)
		}
		return 249, nil
	}
	n, err := repo.Count(context.Background())
	if err != nil || n != 249 {
		t.Errorf("Count = %d, %v", n, err)
	}
}

func TestExists(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.indexExistsFn = func(context.Context, string) (bool, error) { return true, nil }
	if ok, err := repo.Exists(context.Background()); err != nil || !ok {
		t.Errorf("Exists = %v, %v", ok, err)
	}
}
