package search

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/kailas-cloud/gymdex/internal/db"
	"github.com/kailas-cloud/gymdex/internal/domain/collection"
	domdoc "github.com/kailas-cloud/gymdex/internal/domain/document"
	"github.com/kailas-cloud/gymdex/internal/domain/search/result"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchFn func(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
	last     *db.SearchQuery
}

func (m *mockStore) Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	m.last = q
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

var testColl = collection.MustNew("gymdex:", "listings")

func newTestRepo(t *testing.T, window int) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, testColl, window), ms
}

// entry builds a stored hit the way FT.SEARCH RETURN 1 $ yields it.
func entry(t *testing.T, id string, score float64, boost int32, lat, lng float64) db.SearchEntry {
	t.Helper()
	doc := domdoc.Document{
		ID:         id,
		Name:       "Gym " + id,
		Slug:       "gym-" + id,
		City:       "Austin",
		State:      "TX",
		Location:   [2]float64{lat, lng},
		BoostScore: boost,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return db.SearchEntry{
		Key:    testColl.Key(id),
		Score:  score,
		Fields: map[string]string{"$": string(data)},
	}
}

func ids(p result.Page) []string {
	out := make([]string, 0, len(p.Hits))
	for i := range p.Hits {
		out = append(out, p.Hits[i].Document().ID)
	}
	return out
}
