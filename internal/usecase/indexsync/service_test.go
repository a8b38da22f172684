package indexsync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gymdex/internal/domain"
	"github.com/kailas-cloud/gymdex/internal/domain/batch"
	domdoc "github.com/kailas-cloud/gymdex/internal/domain/document"
	"github.com/kailas-cloud/gymdex/internal/domain/listing"
)

// --- Fakes ---

type fakeListings struct {
	rows     map[string]listing.Listing
	getErr   error
	listErr  map[int]error // by offset
	listCall []int
}

func newFakeListings(rows ...listing.Listing) *fakeListings {
	f := &fakeListings{rows: make(map[string]listing.Listing), listErr: make(map[int]error)}
	for _, r := range rows {
		f.rows[r.ID] = r
	}
	return f
}

func (f *fakeListings) Get(_ context.Context, id string) (*listing.Listing, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	r, ok := f.rows[id]
	if !ok {
		return nil, fmt.Errorf("listing %s: %w", id, domain.ErrListingNotFound)
	}
	return &r, nil
}

func (f *fakeListings) ListEligible(_ context.Context, offset, limit int) (listing.Page, error) {
	f.listCall = append(f.listCall, offset)
	if err := f.listErr[offset]; err != nil {
		return listing.Page{}, err
	}
	var ids []string
	for id, r := range f.rows {
		if r.Eligible() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	page := listing.Page{Total: len(ids)}
	for i := offset; i < len(ids) && i < offset+limit; i++ {
		page.Listings = append(page.Listings, f.rows[ids[i]])
	}
	return page, nil
}

type fakeDocs struct {
	docs      map[string]domdoc.Document
	reject    map[string]bool
	upsertErr error
	deletes   int
	batches   int
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{docs: make(map[string]domdoc.Document), reject: make(map[string]bool)}
}

func (f *fakeDocs) Upsert(_ context.Context, doc *domdoc.Document) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.docs[doc.ID] = *doc
	return nil
}

func (f *fakeDocs) BatchUpsert(_ context.Context, docs []domdoc.Document) []batch.Result {
	f.batches++
	out := make([]batch.Result, len(docs))
	for i, d := range docs {
		if f.reject[d.ID] {
			out[i] = batch.NewError(d.ID, errors.New("document rejected"))
			continue
		}
		f.docs[d.ID] = d
		out[i] = batch.NewOK(d.ID)
	}
	return out
}

func (f *fakeDocs) Delete(_ context.Context, id string) error {
	f.deletes++
	delete(f.docs, id)
	return nil
}

var monday = time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)

func gym(id string, status listing.Status) listing.Listing {
	return listing.Listing{
		ID: id, Slug: "gym-" + id, Name: "Gym " + id, GymType: "crossfit",
		City: "Austin", Country: "US", Latitude: 30.26, Longitude: -97.74,
		Status: status, Tier: listing.TierFree,
		CreatedAt: monday, UpdatedAt: monday,
	}
}

func newService(l *fakeListings, d *fakeDocs) *Service {
	return New(l, d, zap.NewNop()).WithClock(func() time.Time { return monday })
}

// --- Reindex ---

func TestReindex_PartialFailure(t *testing.T) {
	l := newFakeListings()
	for i := 0; i < 250; i++ {
		l.rows[fmt.Sprintf("g%03d", i)] = gym(fmt.Sprintf("g%03d", i), listing.StatusVerified)
	}
	l.rows["p1"] = gym("p1", listing.StatusPending)
	d := newFakeDocs()
	d.reject["g150"] = true // second batch

	var progress [][2]int
	rep, err := newService(l, d).WithBatchSize(100).Reindex(context.Background(), func(indexed, total int) {
		progress = append(progress, [2]int{indexed, total})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rep.Batches != 3 || d.batches != 3 {
		t.Errorf("batches = %d (store saw %d), want 3", rep.Batches, d.batches)
	}
	if rep.Requested != 250 || rep.Succeeded != 249 || rep.Failed != 1 {
		t.Errorf("report = %+v", rep)
	}
	if len(rep.Failures) != 1 || rep.Failures[0].ID != "g150" || rep.Failures[0].Reason == "" {
		t.Errorf("failures = %+v", rep.Failures)
	}
	if len(d.docs) != 249 {
		t.Errorf("indexed docs = %d", len(d.docs))
	}
	if _, ok := d.docs["p1"]; ok {
		t.Error("pending listing indexed")
	}
	// g150 was rejected in the second batch
	want := [][2]int{{100, 250}, {199, 250}, {249, 250}}
	if fmt.Sprint(progress) != fmt.Sprint(want) {
		t.Errorf("progress = %v, want %v", progress, want)
	}
}

func TestReindex_BatchFetchFailureIsFatal(t *testing.T) {
	l := newFakeListings()
	for i := 0; i < 30; i++ {
		l.rows[fmt.Sprintf("g%02d", i)] = gym(fmt.Sprintf("g%02d", i), listing.StatusClaimed)
	}
	l.listErr[10] = errors.New("connection reset")
	d := newFakeDocs()

	rep, err := newService(l, d).WithBatchSize(10).Reindex(context.Background(), nil)
	if err == nil {
		t.Fatal("expected fatal error")
	}
	if rep.Batches != 1 || rep.Succeeded != 10 {
		t.Errorf("report = %+v", rep)
	}
	if fmt.Sprint(l.listCall) != "[0 10]" {
		t.Errorf("fetches = %v, run must stop at the failed batch", l.listCall)
	}
}

func TestReindex_Empty(t *testing.T) {
	rep, err := newService(newFakeListings(), newFakeDocs()).Reindex(context.Background(), nil)
	if err != nil || rep.Batches != 0 || rep.Requested != 0 {
		t.Errorf("rep = %+v err = %v", rep, err)
	}
}

func TestReindex_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newService(newFakeListings(gym("a", listing.StatusVerified)), newFakeDocs()).Reindex(ctx, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestReindex_Idempotent(t *testing.T) {
	l := newFakeListings(gym("a", listing.StatusVerified), gym("b", listing.StatusClaimed))
	d := newFakeDocs()
	svc := newService(l, d)

	if _, err := svc.Reindex(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	first := fmt.Sprint(d.docs)
	if _, err := svc.Reindex(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(d.docs) != first {
		t.Error("second run changed the document store")
	}
}

// --- UpsertByID ---

func TestUpsertByID(t *testing.T) {
	l := newFakeListings(gym("v", listing.StatusVerified), gym("p", listing.StatusPending))
	d := newFakeDocs()
	svc := newService(l, d)

	out, err := svc.UpsertByID(context.Background(), "v")
	if err != nil || out != OutcomeIndexed {
		t.Fatalf("verified: %v, %v", out, err)
	}
	if d.docs["v"].BoostScore != domdoc.BoostDefault {
		t.Errorf("doc = %+v", d.docs["v"])
	}

	out, err = svc.UpsertByID(context.Background(), "p")
	if err != nil || out != OutcomeSkipped {
		t.Errorf("pending: %v, %v; want skipped without error", out, err)
	}
	if _, ok := d.docs["p"]; ok {
		t.Error("pending listing indexed")
	}
}

func TestUpsertByID_Errors(t *testing.T) {
	l := newFakeListings()
	svc := newService(l, newFakeDocs())

	if _, err := svc.UpsertByID(context.Background(), "missing"); !errors.Is(err, domain.ErrListingNotFound) {
		t.Errorf("expected ErrListingNotFound, got %v", err)
	}
	if _, err := svc.UpsertByID(context.Background(), ""); err == nil {
		t.Error("expected error for empty id")
	}

	l.getErr = errors.New("db down")
	if _, err := svc.UpsertByID(context.Background(), "x"); err == nil || errors.Is(err, domain.ErrListingNotFound) {
		t.Errorf("expected fetch error, got %v", err)
	}
}

func TestUpsertByID_WriteError(t *testing.T) {
	d := newFakeDocs()
	d.upsertErr = errors.New("READONLY")
	svc := newService(newFakeListings(gym("v", listing.StatusVerified)), d)
	if _, err := svc.UpsertByID(context.Background(), "v"); err == nil {
		t.Error("expected write error")
	}
}

// --- Events ---

func event(t *testing.T, raw string) Event {
	t.Helper()
	ev, err := ParseEvent([]byte(raw))
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	return ev
}

func TestHandleEvent_ClaimedToSuspendedRemoves(t *testing.T) {
	l := newFakeListings(gym("g1", listing.StatusClaimed))
	d := newFakeDocs()
	svc := newService(l, d)

	if _, err := svc.UpsertByID(context.Background(), "g1"); err != nil {
		t.Fatal(err)
	}
	if _, ok := d.docs["g1"]; !ok {
		t.Fatal("precondition: g1 indexed")
	}

	l.rows["g1"] = gym("g1", listing.StatusSuspended)
	out, err := svc.HandleEvent(context.Background(), event(t, `{
		"type": "UPDATE", "table": "listings",
		"record": {"id": "g1", "status": "suspended"},
		"old_record": {"id": "g1", "status": "claimed"}
	}`))
	if err != nil || out != OutcomeRemoved {
		t.Fatalf("HandleEvent = %v, %v", out, err)
	}
	if _, ok := d.docs["g1"]; ok {
		t.Error("suspended listing still indexed")
	}
}

func TestHandleEvent_Table(t *testing.T) {
	tests := []struct {
		name    string
		rows    []listing.Listing
		raw     string
		want    Outcome
		indexed bool
		deletes int
	}{
		{
			name: "insert eligible",
			rows: []listing.Listing{gym("a", listing.StatusVerified)},
			raw:  `{"type":"INSERT","table":"listings","record":{"id":"a","status":"verified"},"old_record":null}`,
			want: OutcomeIndexed, indexed: true,
		},
		{
			name: "insert pending is a noop",
			rows: []listing.Listing{gym("a", listing.StatusPending)},
			raw:  `{"type":"INSERT","table":"listings","record":{"id":"a","status":"pending"}}`,
			want: OutcomeIgnored,
		},
		{
			name: "update pending to pending is a noop",
			rows: []listing.Listing{gym("a", listing.StatusPending)},
			raw:  `{"type":"UPDATE","table":"listings","record":{"id":"a","status":"pending"},"old_record":{"id":"a","status":"pending"}}`,
			want: OutcomeIgnored,
		},
		{
			name: "update without old record deletes",
			rows: []listing.Listing{gym("a", listing.StatusPending)},
			raw:  `{"type":"UPDATE","table":"listings","record":{"id":"a","status":"pending"}}`,
			want: OutcomeRemoved, deletes: 1,
		},
		{
			name: "delete",
			raw:  `{"type":"DELETE","table":"listings","old_record":{"id":"a","status":"verified"}}`,
			want: OutcomeRemoved, deletes: 1,
		},
		{
			name: "eligible record but row gone",
			raw:  `{"type":"UPDATE","table":"listings","record":{"id":"a","status":"verified"}}`,
			want: OutcomeRemoved, deletes: 1,
		},
		{
			name: "stale eligible event for a suspended row",
			rows: []listing.Listing{gym("a", listing.StatusSuspended)},
			raw:  `{"type":"UPDATE","table":"listings","record":{"id":"a","status":"claimed"}}`,
			want: OutcomeRemoved, deletes: 1,
		},
		{
			name: "attribute change reconciles listing",
			rows: []listing.Listing{gym("a", listing.StatusClaimed)},
			raw:  `{"type":"INSERT","table":"listing_attributes","record":{"listing_id":"a","attribute_id":"x"}}`,
			want: OutcomeIndexed, indexed: true,
		},
		{
			name: "unrelated table",
			raw:  `{"type":"INSERT","table":"reviews","record":{"id":"r1","listing_id":"a"}}`,
			want: OutcomeIgnored,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := newFakeDocs()
			svc := newService(newFakeListings(tc.rows...), d)

			out, err := svc.HandleEvent(context.Background(), event(t, tc.raw))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out != tc.want {
				t.Errorf("outcome = %q, want %q", out, tc.want)
			}
			if _, ok := d.docs["a"]; ok != tc.indexed {
				t.Errorf("indexed = %v, want %v", ok, tc.indexed)
			}
			if d.deletes != tc.deletes {
				t.Errorf("deletes = %d, want %d", d.deletes, tc.deletes)
			}
		})
	}
}

func TestHandleEvent_FetchErrorPropagates(t *testing.T) {
	l := newFakeListings()
	l.getErr = errors.New("timeout")
	svc := newService(l, newFakeDocs())

	_, err := svc.HandleEvent(context.Background(), event(t,
		`{"type":"UPDATE","table":"listings","record":{"id":"a","status":"verified"}}`))
	if err == nil {
		t.Error("expected error so the event is redelivered")
	}
}

func TestHandleEvent_Idempotent(t *testing.T) {
	l := newFakeListings(gym("a", listing.StatusVerified))
	d := newFakeDocs()
	svc := newService(l, d)
	ev := event(t, `{"type":"UPDATE","table":"listings","record":{"id":"a","status":"verified"}}`)

	for i := 0; i < 3; i++ {
		if _, err := svc.HandleEvent(context.Background(), ev); err != nil {
			t.Fatal(err)
		}
	}
	if len(d.docs) != 1 {
		t.Errorf("docs = %d", len(d.docs))
	}
}

func TestRemove(t *testing.T) {
	d := newFakeDocs()
	d.docs["a"] = domdoc.Document{ID: "a"}
	svc := newService(newFakeListings(), d)

	for i := 0; i < 2; i++ {
		if err := svc.Remove(context.Background(), "a"); err != nil {
			t.Fatalf("Remove: %v", err)
		}
	}
	if len(d.docs) != 0 {
		t.Error("document not removed")
	}
}
