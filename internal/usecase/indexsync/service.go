package indexsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gymdex/internal/domain"
	"github.com/kailas-cloud/gymdex/internal/domain/batch"
	domdoc "github.com/kailas-cloud/gymdex/internal/domain/document"
	"github.com/kailas-cloud/gymdex/internal/domain/listing"
	logpkg "github.com/kailas-cloud/gymdex/internal/logger"
	"github.com/kailas-cloud/gymdex/internal/metrics"
)

// DefaultBatchSize is the bulk reindex page size.
const DefaultBatchSize = 100

// Sources label which entry point applied a decision.
const (
	SourceReindex = "reindex"
	SourceUpsert  = "upsert"
	SourceEvent   = "event"
)

// Outcome is what an entry point did to one listing's document.
type Outcome string

// Outcomes.
const (
	OutcomeIndexed Outcome = "indexed"
	OutcomeRemoved Outcome = "removed"
	// OutcomeSkipped means the listing is not eligible; any stale document was removed.
	OutcomeSkipped Outcome = "skipped"
	OutcomeIgnored Outcome = "ignored"
)

// Progress is called after every reindex batch with the number of documents
// written so far. Failed and skipped listings are not counted.
type Progress func(indexed, total int)

// Failure is one document the index rejected.
type Failure struct {
	ID     string
	Reason string
}

// Report summarizes a bulk reindex run.
type Report struct {
	Requested int
	Succeeded int
	Failed    int
	Skipped   int
	Batches   int
	Failures  []Failure
	Duration  time.Duration
}

// Service keeps the search index in agreement with the Listing Store.
// Every entry point reduces to document.Reconcile followed by apply.
type Service struct {
	listings  ListingReader
	docs      DocumentWriter
	logger    *zap.Logger
	batchSize int
	now       func() time.Time
}

// New creates an index synchronizer.
func New(listings ListingReader, docs DocumentWriter, logger *zap.Logger) *Service {
	return &Service{
		listings:  listings,
		docs:      docs,
		logger:    logger,
		batchSize: DefaultBatchSize,
		now:       time.Now,
	}
}

// WithBatchSize configures the reindex page size.
func (s *Service) WithBatchSize(n int) *Service {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

// WithClock overrides the clock used for hours_today.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Reindex projects every eligible listing, batch by batch, until the total
// reported by the first page is exhausted. A failed page fetch aborts the run;
// documents rejected by the index are recorded and the run continues.
func (s *Service) Reindex(ctx context.Context, progress Progress) (Report, error) {
	start := time.Now()
	var rep Report
	total := -1

	for offset := 0; total < 0 || offset < total; {
		if err := ctx.Err(); err != nil {
			rep.Duration = time.Since(start)
			return rep, fmt.Errorf("reindex interrupted at offset %d: %w", offset, err)
		}

		page, err := s.listings.ListEligible(ctx, offset, s.batchSize)
		if err != nil {
			rep.Duration = time.Since(start)
			return rep, fmt.Errorf("fetch batch at offset %d: %w", offset, err)
		}
		if total < 0 {
			total = page.Total
			rep.Requested = total
		}
		if len(page.Listings) == 0 {
			break
		}

		s.importBatch(ctx, page.Listings, &rep)
		rep.Batches++
		offset += len(page.Listings)

		if progress != nil {
			progress(rep.Succeeded, total)
		}
	}

	rep.Duration = time.Since(start)
	s.logger.Info("Reindex finished",
		zap.Int("requested", rep.Requested),
		zap.Int("succeeded", rep.Succeeded),
		zap.Int("failed", rep.Failed),
		zap.Int("skipped", rep.Skipped),
		zap.Int("batches", rep.Batches),
		zap.Duration("duration", rep.Duration),
	)
	return rep, nil
}

func (s *Service) importBatch(ctx context.Context, rows []listing.Listing, rep *Report) {
	now := s.now()
	docs := make([]domdoc.Document, 0, len(rows))
	for i := range rows {
		d := domdoc.Reconcile(rows[i].ID, &rows[i], domdoc.PresenceUnknown, now)
		if d.Action == domdoc.ActionUpsert {
			docs = append(docs, d.Document)
			continue
		}
		// status changed between the count and the fetch
		if err := s.apply(ctx, SourceReindex, d); err != nil {
			rep.Failed++
			rep.Failures = append(rep.Failures, Failure{ID: d.ID, Reason: err.Error()})
			continue
		}
		rep.Skipped++
	}
	if len(docs) == 0 {
		return
	}

	results := s.docs.BatchUpsert(ctx, docs)
	sum := batch.Summarize(results)
	rep.Succeeded += sum.OK
	rep.Failed += sum.Failed
	for _, r := range batch.Failures(results) {
		rep.Failures = append(rep.Failures, Failure{ID: r.ID(), Reason: r.Err().Error()})
		s.logger.Warn("Document rejected by index",
			zap.String("listing_id", r.ID()),
			zap.Error(r.Err()),
		)
	}

	metrics.ReindexDocumentsTotal.WithLabelValues(metrics.StatusOK).Add(float64(sum.OK))
	metrics.ReindexDocumentsTotal.WithLabelValues(metrics.StatusError).Add(float64(sum.Failed))
}

// UpsertByID re-projects one listing, typically right after a moderation action.
// A missing row is domain.ErrListingNotFound. An ineligible listing is not an
// error: its document is removed if present and OutcomeSkipped is returned.
func (s *Service) UpsertByID(ctx context.Context, id string) (Outcome, error) {
	if id == "" {
		return "", errors.New("listing id is required")
	}

	row, err := s.listings.Get(ctx, id)
	if err != nil {
		return "", fmt.Errorf("fetch listing %s: %w", id, err)
	}

	d := domdoc.Reconcile(id, row, domdoc.PresenceUnknown, s.now())
	if err := s.apply(ctx, SourceUpsert, d); err != nil {
		return "", err
	}
	if d.Action == domdoc.ActionUpsert {
		return OutcomeIndexed, nil
	}
	return OutcomeSkipped, nil
}

// Remove deletes the document for id. A missing document is not an error.
func (s *Service) Remove(ctx context.Context, id string) error {
	return s.apply(ctx, SourceUpsert, domdoc.Decision{ID: id, Action: domdoc.ActionDelete})
}

// HandleEvent applies one change event.
//
// DELETE removes the document. INSERT/UPDATE with an eligible record reconciles
// the listing's current row, so a stale event cannot resurrect old data. An
// ineligible record removes the document when it may have been indexed: the
// old record was eligible, or an UPDATE arrived without one.
// Changes to listing_attributes reconcile the referenced listing.
func (s *Service) HandleEvent(ctx context.Context, ev Event) (Outcome, error) {
	if err := ev.Validate(); err != nil {
		return "", err
	}
	id, err := ev.listingID()
	if err != nil {
		return "", err
	}

	switch ev.Table {
	case TableListingAttributes:
		return s.reconcileCurrent(ctx, id, domdoc.PresenceUnknown)
	case TableListings, "":
	default:
		s.logger.Debug("Ignoring change event", zap.String("table", ev.Table), zap.String("type", string(ev.Type)))
		return OutcomeIgnored, nil
	}

	if ev.Type == EventDelete {
		if err := s.apply(ctx, SourceEvent, domdoc.Decision{ID: id, Action: domdoc.ActionDelete}); err != nil {
			return "", err
		}
		return OutcomeRemoved, nil
	}

	rec, err := ev.record()
	if err != nil {
		return "", err
	}
	if listing.Status(rec.Status).Eligible() {
		return s.reconcileCurrent(ctx, id, domdoc.PresenceUnknown)
	}

	old, err := ev.oldRecord()
	if err != nil {
		return "", err
	}
	presence := domdoc.PresenceAbsent
	switch {
	case old != nil && listing.Status(old.Status).Eligible():
		presence = domdoc.PresencePresent
	case ev.Type == EventUpdate && (old == nil || old.Status == ""):
		presence = domdoc.PresenceUnknown
	}

	d := domdoc.Reconcile(id, &listing.Listing{ID: id, Status: listing.Status(rec.Status)}, presence, s.now())
	if err := s.apply(ctx, SourceEvent, d); err != nil {
		return "", err
	}
	if d.Action == domdoc.ActionDelete {
		return OutcomeRemoved, nil
	}
	return OutcomeIgnored, nil
}

// reconcileCurrent fetches the row and reconciles it. A row gone from the
// Listing Store removes the document.
func (s *Service) reconcileCurrent(ctx context.Context, id string, presence domdoc.Presence) (Outcome, error) {
	row, err := s.listings.Get(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrListingNotFound) {
		return "", fmt.Errorf("fetch listing %s: %w", id, err)
	}
	if err != nil {
		row = nil
	}

	d := domdoc.Reconcile(id, row, presence, s.now())
	if err := s.apply(ctx, SourceEvent, d); err != nil {
		return "", err
	}
	switch d.Action {
	case domdoc.ActionUpsert:
		return OutcomeIndexed, nil
	case domdoc.ActionDelete:
		return OutcomeRemoved, nil
	default:
		return OutcomeIgnored, nil
	}
}

// apply executes a decision against the document store.
func (s *Service) apply(ctx context.Context, source string, d domdoc.Decision) error {
	var err error
	switch d.Action {
	case domdoc.ActionUpsert:
		err = s.docs.Upsert(ctx, &d.Document)
	case domdoc.ActionDelete:
		err = s.docs.Delete(ctx, d.ID)
	case domdoc.ActionNoop:
	}

	status := metrics.StatusOK
	if err != nil {
		status = metrics.StatusError
	}
	metrics.SyncOperationsTotal.WithLabelValues(source, d.Action.String(), status).Inc()

	logger := logpkg.FromContextOr(ctx, s.logger)
	if err != nil {
		logger.Error("Index write failed",
			zap.String("listing_id", d.ID),
			zap.String("action", d.Action.String()),
			zap.String("source", source),
			zap.Error(err),
		)
		return fmt.Errorf("%s %s: %w", d.Action, d.ID, err)
	}
	logger.Debug("Index write applied",
		zap.String("listing_id", d.ID),
		zap.String("action", d.Action.String()),
		zap.String("source", source),
	)
	return nil
}
