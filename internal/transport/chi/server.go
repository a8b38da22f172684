package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/gymdex/internal/domain"
	"github.com/kailas-cloud/gymdex/internal/domain/search/request"
	"github.com/kailas-cloud/gymdex/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/gymdex/internal/logger"
	collectionuc "github.com/kailas-cloud/gymdex/internal/usecase/collection"
	healthuc "github.com/kailas-cloud/gymdex/internal/usecase/health"
	"github.com/kailas-cloud/gymdex/internal/usecase/indexsync"
	searchuc "github.com/kailas-cloud/gymdex/internal/usecase/search"
)

// maxEventBytes caps a webhook body.
const maxEventBytes = 1 << 20

const unavailableMessage = "Search is temporarily unavailable. Please try again shortly."

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Searcher is the read side used by the public routes.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) (searchuc.Response, error)
	Autocomplete(ctx context.Context, prefix string) ([]result.Suggestion, error)
}

// Synchronizer is the write side used by the webhook and admin routes.
type Synchronizer interface {
	UpsertByID(ctx context.Context, id string) (indexsync.Outcome, error)
	Remove(ctx context.Context, id string) error
	HandleEvent(ctx context.Context, ev indexsync.Event) (indexsync.Outcome, error)
}

// IndexInspector reports on the search collection.
type IndexInspector interface {
	Info(ctx context.Context) (collectionuc.Info, error)
}

// HealthChecker aggregates dependency health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server serves the gymdex HTTP API.
type Server struct {
	search        Searcher
	sync          Synchronizer
	index         IndexInspector
	health        HealthChecker
	logger        *zap.Logger
	defaultPage   int
	maxPage       int
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. sync and index may be nil on
// read-only deployments; their routes are then not registered.
func NewServer(
	search Searcher,
	sync Synchronizer,
	index IndexInspector,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:      search,
		sync:        sync,
		index:       index,
		health:      health,
		logger:      logger,
		defaultPage: request.DefaultPerPage,
		maxPage:     request.MaxPerPage,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrInvalidEvent, http.StatusBadRequest, CodeInvalidEvent),
		sentinelHandler(domain.ErrListingNotFound, http.StatusNotFound, CodeListingNotFound),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, CodeDocumentNotFound),
		sentinelHandler(domain.ErrSearchUnavailable, http.StatusServiceUnavailable, CodeSearchUnavailable),
	}
	return s
}

// WithPageSizes overrides the default and maximum per_page values.
func (s *Server) WithPageSizes(def, maxSize int) *Server {
	if maxSize > 0 && maxSize <= request.MaxPerPage {
		s.maxPage = maxSize
	}
	if def > 0 && def <= s.maxPage {
		s.defaultPage = def
	}
	return s
}

// Routes registers the API on r. admin guards /admin, webhook guards /webhooks.
func (s *Server) Routes(r chi.Router, admin, webhook func(http.Handler) http.Handler) {
	r.Get("/search", s.Search)
	r.Get("/autocomplete", s.Autocomplete)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	if s.sync != nil {
		r.With(webhook).Post("/webhooks/listings", s.ListingEvent)
	}
	r.Route("/admin", func(r chi.Router) {
		r.Use(admin)
		if s.index != nil {
			r.Get("/index", s.IndexInfo)
		}
		if s.sync != nil {
			r.Post("/listings/{id}/sync", s.SyncListing)
			r.Delete("/listings/{id}", s.RemoveListing)
		}
	})
}

// Search handles GET /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	params, err := bindSearchParams(r.URL.Query(), s.defaultPage, s.maxPage)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	req, err := request.New(params)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	resp, err := s.search.Search(r.Context(), &req)
	if err != nil {
		if errors.Is(err, domain.ErrSearchUnavailable) {
			writeJSON(w, http.StatusServiceUnavailable, searchResponseFromUC(&resp, req.PerPage(), unavailableMessage))
			return
		}
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponseFromUC(&resp, req.PerPage(), ""))
}

// Autocomplete handles GET /autocomplete.
func (s *Server) Autocomplete(w http.ResponseWriter, r *http.Request) {
	suggestions, err := s.search.Autocomplete(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		if errors.Is(err, domain.ErrSearchUnavailable) {
			writeJSON(w, http.StatusServiceUnavailable, AutocompleteResponse{
				Suggestions: []result.Suggestion{},
				Message:     unavailableMessage,
			})
			return
		}
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AutocompleteResponse{Suggestions: suggestions})
}

// ListingEvent handles POST /webhooks/listings.
func (s *Server) ListingEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeRequestTooLarge, "event body too large")
			return
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ev, err := indexsync.ParseEvent(body)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	outcome, err := s.sync.HandleEvent(r.Context(), ev)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SyncResponse{Outcome: string(outcome)})
}

// SyncListing handles POST /admin/listings/{id}/sync.
func (s *Server) SyncListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	outcome, err := s.sync.UpsertByID(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SyncResponse{ID: id, Outcome: string(outcome)})
}

// RemoveListing handles DELETE /admin/listings/{id}.
func (s *Server) RemoveListing(w http.ResponseWriter, r *http.Request) {
	if err := s.sync.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// IndexInfo handles GET /admin/index.
func (s *Server) IndexInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.index.Info(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrInvalidEvent,
		domain.ErrListingNotFound,
		domain.ErrDocumentNotFound,
		domain.ErrSearchUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logpkg.FromContextOr(r.Context(), s.logger)
	logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
