package chi

import (
	domdoc "github.com/kailas-cloud/gymdex/internal/domain/document"
	"github.com/kailas-cloud/gymdex/internal/domain/search/facet"
	"github.com/kailas-cloud/gymdex/internal/domain/search/result"
	searchuc "github.com/kailas-cloud/gymdex/internal/usecase/search"
)

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest        ErrorCode = "bad_request"
	CodeValidationFailed  ErrorCode = "validation_failed"
	CodeUnauthorized      ErrorCode = "unauthorized"
	CodeListingNotFound   ErrorCode = "listing_not_found"
	CodeDocumentNotFound  ErrorCode = "document_not_found"
	CodeInvalidEvent      ErrorCode = "invalid_event"
	CodeSearchUnavailable ErrorCode = "search_unavailable"
	CodeInternalError     ErrorCode = "internal_error"
	CodeRequestTooLarge   ErrorCode = "request_too_large"
)

// ErrorResponse is the body of every non-2xx response except degraded search.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// HitResponse is one search hit: the stored document plus ranking data.
type HitResponse struct {
	domdoc.Document
	Score    float64  `json:"score,omitempty"`
	Distance *float64 `json:"distance,omitempty"` // miles, only with a geo center
}

// SearchResponse is the body of GET /search. Message is set when the index
// could not answer and the page is empty.
type SearchResponse struct {
	Results          []HitResponse            `json:"results"`
	Total            int                      `json:"total"`
	Page             int                      `json:"page"`
	PerPage          int                      `json:"per_page"`
	TotalPages       int                      `json:"total_pages"`
	Facets           map[string][]facet.Count `json:"facets"`
	ProcessingTimeMs int64                    `json:"processing_time_ms"`
	Message          string                   `json:"message,omitempty"`
}

// AutocompleteResponse is the body of GET /autocomplete.
type AutocompleteResponse struct {
	Suggestions []result.Suggestion `json:"suggestions"`
	Message     string              `json:"message,omitempty"`
}

// SyncResponse reports what a sync entry point did to one listing.
type SyncResponse struct {
	ID      string `json:"id,omitempty"`
	Outcome string `json:"outcome"`
}

func searchResponseFromUC(resp *searchuc.Response, perPage int, message string) SearchResponse {
	hits := make([]HitResponse, len(resp.Results))
	for i := range resp.Results {
		h := &resp.Results[i]
		hits[i] = HitResponse{Document: h.Document(), Score: h.Score(), Distance: h.Distance()}
	}
	facets := resp.Facets
	if facets == nil {
		facets = facet.Empty(domdoc.FacetFields)
	}
	return SearchResponse{
		Results:          hits,
		Total:            resp.Total,
		Page:             resp.Page,
		PerPage:          perPage,
		TotalPages:       resp.TotalPages,
		Facets:           facets,
		ProcessingTimeMs: resp.ProcessingTimeMs,
		Message:          message,
	}
}
