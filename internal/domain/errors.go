package domain

import "errors"

var (
	// ErrListingNotFound signals that the Listing Store has no row for an id.
	ErrListingNotFound = errors.New("listing not found")
	// ErrDocumentNotFound signals a missing search document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrIneligible signals a listing whose status keeps it out of the index.
	ErrIneligible = errors.New("listing not eligible for indexing")
	// ErrSearchUnavailable signals that the index service could not answer a read.
	ErrSearchUnavailable = errors.New("search unavailable")
	// ErrInvalidQuery signals malformed search parameters.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidEvent signals a change event that cannot be interpreted.
	ErrInvalidEvent = errors.New("invalid change event")
)
