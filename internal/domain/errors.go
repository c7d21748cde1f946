package domain

import "errors"

var (
	// ErrItemNotFound signals a missing catalog item.
	ErrItemNotFound = errors.New("item not found")
	// ErrSearchNotFound signals a missing saved search.
	ErrSearchNotFound = errors.New("saved search not found")
	// ErrInvalidItem signals an item that fails validation.
	ErrInvalidItem = errors.New("invalid item")
	// ErrInvalidQuery signals a malformed search query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidFilter signals a malformed filter value.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrInvalidCursor signals an unparseable pagination cursor.
	ErrInvalidCursor = errors.New("invalid cursor")
	// ErrDimensionMismatch signals an embedding of the wrong length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrStorageUnavailable signals a catalog store outage.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
)
