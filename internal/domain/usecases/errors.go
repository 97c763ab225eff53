package usecases

import "errors"

var (
	// ErrRead is returned when a local file could not be read as text.
	ErrRead = errors.New("ingestion read failure")

	// ErrFetch is returned on a network error or non-success HTTP status.
	ErrFetch = errors.New("fetch failure")

	// ErrSearch is returned when filtering did not complete.
	ErrSearch = errors.New("search failure")

	// ErrStoreRequired is returned when no record store is provided.
	ErrStoreRequired = errors.New("record store required")

	// ErrFetcherRequired is returned when a URL load is attempted without a fetcher.
	ErrFetcherRequired = errors.New("fetcher required")
)
