package search

import "errors"

var (
	// ErrEmptyQuery is returned for a blank query. Storage is not touched.
	ErrEmptyQuery = errors.New("empty search query")

	// ErrIndexNotReady is returned when a site in scope is unknown or its
	// last crawl did not finish with status INDEXED.
	ErrIndexNotReady = errors.New("index is not ready")
)
