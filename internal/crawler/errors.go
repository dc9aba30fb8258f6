package crawler

import (
	"errors"
	"fmt"
)

// CodeUnknown is the page code recorded for failures that cannot be classified.
const CodeUnknown = -1

var (
	// ErrUnsupportedContentType is returned for responses that are not HTML or XML.
	ErrUnsupportedContentType = errors.New("unsupported content type")

	// ErrEmptyDocument is returned when a response has no content.
	ErrEmptyDocument = errors.New("empty document")

	// ErrHTTPStatus is returned for non-2xx responses.
	ErrHTTPStatus = errors.New("unexpected HTTP status")
)

// FetchError is a failed page fetch together with the code stored for it.
type FetchError struct {
	// URL is the page that failed.
	URL string

	// Code is the classification stored as the page code.
	Code int

	// Err is the underlying cause.
	Err error
}

// Error implements error.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed (code %d): %v", e.URL, e.Code, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}
