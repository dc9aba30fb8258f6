package orchestrator

import "errors"

var (
	// ErrAlreadyRunning is returned by Start while a run is in progress.
	ErrAlreadyRunning = errors.New("indexing is already running")

	// ErrNotRunning is returned by Stop when no run is in progress.
	ErrNotRunning = errors.New("indexing is not running")

	// ErrOutsideSites is returned by IndexPage for a URL whose host is not
	// one of the configured sites.
	ErrOutsideSites = errors.New("page is outside the sites specified in the configuration file")

	// ErrInvalidURL is returned by IndexPage for a URL that is not an
	// absolute http or https URL.
	ErrInvalidURL = errors.New("invalid page URL")

	// ErrStoppedByUser is the status error of sites whose crawl was cut short by Stop.
	ErrStoppedByUser = errors.New("stopped by user")
)
