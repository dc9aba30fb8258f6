package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and can be matched with errors.Is().
var (
	// ErrNoSites is returned when no site is configured.
	// Every command that crawls, searches or reports works on the configured sites.
	ErrNoSites = errors.New("no sites configured: add at least one entry under 'sites' in the configuration file")

	// ErrInvalidSiteURL is returned when a site URL is not an absolute http(s) URL.
	ErrInvalidSiteURL = errors.New("invalid site URL: must be an absolute http or https URL")

	// ErrDuplicateSite is returned when two sites share the same URL.
	ErrDuplicateSite = errors.New("duplicate site URL")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidParallelism is returned when the per-site fetch parallelism is not positive.
	ErrInvalidParallelism = errors.New("invalid parallelism: must be positive")

	// ErrInvalidIndexWorkers is returned when the number of index workers is not positive.
	ErrInvalidIndexWorkers = errors.New("invalid index workers: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidThreshold is returned when the frequency threshold is outside (0, 1].
	ErrInvalidThreshold = errors.New("invalid frequency threshold: must be greater than 0 and at most 1")

	// ErrInvalidPruneMinPages is returned when the pruning page floor is negative.
	ErrInvalidPruneMinPages = errors.New("invalid prune minimum pages: must be non-negative")

	// ErrInvalidSnippetSegments is returned when the number of snippet segments is not positive.
	ErrInvalidSnippetSegments = errors.New("invalid snippet segments: must be positive")

	// ErrInvalidSearchLimit is returned when the default search limit is not positive.
	ErrInvalidSearchLimit = errors.New("invalid search limit: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
