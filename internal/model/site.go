package model

import (
	"fmt"
	"strings"
	"time"
)

// SiteStatus is the lifecycle state of a site's most recent crawl.
type SiteStatus string

const (
	// StatusIndexing means a crawl of the site is in progress.
	StatusIndexing SiteStatus = "INDEXING"

	// StatusIndexed means the last crawl completed while the run was active.
	StatusIndexed SiteStatus = "INDEXED"

	// StatusFailed means the last crawl was stopped or hit a fatal error.
	// Site.LastError carries the reason.
	StatusFailed SiteStatus = "FAILED"

	// StatusWaiting is reported by statistics for configured sites that have
	// never been crawled. It is never stored.
	StatusWaiting SiteStatus = "WAIT"
)

// String returns the status name.
func (s SiteStatus) String() string {
	return string(s)
}

// IsValid reports whether s is a status that may be stored.
func (s SiteStatus) IsValid() bool {
	switch s {
	case StatusIndexing, StatusIndexed, StatusFailed:
		return true
	default:
		return false
	}
}

// ParseSiteStatus converts a stored status name back into a SiteStatus.
// Matching is case-insensitive.
func ParseSiteStatus(s string) (SiteStatus, error) {
	status := SiteStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", fmt.Errorf("unknown site status %q", s)
	}
	return status, nil
}

// Site is a configured web site as recorded by the last crawl that touched it.
type Site struct {
	// ID is the storage identifier.
	ID int64 `json:"id"`

	// Name is the human readable name from the configuration.
	Name string `json:"name"`

	// URL is the site root without a trailing slash, e.g. "https://example.com".
	URL string `json:"url"`

	// Status is the state of the most recent crawl.
	Status SiteStatus `json:"status"`

	// LastError is the failure reason when Status is FAILED.
	LastError string `json:"error,omitempty"`

	// StatusTime is refreshed on every status change and every page write.
	StatusTime time.Time `json:"statusTime"`
}

// PageURL returns the absolute URL of a site-relative path.
func (s *Site) PageURL(path string) string {
	return s.URL + path
}
