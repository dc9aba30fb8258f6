// Package report renders search results and index statistics for the
// command line. Three formats are available: a human-readable text report,
// JSON matching the HTTP API responses, and Markdown for sharing.
package report
