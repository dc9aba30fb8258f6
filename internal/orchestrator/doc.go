// Package orchestrator owns the crawl run state of sitesearch.
//
// At most one full run exists at a time. A run resets the configured sites,
// crawls them concurrently (one goroutine per site) and records a terminal
// status for each one. Stop clears the run's cancellation token; the crawl
// tasks observe it cooperatively and the affected sites end as FAILED
// "stopped by user". IndexPage refreshes a single page outside of any run.
package orchestrator
