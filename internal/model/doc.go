// Package model defines the core data structures shared by the crawler,
// the indexer, the search engine and the reporting layers.
//
// This package contains the following main types:
//   - Site: A configured web site and the state of its last crawl
//   - Page: The last fetch attempt for one site-relative path
//   - Lemma: A normalized word form with its per-site page frequency
//   - IndexEntry: How often a lemma occurs on a page
//   - SearchResponse / Statistics: Read models returned to callers
//
// The types carry JSON tags because they are rendered directly by the
// HTTP API and the report writers.
package model
