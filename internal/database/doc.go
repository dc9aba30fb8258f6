// Package database provides the SQLite-backed index store for sitesearch.
//
// The SearchDB stores:
//   - Sites and the status of their most recent crawl
//   - Pages, one row per (site, path), holding the last fetch attempt
//   - Lemmas, one row per (site, lemma), with their page frequency
//   - Index entries linking pages to lemmas with an occurrence count
//
// SQLite is accessed through modernc.org/sqlite, which is CGO-free. The
// connection pool is limited to a single connection and every transaction
// begins with BEGIN IMMEDIATE, so read-modify-write sequences performed
// inside InTx are serialized. Unique constraints on (site_id, path),
// (site_id, lemma) and (page_id, lemma_id) back the upserts; deleting a site
// cascades to everything beneath it.
package database
