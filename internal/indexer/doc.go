// Package indexer keeps the lemma index in step with stored pages.
//
// Apply adds a page's lemmas: for each distinct lemma a transaction locks
// (or creates) the site's lemma row, creates or increments the page's index
// entry and bumps the lemma frequency when the entry is new. Lemmas are
// processed concurrently; an insert that loses a race on the (site, lemma)
// key is discarded and the whole upsert is retried.
//
// Retract removes a page's entries and subtracts one from the frequency of
// every lemma they referenced. Reindex is Retract followed by Apply.
package indexer
