// Package search answers ranked full-text queries over the lemma index.
//
// A query is lemmatized, lemmas found on too many pages are dropped, and the
// page sets of the remaining lemmas are intersected rarest first. Every page
// in the intersection contains all surviving lemmas. Pages are ranked by
// relative relevance and decorated with a title and a highlighted snippet
// built from their stored HTML.
package search
