package model

// Lemma is a normalized word form within a single site.
//
// Frequency is the number of the site's pages that contain the lemma, which
// always equals the number of IndexEntry rows referencing it. A lemma is
// never deleted when its pages are re-indexed and may rest at frequency 0.
type Lemma struct {
	ID        int64  `json:"id"`
	SiteID    int64  `json:"siteId"`
	Lemma     string `json:"lemma"`
	Frequency int    `json:"frequency"`
}

// IndexEntry records how often a lemma occurs on a page.
// It is unique per (PageID, LemmaID).
type IndexEntry struct {
	ID      int64 `json:"id"`
	PageID  int64 `json:"pageId"`
	LemmaID int64 `json:"lemmaId"`
	Count   int   `json:"count"`
}

// LemmaDrift describes a lemma whose stored frequency disagrees with the
// number of index entries that reference it.
type LemmaDrift struct {
	Lemma   Lemma `json:"lemma"`
	Entries int   `json:"entries"`
}
