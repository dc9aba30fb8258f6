package model

// SearchResult is one ranked page returned by a search.
type SearchResult struct {
	// Site is the root URL of the site the page belongs to.
	Site string `json:"site"`

	// SiteName is the configured name of that site.
	SiteName string `json:"siteName"`

	// URI is the page path relative to Site.
	URI string `json:"uri"`

	// Title is the text of the page's <title> element.
	Title string `json:"title"`

	// Snippet holds matching text fragments with matched words wrapped in <b>.
	Snippet string `json:"snippet"`

	// Relevance is the page score relative to its own best lemma, in (0, 1].
	Relevance float64 `json:"relevance"`

	// MatchedWords is the number of highlighted words in Snippet.
	MatchedWords int `json:"matchedWordCount"`
}

// SearchResponse is a page of results plus the total number of matches.
type SearchResponse struct {
	// Count is the number of matching pages before pagination.
	Count int `json:"count"`

	// Data is the requested window of results.
	Data []SearchResult `json:"data"`
}
