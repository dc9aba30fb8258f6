package model

import "time"

// Statistics is the read-only rollup of index contents.
type Statistics struct {
	Total    TotalStatistics      `json:"total"`
	Detailed []DetailedStatistics `json:"detailed"`
}

// TotalStatistics aggregates every configured site.
type TotalStatistics struct {
	Sites    int  `json:"sites"`
	Pages    int  `json:"pages"`
	Lemmas   int  `json:"lemmas"`
	Indexing bool `json:"indexing"`
}

// DetailedStatistics describes a single configured site.
type DetailedStatistics struct {
	URL        string     `json:"url"`
	Name       string     `json:"name"`
	Status     SiteStatus `json:"status"`
	StatusTime time.Time  `json:"statusTime"`
	Error      string     `json:"error,omitempty"`
	Pages      int        `json:"pages"`
	Lemmas     int        `json:"lemmas"`
}
