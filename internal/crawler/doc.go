// Package crawler discovers and fetches the pages of a configured site.
//
// # Components
//
//   - Fetcher: performs one HTTP GET and classifies failures into codes
//   - ParseDocument: renders <head> and <body> and extracts root-relative links
//   - Frontier: walks a site from "/" with one goroutine per discovered path
//   - VisitedSet: claims a path exactly once per crawl
//   - Token: the cooperative cancellation flag shared by every task of a run
//
// # Crawl model
//
// Every path is handled by a task that claims the path, fetches it, stores
// the outcome, hands the content to the indexer and then forks one child per
// link and waits for all of them. Concurrent fetches are bounded by a
// weighted semaphore per crawl. Tasks poll the Token before fetching and
// again after the fetch returns; once it is cleared no further pages are
// written.
//
// Failed fetches are stored as pages with empty content and a failure code
// (see FetchError). They never produce child tasks.
//
// robots.txt is ignored unless the Frontier is created with
// WithRespectRobots(true).
package crawler
