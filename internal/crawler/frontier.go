package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/nao1215/sitesearch/internal/model"
)

// PageStore persists fetch outcomes.
type PageStore interface {
	// SavePage upserts the page by (SiteID, Path), sets page.ID and reports
	// whether a row already existed.
	SavePage(ctx context.Context, page *model.Page) (bool, error)

	// TouchSite refreshes the site's status time.
	TouchSite(ctx context.Context, siteID int64) error
}

// PageIndexer maintains the lemma index for stored pages.
type PageIndexer interface {
	// Apply adds a new page's lemmas to the index.
	Apply(ctx context.Context, page *model.Page) error

	// Reindex removes the stored contribution of an overwritten page and
	// applies its current content.
	Reindex(ctx context.Context, page *model.Page) error
}

// Frontier crawls sites and records every fetch attempt.
type Frontier struct {
	// fetcher performs the HTTP requests.
	fetcher *Fetcher

	// store receives one page row per fetched path.
	store PageStore

	// indexer receives the content of every stored page.
	indexer PageIndexer

	// parallelism bounds concurrent fetches within one site crawl.
	parallelism int64

	// respectRobots enables robots.txt checks.
	respectRobots bool

	logger *slog.Logger
}

// Option configures a Frontier.
type Option func(*Frontier)

// WithParallelism sets how many fetches of one site may run at once.
func WithParallelism(n int) Option {
	return func(f *Frontier) {
		if n > 0 {
			f.parallelism = int64(n)
		}
	}
}

// WithRespectRobots enables or disables robots.txt obedience.
func WithRespectRobots(respect bool) Option {
	return func(f *Frontier) {
		f.respectRobots = respect
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Frontier) {
		f.logger = logger
	}
}

// NewFrontier creates a Frontier. Parallelism defaults to the number of CPUs.
func NewFrontier(fetcher *Fetcher, store PageStore, indexer PageIndexer, opts ...Option) *Frontier {
	f := &Frontier{
		fetcher:     fetcher,
		store:       store,
		indexer:     indexer,
		parallelism: int64(runtime.NumCPU()),
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.logger == nil {
		f.logger = slog.Default()
	}

	return f
}

// crawl is the state shared by the tasks of one site crawl.
type crawl struct {
	site    *model.Site
	token   *Token
	visited *VisitedSet
	slots   *semaphore.Weighted
	robots  *robotsPolicy
}

// Crawl walks site starting at "/" until every reachable path has been
// visited or token is cleared. Fetch failures are recorded as pages; the
// returned error is a storage or indexing failure, which aborts the crawl.
func (f *Frontier) Crawl(ctx context.Context, site *model.Site, token *Token) error {
	c := &crawl{
		site:    site,
		token:   token,
		visited: &VisitedSet{},
		slots:   semaphore.NewWeighted(f.parallelism),
	}
	if f.respectRobots {
		c.robots = f.fetcher.loadRobots(ctx, site.URL)
	}

	f.logger.Info("crawl started", "site", site.URL)
	err := f.visit(ctx, c, model.RootPath)
	f.logger.Info("crawl finished",
		"site", site.URL,
		"visited", c.visited.Len(),
		"cancelled", !token.Active(),
	)
	return err
}

// visit is one crawl task. It returns only after every child task has finished.
func (f *Frontier) visit(ctx context.Context, c *crawl, path string) error {
	if !c.token.Active() || !c.visited.Claim(path) {
		return nil
	}
	if !c.robots.allowed(path) {
		f.logger.Debug("disallowed by robots.txt", "site", c.site.URL, "path", path)
		return nil
	}

	if err := c.slots.Acquire(ctx, 1); err != nil {
		return nil
	}
	doc, fetchErr := f.fetcher.Fetch(ctx, c.site.PageURL(path))
	c.slots.Release(1)

	// A cancelled context aborts the request itself; that outcome says
	// nothing about the page and is not recorded.
	if !c.token.Active() || ctx.Err() != nil {
		return nil
	}

	if _, err := f.save(ctx, c.site, path, doc, fetchErr); err != nil {
		return err
	}
	if fetchErr != nil {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, link := range doc.Links {
		if !c.token.Active() {
			break
		}
		if c.visited.Contains(link) {
			continue
		}
		g.Go(func() error {
			return f.visit(gctx, c, link)
		})
	}
	// A stop after the last fork needs no poll here: every child checks the
	// token on entry and after its fetch, so the join drains without new work.
	return g.Wait()
}

// Refresh fetches a single path of site without following links. The page
// row is overwritten in place when it exists and its index contribution is
// replaced; otherwise it is inserted and indexed. A failed fetch is stored
// like any other outcome and is not returned as an error.
func (f *Frontier) Refresh(ctx context.Context, site *model.Site, path string) (*model.Page, error) {
	doc, fetchErr := f.fetcher.Fetch(ctx, site.PageURL(path))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.save(ctx, site, path, doc, fetchErr)
}

// save stores the outcome of one fetch, touches the site and updates the index.
func (f *Frontier) save(ctx context.Context, site *model.Site, path string, doc *Document, fetchErr error) (*model.Page, error) {
	page := &model.Page{SiteID: site.ID, Path: path}
	if fetchErr != nil {
		page.Code = CodeUnknown
		var fe *FetchError
		if errors.As(fetchErr, &fe) {
			page.Code = fe.Code
		}
		f.logger.Debug("fetch failed", "site", site.URL, "path", path, "code", page.Code, "error", fetchErr)
	} else {
		page.Code = doc.Code
		page.Content = doc.Content
	}

	existed, err := f.store.SavePage(ctx, page)
	if err != nil {
		return nil, err
	}
	if err := f.store.TouchSite(ctx, site.ID); err != nil {
		return nil, err
	}

	switch {
	case existed:
		err = f.indexer.Reindex(ctx, page)
	case page.HasContent():
		err = f.indexer.Apply(ctx, page)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to index %s%s: %w", site.URL, path, err)
	}

	f.logger.Debug("page stored", "site", site.URL, "path", path, "code", page.Code, "replaced", existed)
	return page, nil
}
