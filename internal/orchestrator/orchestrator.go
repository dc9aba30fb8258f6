package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/nao1215/sitesearch/internal/config"
	"github.com/nao1215/sitesearch/internal/crawler"
	"github.com/nao1215/sitesearch/internal/model"
	"golang.org/x/sync/errgroup"
)

// Store is the subset of the storage layer the orchestrator writes to.
type Store interface {
	DeleteSitesByURL(ctx context.Context, urls []string) (int64, error)
	InsertSite(ctx context.Context, site *model.Site) error
	FindSiteByURL(ctx context.Context, siteURL string) (*model.Site, error)
	UpdateSiteStatus(ctx context.Context, siteID int64, status model.SiteStatus, lastError string) error
}

// Crawler walks and refreshes sites. *crawler.Frontier implements it.
type Crawler interface {
	Crawl(ctx context.Context, site *model.Site, token *crawler.Token) error
	Refresh(ctx context.Context, site *model.Site, path string) (*model.Page, error)
}

// Orchestrator starts, stops and tracks crawl runs over the configured sites.
type Orchestrator struct {
	store   Store
	crawler Crawler
	sites   []config.Site
	logger  *slog.Logger

	mu      sync.Mutex
	current *Run
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// New creates an idle Orchestrator for sites.
func New(store Store, c Crawler, sites []config.Site, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:   store,
		crawler: c,
		sites:   sites,
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = slog.Default()
	}

	return o
}

// Running reports whether a run is in progress.
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current != nil
}

// Current returns the run in progress, or nil when idle.
func (o *Orchestrator) Current() *Run {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

// Start begins a full run in the background and returns its handle.
// The run outlives ctx: only Stop ends it early. Values carried by ctx
// (request ids for logging) are kept.
func (o *Orchestrator) Start(ctx context.Context) (*Run, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current != nil {
		return nil, ErrAlreadyRunning
	}

	run := newRun()
	o.current = run

	go o.execute(context.WithoutCancel(ctx), run)

	return run, nil
}

// Stop clears the token of the run in progress. It does not wait; use
// Run.Wait for that.
func (o *Orchestrator) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current == nil {
		return ErrNotRunning
	}

	if o.current.token.Stop() {
		o.logger.Info("indexing stop requested", "run", o.current.ID)
	}
	return nil
}

// execute performs the full run and returns the orchestrator to idle.
func (o *Orchestrator) execute(ctx context.Context, run *Run) {
	defer func() {
		o.mu.Lock()
		o.current = nil
		o.mu.Unlock()
		close(run.done)
	}()

	o.logger.Info("indexing started", "run", run.ID, "sites", len(o.sites))

	sites, err := o.resetSites(ctx)
	if err != nil {
		run.err = err
		o.logger.Error("failed to reset sites", "run", run.ID, "error", err)
		return
	}

	var g errgroup.Group
	for _, site := range sites {
		g.Go(func() error {
			return o.crawlSite(ctx, run, site)
		})
	}
	run.err = g.Wait()

	o.logger.Info("indexing finished",
		"run", run.ID,
		"elapsed", time.Since(run.StartedAt),
		"stopped", run.Stopped(),
	)
}

// resetSites deletes the previous data of every configured site and inserts
// fresh INDEXING rows.
func (o *Orchestrator) resetSites(ctx context.Context) ([]*model.Site, error) {
	urls := make([]string, len(o.sites))
	for i, s := range o.sites {
		urls[i] = s.URL
	}

	deleted, err := o.store.DeleteSitesByURL(ctx, urls)
	if err != nil {
		return nil, fmt.Errorf("failed to delete previous site data: %w", err)
	}
	o.logger.Debug("previous site data deleted", "sites", deleted)

	sites := make([]*model.Site, 0, len(o.sites))
	for _, s := range o.sites {
		site := &model.Site{
			Name:   s.Name,
			URL:    s.URL,
			Status: model.StatusIndexing,
		}
		if err := o.store.InsertSite(ctx, site); err != nil {
			err = fmt.Errorf("failed to insert site %s: %w", s.URL, err)
			for _, inserted := range sites {
				o.setStatus(ctx, inserted, model.StatusFailed, err.Error())
			}
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, nil
}

// crawlSite crawls one site and records its terminal status. A storage
// failure stops the whole run.
func (o *Orchestrator) crawlSite(ctx context.Context, run *Run, site *model.Site) error {
	err := o.crawler.Crawl(ctx, site, run.token)

	switch {
	case err != nil:
		run.token.Stop()
		o.logger.Error("site crawl failed", "run", run.ID, "site", site.URL, "error", err)
		o.setStatus(ctx, site, model.StatusFailed, err.Error())
		return fmt.Errorf("failed to crawl %s: %w", site.URL, err)
	case !run.token.Active():
		o.setStatus(ctx, site, model.StatusFailed, ErrStoppedByUser.Error())
	default:
		o.setStatus(ctx, site, model.StatusIndexed, "")
	}
	return nil
}

// setStatus writes a site status. The write is detached from cancellation
// so that a terminal status is recorded even on shutdown.
func (o *Orchestrator) setStatus(ctx context.Context, site *model.Site, status model.SiteStatus, lastError string) {
	if err := o.store.UpdateSiteStatus(context.WithoutCancel(ctx), site.ID, status, lastError); err != nil {
		o.logger.Error("failed to update site status",
			"site", site.URL,
			"status", status,
			"error", err,
		)
		return
	}
	site.Status = status
	site.LastError = lastError
}

// IndexPage fetches and reindexes the single page at rawURL. The URL must
// belong to a configured site; otherwise nothing is written. The site row
// is created when it does not exist yet.
func (o *Orchestrator) IndexPage(ctx context.Context, rawURL string) (*model.Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	configured, ok := config.MatchSite(o.sites, rawURL)
	if !ok {
		return nil, ErrOutsideSites
	}

	site, err := o.store.FindSiteByURL(ctx, configured.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to find site %s: %w", configured.URL, err)
	}
	if site == nil {
		site = &model.Site{
			Name:   configured.Name,
			URL:    configured.URL,
			Status: model.StatusIndexing,
		}
		if err := o.store.InsertSite(ctx, site); err != nil {
			return nil, fmt.Errorf("failed to insert site %s: %w", configured.URL, err)
		}
	}

	page, err := o.crawler.Refresh(ctx, site, u.RequestURI())
	if err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			o.setStatus(ctx, site, model.StatusFailed, err.Error())
		}
		return nil, fmt.Errorf("failed to index %s: %w", rawURL, err)
	}

	// A site being crawled by the current run gets its status from that run.
	if site.Status == model.StatusIndexing && o.Running() {
		return page, nil
	}
	o.setStatus(ctx, site, model.StatusIndexed, "")

	o.logger.Info("page indexed", "url", rawURL, "code", page.Code)
	return page, nil
}
