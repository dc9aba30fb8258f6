package search

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"strings"

	"github.com/nao1215/sitesearch/internal/config"
	"github.com/nao1215/sitesearch/internal/lemma"
	"github.com/nao1215/sitesearch/internal/model"
)

// Store is the read-only subset of the storage layer used by searches.
type Store interface {
	FindSiteByURL(ctx context.Context, siteURL string) (*model.Site, error)
	FindLemmas(ctx context.Context, lemma string, siteID int64) ([]*model.Lemma, error)
	ListIndexEntriesByLemma(ctx context.Context, lemmaID int64) ([]*model.IndexEntry, error)
	GetPages(ctx context.Context, ids []int64) ([]*model.Page, error)
	CountPages(ctx context.Context, siteID int64) (int, error)
}

// Request is a single search.
type Request struct {
	// Query is the free text to search for.
	Query string

	// Site restricts the search to one configured site URL. Empty means all sites.
	Site string

	// Offset is the number of ranked results to skip.
	Offset int

	// Limit is the maximum number of results returned. Zero or less uses the
	// engine's default limit.
	Limit int
}

// Engine runs searches.
type Engine struct {
	store      Store
	lemmatizer *lemma.Lemmatizer
	sites      []config.Site
	logger     *slog.Logger

	threshold     float64
	pruneMinPages int
	segments      int
	defaultLimit  int
	workers       int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithFrequencyThreshold sets the share of pages in scope above which a
// lemma is dropped from the query. Values outside (0, 1] are ignored.
func WithFrequencyThreshold(threshold float64) Option {
	return func(e *Engine) {
		if threshold > 0 && threshold <= 1 {
			e.threshold = threshold
		}
	}
}

// WithPruneMinPages sets the scope size below which no lemma is dropped.
func WithPruneMinPages(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.pruneMinPages = n
		}
	}
}

// WithSnippetSegments sets the maximum number of text fragments per snippet.
func WithSnippetSegments(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.segments = n
		}
	}
}

// WithDefaultLimit sets the page size used when a request has no limit.
func WithDefaultLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.defaultLimit = n
		}
	}
}

// WithWorkers sets how many snippets are built concurrently.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// New creates an Engine searching the configured sites.
func New(store Store, lemmatizer *lemma.Lemmatizer, sites []config.Site, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		lemmatizer:    lemmatizer,
		sites:         sites,
		threshold:     config.DefaultFrequencyThreshold,
		pruneMinPages: config.DefaultPruneMinPages,
		segments:      config.DefaultSnippetSegments,
		defaultLimit:  config.DefaultSearchLimit,
		workers:       runtime.NumCPU(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}

	return e
}

// group is every Lemma row of one lemma text within the scope.
type group struct {
	text      string
	frequency int
	rows      []*model.Lemma
}

// candidate is a page that contains every surviving lemma.
type candidate struct {
	pageID   int64
	absolute int
	maxCount int
	relative float64
}

// Search runs req and returns one page of ranked results.
func (e *Engine) Search(ctx context.Context, req Request) (*model.SearchResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrEmptyQuery
	}

	scope, err := e.scope(ctx, req.Site)
	if err != nil {
		return nil, err
	}

	groups, err := e.resolve(ctx, req.Query, scope)
	if err != nil {
		return nil, err
	}

	groups, err = e.prune(ctx, groups, scope)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return emptyResponse(), nil
	}

	candidates, err := e.intersect(ctx, groups)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return emptyResponse(), nil
	}
	rank(candidates, len(groups))

	lemmas := make(map[string]bool, len(groups))
	for _, g := range groups {
		lemmas[g.text] = true
	}
	results, err := e.decorate(ctx, candidates, scope, lemmas)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("search finished",
		"query", req.Query,
		"site", req.Site,
		"lemmas", len(groups),
		"matches", len(results),
	)

	return paginate(results, req.Offset, e.limit(req.Limit)), nil
}

func emptyResponse() *model.SearchResponse {
	return &model.SearchResponse{Count: 0, Data: []model.SearchResult{}}
}

func (e *Engine) limit(requested int) int {
	if requested > 0 {
		return requested
	}
	return e.defaultLimit
}

// scope returns the sites a search covers, keyed by id. Every one of them
// must exist and be INDEXED.
func (e *Engine) scope(ctx context.Context, siteURL string) (map[int64]*model.Site, error) {
	urls := make([]string, 0, len(e.sites))
	if siteURL != "" {
		urls = append(urls, strings.TrimRight(strings.TrimSpace(siteURL), "/"))
	} else {
		for _, s := range e.sites {
			urls = append(urls, s.URL)
		}
	}
	if len(urls) == 0 {
		return nil, ErrIndexNotReady
	}

	scope := make(map[int64]*model.Site, len(urls))
	for _, u := range urls {
		site, err := e.store.FindSiteByURL(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("failed to find site %s: %w", u, err)
		}
		if site == nil || site.Status != model.StatusIndexed {
			return nil, fmt.Errorf("%w: %s", ErrIndexNotReady, u)
		}
		scope[site.ID] = site
	}
	return scope, nil
}

// scopeID is the siteID filter for storage queries: the only site, or 0 for all.
func scopeID(scope map[int64]*model.Site) int64 {
	if len(scope) != 1 {
		return 0
	}
	for id := range scope {
		return id
	}
	return 0
}

// resolve lemmatizes the query and groups the matching Lemma rows by text.
// A lemma without rows yields an empty group, which empties the intersection.
func (e *Engine) resolve(ctx context.Context, query string, scope map[int64]*model.Site) ([]*group, error) {
	texts := make([]string, 0)
	for text := range e.lemmatizer.LemmasFrom(query) {
		texts = append(texts, text)
	}
	slices.Sort(texts)

	groups := make([]*group, 0, len(texts))
	for _, text := range texts {
		rows, err := e.store.FindLemmas(ctx, text, scopeID(scope))
		if err != nil {
			return nil, fmt.Errorf("failed to find lemma %q: %w", text, err)
		}
		g := &group{text: text}
		for _, row := range rows {
			if _, ok := scope[row.SiteID]; !ok {
				continue
			}
			g.rows = append(g.rows, row)
			g.frequency += row.Frequency
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// prune drops lemmas that occur on too large a share of the pages in scope.
func (e *Engine) prune(ctx context.Context, groups []*group, scope map[int64]*model.Site) ([]*group, error) {
	pages := 0
	for id := range scope {
		n, err := e.store.CountPages(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to count pages: %w", err)
		}
		pages += n
	}
	if pages == 0 || pages < e.pruneMinPages {
		return groups, nil
	}

	kept := groups[:0]
	for _, g := range groups {
		if share := float64(g.frequency) / float64(pages); share > e.threshold {
			e.logger.Debug("lemma too common, dropped", "lemma", g.text, "share", share)
			continue
		}
		kept = append(kept, g)
	}
	return kept, nil
}

// intersect returns the pages present in the page set of every group,
// with their absolute relevance and highest single lemma count.
func (e *Engine) intersect(ctx context.Context, groups []*group) ([]*candidate, error) {
	slices.SortStableFunc(groups, func(a, b *group) int {
		return cmp.Compare(a.frequency, b.frequency)
	})

	var pages map[int64]*candidate
	for i, g := range groups {
		counts, err := e.pageCounts(ctx, g)
		if err != nil {
			return nil, err
		}

		if i == 0 {
			pages = make(map[int64]*candidate, len(counts))
			for pageID, count := range counts {
				pages[pageID] = &candidate{pageID: pageID, absolute: count, maxCount: count}
			}
		} else {
			for pageID, c := range pages {
				count, ok := counts[pageID]
				if !ok {
					delete(pages, pageID)
					continue
				}
				c.absolute += count
				c.maxCount = max(c.maxCount, count)
			}
		}

		if len(pages) == 0 {
			return nil, nil
		}
	}

	candidates := make([]*candidate, 0, len(pages))
	for _, c := range pages {
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// pageCounts returns the occurrence count of a group's lemma per page.
func (e *Engine) pageCounts(ctx context.Context, g *group) (map[int64]int, error) {
	counts := make(map[int64]int)
	for _, row := range g.rows {
		entries, err := e.store.ListIndexEntriesByLemma(ctx, row.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list index entries of %q: %w", g.text, err)
		}
		for _, entry := range entries {
			counts[entry.PageID] += entry.Count
		}
	}
	return counts, nil
}

// rank computes relative relevance and sorts candidates best first.
// relative = absolute / (highest single lemma count * number of lemmas),
// so a page where every lemma is equally frequent scores 1.
func rank(candidates []*candidate, lemmas int) {
	for _, c := range candidates {
		c.relative = float64(c.absolute) / float64(c.maxCount*lemmas)
	}
	slices.SortFunc(candidates, func(a, b *candidate) int {
		if c := cmp.Compare(b.relative, a.relative); c != 0 {
			return c
		}
		if c := cmp.Compare(b.absolute, a.absolute); c != 0 {
			return c
		}
		return cmp.Compare(a.pageID, b.pageID)
	})
}

func paginate(results []model.SearchResult, offset, limit int) *model.SearchResponse {
	resp := &model.SearchResponse{Count: len(results), Data: []model.SearchResult{}}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(results) {
		return resp
	}
	end := min(offset+limit, len(results))
	resp.Data = results[offset:end]
	return resp
}
