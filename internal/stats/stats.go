// Package stats builds the read-only statistics rollup of the index.
package stats

import (
	"context"
	"fmt"

	"github.com/nao1215/sitesearch/internal/config"
	"github.com/nao1215/sitesearch/internal/model"
)

// Store is the subset of the storage layer read by statistics.
type Store interface {
	FindSiteByURL(ctx context.Context, siteURL string) (*model.Site, error)
	CountPages(ctx context.Context, siteID int64) (int, error)
	CountLemmas(ctx context.Context, siteID int64) (int, error)
}

// RunState reports whether a crawl run is in progress.
type RunState interface {
	Running() bool
}

// Service computes statistics for the configured sites.
type Service struct {
	store Store
	runs  RunState
	sites []config.Site
}

// NewService creates a Service. runs may be nil for processes that never
// crawl, in which case indexing is always reported as false.
func NewService(store Store, runs RunState, sites []config.Site) *Service {
	return &Service{store: store, runs: runs, sites: sites}
}

// Statistics returns totals and one entry per configured site, in
// configuration order. Sites never crawled are reported as WAIT.
func (s *Service) Statistics(ctx context.Context) (*model.Statistics, error) {
	stats := &model.Statistics{
		Total: model.TotalStatistics{
			Sites:    len(s.sites),
			Indexing: s.runs != nil && s.runs.Running(),
		},
		Detailed: make([]model.DetailedStatistics, 0, len(s.sites)),
	}

	for _, configured := range s.sites {
		detail, err := s.detail(ctx, configured)
		if err != nil {
			return nil, err
		}
		stats.Total.Pages += detail.Pages
		stats.Total.Lemmas += detail.Lemmas
		stats.Detailed = append(stats.Detailed, detail)
	}

	return stats, nil
}

func (s *Service) detail(ctx context.Context, configured config.Site) (model.DetailedStatistics, error) {
	detail := model.DetailedStatistics{
		URL:    configured.URL,
		Name:   configured.Name,
		Status: model.StatusWaiting,
	}

	site, err := s.store.FindSiteByURL(ctx, configured.URL)
	if err != nil {
		return detail, fmt.Errorf("failed to find site %s: %w", configured.URL, err)
	}
	if site == nil {
		return detail, nil
	}

	detail.Status = site.Status
	detail.StatusTime = site.StatusTime
	detail.Error = site.LastError

	if detail.Pages, err = s.store.CountPages(ctx, site.ID); err != nil {
		return detail, fmt.Errorf("failed to count pages of %s: %w", configured.URL, err)
	}
	if detail.Lemmas, err = s.store.CountLemmas(ctx, site.ID); err != nil {
		return detail, fmt.Errorf("failed to count lemmas of %s: %w", configured.URL, err)
	}
	return detail, nil
}
