package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/sitesearch/internal/database"
	"github.com/nao1215/sitesearch/internal/lemma"
	"github.com/nao1215/sitesearch/internal/model"
)

// DefaultMaxRetries bounds how often a single lemma upsert is restarted
// after losing an insert race.
const DefaultMaxRetries = 8

// Store opens write transactions on the index.
type Store interface {
	InTx(ctx context.Context, fn func(tx *database.Tx) error) error
}

// Indexer applies and retracts page contributions to the lemma index.
type Indexer struct {
	store      Store
	lemmatizer *lemma.Lemmatizer
	workers    int
	maxRetries int
	logger     *slog.Logger
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithWorkers sets how many lemma upserts of one page run concurrently.
func WithWorkers(n int) Option {
	return func(ix *Indexer) {
		if n > 0 {
			ix.workers = n
		}
	}
}

// WithMaxRetries sets how often a conflicting lemma upsert is restarted.
func WithMaxRetries(n int) Option {
	return func(ix *Indexer) {
		if n >= 0 {
			ix.maxRetries = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Indexer) {
		ix.logger = logger
	}
}

// New creates an Indexer writing to store.
func New(store Store, lemmatizer *lemma.Lemmatizer, opts ...Option) *Indexer {
	ix := &Indexer{
		store:      store,
		lemmatizer: lemmatizer,
		workers:    runtime.NumCPU(),
		maxRetries: DefaultMaxRetries,
	}

	for _, opt := range opts {
		opt(ix)
	}

	if ix.logger == nil {
		ix.logger = slog.Default()
	}

	return ix
}

// Apply adds the lemmas of page.Content to the index of page.SiteID.
// The page must already be stored.
func (ix *Indexer) Apply(ctx context.Context, page *model.Page) error {
	counts := ix.lemmatizer.LemmasFrom(page.Content)
	if len(counts) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers)
	for text, count := range counts {
		g.Go(func() error {
			return ix.upsert(gctx, page, text, count)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to index page %d: %w", page.ID, err)
	}

	ix.logger.Debug("page indexed", "page", page.ID, "path", page.Path, "lemmas", len(counts))
	return nil
}

// upsert records count occurrences of text on page, restarting when the
// lemma insert conflicts with a concurrent writer.
func (ix *Indexer) upsert(ctx context.Context, page *model.Page, text string, count int) error {
	for attempt := 0; ; attempt++ {
		err := ix.store.InTx(ctx, func(tx *database.Tx) error {
			return upsertInTx(ctx, tx, page, text, count)
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, database.ErrConflict) || attempt >= ix.maxRetries {
			return fmt.Errorf("lemma %q: %w", text, err)
		}
		ix.logger.Debug("lemma insert conflict, retrying", "lemma", text, "attempt", attempt+1)
	}
}

func upsertInTx(ctx context.Context, tx *database.Tx, page *model.Page, text string, count int) error {
	l, err := tx.LockLemma(ctx, page.SiteID, text)
	if err != nil {
		return err
	}
	if l == nil {
		l = &model.Lemma{SiteID: page.SiteID, Lemma: text}
		if err := tx.InsertLemma(ctx, l); err != nil {
			return err
		}
	}

	entry, err := tx.FindIndexEntry(ctx, page.ID, l.ID)
	if err != nil {
		return err
	}
	if entry == nil {
		entry = &model.IndexEntry{PageID: page.ID, LemmaID: l.ID, Count: count}
		if err := tx.AddLemmaFrequency(ctx, l.ID, 1); err != nil {
			return err
		}
	} else {
		entry.Count += count
	}
	return tx.SaveIndexEntry(ctx, entry)
}

// Retract removes the index contribution of page: one frequency unit per
// referenced lemma, and every index entry of the page.
func (ix *Indexer) Retract(ctx context.Context, page *model.Page) error {
	var removed int64
	err := ix.store.InTx(ctx, func(tx *database.Tx) error {
		entries, err := tx.ListIndexEntriesByPage(ctx, page.ID)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := tx.AddLemmaFrequency(ctx, e.LemmaID, -1); err != nil {
				return err
			}
		}
		removed, err = tx.DeleteIndexEntriesByPage(ctx, page.ID)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to retract page %d: %w", page.ID, err)
	}

	ix.logger.Debug("page retracted", "page", page.ID, "path", page.Path, "entries", removed)
	return nil
}

// Reindex replaces the stored contribution of page with its current content.
func (ix *Indexer) Reindex(ctx context.Context, page *model.Page) error {
	if err := ix.Retract(ctx, page); err != nil {
		return err
	}
	return ix.Apply(ctx, page)
}
