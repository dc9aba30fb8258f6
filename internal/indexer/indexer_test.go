package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nao1215/sitesearch/internal/database"
	"github.com/nao1215/sitesearch/internal/lemma"
	"github.com/nao1215/sitesearch/internal/model"
)

type fixture struct {
	db      *database.SearchDB
	indexer *Indexer
	site    *model.Site
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	site := &model.Site{Name: "test", URL: "https://example.com", Status: model.StatusIndexing}
	if err := db.InsertSite(context.Background(), site); err != nil {
		t.Fatalf("failed to insert site: %v", err)
	}

	return &fixture{db: db, indexer: New(db, lemma.New(), opts...), site: site}
}

func (f *fixture) savePage(t *testing.T, path, content string) *model.Page {
	t.Helper()

	page := &model.Page{SiteID: f.site.ID, Path: path, Code: 200, Content: content}
	if _, err := f.db.SavePage(context.Background(), page); err != nil {
		t.Fatalf("failed to save page: %v", err)
	}
	return page
}

// lemmaState returns the frequency of text and its entry counts by page.
func (f *fixture) lemmaState(t *testing.T, text string) (int, map[int64]int) {
	t.Helper()

	ctx := context.Background()
	lemmas, err := f.db.FindLemmas(ctx, text, f.site.ID)
	if err != nil {
		t.Fatalf("failed to find lemma: %v", err)
	}
	if len(lemmas) == 0 {
		return -1, nil
	}
	if len(lemmas) > 1 {
		t.Fatalf("expected one lemma row for %q, got %d", text, len(lemmas))
	}

	entries, err := f.db.ListIndexEntriesByLemma(ctx, lemmas[0].ID)
	if err != nil {
		t.Fatalf("failed to list entries: %v", err)
	}
	counts := make(map[int64]int)
	for _, e := range entries {
		counts[e.PageID] = e.Count
	}
	return lemmas[0].Frequency, counts
}

func (f *fixture) assertConsistent(t *testing.T) {
	t.Helper()

	drifts, err := f.db.InconsistentLemmas(context.Background())
	if err != nil {
		t.Fatalf("failed to check consistency: %v", err)
	}
	if len(drifts) != 0 {
		t.Errorf("frequency drift: %+v", drifts)
	}
}

func TestApply(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	first := f.savePage(t, "/1", "<body>cats and a cat with a dog</body>")
	second := f.savePage(t, "/2", "<body>one more cat</body>")

	for _, page := range []*model.Page{first, second} {
		if err := f.indexer.Apply(ctx, page); err != nil {
			t.Fatalf("apply failed: %v", err)
		}
	}

	freq, counts := f.lemmaState(t, "cat")
	if freq != 2 {
		t.Errorf("expected cat frequency 2, got %d", freq)
	}
	if counts[first.ID] != 2 || counts[second.ID] != 1 {
		t.Errorf("unexpected cat counts %v", counts)
	}

	freq, counts = f.lemmaState(t, "dog")
	if freq != 1 || counts[first.ID] != 1 {
		t.Errorf("unexpected dog state: frequency %d, counts %v", freq, counts)
	}

	if freq, _ := f.lemmaState(t, "and"); freq != -1 {
		t.Error("function words must not be indexed")
	}

	f.assertConsistent(t)
}

func TestApplyThenRetract(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	page := f.savePage(t, "/", "<body>leopard леопарда</body>")
	if err := f.indexer.Apply(ctx, page); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if err := f.indexer.Retract(ctx, page); err != nil {
		t.Fatalf("retract failed: %v", err)
	}

	for _, text := range []string{"leopard", "леопард"} {
		freq, counts := f.lemmaState(t, text)
		if freq != 0 {
			t.Errorf("%s: expected frequency 0 after retract, got %d", text, freq)
		}
		if len(counts) != 0 {
			t.Errorf("%s: expected no entries after retract, got %v", text, counts)
		}
	}

	if n, _ := f.db.CountLemmas(ctx, f.site.ID); n != 2 {
		t.Errorf("lemma rows should survive retraction, got %d", n)
	}
	f.assertConsistent(t)
}

func TestReindexIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	page := f.savePage(t, "/", "<body>river river stone</body>")
	if err := f.indexer.Apply(ctx, page); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	for range 3 {
		if err := f.indexer.Reindex(ctx, page); err != nil {
			t.Fatalf("reindex failed: %v", err)
		}
	}

	freq, counts := f.lemmaState(t, "river")
	if freq != 1 || counts[page.ID] != 2 {
		t.Errorf("unexpected river state after reindex: frequency %d, counts %v", freq, counts)
	}

	page.Content = "<body>stone</body>"
	if err := f.indexer.Reindex(ctx, page); err != nil {
		t.Fatalf("reindex failed: %v", err)
	}
	if freq, _ := f.lemmaState(t, "river"); freq != 0 {
		t.Errorf("river should be retracted, got frequency %d", freq)
	}
	if freq, counts := f.lemmaState(t, "stone"); freq != 1 || counts[page.ID] != 1 {
		t.Errorf("unexpected stone state: frequency %d, counts %v", freq, counts)
	}

	f.assertConsistent(t)
}

func TestConcurrentApplySharesOneLemmaRow(t *testing.T) {
	t.Parallel()

	f := newFixture(t, WithWorkers(4))
	ctx := context.Background()

	const pages = 12
	list := make([]*model.Page, pages)
	for i := range pages {
		list[i] = f.savePage(t, fmt.Sprintf("/p%d", i), "<body>glacier melts, glacier cracks, glacier moves</body>")
	}

	var wg sync.WaitGroup
	errs := make(chan error, pages)
	for _, page := range list {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.indexer.Apply(ctx, page)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("apply failed: %v", err)
		}
	}

	// Frequency counts pages, not occurrences.
	freq, counts := f.lemmaState(t, "glacier")
	if freq != pages || len(counts) != pages {
		t.Errorf("expected frequency %d over %d pages, got %d over %d", pages, pages, freq, len(counts))
	}
	for id, count := range counts {
		if count != 3 {
			t.Errorf("page %d: expected count 3, got %d", id, count)
		}
	}
	f.assertConsistent(t)

	if err := f.indexer.Retract(ctx, list[0]); err != nil {
		t.Fatalf("retract failed: %v", err)
	}
	if freq, counts := f.lemmaState(t, "glacier"); freq != pages-1 || len(counts) != pages-1 {
		t.Errorf("expected frequency %d after retract, got %d over %d pages", pages-1, freq, len(counts))
	}
	f.assertConsistent(t)
}

// conflictingStore fails the first n transactions with ErrConflict.
type conflictingStore struct {
	db        *database.SearchDB
	conflicts atomic.Int32
	calls     atomic.Int32
}

func (s *conflictingStore) InTx(ctx context.Context, fn func(tx *database.Tx) error) error {
	s.calls.Add(1)
	if s.conflicts.Add(-1) >= 0 {
		return fmt.Errorf("insert lemma: %w", database.ErrConflict)
	}
	return s.db.InTx(ctx, fn)
}

func TestUpsertRetriesOnConflict(t *testing.T) {
	t.Parallel()

	t.Run("retries until the upsert succeeds", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		store := &conflictingStore{db: f.db}
		store.conflicts.Store(2)
		ix := New(store, lemma.New(), WithWorkers(1))

		page := f.savePage(t, "/", "<body>harbor</body>")
		if err := ix.Apply(context.Background(), page); err != nil {
			t.Fatalf("apply failed: %v", err)
		}
		if store.calls.Load() != 3 {
			t.Errorf("expected 3 transaction attempts, got %d", store.calls.Load())
		}
		if freq, _ := f.lemmaState(t, "harbor"); freq != 1 {
			t.Errorf("expected harbor frequency 1, got %d", freq)
		}
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		store := &conflictingStore{db: f.db}
		store.conflicts.Store(10)
		ix := New(store, lemma.New(), WithMaxRetries(1))

		page := f.savePage(t, "/", "<body>harbor</body>")
		err := ix.Apply(context.Background(), page)
		if !errors.Is(err, database.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
		if store.calls.Load() != 2 {
			t.Errorf("expected 2 attempts, got %d", store.calls.Load())
		}
	})
}
