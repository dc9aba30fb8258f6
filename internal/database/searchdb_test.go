package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/sitesearch/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *SearchDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// insertTestSite stores an INDEXING site and returns it.
func insertTestSite(t *testing.T, db *SearchDB, siteURL string) *model.Site {
	t.Helper()

	site := &model.Site{Name: "test", URL: siteURL, Status: model.StatusIndexing}
	if err := db.InsertSite(context.Background(), site); err != nil {
		t.Fatalf("failed to insert site: %v", err)
	}
	return site
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		opts := DefaultOptions()
		opts.CreateIfNotExists = false
		if _, err := Open(filepath.Join(t.TempDir(), "missing"), opts); err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("reopening keeps data", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		insertTestSite(t, db, "https://example.com")
		_ = db.Close()

		opts := DefaultOptions()
		opts.CreateIfNotExists = false
		db, err = Open(dir, opts)
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer db.Close()

		sites, err := db.ListSites(context.Background())
		if err != nil {
			t.Fatalf("failed to list sites: %v", err)
		}
		if len(sites) != 1 {
			t.Errorf("expected 1 site, got %d", len(sites))
		}
	})
}

func TestSites(t *testing.T) {
	t.Parallel()

	t.Run("insert and find by URL", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		site := insertTestSite(t, db, "https://example.com")

		if site.ID == 0 {
			t.Fatal("expected site ID to be set")
		}

		found, err := db.FindSiteByURL(ctx, "https://example.com")
		if err != nil {
			t.Fatalf("failed to find site: %v", err)
		}
		if found == nil || found.ID != site.ID {
			t.Fatalf("expected site %d, got %+v", site.ID, found)
		}
		if found.Status != model.StatusIndexing {
			t.Errorf("expected INDEXING, got %s", found.Status)
		}
		if found.StatusTime.IsZero() {
			t.Error("expected status time to be set")
		}

		missing, err := db.FindSiteByURL(ctx, "https://other.example")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if missing != nil {
			t.Errorf("expected nil for unknown site, got %+v", missing)
		}
	})

	t.Run("update status records error and time", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		site := insertTestSite(t, db, "https://example.com")
		site.StatusTime = site.StatusTime.Add(-time.Hour)

		if err := db.UpdateSiteStatus(ctx, site.ID, model.StatusFailed, "stopped by user"); err != nil {
			t.Fatalf("failed to update status: %v", err)
		}

		got, err := db.GetSite(ctx, site.ID)
		if err != nil {
			t.Fatalf("failed to get site: %v", err)
		}
		if got.Status != model.StatusFailed || got.LastError != "stopped by user" {
			t.Errorf("unexpected site state %+v", got)
		}
		if !got.StatusTime.After(site.StatusTime) {
			t.Error("expected status time to advance")
		}
	})

	t.Run("update status of unknown site returns ErrNotFound", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		err := db.UpdateSiteStatus(context.Background(), 42, model.StatusIndexed, "")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("delete by URL cascades to pages and lemmas", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		site := insertTestSite(t, db, "https://example.com")
		other := insertTestSite(t, db, "https://other.example")

		page := &model.Page{SiteID: site.ID, Path: "/", Code: 200, Content: "<body>hi</body>"}
		if _, err := db.SavePage(ctx, page); err != nil {
			t.Fatalf("failed to save page: %v", err)
		}
		err := db.InTx(ctx, func(tx *Tx) error {
			lemma := &model.Lemma{SiteID: site.ID, Lemma: "hi", Frequency: 1}
			if err := tx.InsertLemma(ctx, lemma); err != nil {
				return err
			}
			return tx.SaveIndexEntry(ctx, &model.IndexEntry{PageID: page.ID, LemmaID: lemma.ID, Count: 1})
		})
		if err != nil {
			t.Fatalf("failed to index: %v", err)
		}

		n, err := db.DeleteSitesByURL(ctx, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("failed to delete sites: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 deleted site, got %d", n)
		}

		if pages, _ := db.CountPages(ctx, 0); pages != 0 {
			t.Errorf("expected pages to be cascaded, got %d", pages)
		}
		if lemmas, _ := db.CountLemmas(ctx, 0); lemmas != 0 {
			t.Errorf("expected lemmas to be cascaded, got %d", lemmas)
		}
		if remaining, _ := db.GetSite(ctx, other.ID); remaining == nil {
			t.Error("unrelated site should survive")
		}
	})
}

func TestSavePage(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	site := insertTestSite(t, db, "https://example.com")

	page := &model.Page{SiteID: site.ID, Path: "/about", Code: 200, Content: "<body>first</body>"}
	existed, err := db.SavePage(ctx, page)
	if err != nil {
		t.Fatalf("failed to save page: %v", err)
	}
	if existed {
		t.Error("first save should not report an existing page")
	}
	firstID := page.ID

	failed := &model.Page{SiteID: site.ID, Path: "/about", Code: 404}
	existed, err = db.SavePage(ctx, failed)
	if err != nil {
		t.Fatalf("failed to overwrite page: %v", err)
	}
	if !existed {
		t.Error("second save should report an existing page")
	}
	if failed.ID != firstID {
		t.Errorf("expected page to keep ID %d, got %d", firstID, failed.ID)
	}

	got, err := db.FindPage(ctx, site.ID, "/about")
	if err != nil {
		t.Fatalf("failed to find page: %v", err)
	}
	if got.Code != 404 || got.Content != "" {
		t.Errorf("expected overwritten failure page, got %+v", got)
	}

	if n, _ := db.CountPages(ctx, site.ID); n != 1 {
		t.Errorf("expected exactly one page row, got %d", n)
	}

	pages, err := db.GetPages(ctx, []int64{firstID, 999})
	if err != nil {
		t.Fatalf("failed to get pages: %v", err)
	}
	if len(pages) != 1 || pages[0].Path != "/about" {
		t.Errorf("unexpected pages %+v", pages)
	}
}

func TestLemmas(t *testing.T) {
	t.Parallel()

	t.Run("duplicate insert returns ErrConflict", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		site := insertTestSite(t, db, "https://example.com")

		insert := func() error {
			return db.InTx(ctx, func(tx *Tx) error {
				return tx.InsertLemma(ctx, &model.Lemma{SiteID: site.ID, Lemma: "leopard"})
			})
		}
		if err := insert(); err != nil {
			t.Fatalf("first insert failed: %v", err)
		}
		if err := insert(); !errors.Is(err, ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("find lemmas by text across and within sites", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		first := insertTestSite(t, db, "https://a.example")
		second := insertTestSite(t, db, "https://b.example")

		err := db.InTx(ctx, func(tx *Tx) error {
			for _, siteID := range []int64{first.ID, second.ID} {
				if err := tx.InsertLemma(ctx, &model.Lemma{SiteID: siteID, Lemma: "leopard"}); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			t.Fatalf("failed to insert lemmas: %v", err)
		}

		all, err := db.FindLemmas(ctx, "leopard", 0)
		if err != nil {
			t.Fatalf("failed to find lemmas: %v", err)
		}
		if len(all) != 2 {
			t.Errorf("expected 2 lemma rows, got %d", len(all))
		}

		scoped, err := db.FindLemmas(ctx, "leopard", second.ID)
		if err != nil {
			t.Fatalf("failed to find lemmas: %v", err)
		}
		if len(scoped) != 1 || scoped[0].SiteID != second.ID {
			t.Errorf("unexpected scoped lemmas %+v", scoped)
		}
	})

	t.Run("inconsistent lemmas are reported", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		site := insertTestSite(t, db, "https://example.com")
		page := &model.Page{SiteID: site.ID, Path: "/", Code: 200, Content: "x"}
		if _, err := db.SavePage(ctx, page); err != nil {
			t.Fatalf("failed to save page: %v", err)
		}

		err := db.InTx(ctx, func(tx *Tx) error {
			good := &model.Lemma{SiteID: site.ID, Lemma: "good", Frequency: 1}
			if err := tx.InsertLemma(ctx, good); err != nil {
				return err
			}
			if err := tx.SaveIndexEntry(ctx, &model.IndexEntry{PageID: page.ID, LemmaID: good.ID, Count: 3}); err != nil {
				return err
			}
			return tx.InsertLemma(ctx, &model.Lemma{SiteID: site.ID, Lemma: "bad", Frequency: 2})
		})
		if err != nil {
			t.Fatalf("failed to seed lemmas: %v", err)
		}

		drifts, err := db.InconsistentLemmas(ctx)
		if err != nil {
			t.Fatalf("failed to check lemmas: %v", err)
		}
		if len(drifts) != 1 {
			t.Fatalf("expected 1 drift, got %d", len(drifts))
		}
		if drifts[0].Lemma.Lemma != "bad" || drifts[0].Entries != 0 {
			t.Errorf("unexpected drift %+v", drifts[0])
		}
	})
}

func TestIndexEntries(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	site := insertTestSite(t, db, "https://example.com")
	page := &model.Page{SiteID: site.ID, Path: "/", Code: 200, Content: "x"}
	if _, err := db.SavePage(ctx, page); err != nil {
		t.Fatalf("failed to save page: %v", err)
	}

	var lemmaID int64
	err := db.InTx(ctx, func(tx *Tx) error {
		lemma := &model.Lemma{SiteID: site.ID, Lemma: "cat"}
		if err := tx.InsertLemma(ctx, lemma); err != nil {
			return err
		}
		lemmaID = lemma.ID
		if err := tx.AddLemmaFrequency(ctx, lemma.ID, 1); err != nil {
			return err
		}

		entry := &model.IndexEntry{PageID: page.ID, LemmaID: lemma.ID, Count: 2}
		if err := tx.SaveIndexEntry(ctx, entry); err != nil {
			return err
		}
		entry.Count = 5
		if err := tx.SaveIndexEntry(ctx, entry); err != nil {
			return err
		}

		found, err := tx.FindIndexEntry(ctx, page.ID, lemma.ID)
		if err != nil {
			return err
		}
		if found == nil || found.Count != 5 {
			t.Errorf("expected upserted count 5, got %+v", found)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}

	entries, err := db.ListIndexEntriesByLemma(ctx, lemmaID)
	if err != nil {
		t.Fatalf("failed to list entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	err = db.InTx(ctx, func(tx *Tx) error {
		n, err := tx.DeleteIndexEntriesByPage(ctx, page.ID)
		if err != nil {
			return err
		}
		if n != 1 {
			t.Errorf("expected 1 deleted entry, got %d", n)
		}
		return tx.AddLemmaFrequency(ctx, lemmaID, -1)
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}

	if drifts, _ := db.InconsistentLemmas(ctx); len(drifts) != 0 {
		t.Errorf("expected consistent index, got %+v", drifts)
	}
}

func TestInTxRollsBack(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	site := insertTestSite(t, db, "https://example.com")

	errBoom := errors.New("boom")
	err := db.InTx(ctx, func(tx *Tx) error {
		if err := tx.InsertLemma(ctx, &model.Lemma{SiteID: site.ID, Lemma: "temp"}); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}

	if n, _ := db.CountLemmas(ctx, site.ID); n != 0 {
		t.Errorf("expected rollback to discard lemma, got %d rows", n)
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)
	if got := parseTimestamp(formatTimestamp(now)); !got.Equal(now) {
		t.Errorf("expected %v, got %v", now, got)
	}
	if got := parseTimestamp("2025-03-01 12:30:00"); !got.Equal(now) {
		t.Errorf("expected SQLite format to parse, got %v", got)
	}
	if got := parseTimestamp("not a time"); !got.IsZero() {
		t.Errorf("expected zero time, got %v", got)
	}
}
