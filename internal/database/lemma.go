package database

import (
	"context"
	"fmt"

	"github.com/nao1215/sitesearch/internal/model"
)

// FindLemmas returns the lemma rows whose text equals lemma, restricted to
// siteID unless it is 0. Each site holds at most one row per lemma.
func (sdb *SearchDB) FindLemmas(ctx context.Context, lemma string, siteID int64) ([]*model.Lemma, error) {
	query := `SELECT id, site_id, lemma, frequency FROM lemma WHERE lemma = ?`
	args := []any{lemma}
	if siteID != 0 {
		query += ` AND site_id = ?`
		args = append(args, siteID)
	}
	query += ` ORDER BY id`

	rows, err := sdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find lemmas: %w", err)
	}
	defer rows.Close()

	var lemmas []*model.Lemma
	for rows.Next() {
		var l model.Lemma
		if err := rows.Scan(&l.ID, &l.SiteID, &l.Lemma, &l.Frequency); err != nil {
			return nil, fmt.Errorf("failed to scan lemma: %w", err)
		}
		lemmas = append(lemmas, &l)
	}
	return lemmas, rows.Err()
}

// ListIndexEntriesByLemma returns every index entry referencing lemmaID.
func (sdb *SearchDB) ListIndexEntriesByLemma(ctx context.Context, lemmaID int64) ([]*model.IndexEntry, error) {
	query := `SELECT id, page_id, lemma_id, count FROM index_entry WHERE lemma_id = ? ORDER BY page_id`

	rows, err := sdb.db.QueryContext(ctx, query, lemmaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list index entries: %w", err)
	}
	defer rows.Close()

	return scanIndexEntries(rows)
}

// InconsistentLemmas lists lemmas whose frequency differs from the number of
// index entries that reference them. A healthy index returns none.
func (sdb *SearchDB) InconsistentLemmas(ctx context.Context) ([]model.LemmaDrift, error) {
	query := `
	SELECT l.id, l.site_id, l.lemma, l.frequency, COUNT(e.id) AS entries
	FROM lemma l
	LEFT JOIN index_entry e ON e.lemma_id = l.id
	GROUP BY l.id
	HAVING l.frequency != COUNT(e.id)
	ORDER BY l.id
	`

	rows, err := sdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to check lemma frequencies: %w", err)
	}
	defer rows.Close()

	var drifts []model.LemmaDrift
	for rows.Next() {
		var d model.LemmaDrift
		if err := rows.Scan(&d.Lemma.ID, &d.Lemma.SiteID, &d.Lemma.Lemma, &d.Lemma.Frequency, &d.Entries); err != nil {
			return nil, fmt.Errorf("failed to scan lemma drift: %w", err)
		}
		drifts = append(drifts, d)
	}
	return drifts, rows.Err()
}

type rowsScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanIndexEntries(rows rowsScanner) ([]*model.IndexEntry, error) {
	var entries []*model.IndexEntry
	for rows.Next() {
		var e model.IndexEntry
		if err := rows.Scan(&e.ID, &e.PageID, &e.LemmaID, &e.Count); err != nil {
			return nil, fmt.Errorf("failed to scan index entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
