package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nao1215/sitesearch/internal/model"
)

// Tx is a write transaction opened by SearchDB.InTx.
//
// Transactions begin with BEGIN IMMEDIATE, which takes the database write
// lock up front. A row read through a Tx therefore cannot change until the
// transaction ends, which is what LockLemma relies on.
type Tx struct {
	tx *sql.Tx
}

// LockLemma reads the lemma row for (siteID, lemma) under the transaction's
// write lock. It returns nil when the lemma does not exist yet.
func (t *Tx) LockLemma(ctx context.Context, siteID int64, lemma string) (*model.Lemma, error) {
	query := `SELECT id, site_id, lemma, frequency FROM lemma WHERE site_id = ? AND lemma = ?`

	var l model.Lemma
	err := t.tx.QueryRowContext(ctx, query, siteID, lemma).Scan(&l.ID, &l.SiteID, &l.Lemma, &l.Frequency)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock lemma: %w", err)
	}
	return &l, nil
}

// GetLemma reads a lemma by ID. It returns nil when the lemma does not exist.
func (t *Tx) GetLemma(ctx context.Context, lemmaID int64) (*model.Lemma, error) {
	query := `SELECT id, site_id, lemma, frequency FROM lemma WHERE id = ?`

	var l model.Lemma
	err := t.tx.QueryRowContext(ctx, query, lemmaID).Scan(&l.ID, &l.SiteID, &l.Lemma, &l.Frequency)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lemma: %w", err)
	}
	return &l, nil
}

// InsertLemma stores a new lemma and sets lemma.ID. It returns an error
// wrapping ErrConflict when another writer inserted the same
// (SiteID, Lemma) first.
func (t *Tx) InsertLemma(ctx context.Context, lemma *model.Lemma) error {
	result, err := t.tx.ExecContext(ctx,
		`INSERT INTO lemma (site_id, lemma, frequency) VALUES (?, ?, ?)`,
		lemma.SiteID, lemma.Lemma, lemma.Frequency)
	if err != nil {
		return fmt.Errorf("failed to insert lemma %q: %w", lemma.Lemma, translateError(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read lemma id: %w", err)
	}
	lemma.ID = id
	return nil
}

// AddLemmaFrequency adds delta (which may be negative) to a lemma's frequency.
func (t *Tx) AddLemmaFrequency(ctx context.Context, lemmaID int64, delta int) error {
	result, err := t.tx.ExecContext(ctx,
		`UPDATE lemma SET frequency = frequency + ? WHERE id = ?`, delta, lemmaID)
	if err != nil {
		return fmt.Errorf("failed to update lemma frequency: %w", err)
	}
	return expectAffected(result, "lemma")
}

// FindIndexEntry returns the entry for (pageID, lemmaID), or nil.
func (t *Tx) FindIndexEntry(ctx context.Context, pageID, lemmaID int64) (*model.IndexEntry, error) {
	query := `SELECT id, page_id, lemma_id, count FROM index_entry WHERE page_id = ? AND lemma_id = ?`

	var e model.IndexEntry
	err := t.tx.QueryRowContext(ctx, query, pageID, lemmaID).Scan(&e.ID, &e.PageID, &e.LemmaID, &e.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find index entry: %w", err)
	}
	return &e, nil
}

// SaveIndexEntry inserts the entry or overwrites the count stored for
// (PageID, LemmaID), and sets entry.ID.
func (t *Tx) SaveIndexEntry(ctx context.Context, entry *model.IndexEntry) error {
	query := `
	INSERT INTO index_entry (page_id, lemma_id, count)
	VALUES (?, ?, ?)
	ON CONFLICT(page_id, lemma_id) DO UPDATE SET count = excluded.count
	RETURNING id
	`

	if err := t.tx.QueryRowContext(ctx, query, entry.PageID, entry.LemmaID, entry.Count).Scan(&entry.ID); err != nil {
		return fmt.Errorf("failed to save index entry: %w", err)
	}
	return nil
}

// ListIndexEntriesByPage returns every index entry of pageID.
func (t *Tx) ListIndexEntriesByPage(ctx context.Context, pageID int64) ([]*model.IndexEntry, error) {
	query := `SELECT id, page_id, lemma_id, count FROM index_entry WHERE page_id = ? ORDER BY lemma_id`

	rows, err := t.tx.QueryContext(ctx, query, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list page entries: %w", err)
	}
	defer rows.Close()

	return scanIndexEntries(rows)
}

// DeleteIndexEntriesByPage removes every index entry of pageID and returns
// how many were removed.
func (t *Tx) DeleteIndexEntriesByPage(ctx context.Context, pageID int64) (int64, error) {
	result, err := t.tx.ExecContext(ctx, `DELETE FROM index_entry WHERE page_id = ?`, pageID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete page entries: %w", err)
	}
	return result.RowsAffected()
}
