package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nao1215/sitesearch/internal/model"
)

// FindPage retrieves the page stored for (siteID, path).
// It returns nil when the path has never been fetched.
func (sdb *SearchDB) FindPage(ctx context.Context, siteID int64, path string) (*model.Page, error) {
	query := `SELECT id, site_id, path, code, content FROM page WHERE site_id = ? AND path = ?`

	var page model.Page
	err := sdb.db.QueryRowContext(ctx, query, siteID, path).Scan(
		&page.ID,
		&page.SiteID,
		&page.Path,
		&page.Code,
		&page.Content,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find page: %w", err)
	}
	return &page, nil
}

// SavePage inserts the page or overwrites the row already stored for
// (SiteID, Path), and sets page.ID. existed reports whether a row was
// overwritten, in which case the caller must retract its old index
// contribution.
func (sdb *SearchDB) SavePage(ctx context.Context, page *model.Page) (existed bool, err error) {
	err = sdb.InTx(ctx, func(tx *Tx) error {
		var id int64
		lookupErr := tx.tx.QueryRowContext(ctx,
			`SELECT id FROM page WHERE site_id = ? AND path = ?`, page.SiteID, page.Path,
		).Scan(&id)

		switch {
		case lookupErr == nil:
			existed = true
			page.ID = id
			_, err := tx.tx.ExecContext(ctx,
				`UPDATE page SET code = ?, content = ? WHERE id = ?`, page.Code, page.Content, id)
			return err
		case errors.Is(lookupErr, sql.ErrNoRows):
			result, err := tx.tx.ExecContext(ctx,
				`INSERT INTO page (site_id, path, code, content) VALUES (?, ?, ?, ?)`,
				page.SiteID, page.Path, page.Code, page.Content)
			if err != nil {
				return translateError(err)
			}
			page.ID, err = result.LastInsertId()
			return err
		default:
			return lookupErr
		}
	})
	if err != nil {
		return false, fmt.Errorf("failed to save page %s: %w", page.Path, err)
	}
	return existed, nil
}

// GetPages retrieves the pages with the given IDs. Unknown IDs are skipped
// and the result is ordered by ID.
func (sdb *SearchDB) GetPages(ctx context.Context, ids []int64) ([]*model.Page, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := `SELECT id, site_id, path, code, content FROM page WHERE id IN (` + placeholders(len(ids)) + `) ORDER BY id`
	rows, err := sdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get pages: %w", err)
	}
	defer rows.Close()

	pages := make([]*model.Page, 0, len(ids))
	for rows.Next() {
		var page model.Page
		if err := rows.Scan(&page.ID, &page.SiteID, &page.Path, &page.Code, &page.Content); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		pages = append(pages, &page)
	}
	return pages, rows.Err()
}

// CountPages returns the number of pages stored for siteID, or for every
// site when siteID is 0.
func (sdb *SearchDB) CountPages(ctx context.Context, siteID int64) (int, error) {
	return sdb.count(ctx, "page", siteID)
}

// CountLemmas returns the number of lemmas stored for siteID, or for every
// site when siteID is 0.
func (sdb *SearchDB) CountLemmas(ctx context.Context, siteID int64) (int, error) {
	return sdb.count(ctx, "lemma", siteID)
}

func (sdb *SearchDB) count(ctx context.Context, table string, siteID int64) (int, error) {
	query := `SELECT COUNT(*) FROM ` + table
	var args []any
	if siteID != 0 {
		query += ` WHERE site_id = ?`
		args = append(args, siteID)
	}

	var n int
	if err := sdb.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s rows: %w", table, err)
	}
	return n, nil
}
