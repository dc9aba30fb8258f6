package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/nao1215/sitesearch/internal/model"
)

// FileName is the database file created inside the configured directory.
const FileName = "sitesearch.db"

// SearchDB is the SQLite store for sites, pages, lemmas and index entries.
type SearchDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures SearchDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so readers do not block the writer.
	EnableWAL bool

	// BusyTimeout is how long a statement waits for a lock held by another
	// process before failing.
	BusyTimeout time.Duration
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
		BusyTimeout:       5 * time.Second,
	}
}

// Open opens or creates a SearchDB inside dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*SearchDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run a crawl first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", buildDSN(dbPath, opts))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer. A single connection also means a
	// statement issued outside a running transaction waits for it to end.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &SearchDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// buildDSN assembles the modernc.org/sqlite connection string.
// Foreign keys and the busy timeout are per-connection settings, so they are
// passed as _pragma parameters and reapplied whenever the pool reconnects.
func buildDSN(dbPath string, opts Options) string {
	mode := "rw"
	if opts.CreateIfNotExists {
		mode = "rwc"
	}

	params := []string{
		"mode=" + mode,
		"_txlock=immediate",
		"_pragma=foreign_keys(1)",
	}
	if opts.BusyTimeout > 0 {
		params = append(params, fmt.Sprintf("_pragma=busy_timeout(%d)", opts.BusyTimeout.Milliseconds()))
	}
	return dbPath + "?" + strings.Join(params, "&")
}

// Path returns the database file path.
func (sdb *SearchDB) Path() string {
	return sdb.dbPath
}

// Close closes the database connection.
func (sdb *SearchDB) Close() error {
	return sdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (sdb *SearchDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS site (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		status TEXT NOT NULL,
		last_error TEXT NOT NULL DEFAULT '',
		status_time TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_site_url ON site(url);

	-- One row per site-relative path; content is empty for failed fetches
	CREATE TABLE IF NOT EXISTS page (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		site_id INTEGER NOT NULL REFERENCES site(id) ON DELETE CASCADE,
		path TEXT NOT NULL,
		code INTEGER NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		UNIQUE(site_id, path)
	);

	CREATE TABLE IF NOT EXISTS lemma (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		site_id INTEGER NOT NULL REFERENCES site(id) ON DELETE CASCADE,
		lemma TEXT NOT NULL,
		frequency INTEGER NOT NULL DEFAULT 0,
		UNIQUE(site_id, lemma)
	);

	CREATE INDEX IF NOT EXISTS idx_lemma_text ON lemma(lemma);

	CREATE TABLE IF NOT EXISTS index_entry (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		page_id INTEGER NOT NULL REFERENCES page(id) ON DELETE CASCADE,
		lemma_id INTEGER NOT NULL REFERENCES lemma(id) ON DELETE CASCADE,
		count INTEGER NOT NULL,
		UNIQUE(page_id, lemma_id)
	);

	CREATE INDEX IF NOT EXISTS idx_index_entry_lemma ON index_entry(lemma_id);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// InTx runs fn inside a write transaction. The transaction commits when fn
// returns nil and rolls back otherwise. fn must only use tx: the pool holds a
// single connection, so touching the SearchDB from inside fn would block.
func (sdb *SearchDB) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&Tx{tx: sqlTx}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", translateError(err))
	}
	return nil
}

// InsertSite stores a new site row and sets site.ID.
// A zero StatusTime is replaced with the current time.
func (sdb *SearchDB) InsertSite(ctx context.Context, site *model.Site) error {
	if site.StatusTime.IsZero() {
		site.StatusTime = time.Now()
	}

	query := `
	INSERT INTO site (name, url, status, last_error, status_time)
	VALUES (?, ?, ?, ?, ?)
	`

	result, err := sdb.db.ExecContext(ctx, query,
		site.Name,
		site.URL,
		string(site.Status),
		site.LastError,
		formatTimestamp(site.StatusTime),
	)
	if err != nil {
		return fmt.Errorf("failed to insert site: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read site id: %w", err)
	}
	site.ID = id
	return nil
}

// UpdateSiteStatus changes a site's status and error message and refreshes
// its status time.
func (sdb *SearchDB) UpdateSiteStatus(ctx context.Context, siteID int64, status model.SiteStatus, lastError string) error {
	query := `UPDATE site SET status = ?, last_error = ?, status_time = ? WHERE id = ?`

	result, err := sdb.db.ExecContext(ctx, query, string(status), lastError, formatTimestamp(time.Now()), siteID)
	if err != nil {
		return fmt.Errorf("failed to update site status: %w", err)
	}
	return expectAffected(result, "site")
}

// TouchSite refreshes a site's status time without changing its status.
func (sdb *SearchDB) TouchSite(ctx context.Context, siteID int64) error {
	query := `UPDATE site SET status_time = ? WHERE id = ?`

	if _, err := sdb.db.ExecContext(ctx, query, formatTimestamp(time.Now()), siteID); err != nil {
		return fmt.Errorf("failed to touch site: %w", err)
	}
	return nil
}

// GetSite retrieves a site by ID. It returns nil when the site does not exist.
func (sdb *SearchDB) GetSite(ctx context.Context, siteID int64) (*model.Site, error) {
	query := `SELECT id, name, url, status, last_error, status_time FROM site WHERE id = ?`

	site, err := scanSite(sdb.db.QueryRowContext(ctx, query, siteID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get site: %w", err)
	}
	return site, nil
}

// FindSiteByURL retrieves the most recently created site with the given URL.
// It returns nil when no such site exists.
func (sdb *SearchDB) FindSiteByURL(ctx context.Context, siteURL string) (*model.Site, error) {
	query := `
	SELECT id, name, url, status, last_error, status_time
	FROM site
	WHERE url = ?
	ORDER BY id DESC
	LIMIT 1
	`

	site, err := scanSite(sdb.db.QueryRowContext(ctx, query, siteURL))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find site: %w", err)
	}
	return site, nil
}

// ListSites returns every stored site ordered by ID.
func (sdb *SearchDB) ListSites(ctx context.Context) ([]*model.Site, error) {
	query := `SELECT id, name, url, status, last_error, status_time FROM site ORDER BY id`

	rows, err := sdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []*model.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// DeleteSite removes a site together with its pages, lemmas and index entries.
func (sdb *SearchDB) DeleteSite(ctx context.Context, siteID int64) error {
	if _, err := sdb.db.ExecContext(ctx, `DELETE FROM site WHERE id = ?`, siteID); err != nil {
		return fmt.Errorf("failed to delete site: %w", err)
	}
	return nil
}

// DeleteSitesByURL removes every site whose URL is in urls, cascading to
// their pages, lemmas and index entries. It returns the number of sites removed.
func (sdb *SearchDB) DeleteSitesByURL(ctx context.Context, urls []string) (int64, error) {
	if len(urls) == 0 {
		return 0, nil
	}

	args := make([]any, len(urls))
	for i, u := range urls {
		args[i] = u
	}

	query := `DELETE FROM site WHERE url IN (` + placeholders(len(urls)) + `)`
	result, err := sdb.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sites: %w", err)
	}
	return result.RowsAffected()
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSite(row rowScanner) (*model.Site, error) {
	var site model.Site
	var status, statusTime string

	if err := row.Scan(&site.ID, &site.Name, &site.URL, &status, &site.LastError, &statusTime); err != nil {
		return nil, err
	}

	parsed, err := model.ParseSiteStatus(status)
	if err != nil {
		return nil, err
	}
	site.Status = parsed
	site.StatusTime = parseTimestamp(statusTime)
	return &site, nil
}

// placeholders returns "?, ?, ..." with n parameters.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func expectAffected(result sql.Result, table string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", table, ErrNotFound)
	}
	return nil
}

// translateError maps unique constraint violations to ErrConflict.
func translateError(err error) error {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY ||
			(code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), "UNIQUE")) {
			return fmt.Errorf("%w: %s", ErrConflict, sqliteErr.Error())
		}
	}
	return err
}

// timestampFormats contains the timestamp formats found in the database.
// The order matters: the format written by formatTimestamp comes first.
var timestampFormats = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
