package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/seoscan/internal/model"
)

// FileName is the archive file created inside the data directory.
const FileName = "seoscan.db"

// Archive stores finished site results for later comparison.
// Crawls never read from it; it is written once per run, after the result
// has been aggregated.
type Archive struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Archive behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// ErrArchiveNotFound is returned by Open when the archive does not exist
// and CreateIfNotExists is false.
var ErrArchiveNotFound = errors.New("archive not found")

// Open opens or creates the archive in dbDir.
func Open(dbDir string, opts Options) (*Archive, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrArchiveNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	a := &Archive{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := a.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return a, nil
}

// Path returns the archive file path.
func (a *Archive) Path() string {
	return a.dbPath
}

// Close closes the database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

func (a *Archive) createTables() error {
	schema := `
	-- One row per analyzed site and run
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		site TEXT NOT NULL,
		started_at TEXT NOT NULL,
		total_time REAL NOT NULL,
		page_count INTEGER NOT NULL,
		warning_count INTEGER NOT NULL,
		error_count INTEGER NOT NULL,
		duplicate_groups INTEGER NOT NULL,
		result_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_site ON runs(site);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Pages of a run, for cheap comparisons without decoding result_json
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		title TEXT,
		content_hash TEXT NOT NULL,
		word_count INTEGER NOT NULL,
		warning_count INTEGER NOT NULL,
		UNIQUE(run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);
	`

	_, err := a.db.ExecContext(context.Background(), schema)
	return err
}

// RunMeta summarizes one archived run.
type RunMeta struct {
	ID              int64
	Site            string
	StartedAt       time.Time
	TotalTime       float64
	PageCount       int
	WarningCount    int
	ErrorCount      int
	DuplicateGroups int
}

// Run is an archived run together with its decoded result.
type Run struct {
	RunMeta
	Result *model.SiteResult
}

// PageSummary is the archived row of one page.
type PageSummary struct {
	URL          string
	Title        string
	ContentHash  string
	WordCount    int
	WarningCount int
}

// SaveRun archives result under its start URL. The run row and its page
// rows are written in one transaction.
func (a *Archive) SaveRun(ctx context.Context, result *model.SiteResult, startedAt time.Time) (int64, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize result: %w", err)
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, `
	INSERT INTO runs (site, started_at, total_time, page_count, warning_count, error_count, duplicate_groups, result_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		result.StartURL,
		startedAt.UTC().Format(time.RFC3339Nano),
		result.TotalTime,
		len(result.Pages),
		result.WarningCount(),
		len(result.Errors),
		len(result.DuplicatePages),
		string(resultJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO pages (run_id, url, title, content_hash, word_count, warning_count)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id, url) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare page insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range result.Pages {
		if p == nil {
			continue
		}
		if _, err := stmt.ExecContext(ctx, runID, p.URL, p.Title, p.ContentHash, p.WordCount, len(p.Warnings)); err != nil {
			return 0, fmt.Errorf("failed to insert page %s: %w", p.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

const runColumns = `id, site, started_at, total_time, page_count, warning_count, error_count, duplicate_groups`

func scanMeta(scan func(dest ...any) error, extra ...any) (RunMeta, error) {
	var meta RunMeta
	var startedAt string
	dest := append([]any{
		&meta.ID,
		&meta.Site,
		&startedAt,
		&meta.TotalTime,
		&meta.PageCount,
		&meta.WarningCount,
		&meta.ErrorCount,
		&meta.DuplicateGroups,
	}, extra...)
	if err := scan(dest...); err != nil {
		return RunMeta{}, err
	}
	meta.StartedAt = parseTimestamp(startedAt)
	return meta, nil
}

// GetLatestRuns returns up to n runs of site, newest first, with their
// decoded results.
func (a *Archive) GetLatestRuns(ctx context.Context, site string, n int) ([]*Run, error) {
	rows, err := a.db.QueryContext(ctx, `
	SELECT `+runColumns+`, result_json FROM runs
	WHERE site = ?
	ORDER BY started_at DESC, id DESC
	LIMIT ?
	`, site, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var resultJSON string
		meta, err := scanMeta(rows.Scan, &resultJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		var result model.SiteResult
		if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
			return nil, fmt.Errorf("failed to parse run %d: %w", meta.ID, err)
		}
		runs = append(runs, &Run{RunMeta: meta, Result: &result})
	}
	return runs, rows.Err()
}

// GetRunHistory returns run summaries of site, newest first.
// A limit of 0 or less returns every run.
func (a *Archive) GetRunHistory(ctx context.Context, site string, limit int) ([]RunMeta, error) {
	query := `
	SELECT ` + runColumns + ` FROM runs
	WHERE site = ?
	ORDER BY started_at DESC, id DESC
	`
	args := []any{site}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get run history: %w", err)
	}
	defer rows.Close()

	var history []RunMeta
	for rows.Next() {
		meta, err := scanMeta(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		history = append(history, meta)
	}
	return history, rows.Err()
}

// GetRunByID returns a run and its result, or nil when id is unknown.
func (a *Archive) GetRunByID(ctx context.Context, id int64) (*Run, error) {
	row := a.db.QueryRowContext(ctx, `
	SELECT `+runColumns+`, result_json FROM runs WHERE id = ?
	`, id)

	var resultJSON string
	meta, err := scanMeta(row.Scan, &resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var result model.SiteResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse run %d: %w", id, err)
	}
	return &Run{RunMeta: meta, Result: &result}, nil
}

// GetPages returns the archived page rows of a run ordered by URL.
func (a *Archive) GetPages(ctx context.Context, runID int64) ([]PageSummary, error) {
	rows, err := a.db.QueryContext(ctx, `
	SELECT url, title, content_hash, word_count, warning_count
	FROM pages
	WHERE run_id = ?
	ORDER BY url
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	var pages []PageSummary
	for rows.Next() {
		var p PageSummary
		var title sql.NullString
		if err := rows.Scan(&p.URL, &title, &p.ContentHash, &p.WordCount, &p.WarningCount); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		p.Title = title.String
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// ListSites returns every archived site in alphabetical order.
func (a *Archive) ListSites(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT DISTINCT site FROM runs ORDER BY site`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []string
	for rows.Next() {
		var site string
		if err := rows.Scan(&site); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp returns the zero time when s matches no known format.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
