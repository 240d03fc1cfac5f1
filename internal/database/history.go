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

	"github.com/nao1215/ghsubfinder/internal/model"
)

// FileName is the database file created inside the data directory.
const FileName = "ghsubfinder.db"

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = errors.New("run not found")

// HistoryDB stores completed runs and the domains each one found.
//
// Design decision: Runs are stored as summary rows plus one row per
// domain rather than as a JSON blob. Comparing two runs is then a pair of
// indexed lookups, and ListTargets does not need to decode anything.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
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

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
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

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- One row per completed run
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		target TEXT NOT NULL,
		extended INTEGER NOT NULL DEFAULT 0,
		quick INTEGER NOT NULL DEFAULT 0,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		domain_count INTEGER NOT NULL DEFAULT 0,
		stats_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_target ON runs(target, started_at);

	-- Domains found by each run
	CREATE TABLE IF NOT EXISTS run_domains (
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		domain TEXT NOT NULL,
		PRIMARY KEY (run_id, domain)
	);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores report and its domains in one transaction and returns the
// new run id.
func (hdb *HistoryDB) SaveRun(ctx context.Context, report *model.RunReport) (id int64, err error) {
	statsJSON, err := json.Marshal(report.Stats)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize stats: %w", err)
	}

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
	INSERT INTO runs (target, extended, quick, started_at, finished_at, domain_count, stats_json)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		report.Target,
		report.Extended,
		report.Quick,
		formatTimestamp(report.StartedAt),
		formatTimestamp(report.FinishedAt),
		len(report.Domains),
		string(statsJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}

	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO run_domains (run_id, domain) VALUES (?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare domain insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range report.Domains {
		if _, err = stmt.ExecContext(ctx, id, d); err != nil {
			return 0, fmt.Errorf("failed to save domain %s: %w", d, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

// ListTargets returns every target with at least one stored run, sorted.
func (hdb *HistoryDB) ListTargets(ctx context.Context) ([]string, error) {
	rows, err := hdb.db.QueryContext(ctx, `SELECT DISTINCT target FROM runs ORDER BY target`)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	defer rows.Close()

	var targets []string
	for rows.Next() {
		var target string
		if err := rows.Scan(&target); err != nil {
			return nil, fmt.Errorf("failed to scan target: %w", err)
		}
		targets = append(targets, target)
	}

	return targets, rows.Err()
}

const runColumns = `id, target, extended, quick, started_at, finished_at, domain_count, stats_json`

// ListRuns returns all runs for target, newest first.
func (hdb *HistoryDB) ListRuns(ctx context.Context, target string) ([]model.RunSummary, error) {
	return hdb.LatestRuns(ctx, target, -1)
}

// LatestRuns returns up to n runs for target, newest first.
// A negative n returns all of them.
func (hdb *HistoryDB) LatestRuns(ctx context.Context, target string, n int) ([]model.RunSummary, error) {
	query := `SELECT ` + runColumns + ` FROM runs
	WHERE target = ?
	ORDER BY started_at DESC, id DESC
	LIMIT ?`

	rows, err := hdb.db.QueryContext(ctx, query, target, n)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []model.RunSummary
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// GetRun returns the run with id, or ErrRunNotFound.
func (hdb *HistoryDB) GetRun(ctx context.Context, id int64) (*model.RunSummary, error) {
	row := hdb.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// GetRunDomains returns the domains of run id, sorted.
func (hdb *HistoryDB) GetRunDomains(ctx context.Context, id int64) ([]string, error) {
	rows, err := hdb.db.QueryContext(ctx, `SELECT domain FROM run_domains WHERE run_id = ? ORDER BY domain`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get run domains: %w", err)
	}
	defer rows.Close()

	domains := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		domains = append(domains, d)
	}

	return domains, rows.Err()
}

// Diff compares the domains of two stored runs.
func (hdb *HistoryDB) Diff(ctx context.Context, baseID, headID int64) (*model.DomainDiff, error) {
	base, err := hdb.GetRun(ctx, baseID)
	if err != nil {
		return nil, err
	}
	head, err := hdb.GetRun(ctx, headID)
	if err != nil {
		return nil, err
	}

	baseDomains, err := hdb.GetRunDomains(ctx, baseID)
	if err != nil {
		return nil, err
	}
	headDomains, err := hdb.GetRunDomains(ctx, headID)
	if err != nil {
		return nil, err
	}

	added, removed, unchanged := model.DiffDomains(baseDomains, headDomains)
	return &model.DomainDiff{
		Target:    head.Target,
		Base:      *base,
		Head:      *head,
		Added:     added,
		Removed:   removed,
		Unchanged: unchanged,
	}, nil
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (model.RunSummary, error) {
	var run model.RunSummary
	var startedAt, finishedAt string
	var statsJSON sql.NullString

	err := row.Scan(
		&run.ID,
		&run.Target,
		&run.Extended,
		&run.Quick,
		&startedAt,
		&finishedAt,
		&run.DomainCount,
		&statsJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return run, err
	}
	if err != nil {
		return run, fmt.Errorf("failed to scan run: %w", err)
	}

	run.StartedAt = parseTimestamp(startedAt)
	run.FinishedAt = parseTimestamp(finishedAt)

	if statsJSON.Valid && statsJSON.String != "" {
		// Malformed stats leave the counters at zero.
		_ = json.Unmarshal([]byte(statsJSON.String), &run.Stats)
	}

	return run, nil
}

// formatTimestamp stores times in UTC with nanoseconds so that string
// ordering matches time ordering.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,          // Format written by formatTimestamp
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
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
