package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// FetchLog provides SQLite-based storage for per-fetch diagnostics.
// It manages connection pooling and provides methods for recording and
// querying fetch attempts.
//
// Design decision: We use a single database file for all sessions
// rather than one file per session. This keeps cross-session queries
// (how often does this URL fail, how large is this site) trivial and
// simplifies cleanup.
type FetchLog struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures FetchLog behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a FetchLog at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*FetchLog, error) {
	dbPath := filepath.Join(dbDir, "sitevault.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("fetch log not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check fetch log path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create fetch log directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw to refuse creating new files and
	// mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open fetch log: %w", err)
	}

	// SQLite only supports one writer, and asset workers record
	// concurrently, so funnel everything through one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	log := &FetchLog{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := log.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return log, nil
}

// Close closes the database connection.
func (l *FetchLog) Close() error {
	return l.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (l *FetchLog) createTables() error {
	schema := `
	-- Fetch records store individual page and asset fetch attempts
	CREATE TABLE IF NOT EXISTS fetches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		domain TEXT NOT NULL,
		url TEXT NOT NULL,
		kind TEXT NOT NULL,
		status_code INTEGER,
		ok INTEGER NOT NULL DEFAULT 0,
		detail TEXT,
		bytes INTEGER,
		elapsed_ms INTEGER,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_fetches_session ON fetches(session_id);
	CREATE INDEX IF NOT EXISTS idx_fetches_url ON fetches(url);

	-- Session records summarize one completed archive session
	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		domain TEXT NOT NULL,
		start_url TEXT NOT NULL,
		pages INTEGER NOT NULL DEFAULT 0,
		assets INTEGER NOT NULL DEFAULT 0,
		asset_failures INTEGER NOT NULL DEFAULT 0,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(session_id, domain)
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_domain ON sessions(domain);
	CREATE INDEX IF NOT EXISTS idx_sessions_timestamp ON sessions(timestamp);
	`

	_, err := l.db.ExecContext(context.Background(), schema)
	return err
}

// FetchRecord represents one attempted fetch.
type FetchRecord struct {
	ID         int64
	SessionID  string
	Domain     string
	URL        string
	Kind       string
	StatusCode int
	OK         bool
	Detail     string
	Bytes      int64
	ElapsedMS  int64
	Timestamp  time.Time
}

// InsertFetchRecord appends one fetch attempt to the log.
func (l *FetchLog) InsertFetchRecord(ctx context.Context, record *FetchRecord) (int64, error) {
	query := `
	INSERT INTO fetches (session_id, domain, url, kind, status_code, ok, detail, bytes, elapsed_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := l.db.ExecContext(ctx, query,
		record.SessionID,
		record.Domain,
		record.URL,
		record.Kind,
		record.StatusCode,
		record.OK,
		record.Detail,
		record.Bytes,
		record.ElapsedMS,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert fetch record: %w", err)
	}

	return result.LastInsertId()
}

// SessionFetches returns every fetch attempt of a session in recording
// order.
func (l *FetchLog) SessionFetches(ctx context.Context, sessionID string) ([]FetchRecord, error) {
	query := `
	SELECT id, session_id, domain, url, kind, status_code, ok, detail, bytes, elapsed_ms, timestamp
	FROM fetches
	WHERE session_id = ?
	ORDER BY id
	`

	rows, err := l.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query fetches: %w", err)
	}
	defer rows.Close()

	var results []FetchRecord
	for rows.Next() {
		var record FetchRecord
		var timestamp string

		err := rows.Scan(
			&record.ID,
			&record.SessionID,
			&record.Domain,
			&record.URL,
			&record.Kind,
			&record.StatusCode,
			&record.OK,
			&record.Detail,
			&record.Bytes,
			&record.ElapsedMS,
			&timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fetch record: %w", err)
		}

		record.Timestamp = parseTimestamp(timestamp)
		results = append(results, record)
	}

	return results, rows.Err()
}

// FetchCount returns how often a URL was fetched within a session.
// A correct crawl never fetches the same page URL twice.
func (l *FetchLog) FetchCount(ctx context.Context, sessionID, url string) (int, error) {
	query := `
	SELECT COUNT(*) FROM fetches
	WHERE session_id = ? AND url = ?
	`

	var count int
	if err := l.db.QueryRowContext(ctx, query, sessionID, url).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count fetches: %w", err)
	}

	return count, nil
}

// SessionRecord summarizes one completed session.
type SessionRecord struct {
	ID            int64
	SessionID     string
	Domain        string
	StartURL      string
	Pages         int
	Assets        int
	AssetFailures int
	Timestamp     time.Time
}

// InsertSessionRecord inserts or updates a session summary.
// Uses UPSERT so re-recording a session id is idempotent.
func (l *FetchLog) InsertSessionRecord(ctx context.Context, record *SessionRecord) error {
	query := `
	INSERT INTO sessions (session_id, domain, start_url, pages, assets, asset_failures)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(session_id, domain) DO UPDATE SET
		start_url = excluded.start_url,
		pages = excluded.pages,
		assets = excluded.assets,
		asset_failures = excluded.asset_failures,
		timestamp = CURRENT_TIMESTAMP
	`

	_, err := l.db.ExecContext(ctx, query,
		record.SessionID,
		record.Domain,
		record.StartURL,
		record.Pages,
		record.Assets,
		record.AssetFailures,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session record: %w", err)
	}

	return nil
}

// RecentSessions returns the most recently recorded sessions, newest
// first.
func (l *FetchLog) RecentSessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	query := `
	SELECT id, session_id, domain, start_url, pages, assets, asset_failures, timestamp
	FROM sessions
	ORDER BY timestamp DESC, id DESC
	LIMIT ?
	`

	rows, err := l.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var results []SessionRecord
	for rows.Next() {
		var record SessionRecord
		var timestamp string

		err := rows.Scan(
			&record.ID,
			&record.SessionID,
			&record.Domain,
			&record.StartURL,
			&record.Pages,
			&record.Assets,
			&record.AssetFailures,
			&timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session record: %w", err)
		}

		record.Timestamp = parseTimestamp(timestamp)
		results = append(results, record)
	}

	return results, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
