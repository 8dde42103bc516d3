// Package monitoring - savings.go persists per-request savings to SQLite.
//
// DESIGN: The in-memory Stats counters reset on restart; the savings
// ledger survives. One row per compressed request, plus a lifetime rollup
// queried at startup and shutdown. Disabled (nil store) when no path is
// configured.
package monitoring

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SavingsStore records compression savings in a SQLite database.
type SavingsStore struct {
	db *sql.DB
}

// LifetimeSavings is the all-time rollup across process restarts.
type LifetimeSavings struct {
	Requests       int64 `json:"requests"`
	TokensSaved    int64 `json:"tokens_saved"`
	OriginalTokens int64 `json:"original_tokens"`
}

// OpenSavings opens (or creates) the savings database at path.
// Pass ":memory:" for an in-memory database (used by tests).
func OpenSavings(path string) (*SavingsStore, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating savings directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening savings database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging savings database: %w", err)
	}

	// Single connection avoids "database is locked" under concurrent requests.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS savings (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id      TEXT NOT NULL,
		recorded_at     INTEGER NOT NULL,
		fragments       INTEGER NOT NULL,
		tokens_saved    INTEGER NOT NULL,
		original_tokens INTEGER NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating savings table: %w", err)
	}

	return &SavingsStore{db: db}, nil
}

// Record appends one request's savings. Requests with zero savings are
// not persisted; the ledger tracks realized savings only.
func (s *SavingsStore) Record(requestID string, fragments, tokensSaved, originalTokens int) error {
	if tokensSaved <= 0 {
		return nil
	}
	_, err := s.db.Exec(
		`INSERT INTO savings (request_id, recorded_at, fragments, tokens_saved, original_tokens)
		 VALUES (?, ?, ?, ?, ?)`,
		requestID, time.Now().Unix(), fragments, tokensSaved, originalTokens,
	)
	if err != nil {
		return fmt.Errorf("recording savings: %w", err)
	}
	return nil
}

// Lifetime returns the all-time savings rollup.
func (s *SavingsStore) Lifetime() (LifetimeSavings, error) {
	var lt LifetimeSavings
	row := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(tokens_saved), 0), COALESCE(SUM(original_tokens), 0) FROM savings`,
	)
	if err := row.Scan(&lt.Requests, &lt.TokensSaved, &lt.OriginalTokens); err != nil {
		return lt, fmt.Errorf("reading lifetime savings: %w", err)
	}
	return lt, nil
}

// Close closes the underlying database.
func (s *SavingsStore) Close() error {
	return s.db.Close()
}
