// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists analysis verdicts with a TTL, keyed by substance
// name and analysis mode, behind a bounded in-memory front.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/safetycheck/pkg/types"
)

const dbFile = "verdicts.db"

// DefaultTTL is how long a stored verdict stays fresh.
const DefaultTTL = 24 * time.Hour

// Store is the SQLite verdict cache.
type Store struct {
	db  *sql.DB
	ttl time.Duration

	// now is replaceable in tests.
	now func() time.Time
}

// NewStore opens or creates the verdict database at cfg.Dir/verdicts.db and
// ensures the schema exists.
func NewStore(cfg types.CacheConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = ".safetycheck"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s := &Store{db: db, ttl: ttl, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS verdicts (
		name TEXT NOT NULL,
		mode TEXT NOT NULL,
		verdict TEXT NOT NULL,
		fetched_at TEXT NOT NULL,
		expires_at TEXT NOT NULL,
		PRIMARY KEY (name, mode)
	)`)
	return err
}

// Lookup returns the fresh verdict stored for (name, mode). An expired row
// is a miss; it stays in place until Prune removes it.
func (s *Store) Lookup(ctx context.Context, name string, mode types.AnalysisMode) (*types.SafetyVerdict, bool) {
	verdict, _, ok := s.lookupWithExpiry(ctx, name, mode)
	return verdict, ok
}

func (s *Store) lookupWithExpiry(ctx context.Context, name string, mode types.AnalysisMode) (*types.SafetyVerdict, time.Time, bool) {
	var payload string
	var expiresAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT verdict, expires_at FROM verdicts WHERE name = ? AND mode = ?`,
		name, string(mode)).Scan(&payload, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, false
	}
	if err != nil {
		return nil, time.Time{}, false
	}

	expiry, err := time.Parse(time.RFC3339, expiresAt)
	if err != nil || !s.now().Before(expiry) {
		return nil, time.Time{}, false
	}

	var verdict types.SafetyVerdict
	if err := json.Unmarshal([]byte(payload), &verdict); err != nil {
		return nil, time.Time{}, false
	}
	return &verdict, expiry, true
}

// Store upserts the verdict for (name, mode) with a fresh expiry. The last
// writer wins.
func (s *Store) Store(ctx context.Context, name string, mode types.AnalysisMode, verdict *types.SafetyVerdict) error {
	payload, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("encoding verdict: %w", err)
	}

	now := s.now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO verdicts (name, mode, verdict, fetched_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(name, mode) DO UPDATE SET
		   verdict = excluded.verdict,
		   fetched_at = excluded.fetched_at,
		   expires_at = excluded.expires_at`,
		name, string(mode), string(payload),
		now.Format(time.RFC3339), now.Add(s.ttl).Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("storing verdict: %w", err)
	}
	return nil
}

// Prune deletes expired rows and reports how many were removed.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM verdicts WHERE expires_at <= ?`, s.now().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("pruning cache: %w", err)
	}
	return res.RowsAffected()
}

// Stats holds entry counts for the stats command.
type Stats struct {
	Total   int
	ByMode  map[string]int
	Expired int
}

// Stats counts stored entries per mode and how many have expired.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{ByMode: map[string]int{}}

	rows, err := s.db.QueryContext(ctx, `SELECT mode, COUNT(*) FROM verdicts GROUP BY mode`)
	if err != nil {
		return stats, fmt.Errorf("counting cache entries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var mode string
		var n int
		if err := rows.Scan(&mode, &n); err != nil {
			return stats, err
		}
		stats.ByMode[mode] = n
		stats.Total += n
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM verdicts WHERE expires_at <= ?`,
		s.now().Format(time.RFC3339)).Scan(&stats.Expired)
	if err != nil {
		return stats, err
	}
	return stats, nil
}
