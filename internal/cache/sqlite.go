// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

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
)

// SQLiteStore keeps entries in a SQLite file so memoized fetches survive
// restarts. Expiry is still decided by the Memo policy.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the cache database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite cache requires a path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS fetch_cache (
		key TEXT PRIMARY KEY,
		works TEXT NOT NULL,
		requests INTEGER NOT NULL,
		stored_at TEXT NOT NULL
	)`)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, key Key) (Entry, bool, error) {
	var (
		works    string
		storedAt string
		e        Entry
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT works, requests, stored_at FROM fetch_cache WHERE key = ?`, key.String(),
	).Scan(&works, &e.Requests, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("reading cache entry: %w", err)
	}

	if err := json.Unmarshal([]byte(works), &e.Works); err != nil {
		return Entry{}, false, fmt.Errorf("decoding cached works: %w", err)
	}
	if e.StoredAt, err = time.Parse(time.RFC3339Nano, storedAt); err != nil {
		return Entry{}, false, fmt.Errorf("parsing cache timestamp: %w", err)
	}
	return e, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key Key, e Entry) error {
	works, err := json.Marshal(e.Works)
	if err != nil {
		return fmt.Errorf("encoding works: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO fetch_cache (key, works, requests, stored_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET works = excluded.works,
			requests = excluded.requests, stored_at = excluded.stored_at`,
		key.String(), string(works), e.Requests, e.StoredAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
