// Package seenstore keeps a small cross-run record of delivered item URLs so
// the same story is not mailed twice. It is an optional collaborator; the
// pipeline runs statelessly without it.
package seenstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"aidigest/internal/normalize"
)

const schema = `
CREATE TABLE IF NOT EXISTS seen_items (
    url        TEXT PRIMARY KEY,
    title      TEXT NOT NULL,
    first_seen TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_seen_first_seen ON seen_items(first_seen);
`

// Store wraps the sqlite database holding seen URLs.
type Store struct {
	db  *sql.DB
	ttl time.Duration
}

// Open opens (creating if needed) the store at path. A zero ttl keeps
// entries forever.
func Open(path string, ttl time.Duration) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("empty seen store path")
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, ttl: ttl}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Filter drops items whose URL was recorded within the TTL, preserving input
// order. Expired entries do not suppress items.
func (s *Store) Filter(ctx context.Context, items []normalize.NewsItem) ([]normalize.NewsItem, error) {
	if len(items) == 0 {
		return items, nil
	}
	seen, err := s.seenSet(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]normalize.NewsItem, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.URL]; ok {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

// MarkSent records delivered items and prunes entries older than the TTL.
func (s *Store) MarkSent(ctx context.Context, items []normalize.NewsItem, sentAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, it := range items {
		_, err := tx.ExecContext(ctx, `INSERT INTO seen_items (url, title, first_seen) VALUES (?, ?, ?)
            ON CONFLICT(url) DO NOTHING`,
			it.URL, it.Title, sentAt.UTC().Format(time.RFC3339))
		if err != nil {
			return err
		}
	}
	if s.ttl > 0 {
		cutoff := sentAt.Add(-s.ttl).UTC().Format(time.RFC3339)
		if _, err := tx.ExecContext(ctx, `DELETE FROM seen_items WHERE first_seen < ?`, cutoff); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) seenSet(ctx context.Context) (map[string]struct{}, error) {
	q := `SELECT url, first_seen FROM seen_items`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cutoff := time.Time{}
	if s.ttl > 0 {
		cutoff = time.Now().Add(-s.ttl)
	}
	seen := make(map[string]struct{})
	for rows.Next() {
		var url, firstSeen string
		if err := rows.Scan(&url, &firstSeen); err != nil {
			return nil, err
		}
		if !cutoff.IsZero() {
			if ts, err := time.Parse(time.RFC3339, firstSeen); err == nil && ts.Before(cutoff) {
				continue
			}
		}
		seen[url] = struct{}{}
	}
	return seen, rows.Err()
}
