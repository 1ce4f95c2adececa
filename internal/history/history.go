// Package history keeps an append-only SQLite log of searches and
// download batches. It is an audit trail only: results are never served
// from it.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"codeberg.org/snonux/galleryexplorer/internal/search"
)

// SearchRecord is one completed search
type SearchRecord struct {
	ID      string
	Query   search.Query
	Results int
	Error   string
	At      time.Time
}

// DownloadRecord is one finished download batch
type DownloadRecord struct {
	ID        string
	Prefix    string
	Folder    string
	Requested int
	Succeeded int
	At        time.Time
}

// Store manages the history database
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// DefaultPath returns ~/.galleryexplorer/history.db
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".galleryexplorer", "history.db"), nil
}

// Open opens or creates the database at path
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer keeps sqlite from returning SQLITE_BUSY
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	const schema = `
		CREATE TABLE IF NOT EXISTS searches (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			engine TEXT NOT NULL,
			size TEXT NOT NULL,
			color TEXT NOT NULL,
			safe INTEGER NOT NULL,
			results INTEGER NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			at INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS downloads (
			id TEXT PRIMARY KEY,
			prefix TEXT NOT NULL,
			folder TEXT NOT NULL,
			requested INTEGER NOT NULL,
			succeeded INTEGER NOT NULL,
			at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_searches_at ON searches(at);
		CREATE INDEX IF NOT EXISTS idx_downloads_at ON downloads(at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// RecordSearch appends a search outcome. searchErr may be nil.
func (s *Store) RecordSearch(ctx context.Context, q search.Query, results int, searchErr error) (string, error) {
	id := uuid.NewString()
	msg := ""
	if searchErr != nil {
		msg = searchErr.Error()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO searches (id, query, engine, size, color, safe, results, error, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, q.Text, q.Engine.String(), q.Filters.Size.String(), q.Filters.Color.String(),
		q.Filters.SafeSearch, results, msg, s.now().UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to record search: %w", err)
	}
	return id, nil
}

// RecordDownload appends a finished download batch. An empty id gets a
// fresh one.
func (s *Store) RecordDownload(ctx context.Context, rec DownloadRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO downloads (id, prefix, folder, requested, succeeded, at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Prefix, rec.Folder, rec.Requested, rec.Succeeded, s.now().UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to record download: %w", err)
	}
	return rec.ID, nil
}

// RecentSearches returns up to limit searches, newest first
func (s *Store) RecentSearches(ctx context.Context, limit int) ([]SearchRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, query, engine, size, color, safe, results, error, at
		FROM searches ORDER BY at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query searches: %w", err)
	}
	defer rows.Close()

	var records []SearchRecord
	for rows.Next() {
		var (
			rec                 SearchRecord
			engine, size, color string
			at                  int64
		)
		if err := rows.Scan(&rec.ID, &rec.Query.Text, &engine, &size, &color,
			&rec.Query.Filters.SafeSearch, &rec.Results, &rec.Error, &at); err != nil {
			return nil, fmt.Errorf("failed to scan search: %w", err)
		}
		// values were written by String(), so parsing cannot fail
		rec.Query.Engine, _ = search.ParseEngine(engine)
		rec.Query.Filters.Size = search.ParseSize(size)
		rec.Query.Filters.Color = search.ParseColor(color)
		rec.At = time.Unix(0, at)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// RecentDownloads returns up to limit download batches, newest first
func (s *Store) RecentDownloads(ctx context.Context, limit int) ([]DownloadRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, prefix, folder, requested, succeeded, at
		FROM downloads ORDER BY at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query downloads: %w", err)
	}
	defer rows.Close()

	var records []DownloadRecord
	for rows.Next() {
		var (
			rec DownloadRecord
			at  int64
		)
		if err := rows.Scan(&rec.ID, &rec.Prefix, &rec.Folder, &rec.Requested, &rec.Succeeded, &at); err != nil {
			return nil, fmt.Errorf("failed to scan download: %w", err)
		}
		rec.At = time.Unix(0, at)
		records = append(records, rec)
	}
	return records, rows.Err()
}
