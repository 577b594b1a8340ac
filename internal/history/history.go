// Package history keeps a local log of save attempts in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/vburojevic/scrapbox-clip/internal/saver"
)

const schema = `
CREATE TABLE IF NOT EXISTS saves (
	id          TEXT PRIMARY KEY,
	project     TEXT NOT NULL,
	title       TEXT NOT NULL,
	source_url  TEXT NOT NULL,
	page_url    TEXT NOT NULL DEFAULT '',
	outcome     TEXT NOT NULL,
	error_kind  TEXT NOT NULL DEFAULT '',
	error       TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_saves_created_at ON saves(created_at);
`

type DB struct {
	*sql.DB
	path string
}

// Open opens or creates the history database at path. ":memory:" gives a
// private in-memory database.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create history dir: %w", err)
		}
	}
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: SQLite serialises writers anyway, and an in-memory
	// database exists per connection.
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	db := &DB{DB: sqlDB, path: path}
	if err := db.ensureSchemaExists(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

func (db *DB) Path() string { return db.path }

func (db *DB) ensureSchemaExists() error {
	_, err := db.Exec(schema)
	return err
}

// Record stores rec under a fresh id, unless rec already has one.
func (db *DB) Record(ctx context.Context, rec saver.Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO saves (id, project, title, source_url, page_url, outcome, error_kind, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Project, rec.Title, rec.SourceURL, rec.PageURL, rec.Outcome, rec.ErrorKind, rec.Error,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

// List returns up to limit entries, newest first. A limit of zero or less
// returns everything.
func (db *DB) List(ctx context.Context, limit int) ([]saver.Record, error) {
	q := `SELECT id, project, title, source_url, page_url, outcome, error_kind, error, created_at
		FROM saves ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []saver.Record
	for rows.Next() {
		var rec saver.Record
		var created string
		if err := rows.Scan(&rec.ID, &rec.Project, &rec.Title, &rec.SourceURL, &rec.PageURL,
			&rec.Outcome, &rec.ErrorKind, &rec.Error, &created); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		rec.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("bad created_at %q: %w", created, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Clear deletes every entry and returns how many were removed.
func (db *DB) Clear(ctx context.Context) (int64, error) {
	res, err := db.ExecContext(ctx, "DELETE FROM saves")
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	return res.RowsAffected()
}
