// Package sqlite provides a single-file document store on modernc.org/sqlite.
//
// All document types share one table; (doc_type, number) carries the unique
// index the numerator relies on. Documents are stored as JSON payloads next to
// the few columns that are filtered and ordered on.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id            TEXT    PRIMARY KEY,
	doc_type      TEXT    NOT NULL,
	number        TEXT    NOT NULL,
	date          INTEGER NOT NULL,
	client_name   TEXT    NOT NULL DEFAULT '',
	deletion_mark INTEGER NOT NULL DEFAULT 0,
	version       INTEGER NOT NULL DEFAULT 1,
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL,
	payload       TEXT    NOT NULL,
	UNIQUE (doc_type, number)
);
CREATE INDEX IF NOT EXISTS idx_documents_created ON documents (doc_type, created_at DESC, id DESC);
CREATE INDEX IF NOT EXISTS idx_documents_date ON documents (doc_type, date DESC);
`

// Open opens (creating when needed) the database at path and applies the schema.
// ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		path = "billing.db"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite has a single writer; one connection also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return db, nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)"
}
