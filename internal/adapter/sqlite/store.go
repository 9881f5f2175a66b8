// Package sqlite implements the definition registry on a local SQLite
// database.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS definitions (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	name TEXT NOT NULL,
	docker_repository TEXT NOT NULL,
	documentation_url TEXT NOT NULL DEFAULT '',
	support_state TEXT NOT NULL DEFAULT 'supported',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS default_versions (
	definition_id TEXT PRIMARY KEY,
	docker_image_tag TEXT NOT NULL,
	protocol_version TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS breaking_changes (
	definition_id TEXT NOT NULL,
	target_version TEXT NOT NULL,
	message TEXT NOT NULL,
	upgrade_deadline TEXT NOT NULL,
	migration_doc_url TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (definition_id, target_version)
);
CREATE TABLE IF NOT EXISTS actors (
	id TEXT PRIMARY KEY,
	definition_id TEXT NOT NULL,
	name TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// Store is the definition registry backed by SQLite. A Store is safe for
// concurrent reads; writes are serialized by SQLite's single-writer model.
type Store struct {
	db *sql.DB
}

// Open opens (and initializes) the registry database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create registry directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open registry db: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set registry db journal mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set registry db busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize registry schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
