package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// timestampLayout is the format used for every DATETIME column written by this package.
const timestampLayout = time.RFC3339Nano

// New opens a SQLite database connection at the given path.
// Foreign keys are enabled on every pooled connection through the DSN.
func New(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate runs database migrations to create the required tables.
// It is idempotent and can be run multiple times safely.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			keywords TEXT NOT NULL DEFAULT '[]',
			disciplines TEXT NOT NULL DEFAULT '[]',
			actions TEXT NOT NULL DEFAULT '[]',
			essence TEXT NOT NULL DEFAULT '',
			core_idea TEXT NOT NULL DEFAULT '',
			action_items TEXT NOT NULL DEFAULT '',
			source_reference TEXT NOT NULL,
			scope TEXT NOT NULL CHECK (scope IN ('PRIVATE', 'GLOBAL')),
			owner_tenant INTEGER NOT NULL,
			has_raw INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			UNIQUE (source_reference, owner_tenant)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_notes_owner ON notes (owner_tenant, scope);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			parent_note_id TEXT NOT NULL,
			owner_tenant INTEGER NOT NULL,
			scope TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			content TEXT NOT NULL,
			content_hash TEXT NOT NULL,
			FOREIGN KEY (parent_note_id) REFERENCES notes(id) ON DELETE CASCADE,
			UNIQUE (parent_note_id, chunk_index)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_owner ON chunks (owner_tenant);`,
		`CREATE TABLE IF NOT EXISTS sources (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			url TEXT NOT NULL,
			owner_tenant INTEGER NOT NULL,
			scope TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			refresh_hours INTEGER NOT NULL DEFAULT 24,
			is_active INTEGER NOT NULL DEFAULT 1,
			last_crawled_at TEXT,
			error_count INTEGER NOT NULL DEFAULT 0,
			last_error TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			UNIQUE (url, owner_tenant)
		);`,
		`CREATE TABLE IF NOT EXISTS preferences (
			tenant INTEGER PRIMARY KEY,
			mode TEXT,
			tone TEXT,
			refinement_level TEXT,
			model TEXT,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS index_records (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL CHECK (kind IN ('note', 'chunk')),
			parent_id TEXT NOT NULL DEFAULT '',
			owner_tenant INTEGER NOT NULL,
			scope TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			content_hash TEXT NOT NULL,
			chunk_index INTEGER NOT NULL DEFAULT 0,
			vector BLOB NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_index_records_visibility ON index_records (kind, owner_tenant, scope);`,
		`CREATE INDEX IF NOT EXISTS idx_index_records_parent ON index_records (parent_id);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_index_records_chunk_hash
			ON index_records (owner_tenant, content_hash) WHERE kind = 'chunk';`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
	}

	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// parseTime accepts the package layout and the SQLite CURRENT_TIMESTAMP format.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", s)
}
