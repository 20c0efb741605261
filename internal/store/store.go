// Package store exports an index snapshot and its diagnostics to SQLite so
// the corpus can be inspected with ordinary SQL tooling.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	_ "modernc.org/sqlite"
)

// Store is an open export database.
type Store struct {
	db *sql.DB
}

var (
	// ErrExportLocked indicates another process is writing the same export.
	ErrExportLocked = errors.New("export database is locked")
	// ErrIncompatible indicates the database was written by another version.
	ErrIncompatible = errors.New("export database has an incompatible schema version")
)

// CurrentVersion is the export schema version.
const CurrentVersion = 1

// DB returns the underlying sql.DB for ad-hoc queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Open opens an existing export database for reading.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &Store{db: db}
	version, err := s.Version()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read database version: %w", err)
	}
	if version != CurrentVersion {
		db.Close()
		return nil, fmt.Errorf("%w: got %d, want %d", ErrIncompatible, version, CurrentVersion)
	}
	return s, nil
}

// create opens path and creates the export tables.
func create(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenInMemory opens an empty in-memory database (for testing).
func OpenInMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// Every pooled connection would otherwise get its own empty database.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Version returns the schema version recorded in the meta table.
func (s *Store) Version() (int, error) {
	var v string
	if err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'version'`).Scan(&v); err != nil {
		return 0, err
	}
	return strconv.Atoi(v)
}

func (s *Store) initialize() error {
	ddl := `
		PRAGMA synchronous = OFF;
		PRAGMA temp_store = MEMORY;

		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS files (
			path TEXT PRIMARY KEY,
			category TEXT NOT NULL,
			hash TEXT NOT NULL,
			line_count INTEGER NOT NULL
		);

		-- One row per [Name] header; a name defined in several files has several rows
		CREATE TABLE IF NOT EXISTS sections (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			parent TEXT,
			file_path TEXT NOT NULL,
			line INTEGER NOT NULL,
			end_line INTEGER NOT NULL,
			name_start INTEGER NOT NULL,
			name_end INTEGER NOT NULL,
			key_count INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS refs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			value TEXT NOT NULL,
			section TEXT NOT NULL,
			key TEXT NOT NULL,
			defined INTEGER NOT NULL,      -- 1 when value names a defined section
			file_path TEXT NOT NULL,
			line INTEGER NOT NULL,
			position_start INTEGER NOT NULL,
			position_end INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS inheritance (
			category TEXT NOT NULL,
			child TEXT NOT NULL,
			parent TEXT NOT NULL,
			PRIMARY KEY (category, child)
		);

		CREATE TABLE IF NOT EXISTS registry_members (
			registry TEXT NOT NULL,
			type TEXT NOT NULL,
			id TEXT NOT NULL,
			position INTEGER NOT NULL,     -- first-seen order within the registry
			file_path TEXT NOT NULL,
			line INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS diagnostics (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			file_path TEXT NOT NULL,
			line INTEGER NOT NULL,
			character INTEGER NOT NULL,
			end_line INTEGER NOT NULL,
			end_character INTEGER NOT NULL,
			severity TEXT NOT NULL,
			code TEXT NOT NULL,
			message TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_sections_name ON sections(name);
		CREATE INDEX IF NOT EXISTS idx_sections_type ON sections(type);
		CREATE INDEX IF NOT EXISTS idx_refs_value ON refs(value);
		CREATE INDEX IF NOT EXISTS idx_refs_file ON refs(file_path);
		CREATE INDEX IF NOT EXISTS idx_registry_id ON registry_members(id);
		CREATE INDEX IF NOT EXISTS idx_diagnostics_file ON diagnostics(file_path);
		CREATE INDEX IF NOT EXISTS idx_diagnostics_code ON diagnostics(code);
	`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	_, err := s.db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('version', ?)`,
		strconv.Itoa(CurrentVersion))
	if err != nil {
		return fmt.Errorf("failed to set database version: %w", err)
	}
	return nil
}
