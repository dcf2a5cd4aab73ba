// Package storage caches document-parse payloads in SQLite, keyed by the
// SHA-256 of the document file. Remote digitization is slow and billable;
// policy documents rarely change, so a repeat run on the same file skips the
// upload entirely. Conversation state is never stored here.
package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotCached is returned when no payload exists for a document hash.
var ErrNotCached = errors.New("document not cached")

// Store wraps a SQLite database holding cached parse payloads.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the cache database in dataDir and applies pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (used by
// tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "polnav.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Single connection avoids "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for i, entry := range entries {
		version := i + 1
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") || version <= current {
			continue
		}
		script, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.Exec(string(script)); err != nil {
			return fmt.Errorf("applying migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// GetParsedDoc returns the cached payload JSON for a document hash, or
// ErrNotCached.
func (s *Store) GetParsedDoc(docHash string) (string, error) {
	var payload string
	err := s.db.QueryRow("SELECT payload FROM parsed_docs WHERE doc_hash = ?", docHash).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotCached
	}
	if err != nil {
		return "", fmt.Errorf("reading cached doc: %w", err)
	}
	return payload, nil
}

// PutParsedDoc stores (or replaces) the payload JSON for a document hash.
func (s *Store) PutParsedDoc(docHash, payload string) error {
	_, err := s.db.Exec(
		"INSERT INTO parsed_docs (doc_hash, payload) VALUES (?, ?) ON CONFLICT(doc_hash) DO UPDATE SET payload = excluded.payload",
		docHash, payload,
	)
	if err != nil {
		return fmt.Errorf("caching parsed doc: %w", err)
	}
	return nil
}
