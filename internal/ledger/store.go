package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"curator/internal/config"
)

// Store manages ledger persistence backed by SQLite.
type Store struct {
	db              *sql.DB
	path            string
	historyCapacity int
}

// Open initializes or connects to the ledger database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return open(cfg.DatabasePath(), cfg.History.Capacity, false)
}

// OpenReadOnly connects to an existing ledger database without write access.
// Presentation callers use this to read history and duplicate groups while
// the daemon keeps exclusive write ownership.
func OpenReadOnly(cfg *config.Config) (*Store, error) {
	if _, err := os.Stat(cfg.DatabasePath()); err != nil {
		return nil, fmt.Errorf("ledger database: %w", err)
	}
	return open(cfg.DatabasePath(), cfg.History.Capacity, true)
}

func open(dbPath string, historyCapacity int, readOnly bool) (*Store, error) {
	dsn := dbPath
	if readOnly {
		dsn = "file:" + dbPath + "?mode=ro"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	if readOnly {
		pragmas = pragmas[1:]
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, historyCapacity: historyCapacity}
	if !readOnly {
		if err := store.initSchema(context.Background()); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the on-disk location of the ledger database.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}
