package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver
)

// Store wraps one SQLite connection to the corpus database.
// Each ingestion worker opens its own Store; a Store is not safe for
// concurrent use by multiple goroutines.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger.With("component", "corpus-store")
		}
	}
}

// Open opens (creating if necessary) the corpus database at path and ensures
// the schema is present. The parent directory is created when missing.
func Open(path string, opts ...Option) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	// WAL keeps readers unblocked while a worker commits. _txlock=immediate
	// takes the write lock at BEGIN instead of on the first write, so a
	// transaction that loses the race queues on the busy handler; with the
	// default deferred mode the deferred-to-write upgrade fails with
	// SQLITE_BUSY without consulting busy_timeout at all.
	db, err := sql.Open("sqlite", path+"?_txlock=immediate&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:     db,
		path:   path,
		logger: slog.Default().With("component", "corpus-store"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}
