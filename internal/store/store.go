// Package store provides durable storage for the unit catalog and the
// conversion history log. Uses SQLite with schema migrations embedded in the
// binary.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/roach88/unitconv/internal/catalog"
	"github.com/roach88/unitconv/internal/model"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Store owns the single SQLite connection used by the catalog, history and
// settings operations.
type Store struct {
	db     *sql.DB
	now    func() time.Time
	logger *slog.Logger
	seed   *catalog.Document
}

// Option configures a Store at Open time.
type Option func(*Store)

// WithClock overrides the clock used to timestamp history records.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger for store diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithSeed replaces the catalog seeded into an empty database.
func WithSeed(doc *catalog.Document) Option {
	return func(s *Store) { s.seed = doc }
}

// Open creates or opens a SQLite database at the given path.
// Applies pragmas and migrations, then seeds the default catalog if the
// database has no categories.
//
// The database is configured with:
//   - WAL mode
//   - 5-second busy timeout
//   - Foreign key enforcement
//
// Every failure is reported as a STORAGE_UNAVAILABLE error.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.seed == nil {
		s.seed = catalog.Default()
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, model.NewStorageUnavailable("open database", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, model.NewStorageUnavailable("connect to database", err)
	}

	// SQLite only supports one writer at a time; a single connection also
	// keeps per-connection pragmas in effect for every statement.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, model.NewStorageUnavailable("apply pragmas", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, model.NewStorageUnavailable("apply migrations", err)
	}

	s.db = db

	if _, err := s.Seed(context.Background(), s.seed); err != nil {
		db.Close()
		return nil, model.NewStorageUnavailable("seed catalog", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// migrate runs all pending goose migrations from the embedded SQL files.
func migrate(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
