// Package storage persists everything pgstudio remembers between runs in a
// local SQLite database. Credentials are never written here.
package storage

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/marcogbarcellos/pgstudio/internal/infrastructure/database/dblogged"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/apperr"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	driverName = "sqlite"
	// MemoryPath opens a private in-memory database.
	MemoryPath = ":memory:"
)

type Store struct {
	db  *dblogged.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and applies pending
// migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := MemoryPath
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := dblogged.Open(ctx, driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	// One connection keeps in-memory databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	slog.InfoContext(ctx, "state database ready", slog.String("path", path))
	return s, nil
}

// Migrate applies all pending embedded migrations.
func (s *Store) Migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db.SQL(), fsys)
	if err != nil {
		return fmt.Errorf("failed to prepare migrations: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, r := range results {
		slog.DebugContext(ctx, "migration applied", slog.Int64("version", r.Source.Version), slog.Duration("duration", r.Duration))
	}
	return nil
}

// Version returns the current schema version.
func (s *Store) Version(ctx context.Context) (int64, error) {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return 0, fmt.Errorf("failed to load migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db.SQL(), fsys)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare migrations: %w", err)
	}
	return provider.GetDBVersion(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func storageErr(msg string, err error) error {
	return apperr.Wrap(apperr.Storage, msg, err)
}
