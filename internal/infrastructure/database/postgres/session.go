package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/marcogbarcellos/pgstudio/internal/infrastructure/database/dblogged"
	"github.com/marcogbarcellos/pgstudio/internal/model"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/apperr"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/logctx"
	"github.com/marcogbarcellos/pgstudio/internal/service"
)

const driverName = "pgx"

var _ service.Session = (*Session)(nil)

// Session owns exactly one physical connection. database/sql queues
// concurrent callers on it and discards it once it is broken.
type Session struct {
	*Catalog

	id string
	db *dblogged.DB

	typeMu    sync.Mutex
	typeNames map[uint32]string
}

// Open connects to the server described by desc and verifies the connection.
func Open(ctx context.Context, desc model.ConnectionDescriptor) (*Session, error) {
	ctx = logctx.WithConnectionID(ctx, desc.ID)
	cfg, err := ConnConfig(desc)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, "invalid connection settings", err)
	}

	db := dblogged.New(stdlib.OpenDB(*cfg), driverName)
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, apperr.Wrap(apperr.Connection, fmt.Sprintf("failed to connect to %s:%d/%s", desc.Host, cfg.Port, desc.Database), err)
	}
	slog.InfoContext(ctx, "postgres session opened", slog.String("host", desc.Host), slog.String("database", desc.Database))

	return newSession(desc.ID, db), nil
}

// Opener adapts Open to service.SessionOpener.
func Opener(ctx context.Context, desc model.ConnectionDescriptor) (service.Session, error) {
	s, err := Open(ctx, desc)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func newSession(id string, db *dblogged.DB) *Session {
	return &Session{
		Catalog:   NewCatalog(db),
		id:        id,
		db:        db,
		typeNames: make(map[uint32]string),
	}
}

func (s *Session) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return apperr.Wrap(apperr.Connection, "session is no longer reachable", err)
	}
	return nil
}

func (s *Session) Close() error {
	return s.db.Close()
}

// ServerVersion returns the full version banner of the server.
func (s *Session) ServerVersion(ctx context.Context) (string, error) {
	var version string
	if err := s.db.GetContext(ctx, &version, "SELECT version()"); err != nil {
		return "", wrapQueryErr(ctx, "failed to read server version", err)
	}
	return version, nil
}

func (s *Session) cachedTypeName(oid uint32) (string, bool) {
	s.typeMu.Lock()
	defer s.typeMu.Unlock()
	name, ok := s.typeNames[oid]
	return name, ok
}

func (s *Session) cacheTypeName(oid uint32, name string) {
	s.typeMu.Lock()
	s.typeNames[oid] = name
	s.typeMu.Unlock()
}
