package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Querier is the read side used by catalog queries.
type Querier interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
}

// DB is the full set of operations the logged wrapper delegates to.
type DB interface {
	Querier
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	Conn(ctx context.Context) (*sql.Conn, error)
	PingContext(ctx context.Context) error
	Close() error
}
