package dblogged

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/marcogbarcellos/pgstudio/internal/infrastructure/database"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/logctx"
)

const (
	keyOperation  = "operation"
	keyParamCount = "paramCount"
	keyDuration   = "duration"
	keyDriver     = "driver"

	operationOpen     = "open"
	operationQuery    = "query"
	operationQueryRow = "query_row"
	operationExec     = "exec"
	operationConn     = "conn"
	operationPing     = "ping"
	operationClose    = "close"
)

var _ database.DB = (*DB)(nil)

// DB wraps sqlx and logs the duration and outcome of every call.
type DB struct {
	db     *sqlx.DB
	driver string
}

// Open opens a handle for driver and dsn. No connection is made until first use.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	ctx = logctx.WithFields(ctx, map[string]any{keyOperation: operationOpen, keyDriver: driver})
	var err error
	start := time.Now()
	defer func() {
		logFinish(ctx, start, err)
	}()
	var raw *sql.DB
	raw, err = sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	return New(raw, driver), nil
}

// New wraps an already opened handle.
func New(db *sql.DB, driver string) *DB {
	return &DB{db: sqlx.NewDb(db, driver), driver: driver}
}

// SQL exposes the underlying handle for tools that need *sql.DB, such as migrations.
func (d *DB) SQL() *sql.DB {
	return d.db.DB
}

// SetMaxOpenConns caps the pool.
func (d *DB) SetMaxOpenConns(n int) {
	d.db.SetMaxOpenConns(n)
	d.db.SetMaxIdleConns(n)
}

func (d *DB) GetContext(ctx context.Context, dest any, query string, args ...any) (err error) {
	start := time.Now()
	ctx = d.callContext(ctx, operationQueryRow, len(args))
	defer func() {
		logFinish(ctx, start, err)
	}()
	err = d.db.GetContext(ctx, dest, query, args...)
	return err
}

func (d *DB) SelectContext(ctx context.Context, dest any, query string, args ...any) (err error) {
	start := time.Now()
	ctx = d.callContext(ctx, operationQuery, len(args))
	defer func() {
		logFinish(ctx, start, err)
	}()
	err = d.db.SelectContext(ctx, dest, query, args...)
	return err
}

func (d *DB) QueryxContext(ctx context.Context, query string, args ...any) (rows *sqlx.Rows, err error) {
	start := time.Now()
	ctx = d.callContext(ctx, operationQuery, len(args))
	defer func() {
		logFinish(ctx, start, err)
	}()
	rows, err = d.db.QueryxContext(ctx, query, args...)
	return rows, err
}

func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (result sql.Result, err error) {
	start := time.Now()
	ctx = d.callContext(ctx, operationExec, len(args))
	defer func() {
		logFinish(ctx, start, err)
	}()
	result, err = d.db.ExecContext(ctx, query, args...)
	return result, err
}

func (d *DB) NamedExecContext(ctx context.Context, query string, arg any) (result sql.Result, err error) {
	start := time.Now()
	ctx = d.callContext(ctx, operationExec, 1)
	defer func() {
		logFinish(ctx, start, err)
	}()
	result, err = d.db.NamedExecContext(ctx, query, arg)
	return result, err
}

// Conn borrows a single connection from the pool. The caller must close it.
func (d *DB) Conn(ctx context.Context) (conn *sql.Conn, err error) {
	start := time.Now()
	ctx = d.callContext(ctx, operationConn, 0)
	defer func() {
		logFinish(ctx, start, err)
	}()
	conn, err = d.db.Conn(ctx)
	return conn, err
}

func (d *DB) PingContext(ctx context.Context) (err error) {
	start := time.Now()
	ctx = d.callContext(ctx, operationPing, 0)
	defer func() {
		logFinish(ctx, start, err)
	}()
	err = d.db.PingContext(ctx)
	return err
}

func (d *DB) Close() (err error) {
	start := time.Now()
	ctx := d.callContext(context.Background(), operationClose, 0)
	defer func() {
		logFinish(ctx, start, err)
	}()
	err = d.db.Close()
	return err
}

func (d *DB) callContext(ctx context.Context, operation string, paramCount int) context.Context {
	return logctx.WithAttrs(ctx,
		slog.String(keyOperation, operation),
		slog.Int(keyParamCount, paramCount),
		slog.String(keyDriver, d.driver),
	)
}

func logFinish(ctx context.Context, start time.Time, err error) {
	ctx = logctx.WithAttrs(ctx, slog.Duration(keyDuration, time.Since(start)))
	if err != nil && err != sql.ErrNoRows {
		slog.ErrorContext(ctx, "database call failed", slog.Any("err", err))
		return
	}
	slog.DebugContext(ctx, "db call finished")
}
