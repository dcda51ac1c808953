package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/marcogbarcellos/pgstudio/internal/model"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/apperr"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/logctx"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/sqlutil"
)

const typeNameQuery = `SELECT typname FROM pg_type WHERE oid = $1`

// ExecuteQuery runs sql as a single unparameterized statement and returns
// every row. All columns are requested in text format so values that have
// no specific decoding rule come back exactly as the server renders them.
func (s *Session) ExecuteQuery(ctx context.Context, sql string) (*model.QueryResult, error) {
	ctx = logctx.WithFields(ctx, map[string]any{
		"connectionId": s.id,
		"statement":    sqlutil.LeadingKeyword(sql),
	})

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, wrapQueryErr(ctx, "failed to acquire session connection", err)
	}
	defer func() {
		_ = conn.Close()
	}()

	var (
		result *model.QueryResult
		lost   bool
	)
	err = conn.Raw(func(driverConn any) error {
		sc, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", driverConn)
		}
		pc := sc.Conn()
		var runErr error
		result, runErr = s.run(ctx, pc, sql)
		lost = runErr != nil && pc.IsClosed()
		return runErr
	})
	if err != nil {
		if lost && ctx.Err() == nil {
			return nil, apperr.Wrap(apperr.Connection, "connection lost while running query", err)
		}
		return nil, wrapQueryErr(ctx, "query failed", err)
	}

	slog.InfoContext(ctx, "query executed",
		slog.Int("rowCount", result.RowCount),
		slog.Int64("executionTimeMs", result.ExecutionTimeMs),
		slog.String("commandTag", result.CommandTag),
	)
	return result, nil
}

func (s *Session) run(ctx context.Context, pc *pgx.Conn, sql string) (*model.QueryResult, error) {
	start := time.Now()
	rows, err := pc.Query(ctx, sql, pgx.QueryExecModeDescribeExec, pgx.QueryResultFormats{pgx.TextFormatCode})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	typeMap := pc.TypeMap()
	data := make([][]model.Value, 0)
	for rows.Next() {
		raw := rows.RawValues()
		row := make([]model.Value, len(fields))
		for i, fd := range fields {
			var cell []byte
			if i < len(raw) {
				cell = raw[i]
			}
			row[i] = DecodeText(typeMap, fd.DataTypeOID, cell)
		}
		data = append(data, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	columns := make([]model.QueryColumn, len(fields))
	for i, fd := range fields {
		columns[i] = model.QueryColumn{
			Name:     fd.Name,
			DataType: s.typeName(ctx, pc, fd.DataTypeOID),
		}
	}

	return &model.QueryResult{
		Columns:         columns,
		Rows:            data,
		RowCount:        len(data),
		ExecutionTimeMs: elapsed.Milliseconds(),
		CommandTag:      rows.CommandTag().String(),
	}, nil
}

// typeName resolves the display name of a column type. Names outside the
// fixed set come from the connection's type map or, failing that, from
// pg_type, and are cached for the life of the session.
func (s *Session) typeName(ctx context.Context, pc *pgx.Conn, oid uint32) string {
	if name, ok := SemanticTypeName(oid); ok {
		return name
	}
	if name, ok := s.cachedTypeName(oid); ok {
		return name
	}
	if t, ok := pc.TypeMap().TypeForOID(oid); ok && t.Name != "" {
		s.cacheTypeName(oid, t.Name)
		return t.Name
	}
	var name string
	if err := pc.QueryRow(ctx, typeNameQuery, oid).Scan(&name); err != nil {
		slog.WarnContext(ctx, "failed to resolve column type name", slog.Any("oid", oid), slog.Any("err", err))
		return fmt.Sprintf("oid:%d", oid)
	}
	s.cacheTypeName(oid, name)
	return name
}

func wrapQueryErr(ctx context.Context, msg string, err error) error {
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr):
		return apperr.Wrap(apperr.Query, msg, err)
	case ctx.Err() != nil:
		return apperr.Wrap(apperr.Query, "query cancelled", err)
	case errors.Is(err, driver.ErrBadConn), pgconn.SafeToRetry(err):
		return apperr.Wrap(apperr.Connection, "connection lost", err)
	default:
		return apperr.Wrap(apperr.Query, msg, err)
	}
}
