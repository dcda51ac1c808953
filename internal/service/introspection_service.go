package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/marcogbarcellos/pgstudio/internal/model"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/apperr"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/logctx"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/sqlutil"
)

const (
	defaultTablePageSize = 100
	defaultTopTables     = 10
)

// IntrospectionService reads catalog metadata through registered sessions.
// Nothing is cached; every call goes to the server.
type IntrospectionService struct {
	sessions SessionSource
	usage    UsageStore
	pageSize int64
}

// NewIntrospectionService creates the service. pageSize is the table-browse
// default when a request carries no limit (<= 0 uses 100).
func NewIntrospectionService(sessions SessionSource, usage UsageStore, pageSize int64) *IntrospectionService {
	if pageSize <= 0 {
		pageSize = defaultTablePageSize
	}
	return &IntrospectionService{sessions: sessions, usage: usage, pageSize: pageSize}
}

func (s *IntrospectionService) Databases(ctx context.Context, id string) ([]model.DatabaseInfo, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	return session.Databases(ctx)
}

func (s *IntrospectionService) Schemas(ctx context.Context, id string) ([]model.SchemaInfo, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	return session.Schemas(ctx)
}

func (s *IntrospectionService) Tables(ctx context.Context, id, schema string) ([]model.TableInfo, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	return session.Tables(ctx, schema)
}

func (s *IntrospectionService) Columns(ctx context.Context, id, schema, table string) ([]model.ColumnInfo, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	return session.Columns(ctx, schema, table)
}

func (s *IntrospectionService) Constraints(ctx context.Context, id, schema, table string) ([]model.ConstraintInfo, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	return session.Constraints(ctx, schema, table)
}

func (s *IntrospectionService) Indexes(ctx context.Context, id, schema, table string) ([]model.IndexInfo, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	return session.Indexes(ctx, schema, table)
}

func (s *IntrospectionService) Triggers(ctx context.Context, id, schema, table string) ([]model.TriggerInfo, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	return session.Triggers(ctx, schema, table)
}

func (s *IntrospectionService) Rules(ctx context.Context, id, schema, table string) ([]model.RuleInfo, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	return session.Rules(ctx, schema, table)
}

func (s *IntrospectionService) Policies(ctx context.Context, id, schema, table string) ([]model.PolicyInfo, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	return session.Policies(ctx, schema, table)
}

// TableDataSQL renders the paged browse query for req. Identifiers are
// quoted; the direction is DESC only when asked for.
func TableDataSQL(req model.TableDataRequest, defaultLimit int64) string {
	limit := defaultLimit
	if req.Limit != nil {
		limit = *req.Limit
	}
	var offset int64
	if req.Offset != nil {
		offset = *req.Offset
	}

	var order string
	if req.SortColumn != "" {
		dir := "ASC"
		if strings.EqualFold(req.SortDirection, "DESC") {
			dir = "DESC"
		}
		order = fmt.Sprintf(" ORDER BY %s %s", sqlutil.QuoteIdent(req.SortColumn), dir)
	}
	return fmt.Sprintf("SELECT * FROM %s%s LIMIT %d OFFSET %d",
		sqlutil.QualifiedName(req.Schema, req.Table), order, limit, offset)
}

// TableData returns one page of rows from a table and counts the visit in
// the usage statistics.
func (s *IntrospectionService) TableData(ctx context.Context, id string, req model.TableDataRequest) (*model.QueryResult, error) {
	if req.Schema == "" || req.Table == "" {
		return nil, apperr.New(apperr.InvalidInput, "schema and table are required")
	}
	if (req.Limit != nil && *req.Limit < 0) || (req.Offset != nil && *req.Offset < 0) {
		return nil, apperr.New(apperr.InvalidInput, "limit and offset cannot be negative")
	}
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}

	ctx = logctx.WithConnectionID(ctx, id)
	result, err := session.ExecuteQuery(ctx, TableDataSQL(req, s.pageSize))
	if err != nil {
		return nil, err
	}
	if s.usage != nil {
		if err := s.usage.RecordTableAccess(context.WithoutCancel(ctx), id, req.Schema, req.Table); err != nil {
			slog.WarnContext(ctx, "failed to record table access", slog.Any("err", err))
		}
	}
	return result, nil
}

// TopTables lists the most browsed tables for id.
func (s *IntrospectionService) TopTables(ctx context.Context, id string, limit int) ([]model.TableUsage, error) {
	if limit <= 0 {
		limit = defaultTopTables
	}
	return s.usage.TopTables(ctx, id, limit)
}

// BuildSchemaContext walks schemas, their base tables and views, and their
// columns. The first catalog error aborts the walk.
func (s *IntrospectionService) BuildSchemaContext(ctx context.Context, id string) (*model.SchemaContext, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}

	schemas, err := session.Schemas(ctx)
	if err != nil {
		return nil, err
	}

	out := &model.SchemaContext{Tables: []model.TableContext{}}
	for _, schema := range schemas {
		tables, err := session.Tables(ctx, schema.Name)
		if err != nil {
			return nil, err
		}
		for _, table := range tables {
			if !table.IsBaseTableOrView() {
				continue
			}
			columns, err := session.Columns(ctx, schema.Name, table.Name)
			if err != nil {
				return nil, err
			}
			tc := model.TableContext{
				Schema:  schema.Name,
				Name:    table.Name,
				Columns: make([]model.ColumnContext, 0, len(columns)),
			}
			for _, c := range columns {
				tc.Columns = append(tc.Columns, model.NewColumnContext(c))
			}
			out.Tables = append(out.Tables, tc)
		}
	}
	return out, nil
}
