package service

import (
	"context"

	"github.com/marcogbarcellos/pgstudio/internal/model"
)

// Introspector reads catalog metadata through an open session.
type Introspector interface {
	Databases(ctx context.Context) ([]model.DatabaseInfo, error)
	Schemas(ctx context.Context) ([]model.SchemaInfo, error)
	Tables(ctx context.Context, schema string) ([]model.TableInfo, error)
	Columns(ctx context.Context, schema, table string) ([]model.ColumnInfo, error)
	Constraints(ctx context.Context, schema, table string) ([]model.ConstraintInfo, error)
	Indexes(ctx context.Context, schema, table string) ([]model.IndexInfo, error)
	Triggers(ctx context.Context, schema, table string) ([]model.TriggerInfo, error)
	Rules(ctx context.Context, schema, table string) ([]model.RuleInfo, error)
	Policies(ctx context.Context, schema, table string) ([]model.PolicyInfo, error)
}

// Session is one live, authenticated connection to a server. Calls from
// several goroutines are serialized by the session itself.
type Session interface {
	Ping(ctx context.Context) error
	Close() error
	ServerVersion(ctx context.Context) (string, error)
	// ExecuteQuery runs sql verbatim and materializes every row.
	ExecuteQuery(ctx context.Context, sql string) (*model.QueryResult, error)

	Introspector
}

// SessionOpener opens and verifies a session for desc.
type SessionOpener func(ctx context.Context, desc model.ConnectionDescriptor) (Session, error)
