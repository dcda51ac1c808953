package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/marcogbarcellos/pgstudio/internal/model"
)

// StubSession is an in-memory database session for surface tests. Query
// answers ExecuteQuery; without it every statement returns one row holding
// the statement text.
type StubSession struct {
	Desc      model.ConnectionDescriptor
	Query     func(ctx context.Context, sql string) (*model.QueryResult, error)
	TableList []model.TableInfo

	mu     sync.Mutex
	closed bool
}

// StubOpener opens StubSessions and keeps the last one per connection id.
type StubOpener struct {
	Err   error
	Query func(ctx context.Context, sql string) (*model.QueryResult, error)

	mu       sync.Mutex
	sessions map[string]*StubSession
}

func (o *StubOpener) Open(_ context.Context, desc model.ConnectionDescriptor) (*StubSession, error) {
	if o.Err != nil {
		return nil, o.Err
	}
	s := &StubSession{
		Desc:  desc,
		Query: o.Query,
		TableList: []model.TableInfo{
			{Schema: "public", Name: "users", TableType: model.TableTypeBase},
		},
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sessions == nil {
		o.sessions = make(map[string]*StubSession)
	}
	o.sessions[desc.ID] = s
	return s, nil
}

// Session returns the last session opened for id.
func (o *StubOpener) Session(id string) *StubSession {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessions[id]
}

func (s *StubSession) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("session closed")
	}
	return nil
}

func (s *StubSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *StubSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *StubSession) ServerVersion(context.Context) (string, error) {
	return "PostgreSQL 16.2", nil
}

func (s *StubSession) ExecuteQuery(ctx context.Context, sql string) (*model.QueryResult, error) {
	if s.Query != nil {
		return s.Query(ctx, sql)
	}
	return &model.QueryResult{
		Columns:    []model.QueryColumn{{Name: "sql", DataType: "text"}},
		Rows:       [][]model.Value{{model.Text(sql)}},
		RowCount:   1,
		CommandTag: "SELECT 1",
	}, nil
}

func (s *StubSession) Databases(context.Context) ([]model.DatabaseInfo, error) {
	return []model.DatabaseInfo{{Name: s.Desc.Database, IsCurrent: true}}, nil
}

func (s *StubSession) Schemas(context.Context) ([]model.SchemaInfo, error) {
	return []model.SchemaInfo{{Name: "public"}}, nil
}

func (s *StubSession) Tables(_ context.Context, schema string) ([]model.TableInfo, error) {
	var out []model.TableInfo
	for _, t := range s.TableList {
		if t.Schema == schema {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *StubSession) Columns(context.Context, string, string) ([]model.ColumnInfo, error) {
	return []model.ColumnInfo{{Name: "id", DataType: "integer", IsPrimaryKey: true}}, nil
}

func (s *StubSession) Constraints(context.Context, string, string) ([]model.ConstraintInfo, error) {
	return []model.ConstraintInfo{}, nil
}

func (s *StubSession) Indexes(context.Context, string, string) ([]model.IndexInfo, error) {
	return []model.IndexInfo{}, nil
}

func (s *StubSession) Triggers(context.Context, string, string) ([]model.TriggerInfo, error) {
	return []model.TriggerInfo{}, nil
}

func (s *StubSession) Rules(context.Context, string, string) ([]model.RuleInfo, error) {
	return []model.RuleInfo{}, nil
}

func (s *StubSession) Policies(context.Context, string, string) ([]model.PolicyInfo, error) {
	return []model.PolicyInfo{}, nil
}
