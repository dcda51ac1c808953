package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marcogbarcellos/pgstudio/internal/events"
	"github.com/marcogbarcellos/pgstudio/internal/infrastructure/credentials"
	"github.com/marcogbarcellos/pgstudio/internal/infrastructure/storage"
	"github.com/marcogbarcellos/pgstudio/internal/model"
)

// fakeSession is an in-memory Session. Zero value answers every call with
// empty results.
type fakeSession struct {
	desc model.ConnectionDescriptor

	mu      sync.Mutex
	closed  bool
	pingErr error
	queries []string

	query func(ctx context.Context, sql string) (*model.QueryResult, error)

	schemas   []model.SchemaInfo
	tables    map[string][]model.TableInfo
	columns   map[string][]model.ColumnInfo
	columnErr error
}

func (s *fakeSession) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("session closed")
	}
	return s.pingErr
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeSession) ServerVersion(context.Context) (string, error) {
	return "PostgreSQL 16.2", nil
}

func (s *fakeSession) ExecuteQuery(ctx context.Context, sql string) (*model.QueryResult, error) {
	s.mu.Lock()
	s.queries = append(s.queries, sql)
	query := s.query
	s.mu.Unlock()
	if query != nil {
		return query(ctx, sql)
	}
	return &model.QueryResult{Columns: []model.QueryColumn{}, Rows: [][]model.Value{}}, nil
}

func (s *fakeSession) executed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

func (s *fakeSession) Databases(context.Context) ([]model.DatabaseInfo, error) {
	return []model.DatabaseInfo{{Name: s.desc.Database, IsCurrent: true}}, nil
}

func (s *fakeSession) Schemas(context.Context) ([]model.SchemaInfo, error) {
	return s.schemas, nil
}

func (s *fakeSession) Tables(_ context.Context, schema string) ([]model.TableInfo, error) {
	return s.tables[schema], nil
}

func (s *fakeSession) Columns(_ context.Context, schema, table string) ([]model.ColumnInfo, error) {
	if s.columnErr != nil {
		return nil, s.columnErr
	}
	return s.columns[schema+"."+table], nil
}

func (s *fakeSession) Constraints(context.Context, string, string) ([]model.ConstraintInfo, error) {
	return []model.ConstraintInfo{}, nil
}

func (s *fakeSession) Indexes(context.Context, string, string) ([]model.IndexInfo, error) {
	return []model.IndexInfo{}, nil
}

func (s *fakeSession) Triggers(context.Context, string, string) ([]model.TriggerInfo, error) {
	return []model.TriggerInfo{}, nil
}

func (s *fakeSession) Rules(context.Context, string, string) ([]model.RuleInfo, error) {
	return []model.RuleInfo{}, nil
}

func (s *fakeSession) Policies(context.Context, string, string) ([]model.PolicyInfo, error) {
	return []model.PolicyInfo{}, nil
}

// fakeOpener records every descriptor it is asked to open.
type fakeOpener struct {
	mu       sync.Mutex
	opened   []model.ConnectionDescriptor
	sessions []*fakeSession
	err      error
	prepare  func(*fakeSession)
}

func (o *fakeOpener) open(_ context.Context, desc model.ConnectionDescriptor) (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened = append(o.opened, desc)
	if o.err != nil {
		return nil, o.err
	}
	s := &fakeSession{desc: desc}
	if o.prepare != nil {
		o.prepare(s)
	}
	o.sessions = append(o.sessions, s)
	return s, nil
}

func (o *fakeOpener) last() *fakeSession {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.sessions) == 0 {
		return nil
	}
	return o.sessions[len(o.sessions)-1]
}

// recorder captures published events.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(evt events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) named(name string) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) connectionStates(id string) []string {
	var out []string
	for _, e := range r.named(events.ConnectionStateEvent) {
		p := e.Payload.(events.ConnectionStatePayload)
		if p.ConnectionID == id {
			out = append(out, p.State)
		}
	}
	return out
}

func newStore(t *testing.T) *storage.Store {
	t.Helper()
	st, err := storage.Open(context.Background(), storage.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newSecrets() *credentials.Store {
	return credentials.NewMemory()
}

func testDescriptor(id string) model.ConnectionDescriptor {
	return model.ConnectionDescriptor{
		ID:       id,
		Name:     "Local " + id,
		Host:     "localhost",
		Port:     5432,
		Database: "appdb",
		User:     "postgres",
		Password: "pw-" + id,
		SSLMode:  model.SSLModePrefer,
	}
}
