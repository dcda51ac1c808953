package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcogbarcellos/pgstudio/internal/model"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/apperr"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// tick makes every write of the store one second later than the previous one.
func tick(s *Store) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	s.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func TestMigrationsApplied(t *testing.T) {
	s := newTestStore(t)
	v, err := s.Version(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)

	require.NoError(t, s.Migrate(context.Background()))
}

func TestConnectionsCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	tick(s)
	color := "#ff0000"

	rec := model.ConnectionRecord{ID: "b", Name: "Beta", Host: "h", Port: 5432, Database: "d", User: "u", SSLMode: model.SSLModeRequire, Color: &color}
	require.NoError(t, s.SaveConnection(ctx, rec))
	require.NoError(t, s.SaveConnection(ctx, model.ConnectionRecord{ID: "a", Name: "Alpha", Host: "h", Port: 5433, Database: "d", User: "u", SSLMode: model.SSLModePrefer}))

	list, err := s.ListConnections(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alpha", list[0].Name)
	assert.Equal(t, model.SSLModeRequire, list[1].SSLMode)
	require.NotNil(t, list[1].Color)
	assert.Equal(t, color, *list[1].Color)

	first, err := s.GetConnection(ctx, "b")
	require.NoError(t, err)

	rec.Name = "Beta renamed"
	require.NoError(t, s.SaveConnection(ctx, rec))
	got, err := s.GetConnection(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "Beta renamed", got.Name)
	assert.True(t, first.CreatedAt.Equal(got.CreatedAt))

	require.NoError(t, s.DeleteConnection(ctx, "b"))
	require.NoError(t, s.DeleteConnection(ctx, "b"))
	_, err = s.GetConnection(ctx, "b")
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	tick(s)
	msg := `relation "nope" does not exist`

	_, err := s.AddHistory(ctx, model.HistoryEntry{ConnectionID: "c1", SQL: "SELECT * FROM orders", ExecutionTimeMs: 4, RowCount: 2, Success: true})
	require.NoError(t, err)
	_, err = s.AddHistory(ctx, model.HistoryEntry{ConnectionID: "c1", SQL: "SELECT * FROM nope", Success: false, ErrorMessage: &msg})
	require.NoError(t, err)
	lastID, err := s.AddHistory(ctx, model.HistoryEntry{ConnectionID: "c2", SQL: "SELECT * FROM orders", Success: true})
	require.NoError(t, err)

	c1, err := s.History(ctx, "c1", 50)
	require.NoError(t, err)
	require.Len(t, c1, 2)
	assert.Equal(t, "SELECT * FROM nope", c1[0].SQL)
	assert.False(t, c1[0].Success)
	require.NotNil(t, c1[0].ErrorMessage)
	assert.Equal(t, msg, *c1[0].ErrorMessage)

	all, err := s.AllHistory(ctx, 2)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, lastID, all[0].ID)

	found, err := s.SearchTableHistory(ctx, "c1", "orders", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.True(t, found[0].Success)

	none, err := s.SearchTableHistory(ctx, "c1", "nope", 10)
	require.NoError(t, err)
	assert.Empty(t, none)

	n, err := s.DeleteHistoryBySQL(ctx, "SELECT * FROM orders")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, s.DeleteHistory(ctx, c1[0].ID))
	all, err = s.AllHistory(ctx, 50)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSavedQueries(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	tick(s)
	conn := "c1"

	id1, err := s.SaveQuery(ctx, model.SavedQuery{Name: "first", SQL: "SELECT 1"})
	require.NoError(t, err)
	id2, err := s.SaveQuery(ctx, model.SavedQuery{Name: "second", SQL: "SELECT 2", ConnectionID: &conn})
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	list, err := s.SavedQueries(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Name)
	assert.Equal(t, conn, *list[0].ConnectionID)
	assert.Nil(t, list[1].ConnectionID)

	require.NoError(t, s.DeleteSavedQuery(ctx, id2))
	list, err = s.SavedQueries(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestTableUsage(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	tick(s)

	require.NoError(t, s.RecordTableAccess(ctx, "c1", "public", "orders"))
	require.NoError(t, s.RecordTableAccess(ctx, "c1", "public", "users"))
	require.NoError(t, s.RecordTableAccess(ctx, "c1", "public", "orders"))

	top, err := s.TopTables(ctx, "c1", 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "orders", top[0].Table)
	assert.EqualValues(t, 2, top[0].AccessCount)
}

func TestAIConfigAndPrompts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	tick(s)

	cfg, err := s.GetAIConfig(ctx)
	require.NoError(t, err)
	assert.Nil(t, cfg)

	require.NoError(t, s.SaveAIConfig(ctx, model.AIConfig{Provider: "anthropic", Model: "claude-sonnet-4-6"}))
	require.NoError(t, s.SaveAIConfig(ctx, model.AIConfig{Provider: "openai", Model: "gpt-4.1"}))
	cfg, err = s.GetAIConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, &model.AIConfig{Provider: "openai", Model: "gpt-4.1"}, cfg)

	require.NoError(t, s.SaveAIPrompt(ctx, "top customers", "SELECT 1"))
	require.NoError(t, s.SaveAIPrompt(ctx, "customers by country", "SELECT 2"))
	require.NoError(t, s.SaveAIPrompt(ctx, "top customers", "SELECT 3"))

	found, err := s.SearchAIPrompts(ctx, "customers", 5)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, model.AIPromptSuggestion{Prompt: "top customers", GeneratedSQL: "SELECT 3"}, found[0])
}
