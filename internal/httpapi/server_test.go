package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcogbarcellos/pgstudio/internal/events"
	"github.com/marcogbarcellos/pgstudio/internal/infrastructure/credentials"
	"github.com/marcogbarcellos/pgstudio/internal/infrastructure/pgtools"
	"github.com/marcogbarcellos/pgstudio/internal/infrastructure/storage"
	"github.com/marcogbarcellos/pgstudio/internal/model"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/apperr"
	"github.com/marcogbarcellos/pgstudio/internal/service"
	"github.com/marcogbarcellos/pgstudio/internal/testutil"
)

type fakeRunner struct{}

func (fakeRunner) Dump(_ context.Context, _ pgtools.Target, req model.DumpRequest) (model.ToolOutcome, error) {
	return model.ToolOutcome{Status: model.OutcomeSuccess, FilePath: req.OutputPath, SizeBytes: 42}, nil
}

func (fakeRunner) Restore(context.Context, pgtools.Target, model.RestoreRequest) (model.ToolOutcome, error) {
	return model.ToolOutcome{Status: model.OutcomeWarning, Stderr: "WARNING: errors ignored on restore: 1"}, nil
}

func (fakeRunner) Transfer(context.Context, pgtools.Target, pgtools.Target, model.TransferRequest) (model.ToolOutcome, error) {
	return model.ToolOutcome{Status: model.OutcomeSuccess}, nil
}

type fakeDetector struct{}

func (fakeDetector) Detect(context.Context) model.ToolsStatus {
	path := "/usr/bin/pg_dump"
	return model.ToolsStatus{DumpPath: &path}
}

type apiFixture struct {
	server *httptest.Server
	opener *testutil.StubOpener
	hub    *events.Hub
}

func newAPIFixture(t *testing.T) apiFixture {
	t.Helper()
	ctx := context.Background()
	st, err := storage.Open(ctx, storage.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	opener := &testutil.StubOpener{}
	hub := events.NewHub()
	t.Cleanup(hub.Close)

	svc := service.NewServices(service.Deps{
		RootCtx: ctx,
		Open: func(ctx context.Context, desc model.ConnectionDescriptor) (service.Session, error) {
			s, err := opener.Open(ctx, desc)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
		Store:    st,
		Secrets:  credentials.NewMemory(),
		Events:   hub,
		Runner:   fakeRunner{},
		Detector: fakeDetector{},
	})
	t.Cleanup(svc.Close)

	s := &Server{handler: NewHandler(svc), events: hub}
	srv := httptest.NewServer(s.buildMux())
	t.Cleanup(srv.Close)
	return apiFixture{server: srv, opener: opener, hub: hub}
}

func (f apiFixture) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, f.server.URL+path, rdr)
	require.NoError(t, err)
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (f apiFixture) saveConnection(t *testing.T, id string) {
	t.Helper()
	resp := f.do(t, http.MethodPut, "/connections/"+id, map[string]any{
		"name":     "Local",
		"host":     "localhost",
		"database": "appdb",
		"user":     "postgres",
		"password": "secret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)
	resp := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "ok", string(body))
}

func TestConnectionCRUD(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/connections", map[string]any{
		"name": "Local", "host": "localhost", "database": "appdb", "user": "postgres", "password": "secret",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")

	var created model.ConnectionRecord
	require.NoError(t, json.Unmarshal(raw, &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, 5432, created.Port)

	list := decodeBody[[]model.ConnectionRecord](t, f.do(t, http.MethodGet, "/connections", nil))
	require.Len(t, list, 1)

	resp = f.do(t, http.MethodDelete, "/connections/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/connections/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	payload := decodeBody[ErrorPayload](t, resp)
	assert.Equal(t, string(apperr.NotFound), payload.Code)
}

func TestInvalidBodies(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/connections", map[string]any{"bogus": true})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/connections", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, string(apperr.InvalidInput), decodeBody[ErrorPayload](t, resp).Code)

	resp = f.do(t, http.MethodGet, "/jobs/x/result?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQueryLifecycle(t *testing.T) {
	f := newAPIFixture(t)
	f.saveConnection(t, "c1")

	resp := f.do(t, http.MethodPost, "/connections/c1/queries", map[string]string{"sql": "SELECT 1"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, string(apperr.NotConnected), decodeBody[ErrorPayload](t, resp).Code)

	resp = f.do(t, http.MethodPost, "/connections/c1/connect", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "secret", f.opener.Session("c1").Desc.Password)

	resp = f.do(t, http.MethodPost, "/connections/c1/queries", map[string]string{"sql": "SELECT 1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decodeBody[model.QueryResult](t, resp)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "SELECT 1", result.Rows[0][0].Text)

	history := decodeBody[[]model.HistoryEntry](t, f.do(t, http.MethodGet, "/connections/c1/history", nil))
	require.Len(t, history, 1)
	assert.True(t, history[0].Success)

	active := decodeBody[[]service.ActiveConnection](t, f.do(t, http.MethodGet, "/connections/active", nil))
	require.Len(t, active, 1)
	assert.Equal(t, "appdb", active[0].Database)

	resp = f.do(t, http.MethodPost, "/connections/c1/disconnect", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.True(t, f.opener.Session("c1").Closed())
}

func TestQueryErrorKeepsServerText(t *testing.T) {
	f := newAPIFixture(t)
	f.opener.Query = func(context.Context, string) (*model.QueryResult, error) {
		return nil, apperr.Wrap(apperr.Query, "query failed", errString(`syntax error at or near "SELEC"`))
	}
	f.saveConnection(t, "c1")
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/connections/c1/connect", nil).StatusCode)

	resp := f.do(t, http.MethodPost, "/connections/c1/queries", map[string]string{"sql": "SELEC 1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	payload := decodeBody[ErrorPayload](t, resp)
	assert.Equal(t, string(apperr.Query), payload.Code)
	assert.Equal(t, `syntax error at or near "SELEC"`, payload.Message)
}

func TestAsyncJob(t *testing.T) {
	f := newAPIFixture(t)
	f.saveConnection(t, "c1")
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/connections/c1/connect", nil).StatusCode)

	resp := f.do(t, http.MethodPost, "/connections/c1/jobs", map[string]string{"sql": "SELECT 2"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	job := decodeBody[service.QueryJob](t, resp)
	require.NotEmpty(t, job.ID)

	deadline := time.Now().Add(2 * time.Second)
	for {
		current := decodeBody[service.QueryJob](t, f.do(t, http.MethodGet, "/jobs/"+job.ID, nil))
		if current.Status == service.JobStatusSuccess {
			break
		}
		require.True(t, time.Now().Before(deadline), "job still %s", current.Status)
		time.Sleep(10 * time.Millisecond)
	}

	view := decodeBody[service.QueryResultView](t, f.do(t, http.MethodGet, "/jobs/"+job.ID+"/result?limit=10", nil))
	assert.Equal(t, 1, view.RowCount)
	require.Len(t, view.Rows, 1)

	resp = f.do(t, http.MethodGet, "/jobs/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCatalogRoutes(t *testing.T) {
	f := newAPIFixture(t)
	f.saveConnection(t, "c1")
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/connections/c1/connect", nil).StatusCode)

	tables := decodeBody[[]model.TableInfo](t, f.do(t, http.MethodGet, "/connections/c1/schemas/public/tables", nil))
	require.Len(t, tables, 1)
	assert.Equal(t, "users", tables[0].Name)

	cols := decodeBody[[]model.ColumnInfo](t, f.do(t, http.MethodGet, "/connections/c1/schemas/public/tables/users/columns", nil))
	require.Len(t, cols, 1)

	resp := f.do(t, http.MethodGet, "/connections/c1/schemas/public/tables/users/bogus", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	data := decodeBody[model.QueryResult](t, f.do(t, http.MethodGet,
		"/connections/c1/schemas/public/tables/users/data?limit=5&offset=10&sort=id&direction=desc", nil))
	require.Len(t, data.Rows, 1)
	assert.Equal(t, `SELECT * FROM "public"."users" ORDER BY "id" DESC LIMIT 5 OFFSET 10`, data.Rows[0][0].Text)

	usage := decodeBody[[]model.TableUsage](t, f.do(t, http.MethodGet, "/connections/c1/usage", nil))
	require.Len(t, usage, 1)
	assert.Equal(t, int64(1), usage[0].AccessCount)

	schema := decodeBody[model.SchemaContext](t, f.do(t, http.MethodGet, "/connections/c1/schema-context", nil))
	require.Len(t, schema.Tables, 1)
	assert.Equal(t, "users", schema.Tables[0].Name)
}

func TestToolRoutes(t *testing.T) {
	f := newAPIFixture(t)
	f.saveConnection(t, "c1")

	status := decodeBody[model.ToolsStatus](t, f.do(t, http.MethodGet, "/tools", nil))
	require.NotNil(t, status.DumpPath)

	resp := f.do(t, http.MethodPost, "/dump", map[string]any{"connectionId": "c1", "outputPath": "/tmp/out.dump"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	outcome := decodeBody[model.ToolOutcome](t, resp)
	assert.Equal(t, model.OutcomeSuccess, outcome.Status)
	assert.Equal(t, "/tmp/out.dump", outcome.FilePath)

	resp = f.do(t, http.MethodPost, "/transfer", map[string]any{"sourceId": "c1", "targetId": "nope"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAIStatusUnconfigured(t *testing.T) {
	f := newAPIFixture(t)
	status := decodeBody[model.AIStatus](t, f.do(t, http.MethodGet, "/ai/status", nil))
	assert.False(t, status.Configured)

	resp := f.do(t, http.MethodPost, "/ai/chat", map[string]any{
		"schemaContext": map[string]any{"tables": []any{}},
		"message":       "hi",
	})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, string(apperr.AI), decodeBody[ErrorPayload](t, resp).Code)
}

func TestEventStream(t *testing.T) {
	f := newAPIFixture(t)
	f.saveConnection(t, "c1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.server.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream; charset=utf-8", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, ": connected\n", line)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/connections/c1/connect", nil).StatusCode)

	var eventName, data string
	for data == "" || !strings.Contains(data, `"connected"`) {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		switch {
		case strings.HasPrefix(line, "event: "):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		}
	}
	assert.Equal(t, events.ConnectionStateEvent, eventName)
	assert.Contains(t, data, `"connectionId":"c1"`)
}

type errString string

func (e errString) Error() string { return string(e) }
