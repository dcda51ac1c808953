package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marcogbarcellos/pgstudio/internal/events"
	"github.com/marcogbarcellos/pgstudio/internal/model"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/apperr"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/cloneutil"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/logctx"
)

const (
	DefaultJobMaxRows      = 10000
	defaultHistoryLimit    = 50
	defaultTableHistoryLim = 10
)

// SessionSource hands out live sessions and verifies them after cancellation.
type SessionSource interface {
	Get(id string) (Session, error)
	Verify(ctx context.Context, id string) error
}

// QueryService runs SQL against registered sessions and records every
// attempt in the history.
type QueryService struct {
	sessions SessionSource
	history  HistoryStore
	saved    SavedQueryStore
	events   events.Publisher
	results  *ResultStore
	rootCtx  context.Context
	maxRows  int

	mu   sync.RWMutex
	jobs map[string]*QueryJob
}

// NewQueryService creates the service. rootCtx bounds every background job;
// maxRows caps rows kept per job result (<= 0 uses DefaultJobMaxRows).
func NewQueryService(rootCtx context.Context, sessions SessionSource, history HistoryStore, saved SavedQueryStore, publisher events.Publisher, maxRows int) *QueryService {
	if maxRows <= 0 {
		maxRows = DefaultJobMaxRows
	}
	return &QueryService{
		sessions: sessions,
		history:  history,
		saved:    saved,
		events:   publisher,
		results:  NewResultStore(),
		rootCtx:  rootCtx,
		maxRows:  maxRows,
		jobs:     make(map[string]*QueryJob),
	}
}

// Execute runs sql on the session for connectionID. Successful runs are
// recorded best effort; failed runs are recorded with the server's error text
// and zero duration and rows. A cancelled query leaves the session suspect,
// so it is verified and dropped if it no longer answers.
func (qs *QueryService) Execute(ctx context.Context, connectionID, sql string) (*model.QueryResult, error) {
	session, err := qs.sessions.Get(connectionID)
	if err != nil {
		return nil, err
	}

	ctx = logctx.WithConnectionID(ctx, connectionID)
	result, err := session.ExecuteQuery(ctx, sql)
	if err != nil {
		detail := apperr.Detail(err)
		qs.record(ctx, model.HistoryEntry{
			ConnectionID: connectionID,
			SQL:          sql,
			Success:      false,
			ErrorMessage: &detail,
		})
		if errors.Is(ctx.Err(), context.Canceled) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			qs.verifyAfterCancel(ctx, connectionID)
		}
		return nil, err
	}

	qs.record(ctx, model.HistoryEntry{
		ConnectionID:    connectionID,
		SQL:             sql,
		ExecutionTimeMs: result.ExecutionTimeMs,
		RowCount:        int64(result.RowCount),
		Success:         true,
	})
	return result, nil
}

func (qs *QueryService) record(ctx context.Context, entry model.HistoryEntry) {
	if qs.history == nil {
		return
	}
	if _, err := qs.history.AddHistory(context.WithoutCancel(ctx), entry); err != nil {
		slog.WarnContext(ctx, "failed to record query history", slog.Any("err", err))
	}
}

func (qs *QueryService) verifyAfterCancel(ctx context.Context, connectionID string) {
	if err := qs.sessions.Verify(context.WithoutCancel(ctx), connectionID); err != nil {
		slog.WarnContext(ctx, "session unusable after cancelled query", slog.Any("err", err))
	}
}

// Submit starts sql in the background and returns the job immediately.
func (qs *QueryService) Submit(ctx context.Context, connectionID, sql string) (*QueryJob, error) {
	if strings.TrimSpace(sql) == "" {
		return nil, apperr.New(apperr.InvalidInput, "sql is required")
	}
	if _, err := qs.sessions.Get(connectionID); err != nil {
		return nil, err
	}

	jobCtx, cancel := context.WithCancel(qs.rootCtx)
	jobCtx = logctx.WithAttrs(jobCtx, logctx.Attrs(ctx)...)
	job := &QueryJob{
		ID:           uuid.NewString(),
		ConnectionID: connectionID,
		SQL:          sql,
		Status:       JobStatusRunning,
		CreatedAt:    time.Now(),
		cancel:       cancel,
	}

	snapshot := *job
	qs.mu.Lock()
	qs.jobs[job.ID] = job
	qs.mu.Unlock()

	go qs.runJob(jobCtx, job)
	return &snapshot, nil
}

// Job returns a snapshot of a running or finished job.
func (qs *QueryService) Job(jobID string) (*QueryJob, bool) {
	qs.mu.RLock()
	defer qs.mu.RUnlock()
	job, ok := qs.jobs[jobID]
	if !ok {
		return nil, false
	}
	snapshot := *job
	return &snapshot, true
}

// Cancel stops a running job.
func (qs *QueryService) Cancel(jobID string) error {
	qs.mu.RLock()
	job, ok := qs.jobs[jobID]
	qs.mu.RUnlock()
	if !ok {
		return apperr.Newf(apperr.NotFound, "query job '%s' not found", jobID)
	}
	job.cancel()
	return nil
}

// Result returns a page of a finished job's rows. A nil limit returns every
// stored row.
func (qs *QueryService) Result(jobID string, limit, offset *int) (*QueryResultView, error) {
	stored, ok := qs.results.Get(jobID)
	if !ok {
		if _, running := qs.Job(jobID); running {
			return nil, apperr.Newf(apperr.InvalidInput, "query job '%s' is still running", jobID)
		}
		return nil, apperr.Newf(apperr.NotFound, "query result '%s' not found", jobID)
	}
	if offset != nil && *offset < 0 {
		return nil, apperr.New(apperr.InvalidInput, "offset cannot be negative")
	}
	if limit != nil && *limit <= 0 {
		return nil, apperr.New(apperr.InvalidInput, "limit must be positive")
	}

	view := &QueryResultView{
		JobID:     stored.JobID,
		Status:    stored.Status,
		Columns:   []model.QueryColumn{},
		Rows:      [][]model.Value{},
		Truncated: stored.Truncated,
		Error:     stored.Error,
	}
	if stored.Result == nil {
		return view, nil
	}

	total := len(stored.Result.Rows)
	start := 0
	if offset != nil {
		start = min(*offset, total)
	}
	end := total
	if limit != nil {
		end = min(start+*limit, total)
	}

	view.Columns = cloneutil.Slice(stored.Result.Columns)
	view.Rows = cloneutil.Slice(stored.Result.Rows[start:end])
	view.RowCount = stored.Result.RowCount
	view.CommandTag = stored.Result.CommandTag
	return view, nil
}

// Stop cancels every running job.
func (qs *QueryService) Stop() {
	qs.mu.RLock()
	defer qs.mu.RUnlock()
	for _, job := range qs.jobs {
		if job.Status == JobStatusRunning {
			job.cancel()
		}
	}
}

func (qs *QueryService) runJob(ctx context.Context, job *QueryJob) {
	defer job.cancel()

	result, err := qs.Execute(ctx, job.ConnectionID, job.SQL)
	finished := time.Now()

	stored := &JobResult{
		JobID:        job.ID,
		ConnectionID: job.ConnectionID,
		FinishedAt:   finished,
	}
	switch {
	case err != nil && ctx.Err() != nil:
		stored.Status = JobStatusCancelled
		stored.Error = "query cancelled"
	case err != nil:
		stored.Status = JobStatusFailed
		stored.Error = apperr.Detail(err)
	default:
		stored.Status = JobStatusSuccess
		if len(result.Rows) > qs.maxRows {
			result.Rows = result.Rows[:qs.maxRows]
			stored.Truncated = true
		}
		stored.Result = result
	}
	evicted := qs.results.Add(stored)

	qs.mu.Lock()
	job.Status = stored.Status
	job.FinishedAt = &finished
	job.Error = stored.Error
	for _, id := range evicted {
		delete(qs.jobs, id)
	}
	qs.mu.Unlock()

	slog.InfoContext(ctx, "query job finished",
		slog.String("jobId", job.ID),
		slog.String("status", string(stored.Status)),
		slog.Duration("duration", finished.Sub(job.CreatedAt)),
	)
	qs.emitJobCompletion(stored)
}

func (qs *QueryService) emitJobCompletion(r *JobResult) {
	if qs.events == nil {
		return
	}
	payload := events.QueryJobCompletedPayload{
		JobID:        r.JobID,
		ConnectionID: r.ConnectionID,
		Status:       string(r.Status),
		Error:        r.Error,
	}
	if r.Result != nil {
		payload.RowCount = r.Result.RowCount
		payload.ExecutionTimeMs = r.Result.ExecutionTimeMs
		payload.CommandTag = r.Result.CommandTag
	}
	qs.events.Publish(events.Event{Name: events.QueryJobCompletedEvent, Payload: payload})
}

// History lists recent attempts for connectionID, or across every connection
// when connectionID is empty.
func (qs *QueryService) History(ctx context.Context, connectionID string, limit int) ([]model.HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if connectionID == "" {
		return qs.history.AllHistory(ctx, limit)
	}
	return qs.history.History(ctx, connectionID, limit)
}

func (qs *QueryService) DeleteHistory(ctx context.Context, id int64) error {
	return qs.history.DeleteHistory(ctx, id)
}

// DeleteHistoryBySQL removes every entry with exactly this text.
func (qs *QueryService) DeleteHistoryBySQL(ctx context.Context, sql string) (int64, error) {
	if sql == "" {
		return 0, apperr.New(apperr.InvalidInput, "Either id or sql must be provided")
	}
	return qs.history.DeleteHistoryBySQL(ctx, sql)
}

// SearchTableHistory finds successful queries on connectionID that mention table.
func (qs *QueryService) SearchTableHistory(ctx context.Context, connectionID, table string, limit int) ([]model.HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultTableHistoryLim
	}
	return qs.history.SearchTableHistory(ctx, connectionID, table, limit)
}

func (qs *QueryService) SaveQuery(ctx context.Context, q model.SavedQuery) (int64, error) {
	if strings.TrimSpace(q.Name) == "" {
		return 0, apperr.New(apperr.InvalidInput, "name is required")
	}
	if strings.TrimSpace(q.SQL) == "" {
		return 0, apperr.New(apperr.InvalidInput, "sql is required")
	}
	return qs.saved.SaveQuery(ctx, q)
}

func (qs *QueryService) SavedQueries(ctx context.Context) ([]model.SavedQuery, error) {
	return qs.saved.SavedQueries(ctx)
}

func (qs *QueryService) DeleteSavedQuery(ctx context.Context, id int64) error {
	return qs.saved.DeleteSavedQuery(ctx, id)
}
