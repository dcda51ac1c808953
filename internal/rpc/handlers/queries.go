package handlers

import (
	"context"

	"github.com/marcogbarcellos/pgstudio/internal/model"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/apperr"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/logctx"
	"github.com/marcogbarcellos/pgstudio/internal/service"
)

type QueryParams struct {
	ConnectionID string `json:"connectionId"`
	SQL          string `json:"sql"`
}

type JobParams struct {
	JobID string `json:"jobId"`
}

type JobResultParams struct {
	JobID  string `json:"jobId"`
	Limit  *int   `json:"limit,omitempty"`
	Offset *int   `json:"offset,omitempty"`
}

type HistoryParams struct {
	ConnectionID string `json:"connectionId,omitempty"`
	Limit        int    `json:"limit,omitempty"`
}

// DeleteHistoryParams removes one entry by id, or every entry with the
// given text.
type DeleteHistoryParams struct {
	ID  *int64 `json:"id,omitempty"`
	SQL string `json:"sql,omitempty"`
}

type DeleteHistoryResult struct {
	Deleted int64 `json:"deleted"`
}

type TableHistoryParams struct {
	ConnectionID string `json:"connectionId"`
	Table        string `json:"table"`
	Limit        int    `json:"limit,omitempty"`
}

type SavedQueryParams struct {
	ID int64 `json:"id"`
}

type SaveQueryResult struct {
	ID int64 `json:"id"`
}

func executeQuery(ctx context.Context, svc service.Services, p QueryParams) (*model.QueryResult, error) {
	ctx = logctx.WithConnectionID(ctx, p.ConnectionID)
	return svc.Queries.Execute(ctx, p.ConnectionID, p.SQL)
}

func submitQuery(ctx context.Context, svc service.Services, p QueryParams) (*service.QueryJob, error) {
	ctx = logctx.WithConnectionID(ctx, p.ConnectionID)
	return svc.Queries.Submit(ctx, p.ConnectionID, p.SQL)
}

func getQueryJob(_ context.Context, svc service.Services, p JobParams) (*service.QueryJob, error) {
	job, found := svc.Queries.Job(p.JobID)
	if !found {
		return nil, apperr.Newf(apperr.NotFound, "query job '%s' not found", p.JobID)
	}
	return job, nil
}

func cancelQuery(_ context.Context, svc service.Services, p JobParams) (Ack, error) {
	return ack, svc.Queries.Cancel(p.JobID)
}

func getQueryResult(_ context.Context, svc service.Services, p JobResultParams) (*service.QueryResultView, error) {
	return svc.Queries.Result(p.JobID, p.Limit, p.Offset)
}

func getHistory(ctx context.Context, svc service.Services, p HistoryParams) ([]model.HistoryEntry, error) {
	return svc.Queries.History(ctx, p.ConnectionID, p.Limit)
}

func deleteHistory(ctx context.Context, svc service.Services, p DeleteHistoryParams) (*DeleteHistoryResult, error) {
	if p.ID != nil {
		if err := svc.Queries.DeleteHistory(ctx, *p.ID); err != nil {
			return nil, err
		}
		return &DeleteHistoryResult{Deleted: 1}, nil
	}
	n, err := svc.Queries.DeleteHistoryBySQL(ctx, p.SQL)
	if err != nil {
		return nil, err
	}
	return &DeleteHistoryResult{Deleted: n}, nil
}

func searchTableHistory(ctx context.Context, svc service.Services, p TableHistoryParams) ([]model.HistoryEntry, error) {
	return svc.Queries.SearchTableHistory(ctx, p.ConnectionID, p.Table, p.Limit)
}

func saveQuery(ctx context.Context, svc service.Services, p model.SavedQuery) (*SaveQueryResult, error) {
	id, err := svc.Queries.SaveQuery(ctx, p)
	if err != nil {
		return nil, err
	}
	return &SaveQueryResult{ID: id}, nil
}

func listSavedQueries(ctx context.Context, svc service.Services, _ struct{}) ([]model.SavedQuery, error) {
	return svc.Queries.SavedQueries(ctx)
}

func deleteSavedQuery(ctx context.Context, svc service.Services, p SavedQueryParams) (Ack, error) {
	return ack, svc.Queries.DeleteSavedQuery(ctx, p.ID)
}
