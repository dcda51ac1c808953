package service

import (
	"context"
	"time"

	"github.com/marcogbarcellos/pgstudio/internal/model"
)

// JobStatus is the lifecycle state of an asynchronous query.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusSuccess   JobStatus = "success"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// QueryJob is a query running in the background.
type QueryJob struct {
	ID           string     `json:"id"`
	ConnectionID string     `json:"connectionId"`
	SQL          string     `json:"sql"`
	Status       JobStatus  `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty"`
	Error        string     `json:"error,omitempty"`

	cancel context.CancelFunc
}

// JobResult is the stored outcome of a finished job. Rows beyond the row cap
// are dropped and Truncated is set.
type JobResult struct {
	JobID        string
	ConnectionID string
	Status       JobStatus
	Result       *model.QueryResult
	Truncated    bool
	Error        string
	FinishedAt   time.Time
}

func (r *JobResult) rowCount() int {
	if r.Result == nil {
		return 0
	}
	return len(r.Result.Rows)
}

// QueryResultView is one page of a stored job result.
type QueryResultView struct {
	JobID      string              `json:"jobId"`
	Status     JobStatus           `json:"status"`
	Columns    []model.QueryColumn `json:"columns"`
	Rows       [][]model.Value     `json:"rows"`
	RowCount   int                 `json:"rowCount"`
	Truncated  bool                `json:"truncated"`
	CommandTag string              `json:"commandTag,omitempty"`
	Error      string              `json:"error,omitempty"`
}
