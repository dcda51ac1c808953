package sdk

import (
	"time"

	"github.com/marcogbarcellos/pgstudio/internal/model"
)

// Aliases for the payload types the server returns unchanged.
type (
	ConnectionDescriptor = model.ConnectionDescriptor
	ConnectionRecord     = model.ConnectionRecord
	QueryResult          = model.QueryResult
	QueryColumn          = model.QueryColumn
	Value                = model.Value
	HistoryEntry         = model.HistoryEntry
	SavedQuery           = model.SavedQuery
	SchemaInfo           = model.SchemaInfo
	TableInfo            = model.TableInfo
	ColumnInfo           = model.ColumnInfo
	TableDataRequest     = model.TableDataRequest
	ToolsStatus          = model.ToolsStatus
	ToolOutcome          = model.ToolOutcome
	DumpRequest          = model.DumpRequest
	RestoreRequest       = model.RestoreRequest
	TransferRequest      = model.TransferRequest
	AIStatus             = model.AIStatus
)

type ActiveConnection struct {
	ID          string    `json:"id"`
	Name        string    `json:"name,omitempty"`
	Database    string    `json:"database"`
	ConnectedAt time.Time `json:"connectedAt"`
}

// Job is a background query as reported by submitQuery and getQueryJob.
type Job struct {
	ID           string     `json:"id"`
	ConnectionID string     `json:"connectionId"`
	SQL          string     `json:"sql"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// Done reports whether the job reached a terminal status.
func (j Job) Done() bool {
	switch j.Status {
	case "success", "failed", "cancelled":
		return true
	}
	return false
}

// ResultPage is one page of a finished job's rows.
type ResultPage struct {
	JobID      string          `json:"jobId"`
	Status     string          `json:"status"`
	Columns    []QueryColumn   `json:"columns"`
	Rows       [][]model.Value `json:"rows"`
	RowCount   int             `json:"rowCount"`
	Truncated  bool            `json:"truncated"`
	CommandTag string          `json:"commandTag,omitempty"`
	Error      string          `json:"error,omitempty"`
}

type connectionParams struct {
	ConnectionID string `json:"connectionId"`
}

type descriptorParams struct {
	model.ConnectionDescriptor
	Password string `json:"password,omitempty"`
}

type queryParams struct {
	ConnectionID string `json:"connectionId"`
	SQL          string `json:"sql"`
}

type jobParams struct {
	JobID string `json:"jobId"`
}

type jobResultParams struct {
	JobID  string `json:"jobId"`
	Limit  *int   `json:"limit,omitempty"`
	Offset *int   `json:"offset,omitempty"`
}

type historyParams struct {
	ConnectionID string `json:"connectionId,omitempty"`
	Limit        int    `json:"limit,omitempty"`
}

type schemaParams struct {
	ConnectionID string `json:"connectionId"`
	Schema       string `json:"schema"`
}

type tableParams struct {
	ConnectionID string `json:"connectionId"`
	Schema       string `json:"schema"`
	Table        string `json:"table"`
}

type tableDataParams struct {
	ConnectionID string `json:"connectionId"`
	model.TableDataRequest
}

type nlToSQLParams struct {
	ConnectionID string `json:"connectionId"`
	Prompt       string `json:"prompt"`
}

type sqlResult struct {
	SQL string `json:"sql"`
}

type ack struct {
	OK bool `json:"ok"`
}
