package model

import "time"

// QueryColumn describes one result column.
type QueryColumn struct {
	Name     string `json:"name"`
	DataType string `json:"dataType"`
}

// QueryResult is a fully materialized result set. Every row has exactly
// len(Columns) values, in server order.
type QueryResult struct {
	Columns         []QueryColumn `json:"columns"`
	Rows            [][]Value     `json:"rows"`
	RowCount        int           `json:"rowCount"`
	ExecutionTimeMs int64         `json:"executionTimeMs"`
	CommandTag      string        `json:"commandTag"`
}

// TableDataRequest pages through a table.
type TableDataRequest struct {
	Schema        string `json:"schema"`
	Table         string `json:"table"`
	Limit         *int64 `json:"limit,omitempty"`
	Offset        *int64 `json:"offset,omitempty"`
	SortColumn    string `json:"sortColumn,omitempty"`
	SortDirection string `json:"sortDirection,omitempty"`
}

// HistoryEntry is one recorded execution attempt.
type HistoryEntry struct {
	ID              int64     `json:"id" db:"id"`
	ConnectionID    string    `json:"connectionId" db:"connection_id"`
	SQL             string    `json:"sql" db:"sql"`
	ExecutionTimeMs int64     `json:"executionTimeMs" db:"execution_time_ms"`
	RowCount        int64     `json:"rowCount" db:"row_count"`
	Success         bool      `json:"success" db:"success"`
	ErrorMessage    *string   `json:"errorMessage,omitempty" db:"error_message"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
}

// SavedQuery is a named query kept by the user.
type SavedQuery struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	SQL          string    `json:"sql" db:"sql"`
	ConnectionID *string   `json:"connectionId,omitempty" db:"connection_id"`
	Description  *string   `json:"description,omitempty" db:"description"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// TableUsage counts how often a table was browsed.
type TableUsage struct {
	ConnectionID string    `json:"connectionId" db:"connection_id"`
	Schema       string    `json:"schema" db:"table_schema"`
	Table        string    `json:"table" db:"table_name"`
	AccessCount  int64     `json:"accessCount" db:"access_count"`
	LastAccessed time.Time `json:"lastAccessed" db:"last_accessed"`
}
