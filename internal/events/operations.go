package events

const (
	QueryJobCompletedEvent = "query.job.completed"
	TransferFinishedEvent  = "transfer.finished"
)

const (
	JobStatusSuccess   = "success"
	JobStatusFailed    = "failed"
	JobStatusCancelled = "cancelled"
)

// QueryJobCompletedPayload reports the end of an asynchronous query.
type QueryJobCompletedPayload struct {
	JobID           string `json:"jobId"`
	ConnectionID    string `json:"connectionId"`
	Status          string `json:"status"`
	RowCount        int    `json:"rowCount"`
	ExecutionTimeMs int64  `json:"executionTimeMs"`
	CommandTag      string `json:"commandTag,omitempty"`
	Error           string `json:"error,omitempty"`
}

// TransferFinishedPayload reports the outcome of a dump, restore or transfer.
type TransferFinishedPayload struct {
	OperationID string `json:"operationId"`
	Kind        string `json:"kind"`
	Source      string `json:"source,omitempty"`
	Target      string `json:"target,omitempty"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
}
