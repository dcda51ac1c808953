package model

// ToolsStatus reports which client tools were found on this host.
type ToolsStatus struct {
	DumpPath    *string `json:"pgDump,omitempty"`
	RestorePath *string `json:"pgRestore,omitempty"`
	PsqlPath    *string `json:"psql,omitempty"`
	Version     *string `json:"version,omitempty"`
}

type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	// OutcomeWarning is a non-zero restore exit whose output carried no ERROR line.
	OutcomeWarning OutcomeStatus = "warning"
	OutcomeFailure OutcomeStatus = "failure"
)

// ToolOutcome is the classified result of a dump, restore or transfer.
type ToolOutcome struct {
	Status    OutcomeStatus `json:"status"`
	Stderr    string        `json:"stderr,omitempty"`
	SizeBytes int64         `json:"sizeBytes,omitempty"`
	FilePath  string        `json:"filePath,omitempty"`
}

// Succeeded reports whether the operation counts as done; warnings do.
func (o ToolOutcome) Succeeded() bool {
	return o.Status == OutcomeSuccess || o.Status == OutcomeWarning
}

type DumpFormat string

const (
	DumpPlain     DumpFormat = "plain"
	DumpDirectory DumpFormat = "directory"
	DumpCustom    DumpFormat = "custom"
)

// Flag returns the pg_dump -F letter; anything unrecognised is custom.
func (f DumpFormat) Flag() string {
	switch f {
	case DumpPlain:
		return "p"
	case DumpDirectory:
		return "d"
	default:
		return "c"
	}
}

type DumpRequest struct {
	ConnectionID string     `json:"connectionId"`
	Format       DumpFormat `json:"format"`
	SchemaOnly   bool       `json:"schemaOnly"`
	Tables       []string   `json:"tables,omitempty"`
	OutputPath   string     `json:"outputPath"`
}

type RestoreRequest struct {
	ConnectionID string `json:"connectionId"`
	InputPath    string `json:"inputPath"`
	Clean        bool   `json:"clean"`
	SchemaOnly   bool   `json:"schemaOnly"`
}

type TransferRequest struct {
	SourceID   string   `json:"sourceId"`
	TargetID   string   `json:"targetId"`
	SchemaOnly bool     `json:"schemaOnly"`
	Tables     []string `json:"tables,omitempty"`
	Clean      bool     `json:"clean"`
}
