package pgtools

import (
	"strings"

	"github.com/marcogbarcellos/pgstudio/internal/model"
)

// fatalMarker in pg_restore output separates real failures from the warnings
// it also exits non-zero for.
const fatalMarker = "ERROR"

// ClassifyRestore applies the pg_restore policy: a non-zero exit is a failure
// only when stderr contains ERROR, otherwise a warning.
func ClassifyRestore(exitCode int, stderr string) model.ToolOutcome {
	switch {
	case exitCode == 0:
		return model.ToolOutcome{Status: model.OutcomeSuccess, Stderr: stderr}
	case strings.Contains(stderr, fatalMarker):
		return model.ToolOutcome{Status: model.OutcomeFailure, Stderr: stderr}
	default:
		return model.ToolOutcome{Status: model.OutcomeWarning, Stderr: stderr}
	}
}

// ClassifyStrict treats every non-zero exit as a failure. Used for pg_dump and psql.
func ClassifyStrict(exitCode int, stderr string) model.ToolOutcome {
	if exitCode == 0 {
		return model.ToolOutcome{Status: model.OutcomeSuccess, Stderr: stderr}
	}
	return model.ToolOutcome{Status: model.OutcomeFailure, Stderr: stderr}
}
