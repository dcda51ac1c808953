// Package apperr defines the error taxonomy shared by the services and the
// outer surfaces. Each error carries a machine-readable Kind, a short message
// and the underlying cause.
package apperr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// Connection covers handshake, authentication and network failures.
	Connection Kind = "connection_error"
	// NotConnected is returned for lookups against an unknown connection id.
	NotConnected Kind = "not_connected"
	// Query wraps a server-reported SQL failure.
	Query Kind = "query_error"
	// ToolNotFound means an external binary could not be located.
	ToolNotFound Kind = "tool_not_found"
	// Process covers spawn failures of external tools.
	Process Kind = "process_error"
	NotFound     Kind = "not_found"
	InvalidInput Kind = "invalid_input"
	AI           Kind = "ai_error"
	Storage      Kind = "storage_error"
	Internal     Kind = "internal_error"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// Newf is New with a format string.
func Newf(kind Kind, format string, args ...any) *E {
	return &E{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *E in the chain, or Internal.
func KindOf(err error) Kind {
	var e *E
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// Detail returns the text a user should see for err. Server errors are
// returned exactly as the server worded them.
func Detail(err error) string {
	if err == nil {
		return ""
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Error()
	}
	var e *E
	if errors.As(err, &e) && e.Err != nil {
		return e.Err.Error()
	}
	return err.Error()
}
