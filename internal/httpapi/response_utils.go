package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/marcogbarcellos/pgstudio/internal/pkg/apperr"
)

// ErrorPayload is the body of every non-2xx response.
type ErrorPayload struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func respondError(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	respondJSON(w, status, ErrorPayload{Code: code, Message: message, Details: details})
}

func respondBadRequest(w http.ResponseWriter, err error) {
	respondError(w, http.StatusBadRequest, string(apperr.InvalidInput), err.Error(), nil)
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.InvalidInput, apperr.Query:
		return http.StatusBadRequest
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.NotConnected, apperr.ToolNotFound:
		return http.StatusConflict
	case apperr.Connection, apperr.Process, apperr.AI:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError renders a service error. Server errors keep the
// wording Postgres used.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	message := err.Error()
	if kind == apperr.Query {
		message = apperr.Detail(err)
	}
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("kind", string(kind)),
			slog.Any("err", err),
		)
	}
	respondError(w, status, string(kind), message, nil)
}

// respondResult returns a sink for a (value, error) pair: the value as 200
// JSON, or the mapped error.
func respondResult(w http.ResponseWriter, r *http.Request) func(any, error) {
	return func(v any, err error) {
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, v)
	}
}
