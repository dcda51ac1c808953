package httpapi

import (
	"net/http"
	"strings"

	"github.com/marcogbarcellos/pgstudio/internal/model"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/logctx"
)

type queryRequest struct {
	SQL string `json:"sql"`
}

func (h *Handler) executeQuery(w http.ResponseWriter, r *http.Request) {
	id, err := decodePathParam(r, "id")
	if err != nil {
		respondBadRequest(w, err)
		return
	}
	var req queryRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		respondBadRequest(w, err)
		return
	}

	ctx := logctx.WithConnectionID(r.Context(), id)
	result, err := h.queries.Execute(ctx, id, req.SQL)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) submitQuery(w http.ResponseWriter, r *http.Request) {
	id, err := decodePathParam(r, "id")
	if err != nil {
		respondBadRequest(w, err)
		return
	}
	var req queryRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		respondBadRequest(w, err)
		return
	}

	ctx := logctx.WithConnectionID(r.Context(), id)
	job, err := h.queries.Submit(ctx, id, req.SQL)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusAccepted, job)
}

func (h *Handler) getJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := decodePathParam(r, "jobId")
	if err != nil {
		respondBadRequest(w, err)
		return
	}
	job, ok := h.queries.Job(jobID)
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "job not found: "+jobID, nil)
		return
	}
	respondJSON(w, http.StatusOK, job)
}

func (h *Handler) cancelJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := decodePathParam(r, "jobId")
	if err != nil {
		respondBadRequest(w, err)
		return
	}
	if err := h.queries.Cancel(jobID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
}

func (h *Handler) getJobResult(w http.ResponseWriter, r *http.Request) {
	jobID, err := decodePathParam(r, "jobId")
	if err != nil {
		respondBadRequest(w, err)
		return
	}
	limit, err := optionalInt(r.URL.Query().Get("limit"), 1)
	if err != nil {
		respondBadRequest(w, err)
		return
	}
	offset, err := optionalInt(r.URL.Query().Get("offset"), 0)
	if err != nil {
		respondBadRequest(w, err)
		return
	}

	view, err := h.queries.Result(jobID, limit, offset)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// listHistory serves both the global and the per-connection history.
func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		respondBadRequest(w, err)
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		id = strings.TrimSpace(r.URL.Query().Get("connectionId"))
	}
	entries, err := h.queries.History(r.Context(), id, limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

func (h *Handler) searchTableHistory(w http.ResponseWriter, r *http.Request) {
	id, err := decodePathParam(r, "id")
	if err != nil {
		respondBadRequest(w, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		respondBadRequest(w, err)
		return
	}
	entries, err := h.queries.SearchTableHistory(r.Context(), id, r.URL.Query().Get("table"), limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

func (h *Handler) deleteHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "historyId")
	if err != nil {
		respondBadRequest(w, err)
		return
	}
	if err := h.queries.DeleteHistory(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondNoContent(w)
}

func (h *Handler) deleteHistoryBySQL(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.queries.DeleteHistoryBySQL(r.Context(), r.URL.Query().Get("sql"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

func (h *Handler) listSavedQueries(w http.ResponseWriter, r *http.Request) {
	saved, err := h.queries.SavedQueries(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

func (h *Handler) saveQuery(w http.ResponseWriter, r *http.Request) {
	var q model.SavedQuery
	if err := decodeJSON(r.Body, &q); err != nil {
		respondBadRequest(w, err)
		return
	}
	id, err := h.queries.SaveQuery(r.Context(), q)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handler) deleteSavedQuery(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "queryId")
	if err != nil {
		respondBadRequest(w, err)
		return
	}
	if err := h.queries.DeleteSavedQuery(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondNoContent(w)
}
