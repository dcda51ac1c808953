package httpapi

import (
	"net/http"

	"github.com/marcogbarcellos/pgstudio/internal/service"
)

type explainRequest struct {
	service.AssistantScope
	SQL string `json:"sql"`
}

type chatRequest struct {
	service.AssistantScope
	Message string `json:"message"`
}

type sqlResponse struct {
	SQL string `json:"sql"`
}

type textResponse struct {
	Text string `json:"text"`
}

func (h *Handler) aiStatus(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.assistant.Status())
}

func (h *Handler) aiConfig(w http.ResponseWriter, r *http.Request) {
	respondResult(w, r)(h.assistant.Config(r.Context()))
}

func (h *Handler) configureAI(w http.ResponseWriter, r *http.Request) {
	var in service.AIConfigInput
	if err := decodeJSON(r.Body, &in); err != nil {
		respondBadRequest(w, err)
		return
	}
	if err := h.assistant.Configure(r.Context(), in); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.assistant.Status())
}

func (h *Handler) searchPrompts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		respondBadRequest(w, err)
		return
	}
	respondResult(w, r)(h.assistant.SearchPrompts(r.Context(), r.URL.Query().Get("q"), limit))
}

func (h *Handler) nlToSQL(w http.ResponseWriter, r *http.Request) {
	var req service.NLToSQLRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		respondBadRequest(w, err)
		return
	}
	sql, err := h.assistant.NLToSQL(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sqlResponse{SQL: sql})
}

func (h *Handler) explain(w http.ResponseWriter, r *http.Request) {
	var req explainRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		respondBadRequest(w, err)
		return
	}
	respondText(w, r)(h.assistant.Explain(r.Context(), req.AssistantScope, req.SQL))
}

func (h *Handler) optimize(w http.ResponseWriter, r *http.Request) {
	var req service.OptimizeRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		respondBadRequest(w, err)
		return
	}
	respondText(w, r)(h.assistant.Optimize(r.Context(), req))
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	var req service.CompleteRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		respondBadRequest(w, err)
		return
	}
	respondText(w, r)(h.assistant.Complete(r.Context(), req))
}

func (h *Handler) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		respondBadRequest(w, err)
		return
	}
	respondText(w, r)(h.assistant.Chat(r.Context(), req.AssistantScope, req.Message))
}

func respondText(w http.ResponseWriter, r *http.Request) func(string, error) {
	return func(text string, err error) {
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, textResponse{Text: text})
	}
}
