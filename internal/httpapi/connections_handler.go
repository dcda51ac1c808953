package httpapi

import (
	"net/http"
	"strings"

	"github.com/marcogbarcellos/pgstudio/internal/model"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/logctx"
)

// connectionPayload is a descriptor as sent by clients. The password is
// accepted on input only.
type connectionPayload struct {
	model.ConnectionDescriptor
	Password string `json:"password,omitempty"`
}

func (p connectionPayload) descriptor() model.ConnectionDescriptor {
	desc := p.ConnectionDescriptor
	desc.Password = p.Password
	return desc
}

type connectRequest struct {
	Password string `json:"password,omitempty"`
}

type switchDatabaseRequest struct {
	Database string `json:"database"`
}

type importRequest struct {
	Path string `json:"path"`
}

func (h *Handler) listConnections(w http.ResponseWriter, r *http.Request) {
	recs, err := h.connections.List(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, recs)
}

func (h *Handler) getConnection(w http.ResponseWriter, r *http.Request) {
	id, err := decodePathParam(r, "id")
	if err != nil {
		respondBadRequest(w, err)
		return
	}
	rec, err := h.connections.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// saveConnection serves both create and update; on PUT the path id wins.
func (h *Handler) saveConnection(w http.ResponseWriter, r *http.Request) {
	var payload connectionPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		respondBadRequest(w, err)
		return
	}
	desc := payload.descriptor()
	status := http.StatusCreated
	if id := strings.TrimSpace(r.PathValue("id")); id != "" {
		desc.ID = id
		status = http.StatusOK
	}

	rec, err := h.connections.Save(r.Context(), desc)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, status, rec)
}

func (h *Handler) deleteConnection(w http.ResponseWriter, r *http.Request) {
	id, err := decodePathParam(r, "id")
	if err != nil {
		respondBadRequest(w, err)
		return
	}
	if err := h.connections.Delete(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondNoContent(w)
}

func (h *Handler) importConnections(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		respondBadRequest(w, err)
		return
	}
	recs, err := h.connections.Import(r.Context(), req.Path)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, recs)
}

func (h *Handler) testConnection(w http.ResponseWriter, r *http.Request) {
	var payload connectionPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		respondBadRequest(w, err)
		return
	}
	version, err := h.registry.TestConnection(r.Context(), payload.descriptor())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"serverVersion": version})
}

func (h *Handler) activeConnections(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.registry.Active())
}

func (h *Handler) connect(w http.ResponseWriter, r *http.Request) {
	id, err := decodePathParam(r, "id")
	if err != nil {
		respondBadRequest(w, err)
		return
	}
	var req connectRequest
	if err := decodeOptionalJSON(r.Body, &req); err != nil {
		respondBadRequest(w, err)
		return
	}
	ctx := logctx.WithConnectionID(r.Context(), id)
	if err := h.registry.ConnectStored(ctx, id, req.Password); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "connected"})
}

func (h *Handler) disconnect(w http.ResponseWriter, r *http.Request) {
	id, err := decodePathParam(r, "id")
	if err != nil {
		respondBadRequest(w, err)
		return
	}
	if err := h.registry.Disconnect(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondNoContent(w)
}

func (h *Handler) switchDatabase(w http.ResponseWriter, r *http.Request) {
	id, err := decodePathParam(r, "id")
	if err != nil {
		respondBadRequest(w, err)
		return
	}
	var req switchDatabaseRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		respondBadRequest(w, err)
		return
	}
	ctx := logctx.WithConnectionID(r.Context(), id)
	if err := h.registry.SwitchDatabase(ctx, id, req.Database); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "connected", "database": req.Database})
}
