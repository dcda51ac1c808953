package httpapi

import (
	"net/http"

	"github.com/marcogbarcellos/pgstudio/internal/model"
)

func (h *Handler) detectTools(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.transfers.DetectTools(r.Context()))
}

// dump, restore and transfer answer 200 with the classified outcome, even a
// failed one; errors are reserved for requests that never ran a tool.
func (h *Handler) dump(w http.ResponseWriter, r *http.Request) {
	var req model.DumpRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		respondBadRequest(w, err)
		return
	}
	respondResult(w, r)(h.transfers.Dump(r.Context(), req))
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	var req model.RestoreRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		respondBadRequest(w, err)
		return
	}
	respondResult(w, r)(h.transfers.Restore(r.Context(), req))
}

func (h *Handler) transfer(w http.ResponseWriter, r *http.Request) {
	var req model.TransferRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		respondBadRequest(w, err)
		return
	}
	respondResult(w, r)(h.transfers.Transfer(r.Context(), req))
}
