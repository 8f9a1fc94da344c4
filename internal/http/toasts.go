package http

import (
	"errors"
	"net/http"

	"github.com/urbanbyte/ishare/internal/toast"
	"github.com/urbanbyte/ishare/internal/util"
)

// ListToasts lista os toasts ativos.
func (h *Handler) ListToasts(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.toasts.Snapshot())
}

// ActivateToast equivale ao clique principal no toast.
func (h *Handler) ActivateToast(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}
	revealed, err := h.toasts.Activate(r.Context(), id)
	if err != nil {
		h.writeToastError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"revealed": revealed})
}

// BeginDrag inicia o arraste e devolve o payload transferível.
func (h *Handler) BeginDrag(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}
	payload, err := h.toasts.BeginDrag(id)
	if err != nil {
		h.writeToastError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, payload)
}

// EndDrag encerra o arraste.
func (h *Handler) EndDrag(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.toasts.EndDrag(id); err != nil {
		h.writeToastError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListHistory lista os uploads mais recentes.
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	limit := util.ParseLimit(r.URL.Query().Get("limit"), 20, 100)
	entries, err := h.history.List(r.Context(), limit)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, CodeInternal, "erro ao carregar histórico", nil)
		return
	}
	WriteJSON(w, http.StatusOK, entries)
}

func (h *Handler) writeToastError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, toast.ErrNotFound):
		WriteError(w, http.StatusNotFound, CodeNotFound, err.Error(), nil)
	case errors.Is(err, toast.ErrNotVisible):
		WriteError(w, http.StatusConflict, CodeConflict, err.Error(), nil)
	default:
		WriteError(w, http.StatusInternalServerError, CodeInternal, err.Error(), nil)
	}
}
