package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/urbanbyte/ishare/internal/capture"
	"github.com/urbanbyte/ishare/internal/pipeline"
	"github.com/urbanbyte/ishare/internal/util"
)

// SubmitCapture registra um arquivo produzido por um mecanismo externo.
func (h *Handler) SubmitCapture(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, CodeValidation, "JSON inválido", nil)
		return
	}
	if err := util.RequireString(payload.Path, "path"); err != nil {
		WriteError(w, http.StatusBadRequest, CodeValidation, err.Error(), nil)
		return
	}

	artifact, err := h.pipeline.Submit(r.Context(), payload.Path)
	if err != nil {
		h.writeCaptureError(w, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, artifact)
}

// ShootCapture executa o mecanismo de captura configurado.
func (h *Handler) ShootCapture(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, CodeValidation, "JSON inválido", nil)
		return
	}
	if payload.Mode == "" {
		payload.Mode = string(capture.ModeScreen)
	}
	mode, err := capture.ParseMode(payload.Mode)
	if err != nil {
		WriteError(w, http.StatusBadRequest, CodeValidation, err.Error(), nil)
		return
	}

	artifact, err := h.pipeline.Capture(r.Context(), mode)
	if err != nil {
		h.writeCaptureError(w, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, artifact)
}

// GetCapture devolve um artefato submetido nesta execução.
func (h *Handler) GetCapture(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}
	artifact, found := h.pipeline.Artifact(id)
	if !found {
		WriteError(w, http.StatusNotFound, CodeNotFound, pipeline.ErrUnknownArtifact.Error(), nil)
		return
	}
	WriteJSON(w, http.StatusOK, artifact)
}

// UploadCapture dispara o upload manual de um artefato conhecido.
func (h *Handler) UploadCapture(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}
	artifact, err := h.pipeline.Upload(r.Context(), id)
	if err != nil {
		h.writeCaptureError(w, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, artifact)
}

func (h *Handler) writeCaptureError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, capture.ErrNotFound), errors.Is(err, pipeline.ErrUnknownArtifact):
		WriteError(w, http.StatusNotFound, CodeNotFound, err.Error(), nil)
	case errors.Is(err, capture.ErrNotFile), errors.Is(err, capture.ErrInvalidMode), errors.Is(err, capture.ErrUnsupportedType):
		WriteError(w, http.StatusBadRequest, CodeValidation, err.Error(), nil)
	case errors.Is(err, capture.ErrCancelled):
		WriteError(w, http.StatusConflict, CodeCancelled, err.Error(), nil)
	case errors.Is(err, capture.ErrNoDisplay), errors.Is(err, pipeline.ErrStopped):
		WriteError(w, http.StatusServiceUnavailable, CodeUnavailable, err.Error(), nil)
	default:
		WriteError(w, http.StatusInternalServerError, CodeInternal, "erro ao processar captura", nil)
	}
}
