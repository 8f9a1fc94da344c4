package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/urbanbyte/ishare/internal/settings"
)

const maxImportSize = 64 << 10

// ListSettings devolve todas as chaves com valor efetivo e default.
func (h *Handler) ListSettings(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.settings.All())
}

// GetSetting devolve uma chave.
func (h *Handler) GetSetting(w http.ResponseWriter, r *http.Request) {
	key, ok := h.parseKey(w, r)
	if !ok {
		return
	}
	for _, entry := range h.settings.All() {
		if entry.Key == key {
			WriteJSON(w, http.StatusOK, entry)
			return
		}
	}
	WriteError(w, http.StatusNotFound, CodeNotFound, "chave não encontrada", nil)
}

// SetSetting valida e persiste o valor informado.
func (h *Handler) SetSetting(w http.ResponseWriter, r *http.Request) {
	key, ok := h.parseKey(w, r)
	if !ok {
		return
	}

	var payload struct {
		Value *string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Value == nil {
		WriteError(w, http.StatusBadRequest, CodeValidation, "value é obrigatório", nil)
		return
	}

	if err := h.settings.Set(r.Context(), key, *payload.Value); err != nil {
		h.writeSettingsError(w, err)
		return
	}
	value, _ := h.settings.Get(key)
	WriteJSON(w, http.StatusOK, map[string]string{"key": string(key), "value": value})
}

// ResetSetting restaura o default documentado da chave.
func (h *Handler) ResetSetting(w http.ResponseWriter, r *http.Request) {
	key, ok := h.parseKey(w, r)
	if !ok {
		return
	}
	if err := h.settings.ResetToDefault(r.Context(), key); err != nil {
		h.writeSettingsError(w, err)
		return
	}
	value, _ := h.settings.Get(key)
	WriteJSON(w, http.StatusOK, map[string]string{"key": string(key), "value": value})
}

// ResetAllSettings restaura todas as chaves.
func (h *Handler) ResetAllSettings(w http.ResponseWriter, r *http.Request) {
	if err := h.settings.ResetAll(r.Context()); err != nil {
		h.writeSettingsError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.settings.All())
}

// ExportSettings devolve o documento em json (default) ou yaml.
func (h *Handler) ExportSettings(w http.ResponseWriter, r *http.Request) {
	format, err := settings.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.writeSettingsError(w, err)
		return
	}
	data, err := h.settings.Export(format)
	if err != nil {
		h.writeSettingsError(w, err)
		return
	}

	contentType := "application/json"
	if format == settings.FormatYAML {
		contentType = "application/yaml"
	}
	WriteAttachment(w, contentType, "ishare-settings."+format, data)
}

// ImportSettings aplica um documento exportado; nada é gravado se alguma chave for inválida.
func (h *Handler) ImportSettings(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" && strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		format = settings.FormatYAML
	}
	format, err := settings.ParseFormat(format)
	if err != nil {
		h.writeSettingsError(w, err)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportSize))
	if err != nil {
		WriteError(w, http.StatusBadRequest, CodeValidation, "corpo inválido", nil)
		return
	}

	n, err := h.settings.Import(r.Context(), data, format)
	if err != nil {
		h.writeSettingsError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{"imported": n})
}

func (h *Handler) parseKey(w http.ResponseWriter, r *http.Request) (settings.Key, bool) {
	key, err := settings.ParseKey(chi.URLParam(r, "key"))
	if err != nil {
		WriteError(w, http.StatusNotFound, CodeNotFound, err.Error(), nil)
		return "", false
	}
	return key, true
}

func (h *Handler) writeSettingsError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, settings.ErrUnknownKey):
		WriteError(w, http.StatusBadRequest, CodeValidation, err.Error(), nil)
	case errors.Is(err, settings.ErrInvalidValue), errors.Is(err, settings.ErrUnsupportedFormat):
		WriteError(w, http.StatusBadRequest, CodeValidation, err.Error(), nil)
	default:
		WriteError(w, http.StatusInternalServerError, CodeInternal, "erro ao persistir preferências", nil)
	}
}
