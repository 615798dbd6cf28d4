package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/akagifreeez/cookie-relay/internal/models"
	"github.com/akagifreeez/cookie-relay/internal/services"
)

type SettingsHandler struct {
	service *services.SettingsService
}

func NewSettingsHandler(service *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{service: service}
}

func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.GetSettings(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to get settings")
		http.Error(w, "Failed to get settings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch models.SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if patch.RequestTimeoutSeconds != nil && *patch.RequestTimeoutSeconds < 1 {
		http.Error(w, "request_timeout_seconds must be positive", http.StatusBadRequest)
		return
	}

	settings, err := h.service.UpdateSettings(r.Context(), patch)
	if err != nil {
		log.Error().Err(err).Msg("Failed to update settings")
		http.Error(w, "Failed to update settings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *SettingsHandler) GetModelMappings(w http.ResponseWriter, r *http.Request) {
	mappings, err := h.service.GetModelMappings(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to get model mappings")
		http.Error(w, "Failed to get model mappings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, mappings)
}

func (h *SettingsHandler) UpdateModelMappings(w http.ResponseWriter, r *http.Request) {
	var mappings []models.ModelMapping
	if err := json.NewDecoder(r.Body).Decode(&mappings); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	for _, m := range mappings {
		if m.From == "" || m.To == "" {
			http.Error(w, "Each mapping needs from and to", http.StatusBadRequest)
			return
		}
	}

	updated, err := h.service.UpdateModelMappings(r.Context(), mappings)
	if err != nil {
		log.Error().Err(err).Msg("Failed to update model mappings")
		http.Error(w, "Failed to update model mappings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// ResolveModel reports which model ?model= maps to
func (h *SettingsHandler) ResolveModel(w http.ResponseWriter, r *http.Request) {
	requested := r.URL.Query().Get("model")
	model, err := h.service.ResolveModel(r.Context(), requested)
	if err != nil {
		log.Error().Err(err).Str("model", requested).Msg("Failed to resolve model")
		http.Error(w, "Failed to resolve model", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"requested": requested, "model": model})
}
