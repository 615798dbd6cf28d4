package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/akagifreeez/cookie-relay/internal/models"
	"github.com/akagifreeez/cookie-relay/internal/services"
)

type KeyHandler struct {
	keyManager *services.KeyManager
}

func NewKeyHandler(km *services.KeyManager) *KeyHandler {
	return &KeyHandler{keyManager: km}
}

// RegisterKey adds a new API key. An empty key is generated; only then
// is the secret returned unmasked.
func (h *KeyHandler) RegisterKey(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Key   string `json:"key"`
		Label string `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}

	key, err := h.keyManager.AddKey(r.Context(), input.Key, input.Label)
	if err != nil {
		log.Error().Err(err).Msg("Failed to register key")
		http.Error(w, "Failed to register key", http.StatusInternalServerError)
		return
	}

	if input.Key != "" {
		writeJSON(w, http.StatusCreated, key.Masked())
		return
	}
	writeJSON(w, http.StatusCreated, key)
}

// ListKeys returns all registered keys (masked)
func (h *KeyHandler) ListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.keyManager.GetKeys(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list keys")
		http.Error(w, "Failed to list keys", http.StatusInternalServerError)
		return
	}

	masked := make([]models.ApiKey, 0, len(keys))
	for _, k := range keys {
		masked = append(masked, k.Masked())
	}
	writeJSON(w, http.StatusOK, masked)
}

// UpdateKey changes a key's label or enabled flag. Usage counters are not
// writable.
func (h *KeyHandler) UpdateKey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch models.ApiKeyPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}

	ok, err := h.keyManager.UpdateKey(r.Context(), id, patch)
	if err != nil {
		log.Error().Err(err).Str("key_id", id).Msg("Failed to update key")
		http.Error(w, "Failed to update key", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "Key not found", http.StatusNotFound)
		return
	}

	key, err := h.keyManager.GetKeyByID(r.Context(), id)
	if err != nil || key == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, key.Masked())
}

// DeleteKey removes a key. Default keys are refused.
func (h *KeyHandler) DeleteKey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	key, err := h.keyManager.GetKeyByID(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("key_id", id).Msg("Failed to get key")
		http.Error(w, "Failed to delete key", http.StatusInternalServerError)
		return
	}
	if key == nil {
		http.Error(w, "Key not found", http.StatusNotFound)
		return
	}

	ok, err := h.keyManager.DeleteKey(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("key_id", id).Msg("Failed to delete key")
		http.Error(w, "Failed to delete key", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "Default keys cannot be deleted", http.StatusForbidden)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
