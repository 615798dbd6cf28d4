package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/akagifreeez/cookie-relay/internal/models"
	"github.com/akagifreeez/cookie-relay/internal/services"
)

type CookieHandler struct {
	cookies *services.CookieService
}

func NewCookieHandler(cs *services.CookieService) *CookieHandler {
	return &CookieHandler{cookies: cs}
}

// ListCookies returns every cookie, oldest first
func (h *CookieHandler) ListCookies(w http.ResponseWriter, r *http.Request) {
	cookies, err := h.cookies.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list cookies")
		http.Error(w, "Failed to list cookies", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, cookies)
}

// AddCookie stores a new cookie
func (h *CookieHandler) AddCookie(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Value string `json:"value"`
		Label string `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}
	if input.Value == "" {
		http.Error(w, "Value is required", http.StatusBadRequest)
		return
	}

	cookie, err := h.cookies.Add(r.Context(), input.Value, input.Label)
	if err != nil {
		log.Error().Err(err).Msg("Failed to add cookie")
		http.Error(w, "Failed to add cookie", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, cookie)
}

// UpdateCookie merges the request body into a cookie
func (h *CookieHandler) UpdateCookie(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch models.CookiePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}

	ok, err := h.cookies.Update(r.Context(), id, patch)
	if err != nil {
		log.Error().Err(err).Str("cookie_id", id).Msg("Failed to update cookie")
		http.Error(w, "Failed to update cookie", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "Cookie not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteCookie removes a cookie. Default cookies are refused.
func (h *CookieHandler) DeleteCookie(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	cookie, err := h.cookies.Get(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("cookie_id", id).Msg("Failed to get cookie")
		http.Error(w, "Failed to delete cookie", http.StatusInternalServerError)
		return
	}
	if cookie == nil {
		http.Error(w, "Cookie not found", http.StatusNotFound)
		return
	}

	ok, err := h.cookies.Delete(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("cookie_id", id).Msg("Failed to delete cookie")
		http.Error(w, "Failed to delete cookie", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "Default cookies cannot be deleted", http.StatusForbidden)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetCookie clears a cookie's fail count and marks it valid
func (h *CookieHandler) ResetCookie(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	cookie, err := h.cookies.ResetFailCount(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("cookie_id", id).Msg("Failed to reset cookie")
		http.Error(w, "Failed to reset cookie", http.StatusInternalServerError)
		return
	}
	if cookie == nil {
		http.Error(w, "Cookie not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, cookie)
}

// NextCookie hands out the next valid cookie in rotation
func (h *CookieHandler) NextCookie(w http.ResponseWriter, r *http.Request) {
	cookie, err := h.cookies.Next(r.Context())
	if errors.Is(err, services.ErrNoValidCookies) {
		http.Error(w, "No valid cookies", http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to pick cookie")
		http.Error(w, "Failed to pick cookie", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, cookie)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
