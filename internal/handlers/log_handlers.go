package handlers

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/akagifreeez/cookie-relay/internal/services"
)

type LogHandler struct {
	logs *services.LogStore
}

func NewLogHandler(ls *services.LogStore) *LogHandler {
	return &LogHandler{logs: ls}
}

// GetRecent returns the newest request logs. ?limit= defaults to the
// retention cap.
func (h *LogHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	logs, err := h.logs.GetRecent(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list request logs")
		http.Error(w, "Failed to list request logs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// Count returns the number of stored logs, optionally for one ?path=.
func (h *LogHandler) Count(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")

	var (
		n   int
		err error
	)
	if path == "" {
		n, err = h.logs.Count(r.Context())
	} else {
		n, err = h.logs.CountByPath(r.Context(), path)
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to count request logs")
		http.Error(w, "Failed to count request logs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": path, "count": n})
}
