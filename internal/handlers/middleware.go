package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/akagifreeez/cookie-relay/internal/models"
	"github.com/akagifreeez/cookie-relay/internal/services"
)

type contextKey string

const (
	APIKeyContextKey contextKey = "api_key_id"
)

// KeyAuth accepts requests carrying an enabled key as
// "Authorization: Bearer <key>". Use is counted by CountKeyUsage.
func KeyAuth(km *services.KeyManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Unauthorized: No API key provided", http.StatusUnauthorized)
				return
			}

			scheme, secret, found := strings.Cut(authHeader, " ")
			if !found || scheme != "Bearer" || secret == "" {
				http.Error(w, "Unauthorized: Invalid authorization format", http.StatusUnauthorized)
				return
			}

			key, err := km.GetByKey(r.Context(), secret)
			if err != nil {
				log.Error().Err(err).Msg("Failed to look up API key")
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			if key == nil || !key.IsEnabled {
				http.Error(w, "Unauthorized: Invalid API key", http.StatusUnauthorized)
				return
			}

			recordKeyID(r.Context(), key.ID)
			ctx := context.WithValue(r.Context(), APIKeyContextKey, key.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CountKeyUsage adds one use to the key KeyAuth authenticated. Mount it
// after any limiter so rejected requests are not counted.
func CountKeyUsage(km *services.KeyManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, ok := GetAPIKeyID(r.Context()); ok {
				if _, err := km.RecordUsage(r.Context(), id); err != nil {
					log.Error().Err(err).Str("key_id", id).Msg("Failed to count API key use")
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetAPIKeyID returns the id of the key that authenticated the request.
func GetAPIKeyID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(APIKeyContextKey).(string)
	return id, ok
}

// RequestLogger appends a RequestLog for every request while the
// log_requests setting is on.
func RequestLogger(logs *services.LogStore, settings *services.SettingsService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			// KeyAuth runs inside this middleware and records the key id here.
			keyID := new(string)
			ctx := context.WithValue(r.Context(), loggedKeyContextKey, keyID)
			next.ServeHTTP(ww, r.WithContext(ctx))

			s, err := settings.GetSettings(r.Context())
			if err != nil {
				log.Error().Err(err).Msg("Failed to read settings for request logging")
				return
			}
			if !s.LogRequests {
				return
			}

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			entry := &models.RequestLog{
				Timestamp:  start.UnixMilli(),
				Path:       r.URL.Path,
				Method:     r.Method,
				Status:     status,
				DurationMs: time.Since(start).Milliseconds(),
				APIKeyID:   *keyID,
				ClientIP:   r.RemoteAddr,
				UserAgent:  r.UserAgent(),
			}
			if status >= http.StatusBadRequest {
				entry.Error = http.StatusText(status)
			}
			if _, err := logs.Add(r.Context(), entry); err != nil {
				log.Error().Err(err).Str("path", entry.Path).Msg("Failed to store request log")
			}
		})
	}
}

const loggedKeyContextKey contextKey = "logged_key_id"

// recordKeyID hands the authenticated key id back to RequestLogger.
func recordKeyID(ctx context.Context, id string) {
	if p, ok := ctx.Value(loggedKeyContextKey).(*string); ok {
		*p = id
	}
}
