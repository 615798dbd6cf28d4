package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/akagifreeez/cookie-relay/internal/services"
)

// RouterOptions toggles the optional middleware.
type RouterOptions struct {
	// RequireAPIKey puts every /api/v1 route behind KeyAuth.
	RequireAPIKey bool
	// RateLimitPerMinute caps requests per API key; zero disables it.
	// Only applies with RequireAPIKey.
	RateLimitPerMinute int
}

// NewRouter wires the admin API over svc.
func NewRouter(svc *services.Services, opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// CORS
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	cookieHandler := NewCookieHandler(svc.Cookies)
	keyHandler := NewKeyHandler(svc.Keys)
	logHandler := NewLogHandler(svc.Logs)
	settingsHandler := NewSettingsHandler(svc.Settings)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RequestLogger(svc.Logs, svc.Settings))
		if opts.RequireAPIKey {
			r.Use(KeyAuth(svc.Keys))
			if opts.RateLimitPerMinute > 0 {
				r.Use(NewKeyRateLimiter(opts.RateLimitPerMinute).Middleware)
			}
			r.Use(CountKeyUsage(svc.Keys))
		}

		r.Route("/cookies", func(r chi.Router) {
			r.Get("/", cookieHandler.ListCookies)
			r.Post("/", cookieHandler.AddCookie)
			r.Get("/next", cookieHandler.NextCookie)
			r.Put("/{id}", cookieHandler.UpdateCookie)
			r.Delete("/{id}", cookieHandler.DeleteCookie)
			r.Post("/{id}/reset", cookieHandler.ResetCookie)
		})

		r.Route("/keys", func(r chi.Router) {
			r.Get("/", keyHandler.ListKeys)
			r.Post("/", keyHandler.RegisterKey)
			r.Patch("/{id}", keyHandler.UpdateKey)
			r.Delete("/{id}", keyHandler.DeleteKey)
		})

		r.Route("/logs", func(r chi.Router) {
			r.Get("/", logHandler.GetRecent)
			r.Get("/count", logHandler.Count)
		})

		r.Get("/settings", settingsHandler.GetSettings)
		r.Put("/settings", settingsHandler.UpdateSettings)
		r.Get("/model-mappings", settingsHandler.GetModelMappings)
		r.Put("/model-mappings", settingsHandler.UpdateModelMappings)
		r.Get("/model-mappings/resolve", settingsHandler.ResolveModel)
	})

	return r
}
