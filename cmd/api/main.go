package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/akagifreeez/cookie-relay/internal/config"
	"github.com/akagifreeez/cookie-relay/internal/events"
	"github.com/akagifreeez/cookie-relay/internal/handlers"
	"github.com/akagifreeez/cookie-relay/internal/services"
)

func main() {
	// Setup logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Str("environment", cfg.Environment).Str("backend", cfg.Backend).Msg("Starting Cookie Relay API")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to storage
	store, err := config.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer store.Close()

	// Change events (optional)
	var publisher events.Publisher = &events.NoopPublisher{}
	if cfg.NATSURL != "" {
		natsPublisher, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to NATS, events disabled")
		} else {
			publisher = natsPublisher
			log.Info().Str("url", cfg.NATSURL).Msg("Publishing change events to NATS")
		}
	}
	defer publisher.Close()

	// Initialize services
	svc := services.New(store, services.Options{
		MaxFailCount:   cfg.MaxFailCount,
		MaxLogEntries:  cfg.MaxLogEntries,
		DefaultCookies: cfg.DefaultCookies,
		DefaultAPIKeys: cfg.DefaultAPIKeys,
		Publisher:      publisher,
	})

	// Seed defaults before serving
	report, err := svc.InitializeDatabase(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	log.Info().Int("cookies", report.Cookies).Int("api_keys", report.APIKeys).Msg("Database initialized")

	r := handlers.NewRouter(svc, handlers.RouterOptions{
		RequireAPIKey:      cfg.RequireAPIKey,
		RateLimitPerMinute: cfg.RateLimit,
	})

	// Start server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("Shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
		cancel()
	}()

	log.Info().Str("port", cfg.Port).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server error")
	}

	log.Info().Msg("Server stopped")
}
