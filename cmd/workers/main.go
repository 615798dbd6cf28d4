package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/akagifreeez/cookie-relay/internal/backup"
	"github.com/akagifreeez/cookie-relay/internal/config"
	"github.com/akagifreeez/cookie-relay/internal/services"
	"github.com/akagifreeez/cookie-relay/internal/workers"
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

	log.Info().Str("environment", cfg.Environment).Str("backend", cfg.Backend).Msg("Starting Cookie Relay Workers")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to storage
	store, err := config.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer store.Close()

	svc := services.New(store, services.Options{
		MaxFailCount:  cfg.MaxFailCount,
		MaxLogEntries: cfg.MaxLogEntries,
	})

	// Create workers
	healthMonitor := workers.NewHealthMonitor(svc, cfg.HealthCheckInterval)
	go healthMonitor.Start(ctx)

	var scheduler *backup.Scheduler
	if cfg.BackupS3Bucket != "" {
		dest, err := backup.NewS3Destination(ctx, cfg.BackupS3Bucket, cfg.BackupS3Key, cfg.BackupS3Region, cfg.BackupS3Endpoint)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create S3 backup destination")
		}
		scheduler = backup.NewScheduler(store, []backup.Destination{dest}, cfg.BackupInterval)
		scheduler.Start(ctx)
		log.Info().Str("bucket", cfg.BackupS3Bucket).Dur("interval", cfg.BackupInterval).Msg("Backup scheduler started")
	} else {
		log.Info().Msg("BACKUP_S3_BUCKET not set, backups disabled")
	}

	log.Info().Msg("All workers started")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("Shutdown signal received, stopping workers...")
	cancel()
	if scheduler != nil {
		scheduler.Stop()
	}

	log.Info().Msg("Workers stopped")
}
