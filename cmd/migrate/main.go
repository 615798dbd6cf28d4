package main

import (
	"context"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/akagifreeez/cookie-relay/internal/backup"
	"github.com/akagifreeez/cookie-relay/internal/config"
)

// migrate copies every entry from the MIGRATE_SOURCE_* backend into the
// configured one, e.g. MIGRATE_SOURCE_BACKEND=sqlite into BACKEND=postgres.
func main() {
	// Setup logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	source := &config.Config{}
	if err := env.ParseWithOptions(source, env.Options{Prefix: "MIGRATE_SOURCE_"}); err != nil {
		log.Fatal().Err(err).Msg("Failed to load source configuration")
	}
	if err := source.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid source configuration")
	}
	if source.Backend == cfg.Backend && source.Backend == config.BackendMemory {
		log.Fatal().Msg("Nothing to migrate between two in-memory backends")
	}

	ctx := context.Background()

	src, err := config.OpenStore(ctx, source)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open source store")
	}
	defer src.Close()

	dst, err := config.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open target store")
	}
	defer dst.Close()

	log.Info().Str("from", source.Backend).Str("to", cfg.Backend).Msg("Copying entries")
	n, err := backup.Copy(ctx, src, dst)
	if err != nil {
		log.Fatal().Err(err).Int("copied", n).Msg("Migration failed")
	}

	log.Info().Int("entries", n).Msg("Migration completed")
}
