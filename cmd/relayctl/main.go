package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/akagifreeez/cookie-relay/internal/config"
	"github.com/akagifreeez/cookie-relay/internal/services"
	"github.com/akagifreeez/cookie-relay/pkg/kv"
)

var (
	jsonOutput bool
	verbose    bool

	cfg   *config.Config
	store kv.Store
	svc   *services.Services
)

var rootCmd = &cobra.Command{
	Use:           "relayctl",
	Short:         "Operate on the cookie relay's stored state",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := zerolog.WarnLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).Level(level)

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		store, err = config.OpenStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		svc = services.New(store, services.Options{
			MaxFailCount:   cfg.MaxFailCount,
			MaxLogEntries:  cfg.MaxLogEntries,
			DefaultCookies: cfg.DefaultCookies,
			DefaultAPIKeys: cfg.DefaultAPIKeys,
		})
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if store != nil {
			return store.Close()
		}
		return nil
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Seed default cookies and API keys into empty collections",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := svc.InitializeDatabase(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d cookies and %d API keys\n", report.Cookies, report.APIKeys)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(cookiesCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
