// main.go
//
// Entry point of the cuca binary.
// Commands:
//   - serve:   run the HTTP game server.
//   - migrate: apply, roll back or inspect the database schema.
//   - play:    play today's word in the terminal against a server.
//   - stats:   print a player's stats from a server.

package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const releaseVersion = "1.0.0"

func main() {
	_ = godotenv.Load()
	cfg := &Config{}
	if err := newRootCmd(cfg).Execute(); err != nil {
		log.Error().Err(err).Msg("cuca")
		os.Exit(1)
	}
}

func newRootCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cuca",
		Short:   "Daily five-letter word game in Portuguese: server and terminal client.",
		Args:    cobra.NoArgs,
		Version: releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			bindEnv(cmd.Flags())
			if err := cfg.validateShared(); err != nil {
				return err
			}
			setupLogging(cfg)
			return nil
		},
	}

	pfs := cmd.PersistentFlags()
	pfs.SetNormalizeFunc(normalizeFlags)
	pfs.StringVar(&cfg.logLevel, "log-level", "info", "trace, debug, info, warn or error (env: CUCA_LOG_LEVEL)")
	pfs.StringVar(&cfg.logFormat, "log-format", "console", "json or console (env: CUCA_LOG_FORMAT)")
	pfs.StringVar(&cfg.databaseURL, "database-url", "sqlite://cuca.db",
		"memory, sqlite://path or postgres://... (env: CUCA_DATABASE_URL, DATABASE_URL, ATLAS_URI)")

	cmd.AddCommand(
		newServeCmd(cfg),
		newMigrateCmd(cfg),
		newPlayCmd(cfg),
		newStatsCmd(cfg),
	)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetVersionTemplate("cuca v{{.Version}}\n")
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return cmd
}

// setupLogging configures the global zerolog logger.
func setupLogging(cfg *Config) {
	lvl, err := zerolog.ParseLevel(cfg.logLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.logFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
