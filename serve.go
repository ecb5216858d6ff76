package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/cuca/internal/daily"
	"github.com/robalobadob/cuca/internal/httpserver"
	"github.com/robalobadob/cuca/internal/progress"
	"github.com/robalobadob/cuca/internal/store"
	"github.com/robalobadob/cuca/internal/words"
)

func newServeCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP game server.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.validateServe(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(normalizeFlags)
	defaults := httpserver.DefaultConfig()
	fs.IntVarP(&cfg.port, "port", "p", 5000, "port to listen on (env: CUCA_PORT, PORT)")
	fs.StringVar(&cfg.clientOrigin, "client-origin", defaults.ClientOrigin, "allowed CORS origin, * for any (env: CUCA_CLIENT_ORIGIN)")
	fs.StringVar(&cfg.wordsDir, "words-dir", "", "directory with geral.txt, verbs.txt, ...; embedded lists when empty (env: CUCA_WORDS_DIR)")
	fs.DurationVar(&cfg.storeTimeout, "store-timeout", progress.DefaultTimeout, "timeout of each store call (env: CUCA_STORE_TIMEOUT)")
	fs.DurationVar(&cfg.requestTimeout, "request-timeout", defaults.RequestTimeout, "timeout of each request (env: CUCA_REQUEST_TIMEOUT)")
	fs.IntVar(&cfg.rateLimitRPS, "rate-limit-rps", defaults.RateLimitRPS, "saves per second allowed per client IP (env: CUCA_RATE_LIMIT_RPS)")
	fs.IntVar(&cfg.rateLimitBurst, "rate-limit-burst", defaults.RateLimitBurst, "burst of saves allowed per client IP (env: CUCA_RATE_LIMIT_BURST)")
	fs.BoolVar(&cfg.warm, "warm", true, "assign today's words at startup (env: CUCA_WARM)")
	return cmd
}

func serve(ctx context.Context, cfg *Config) error {
	pool, err := words.Load(cfg.wordsDir)
	if err != nil {
		return fmt.Errorf("load word lists: %w", err)
	}
	log.Info().Interface("words", pool.Counts()).Msg("word lists loaded")

	st, err := store.Open(ctx, cfg.databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn().Err(err).Msg("close store")
		}
	}()

	alloc := daily.NewAllocator(pool, st)
	if cfg.warm {
		warmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		if err := alloc.Warm(warmCtx); err != nil {
			// Words are still assigned on first request.
			log.Warn().Err(err).Msg("warm daily words")
		}
		cancel()
	}

	svc := progress.NewService(alloc, st, progress.WithTimeout(cfg.storeTimeout))
	srv := httpserver.New(svc, pool, httpserver.Config{
		ClientOrigin:   cfg.clientOrigin,
		RequestTimeout: cfg.requestTimeout,
		RateLimitRPS:   cfg.rateLimitRPS,
		RateLimitBurst: cfg.rateLimitBurst,
	})

	backend, _, _ := store.ParseDSN(cfg.databaseURL)
	log.Info().Int("port", cfg.port).Str("store", string(backend)).Msg("starting cuca server")
	return srv.Run(ctx, fmt.Sprintf(":%d", cfg.port))
}
