package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/robalobadob/cuca/internal/client"
	"github.com/robalobadob/cuca/internal/game"
	"github.com/robalobadob/cuca/internal/progress"
	"github.com/robalobadob/cuca/internal/tui"
	"github.com/robalobadob/cuca/internal/words"
)

// clientFlags registers the flags shared by play and stats.
func clientFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.SetNormalizeFunc(normalizeFlags)
	fs.StringVar(&cfg.apiURL, "api-url", "http://localhost:5000", "Cuca server base URL (env: CUCA_API_URL)")
	fs.StringVar(&cfg.userFile, "user-file", defaultStatePath("user"), "file holding this player's id (env: CUCA_USER_FILE)")
	fs.StringVar(&cfg.bombFile, "bomb-file", defaultStatePath("bomb.json"), "file holding running bomb timers (env: CUCA_BOMB_FILE)")
}

func newPlayCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play today's word in the terminal.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.validateClient(); err != nil {
				return err
			}
			closeLog, err := logToFile(filepath.Join(filepath.Dir(cfg.userFile), "play.log"))
			if err != nil {
				return err
			}
			defer closeLog()

			api, err := client.NewAPI(cfg.apiURL, nil)
			if err != nil {
				return err
			}
			userID, err := client.LoadUserID(cfg.userFile)
			if err != nil {
				return err
			}
			mode, _ := game.ParseMode(cfg.mode)
			m := tui.New(api, client.NewBombStore(cfg.bombFile), userID, cfg.theme, mode)
			return tui.Run(m)
		},
	}
	fs := cmd.Flags()
	clientFlags(fs, cfg)
	fs.StringVarP(&cfg.theme, "theme", "t", words.ThemeGeneral, "geral, verbs or adjectives (env: CUCA_THEME)")
	fs.StringVarP(&cfg.mode, "mode", "m", string(game.ModeNormal), "normal, bomba or reverse (env: CUCA_MODE)")
	return cmd
}

func newStatsCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print this player's stats.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.validateClient(); err != nil {
				return err
			}
			api, err := client.NewAPI(cfg.apiURL, nil)
			if err != nil {
				return err
			}
			userID, err := client.LoadUserID(cfg.userFile)
			if err != nil {
				return err
			}
			rows, err := api.Stats(cmd.Context(), userID)
			if err != nil {
				return err
			}
			return printStats(cmd.OutOrStdout(), rows)
		},
	}
	clientFlags(cmd.Flags(), cfg)
	return cmd
}

// logToFile sends the global logger to path while the TUI owns the terminal.
func logToFile(path string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.Logger = zerolog.New(f).With().Timestamp().Logger()
	return func() { _ = f.Close() }, nil
}

// printStats writes one line per (mode, theme).
func printStats(w io.Writer, rows []progress.StatsRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "Nenhuma partida concluída ainda.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join([]string{"MODO", "TEMA", "JOGOS", "VITÓRIAS", "DERROTAS", "% VITÓRIAS", "SEQUÊNCIA", "TENTATIVAS", "TEMPO"}, "\t"))
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d%%\t%d\t%d\t%ds\n",
			r.ModeName, r.ThemeName, r.TotalGames, r.Wins, r.Losses, r.WinPercent, r.Streak, r.TotalAttempts, r.TotalTime)
	}
	return tw.Flush()
}
