package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/robalobadob/cuca/internal/store"
)

func newMigrateCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema (defaults to up).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return store.MigrateUp(cfg.databaseURL)
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return store.MigrateUp(cfg.databaseURL)
			},
		},
		&cobra.Command{
			Use:   "down N",
			Short: "Roll back the last N migrations.",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return store.MigrateDown(cfg.databaseURL, steps)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the applied schema version.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				version, dirty, ok, err := store.MigrationVersion(cfg.databaseURL)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch {
				case !ok:
					fmt.Fprintln(out, "no migrations applied")
				case dirty:
					fmt.Fprintf(out, "version %d (dirty)\n", version)
				default:
					fmt.Fprintf(out, "version %d\n", version)
				}
				return nil
			},
		},
	)
	return cmd
}
