package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zefruta/storefront/internal/storefront/app"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the session database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := app.MigrateUp(opts.cfg)
			if err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}
			cmd.Printf("Schema of %s at version %d\n", opts.cfg.DatabaseFile, version)
			return nil
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down <steps>",
		Short: "Roll back migrations by step count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := strconv.Atoi(args[0])
			if err != nil || steps <= 0 {
				return fmt.Errorf("invalid steps %q: must be a positive integer", args[0])
			}

			version, err := app.MigrateDown(opts.cfg, steps)
			if err != nil {
				return fmt.Errorf("rollback migrations: %w", err)
			}
			cmd.Printf("Schema of %s at version %d\n", opts.cfg.DatabaseFile, version)
			return nil
		},
	})

	return migrateCmd
}
