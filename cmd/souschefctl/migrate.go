package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pageza/souschef/backend/internal/database"
)

func newMigrateCmd(a *app) *cobra.Command {
	var dir string
	var wait time.Duration

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if wait > 0 {
				cfg, err := a.loadConfig()
				if err != nil {
					return err
				}
				if cfg.Database.Driver == "postgres" {
					log, err := a.logger()
					if err != nil {
						return err
					}
					ctx, cancel := context.WithTimeout(cmd.Context(), wait)
					err = database.WaitForPostgres(ctx, cfg.Database, log)
					cancel()
					if err != nil {
						return err
					}
				}
			}

			db, log, err := a.connect(a)
			if err != nil {
				return err
			}
			if dir == "" && a.cfg != nil {
				dir = a.cfg.Database.MigrationsDir
			}
			if err := database.RunMigrations(db, dir, log); err != nil {
				return err
			}
			if db.Dialector.Name() == "sqlite" {
				fmt.Fprintln(cmd.OutOrStdout(), "sqlite schema synced with auto-migrate")
				return nil
			}

			applied, err := database.AppliedMigrations(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d migrations applied\n", len(applied))
			return nil
		},
	}
	migrateCmd.Flags().StringVar(&dir, "dir", "", "migrations directory (defaults to database.migrations_dir)")
	migrateCmd.Flags().DurationVar(&wait, "wait", 30*time.Second, "how long to wait for postgres to accept connections")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "List applied migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := a.connect(a)
			if err != nil {
				return err
			}
			if db.Dialector.Name() == "sqlite" {
				fmt.Fprintln(cmd.OutOrStdout(), "sqlite uses auto-migrate; no migration history is kept")
				return nil
			}
			applied, err := database.AppliedMigrations(db)
			if err != nil {
				return fmt.Errorf("failed to read migrations table: %w", err)
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
	migrateCmd.AddCommand(statusCmd)
	return migrateCmd
}
