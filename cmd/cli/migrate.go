package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/akeren/digitalcraft-dispatch/config"
	"github.com/akeren/digitalcraft-dispatch/pkg/migrations"
	"github.com/akeren/digitalcraft-dispatch/pkg/utils"
	"github.com/spf13/cobra"
)

const migrateTimeout = 5 * time.Minute

func newMigrateCmd(app *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the delivery audit schema",
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrationDB(cmd.Context(), app, func(ctx context.Context, db *sql.DB, cfg migrations.Config) error {
				return migrations.Down(ctx, db, cfg, steps)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrationDB(cmd.Context(), app, func(ctx context.Context, db *sql.DB, cfg migrations.Config) error {
					return migrations.Up(ctx, db, cfg)
				})
			},
		},
		down,
		&cobra.Command{
			Use:   "version",
			Short: "Show the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrationDB(cmd.Context(), app, func(ctx context.Context, db *sql.DB, cfg migrations.Config) error {
					state, err := migrations.Version(ctx, db, cfg)
					if err != nil {
						return err
					}
					if !state.Applied {
						fmt.Fprintln(app.out, "no migrations applied")
						return nil
					}
					fmt.Fprintf(app.out, "version %d (dirty=%t)\n", state.Version, state.Dirty)
					return nil
				})
			},
		},
	)

	return cmd
}

func withMigrationDB(parent context.Context, app *cliApp, fn func(ctx context.Context, db *sql.DB, cfg migrations.Config) error) error {
	if !config.DatabaseConfigured() {
		return config.ErrDatabaseNotConfigured
	}

	db, err := config.NewDatabase(app.logger, &config.DBConfig{})
	if err != nil {
		return fmt.Errorf("connect to database for migration: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get SQL DB instance for migration: %w", err)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			app.logger.Warn("Failed to close SQL DB after migration", "error", err.Error())
		}
	}()

	ctx, cancel := context.WithTimeout(parent, migrateTimeout)
	defer cancel()

	cfg := migrations.Config{
		Dir:    utils.GetEnvTrimmedOrDefault("MIGRATIONS_DIR", migrations.DefaultDir),
		Logger: app.logger,
	}
	return fn(ctx, sqlDB, cfg)
}
