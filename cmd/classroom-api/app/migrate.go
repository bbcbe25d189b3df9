package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/classroom-api/pkg/database"
)

func newMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tool",
		Long:  `Database migration tool for managing schema versions. Use with 'up', 'down' or 'status' subcommands.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *database.Migrator, logr *zap.Logger) error {
				if err := m.Up(ctx); err != nil {
					return err
				}
				version, err := m.Version(ctx)
				if err != nil {
					logr.Warn("unable to read migration version", zap.Error(err))
					return nil
				}
				logr.Info("migrations applied", zap.Int64("version", version))
				return nil
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *database.Migrator, logr *zap.Logger) error {
				if err := m.Down(ctx); err != nil {
					return err
				}
				logr.Info("migration rolled back")
				return nil
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the state of every migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *database.Migrator, _ *zap.Logger) error {
				return m.Status(ctx)
			})
		},
	})

	return migrateCmd
}

func withMigrator(cmd *cobra.Command, fn func(ctx context.Context, m *database.Migrator, logr *zap.Logger) error) error {
	cfg, logr, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logr.Error("error closing database connection", zap.Error(closeErr))
		}
	}()

	return fn(ctx, database.NewMigrator(db.DB, logr), logr)
}
