// Package app provides the command tree of the Classroom API binary.
package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/classroom-api/pkg/config"
	"github.com/noah-isme/classroom-api/pkg/logger"
)

// Version is stamped at build time with -ldflags "-X .../app.Version=...".
var Version = "dev"

const envFileFlag = "env-file"

// NewRootCmd builds the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "classroom-api",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "Teacher and student administration API",
		Long: `classroom-api registers students under teachers, answers which students
are common to a set of teachers, suspends students and resolves the recipients
of a teacher's notification.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().String(envFileFlag, ".env", "Path to an optional dotenv file")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), Version)
			return err
		},
	}
}

// loadRuntime reads configuration and builds the logger shared by commands.
func loadRuntime(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	path, err := cmd.Flags().GetString(envFileFlag)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get %s flag: %w", envFileFlag, err)
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return cfg, logr, nil
}
