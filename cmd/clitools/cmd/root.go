package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oshokin/clitools/internal/config"
	"github.com/oshokin/clitools/internal/logger"
	"github.com/oshokin/clitools/internal/version"
)

// newRootCmd builds the command tree; tests build a fresh one per case.
func newRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	rootCmd := &cobra.Command{
		Use:           version.Name,
		Short:         "My CLI management tools",
		Long:          "Install or update command-line tools published as GitHub releases.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				return fmt.Errorf("unknown log level %q", logLevel)
			}

			logger.SetLevel(level)

			return nil
		},
	}

	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")

	rootCmd.AddCommand(newUpdateAllCmd(&configPath))
	version.AttachCobraVersionCommand(rootCmd)

	return rootCmd
}

// Execute runs the clitools CLI and exits with non-zero status on error.
func Execute() {
	rootCmd := newRootCmd()

	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		os.Exit(1)
	}
}
