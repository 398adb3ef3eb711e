package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/clitools/internal/service/updater"
)

// UpdateAllCommand is the name of the subcommand installing every configured tool.
const UpdateAllCommand = "update_all"

func newUpdateAllCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   UpdateAllCommand,
		Short: "Install or update all commands",
		Long: `Reads the configuration file, fetches the latest GitHub release of every listed tool,
downloads the asset whose URL contains bin_part_name, extracts it and installs the binary into bin_path.

A failing tool does not stop the others. The command exits with a non-zero status
if any tool failed after all of them were attempted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			summary, err := updater.Run(ctx, &updater.Options{ConfigPath: *configPath})
			if summary != nil {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), summary.String())
			}

			return err
		},
	}
}
