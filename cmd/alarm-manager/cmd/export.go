package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-manager/internal/logger"
	"github.com/oshokin/alarm-manager/internal/service/client"
)

//nolint:gochecknoglobals // Cobra commands are package-level by convention.
var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the alarm clocks as an iCalendar file.",
	Long: `Writes the alarm clocks and their recurrences as VEVENTs with VALARMs.
Without a file the calendar goes to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(command *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		opts := clientOptions(command)

		if len(args) == 0 {
			return client.Export(ctx, opts, command.OutOrStdout())
		}

		return exportToFile(ctx, opts, args[0])
	},
}

func exportToFile(ctx context.Context, opts *client.Options, path string) error {
	//nolint:gosec // The path is given by the user.
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err = client.Export(ctx, opts, file); err != nil {
		_ = file.Close()

		return err
	}

	if err = file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	logger.InfoKV(ctx, "Calendar exported", "path", path)

	return nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(exportCmd)
}
