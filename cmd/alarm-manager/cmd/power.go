package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-manager/internal/service/client"
)

//nolint:gochecknoglobals // Cobra commands are package-level by convention.
var (
	powerCmd = &cobra.Command{
		Use:   "power",
		Short: "Report system power events to the daemon.",
		Long: `Hooks for the system sleep scripts: "suspend" stops the alarms flagged
autostop-on-suspend, "resume" starts the ones flagged autostart-on-resume.`,
	}

	suspendCmd = &cobra.Command{
		Use:   "suspend",
		Short: "The system is going to sleep.",
		Args:  cobra.NoArgs,
		RunE: withClient(func(ctx context.Context, opts *client.Options, _ []string) error {
			return client.Suspend(ctx, opts)
		}),
	}

	resumeCmd = &cobra.Command{
		Use:   "resume",
		Short: "The system woke up.",
		Args:  cobra.NoArgs,
		RunE: withClient(func(ctx context.Context, opts *client.Options, _ []string) error {
			return client.Resume(ctx, opts)
		}),
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	powerCmd.AddCommand(suspendCmd, resumeCmd)
	rootCmd.AddCommand(powerCmd)
}
