package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-manager/internal/service/client"
)

//nolint:gochecknoglobals // Bound to cobra flags.
var defaultAlertFlags alertFlags

//nolint:gochecknoglobals // Cobra commands are package-level by convention.
var (
	defaultAlertCmd = &cobra.Command{
		Use:   "default-alert",
		Short: "Show or change the alert of alarms without their own.",
	}

	defaultAlertGetCmd = &cobra.Command{
		Use:   "get",
		Short: "Print the default alert.",
		Args:  cobra.NoArgs,
		RunE: withClient(func(ctx context.Context, opts *client.Options, _ []string) error {
			return client.ShowDefaultAlert(ctx, opts)
		}),
	}

	defaultAlertSetCmd = &cobra.Command{
		Use:   "set",
		Short: "Change the default alert. Only the flags passed are changed.",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			edit := defaultAlertFlags.edit(command.Flags())
			if edit == nil {
				return command.Help()
			}

			return client.SetDefaultAlert(ctx, clientOptions(command), edit)
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	defaultAlertFlags.register(defaultAlertSetCmd.Flags())

	defaultAlertCmd.AddCommand(defaultAlertGetCmd, defaultAlertSetCmd)
	rootCmd.AddCommand(defaultAlertCmd)
}
