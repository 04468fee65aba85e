package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-manager/internal/service/autostart"
)

//nolint:gochecknoglobals // Cobra commands are package-level by convention.
var (
	autostartCmd = &cobra.Command{
		Use:   "autostart",
		Short: "Manage starting the daemon at login.",
	}

	autostartEnableCmd = &cobra.Command{
		Use:   "enable",
		Short: "Start the daemon at login with the current configuration.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			return autostart.New().Enable(ctx, cfgPath)
		},
	}

	autostartDisableCmd = &cobra.Command{
		Use:   "disable",
		Short: "Stop starting the daemon at login.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			return autostart.New().Disable(ctx)
		},
	}

	autostartStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Tell whether the daemon starts at login.",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			state := "disabled"
			if autostart.New().IsEnabled() {
				state = "enabled"
			}

			_, err := fmt.Fprintln(command.OutOrStdout(), "autostart", state)

			return err
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	autostartCmd.AddCommand(autostartEnableCmd, autostartDisableCmd, autostartStatusCmd)
	rootCmd.AddCommand(autostartCmd)
}
