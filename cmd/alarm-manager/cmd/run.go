package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-manager/internal/service/daemon"
)

//nolint:gochecknoglobals // Cobra commands are package-level by convention.
var runOptions daemon.Options

//nolint:gochecknoglobals // Cobra commands are package-level by convention.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the alarm daemon.",
	Long: `Starts the daemon: restores the running countdowns, serves the gRPC API
and, when an HTTP address is configured, the REST API with /metrics.

Stops on SIGINT or SIGTERM; alarms flagged autostop are stopped on the way out.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		// Setup graceful shutdown handling.
		ctx, stop := signalContext()
		defer stop()

		runOptions.ConfigPath = cfgPath
		if runOptions.GRPCAddress == "" {
			runOptions.GRPCAddress = serverAddress
		}

		return daemon.Run(ctx, &runOptions)
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	runCmd.Flags().StringVar(&runOptions.GRPCAddress, "grpc-addr", "", "gRPC listen address")
	runCmd.Flags().StringVar(&runOptions.HTTPAddress, "http-addr", "", "HTTP listen address, enables the REST API")
	runCmd.Flags().StringVar(&runOptions.StorePath, "store", "", "alarm file of the file store")
	runCmd.Flags().StringVar(&runOptions.LogLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(runCmd)
}
