package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/alarm-manager/internal/config"
	"github.com/oshokin/alarm-manager/internal/logger"
	"github.com/oshokin/alarm-manager/internal/service/client"
	"github.com/oshokin/alarm-manager/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// serverAddress overrides the gRPC address of the daemon.
	serverAddress string
	// verbose shows the debug and info logs of the client commands.
	verbose bool

	// rootCmd represents the base command.
	rootCmd = &cobra.Command{
		Use:   "alarm-manager",
		Short: "Timers and alarm clocks with escalating alerts.",
		Long: `Keeps a list of countdown timers and time-of-day alarms.

The "run" command starts the daemon that holds the countdowns, fires the alarms
and escalates them with notifications, sounds and programs until acknowledged.
The other commands talk to the running daemon over gRPC.`,
		SilenceUsage: true,
		PersistentPreRun: func(command *cobra.Command, _ []string) {
			// The daemon logs to stdout; client commands keep stdout for results.
			if command == runCmd {
				return
			}

			floor := zapcore.WarnLevel
			if verbose {
				floor = zapcore.DebugLevel
			}

			logger.SetLogger(logger.NewWithWriter(os.Stderr, nil, logger.WithFloor(floor)))
		},
	}
)

// Execute runs the alarm-manager CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGTERM or SIGINT.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
}

// clientOptions builds the options of the client commands.
func clientOptions(command *cobra.Command) *client.Options {
	return &client.Options{
		ConfigPath:    cfgPath,
		ServerAddress: serverAddress,
		Out:           command.OutOrStdout(),
	}
}

// withClient adapts a client operation to a cobra RunE.
func withClient(fn func(ctx context.Context, opts *client.Options, args []string) error) func(*cobra.Command, []string) error {
	return func(command *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		return fn(ctx, clientOptions(command), args)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&serverAddress, "server", "s", "", "gRPC address of the daemon (overrides the configuration)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log the progress of client commands to stderr")
}
