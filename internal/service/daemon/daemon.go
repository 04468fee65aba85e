package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"

	api "github.com/oshokin/alarm-manager/internal/api/grpc/alarm"
	"github.com/oshokin/alarm-manager/internal/api/rest"
	"github.com/oshokin/alarm-manager/internal/clock"
	"github.com/oshokin/alarm-manager/internal/config"
	"github.com/oshokin/alarm-manager/internal/logger"
	"github.com/oshokin/alarm-manager/internal/observability/metrics"
	"github.com/oshokin/alarm-manager/internal/repository/registry"
	"github.com/oshokin/alarm-manager/internal/service/scheduler"
	"github.com/oshokin/alarm-manager/internal/version"
)

// shutdownTimeout bounds the graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

// Options controls the daemon process and overrides the settings file.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// GRPCAddress overrides the gRPC listen address.
	GRPCAddress string
	// HTTPAddress overrides the HTTP listen address.
	HTTPAddress string
	// StorePath overrides the file of the file store.
	StorePath string
	// LogLevel overrides the log level.
	LogLevel string
}

// Run starts the daemon and blocks until ctx is cancelled or a server fails.
//
//nolint:funlen // Linear start-up sequence.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "daemon")

	cfg, err := loadSettings(opts)
	if err != nil {
		return err
	}

	if level, ok := logger.ParseLogLevel(cfg.LogLevel); ok {
		logger.SetLevel(level)
	}

	metrics.Init()

	logger.InfoKV(ctx, "Starting alarm manager", "version", version.Short(), "commit", version.Commit)

	guard := newPIDGuard(cfg.PIDFile)
	if err := guard.acquire(ctx); err != nil {
		return err
	}

	defer guard.release(ctx)

	st, closer, err := openStore(ctx, &cfg.Store)
	if err != nil {
		return err
	}

	defer func() {
		if err := closer.Close(); err != nil {
			logger.WarnKV(ctx, "Failed to close store", "error", err)
		}
	}()

	reg := registry.New(st)
	if err := reg.Load(ctx); err != nil {
		return fmt.Errorf("load alarms: %w", err)
	}

	actions, releaseActions := buildActions(ctx, cfg)
	defer releaseActions()

	sched := scheduler.New(reg, clock.System{}, actions)

	lc := net.ListenConfig{}

	grpcListener, err := lc.Listen(ctx, "tcp", cfg.GRPCAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.GRPCAddress, err)
	}

	var httpListener net.Listener

	if cfg.HTTPAddress != "" {
		httpListener, err = lc.Listen(ctx, "tcp", cfg.HTTPAddress)
		if err != nil {
			_ = grpcListener.Close() //nolint:errcheck // Already failing.

			return fmt.Errorf("listen on %s: %w", cfg.HTTPAddress, err)
		}
	}

	// The scheduler outlives the servers so in-flight calls complete.
	schedulerCtx, stopScheduler := context.WithCancel(context.WithoutCancel(ctx))
	schedulerDone := make(chan struct{})

	go func() {
		defer close(schedulerDone)

		_ = sched.Run(schedulerCtx) //nolint:errcheck // Run only stops on cancellation.
	}()

	defer func() {
		stopScheduler()
		<-schedulerDone
	}()

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(api.UnaryInterceptor))
	api.RegisterAlarmServiceServer(grpcServer, api.NewServer(sched))

	errs := make(chan error, 2)

	go func() {
		logger.InfoKV(ctx, "gRPC server listening", "grpc_address", grpcListener.Addr().String())

		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errs <- fmt.Errorf("serve gRPC: %w", err)
		}
	}()

	var httpServer *http.Server

	if httpListener != nil {
		gin.SetMode(gin.ReleaseMode)

		httpServer = &http.Server{
			Handler:           rest.NewRouter(ctx, sched),
			ReadHeaderTimeout: cfg.Timeout,
		}

		go func() {
			logger.InfoKV(ctx, "HTTP server listening", "http_address", httpListener.Addr().String())

			if err := httpServer.Serve(httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs <- fmt.Errorf("serve HTTP: %w", err)
			}
		}()
	}

	var result error

	select {
	case <-ctx.Done():
		logger.Info(ctx, "Shutting down")
	case result = <-errs:
		logger.ErrorKV(ctx, "Server failed, shutting down", "error", result)
	}

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.WarnKV(ctx, "HTTP shutdown incomplete", "error", err)
		}

		cancel()
	}

	grpcServer.GracefulStop()
	logger.Info(ctx, "Servers stopped")

	return result
}

// loadSettings reads the settings file and applies the command line overrides.
func loadSettings(opts *Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if opts.GRPCAddress != "" {
		cfg.GRPCAddress = opts.GRPCAddress
	}

	if opts.HTTPAddress != "" {
		cfg.HTTPAddress = opts.HTTPAddress
	}

	if opts.StorePath != "" {
		cfg.Store.Path = opts.StorePath
	}

	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate settings: %w", err)
	}

	return cfg, nil
}
