package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"google.golang.org/grpc"

	"github.com/oshokin/alarm-manager/internal/api/dto"
	"github.com/oshokin/alarm-manager/internal/config"
	"github.com/oshokin/alarm-manager/internal/logger"
	"github.com/oshokin/alarm-manager/internal/service/common"
)

var (
	// ErrAmbiguousName is returned when several alarms share the given name.
	ErrAmbiguousName = errors.New("several alarms have this name, use the id")
	// ErrUnknownAlarm is returned when no alarm matches a reference.
	ErrUnknownAlarm = errors.New("no alarm with this id or name")
)

// Options configures how the CLI reaches the daemon.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// ServerAddress overrides the gRPC address from config when specified.
	ServerAddress string
	// Out receives the printed results, stdout when nil.
	Out io.Writer
	// Conn replaces dialing, used by tests.
	Conn grpc.ClientConnInterface
}

// session is one connected CLI invocation.
type session struct {
	client *common.Client
	out    io.Writer
}

// connect loads the settings and dials the daemon.
func connect(ctx context.Context, opts *Options) (*session, error) {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	if opts.Conn != nil {
		return &session{client: common.NewWithConn(opts.Conn), out: out}, nil
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	address := cfg.GRPCAddress
	if opts.ServerAddress != "" {
		address = opts.ServerAddress
	}

	logger.DebugKV(ctx, "Connecting to alarm manager", "grpc_address", address)

	client, err := common.Dial(ctx, address, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return nil, err
	}

	return &session{client: client, out: out}, nil
}

func (s *session) close(ctx context.Context) {
	if err := s.client.Close(); err != nil {
		logger.WarnKV(ctx, "Failed to close connection", "error", err)
	}
}

// resolve turns an identifier or a name into an alarm identifier.
func (s *session) resolve(ctx context.Context, ref string) (string, error) {
	if _, err := dto.ParseID(ref); err == nil {
		return ref, nil
	}

	list, err := s.client.ListAlarms(ctx)
	if err != nil {
		return "", err
	}

	var found []string

	for _, status := range list.Alarms {
		if strings.EqualFold(status.Alarm.Name, ref) {
			found = append(found, status.Alarm.ID)
		}
	}

	switch len(found) {
	case 0:
		return "", fmt.Errorf("%w: %q", ErrUnknownAlarm, ref)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("%w: %q", ErrAmbiguousName, ref)
	}
}

// withSession connects, runs fn and closes the connection.
func withSession(ctx context.Context, opts *Options, fn func(s *session) error) error {
	s, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	defer s.close(ctx)

	return fn(s)
}
