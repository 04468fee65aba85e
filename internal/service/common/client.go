//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/alarm-manager/internal/api/dto"
	api "github.com/oshokin/alarm-manager/internal/api/grpc/alarm"
	"github.com/oshokin/alarm-manager/internal/config"
	"github.com/oshokin/alarm-manager/internal/version"
)

// Client wraps the AlarmService gRPC API with typed helpers.
type Client struct {
	// conn is the underlying gRPC connection to the alarm manager.
	conn grpc.ClientConnInterface
	// closer releases conn, nil for borrowed connections.
	closer func() error

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
	// origin is sent with every call for the daemon's logs.
	origin string
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithOrigin overrides the user@host sent with every call.
func WithOrigin(origin string) Option {
	return func(c *Client) {
		c.origin = origin
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial establishes a gRPC connection to the alarm manager.
// Note: this uses insecure transport credentials; the daemon listens on
// loopback by default.
func Dial(ctx context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	// Use the non-context NewClient API recommended by grpc-go
	// (DialContext is deprecated as of grpc-go v1.60+).
	conn, err := grpc.NewClient(address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUserAgent(version.UserAgent()),
	)
	if err != nil {
		return nil, fmt.Errorf("dial alarm manager: %w", err)
	}

	client := newClient(conn, opts...)
	client.closer = conn.Close

	if client.origin == "" {
		client.origin = detectOrigin(ctx)
	}

	return client, nil
}

// NewWithConn wraps an existing connection; Close leaves it open.
func NewWithConn(conn grpc.ClientConnInterface, opts ...Option) *Client {
	return newClient(conn, opts...)
}

func newClient(conn grpc.ClientConnInterface, opts ...Option) *Client {
	client := &Client{
		conn:        conn,
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.closer == nil {
		return nil
	}

	return c.closer()
}

// ListAlarms returns all alarms in display order.
func (c *Client) ListAlarms(ctx context.Context) (dto.StatusList, error) {
	var result dto.StatusList

	err := c.invokeStruct(ctx, api.MethodListAlarms, new(emptypb.Empty), &result)
	if err != nil {
		return result, fmt.Errorf("list alarms: %w", err)
	}

	return result, nil
}

// GetAlarm returns one alarm.
func (c *Client) GetAlarm(ctx context.Context, id string) (dto.Status, error) {
	var result dto.Status

	if err := c.invokeStruct(ctx, api.MethodGetAlarm, wrapperspb.String(id), &result); err != nil {
		return result, fmt.Errorf("get alarm: %w", err)
	}

	return result, nil
}

// SaveAlarm creates an alarm, or replaces it when the ID is set.
func (c *Client) SaveAlarm(ctx context.Context, a *dto.Alarm) (dto.Status, error) {
	var result dto.Status

	request, err := dto.ToStruct(a)
	if err != nil {
		return result, err
	}

	if err := c.invokeStruct(ctx, api.MethodSaveAlarm, request, &result); err != nil {
		return result, fmt.Errorf("save alarm: %w", err)
	}

	return result, nil
}

// DeleteAlarm removes an alarm.
func (c *Client) DeleteAlarm(ctx context.Context, id string) error {
	if err := c.invoke(ctx, api.MethodDeleteAlarm, wrapperspb.String(id), new(emptypb.Empty)); err != nil {
		return fmt.Errorf("delete alarm: %w", err)
	}

	return nil
}

// MoveAlarm puts an alarm at index of the display order.
func (c *Client) MoveAlarm(ctx context.Context, id string, index int) error {
	request, err := dto.ToStruct(dto.MoveRequest{ID: id, Index: index})
	if err != nil {
		return err
	}

	if err := c.invoke(ctx, api.MethodMoveAlarm, request, new(emptypb.Empty)); err != nil {
		return fmt.Errorf("move alarm: %w", err)
	}

	return nil
}

// StartAlarm arms an alarm from now.
func (c *Client) StartAlarm(ctx context.Context, id string) (dto.Status, error) {
	var result dto.Status

	if err := c.invokeStruct(ctx, api.MethodStartAlarm, wrapperspb.String(id), &result); err != nil {
		return result, fmt.Errorf("start alarm: %w", err)
	}

	return result, nil
}

// StopAlarm disarms an alarm.
func (c *Client) StopAlarm(ctx context.Context, id string) (dto.Status, error) {
	var result dto.Status

	if err := c.invokeStruct(ctx, api.MethodStopAlarm, wrapperspb.String(id), &result); err != nil {
		return result, fmt.Errorf("stop alarm: %w", err)
	}

	return result, nil
}

// Acknowledge stops the alert of an alarm, or every alert for an empty id.
// It returns how many alerts were running.
func (c *Client) Acknowledge(ctx context.Context, id string) (int, error) {
	var result dto.CountResult

	if err := c.invokeStruct(ctx, api.MethodAcknowledgeAlert, wrapperspb.String(id), &result); err != nil {
		return 0, fmt.Errorf("acknowledge alert: %w", err)
	}

	return result.Count, nil
}

// Suspend signals a system suspend and returns how many alarms were stopped.
func (c *Client) Suspend(ctx context.Context) (int, error) {
	result := new(wrapperspb.Int32Value)
	if err := c.invoke(ctx, api.MethodSuspend, new(emptypb.Empty), result); err != nil {
		return 0, fmt.Errorf("suspend: %w", err)
	}

	return int(result.GetValue()), nil
}

// Resume signals a system resume and returns how many alarms were started.
func (c *Client) Resume(ctx context.Context) (int, error) {
	result := new(wrapperspb.Int32Value)
	if err := c.invoke(ctx, api.MethodResume, new(emptypb.Empty), result); err != nil {
		return 0, fmt.Errorf("resume: %w", err)
	}

	return int(result.GetValue()), nil
}

// DefaultAlert returns the alert used by alarms without an override.
func (c *Client) DefaultAlert(ctx context.Context) (dto.Alert, error) {
	var result dto.Alert

	if err := c.invokeStruct(ctx, api.MethodGetDefaultAlert, new(emptypb.Empty), &result); err != nil {
		return result, fmt.Errorf("get default alert: %w", err)
	}

	return result, nil
}

// SetDefaultAlert replaces the default alert.
func (c *Client) SetDefaultAlert(ctx context.Context, a *dto.Alert) error {
	request, err := dto.ToStruct(a)
	if err != nil {
		return err
	}

	if err := c.invoke(ctx, api.MethodSetDefaultAlert, request, new(emptypb.Empty)); err != nil {
		return fmt.Errorf("set default alert: %w", err)
	}

	return nil
}

// Upcoming returns up to count next fire times of an alarm.
func (c *Client) Upcoming(ctx context.Context, id string, count int) (dto.Occurrences, error) {
	var result dto.Occurrences

	request, err := dto.ToStruct(dto.UpcomingRequest{ID: id, Count: count})
	if err != nil {
		return result, err
	}

	if err := c.invokeStruct(ctx, api.MethodListUpcoming, request, &result); err != nil {
		return result, fmt.Errorf("list upcoming fires: %w", err)
	}

	return result, nil
}

// ExportCalendar returns the alarms as an iCalendar document.
func (c *Client) ExportCalendar(ctx context.Context) (string, error) {
	result := new(wrapperspb.StringValue)
	if err := c.invoke(ctx, api.MethodExportCalendar, new(emptypb.Empty), result); err != nil {
		return "", fmt.Errorf("export calendar: %w", err)
	}

	return result.GetValue(), nil
}

// invokeStruct calls a method replying with a Struct and decodes the reply.
func (c *Client) invokeStruct(ctx context.Context, method string, request proto.Message, out any) error {
	reply := new(structpb.Struct)
	if err := c.invoke(ctx, method, request, reply); err != nil {
		return err
	}

	return dto.FromStruct(reply, out)
}

func (c *Client) invoke(ctx context.Context, method string, request, reply proto.Message) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	return c.conn.Invoke(c.withOrigin(callCtx), method, request, reply)
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
