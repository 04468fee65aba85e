package notify

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/oshokin/alarm-manager/internal/logger"
)

// ErrUnsupportedOS indicates there is no known notification command for the
// current OS.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// Desktop raises notices with the platform's notification tool:
//   - Linux and BSD: `notify-send`
//   - macOS:         `osascript -e 'display notification ...'`
//   - Windows:       `msg.exe *`
//
// A custom command receives the title and the body as its last two arguments.
type Desktop struct {
	// command overrides the platform tool when not empty.
	command []string
	// goos selects the platform tool.
	goos string
}

// NewDesktop creates a desktop notifier. command is split on spaces and
// overrides the platform tool when not empty.
func NewDesktop(command string) *Desktop {
	return &Desktop{
		command: strings.Fields(command),
		goos:    runtime.GOOS,
	}
}

// Raise starts the notification command without waiting for it.
func (d *Desktop) Raise(ctx context.Context, title, body string) error {
	name, args, err := d.commandLine(title, body)
	if err != nil {
		return err
	}

	// The command outlives the round that raised it.
	cmd := exec.CommandContext(context.WithoutCancel(ctx), name, args...) //nolint:gosec // Command comes from settings.
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}

	go func() {
		if err := cmd.Wait(); err != nil {
			logger.WarnKV(ctx, "Desktop notification command failed", "command", name, "error", err)
		}
	}()

	return nil
}

// commandLine returns the program and arguments of one notice.
func (d *Desktop) commandLine(title, body string) (string, []string, error) {
	if len(d.command) > 0 {
		args := append(append([]string(nil), d.command[1:]...), title, body)

		return d.command[0], args, nil
	}

	osName := strings.ToLower(d.goos)

	switch {
	case strings.Contains(osName, "linux"), strings.HasSuffix(osName, "bsd"):
		return "notify-send", []string{"--app-name=alarm-manager", title, body}, nil
	case strings.Contains(osName, "darwin"):
		script := "display notification " + strconv.Quote(body) + " with title " + strconv.Quote(title)

		return "osascript", []string{"-e", script}, nil
	case strings.Contains(osName, "windows"):
		return "msg.exe", []string{"*", title + ": " + body}, nil
	default:
		return "", nil, fmt.Errorf("desktop notifications on %s: %w", d.goos, ErrUnsupportedOS)
	}
}
