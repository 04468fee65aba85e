// Package autostart registers the daemon to start when the user logs in.
package autostart

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/emersion/go-autostart"

	"github.com/oshokin/alarm-manager/internal/logger"
)

const (
	appName        = "alarm-manager"
	appDisplayName = "Alarm Manager"
)

// entry is a login item.
type entry interface {
	IsEnabled() bool
	Enable() error
	Disable() error
}

// Manager enables and disables the login item of the daemon.
type Manager struct {
	// executable resolves the path of the running binary.
	executable func() (string, error)
	// newEntry builds the login item for a command line.
	newEntry func(command []string) entry
}

// New creates a manager for the running binary.
func New() *Manager {
	return &Manager{
		executable: executablePath,
		newEntry: func(command []string) entry {
			return &autostart.App{
				Name:        appName,
				DisplayName: appDisplayName,
				Exec:        command,
			}
		},
	}
}

// Enable registers "<binary> run --config <configPath>" as a login item.
func (m *Manager) Enable(ctx context.Context, configPath string) error {
	command, err := m.command(configPath)
	if err != nil {
		return err
	}

	app := m.newEntry(command)

	// Re-create the entry so a changed binary or config path is picked up.
	if app.IsEnabled() {
		if err := app.Disable(); err != nil {
			return fmt.Errorf("replace autostart entry: %w", err)
		}
	}

	if err := app.Enable(); err != nil {
		return fmt.Errorf("enable autostart: %w", err)
	}

	logger.InfoKV(ctx, "Autostart enabled", "command", command)

	return nil
}

// Disable removes the login item. A missing item is not an error.
func (m *Manager) Disable(ctx context.Context) error {
	app := m.newEntry(nil)
	if !app.IsEnabled() {
		logger.Info(ctx, "Autostart is not enabled")

		return nil
	}

	if err := app.Disable(); err != nil {
		return fmt.Errorf("disable autostart: %w", err)
	}

	logger.Info(ctx, "Autostart disabled")

	return nil
}

// IsEnabled reports whether the login item exists.
func (m *Manager) IsEnabled() bool {
	return m.newEntry(nil).IsEnabled()
}

func (m *Manager) command(configPath string) ([]string, error) {
	execPath, err := m.executable()
	if err != nil {
		return nil, err
	}

	command := []string{execPath, "run"}

	if configPath != "" {
		absolute, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}

		command = append(command, "--config", absolute)
	}

	return command, nil
}

func executablePath() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}

	// Resolve symlinks if any
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}

	return execPath, nil
}
