package autostart

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var errTestDenied = errors.New("test permission denied")

// fakeEntry is an in-memory login item shared by every entry a manager builds.
type fakeEntry struct {
	enabled  bool
	command  []string
	enables  int
	disables int
	failWith error
}

type fakeHandle struct {
	state   *fakeEntry
	command []string
}

func (h *fakeHandle) IsEnabled() bool { return h.state.enabled }

func (h *fakeHandle) Enable() error {
	if h.state.failWith != nil {
		return h.state.failWith
	}

	h.state.enabled = true
	h.state.command = h.command
	h.state.enables++

	return nil
}

func (h *fakeHandle) Disable() error {
	h.state.enabled = false
	h.state.disables++

	return nil
}

func newFakeManager(state *fakeEntry) *Manager {
	return &Manager{
		executable: func() (string, error) { return "/opt/alarm-manager/alarm-manager", nil },
		newEntry: func(command []string) entry {
			return &fakeHandle{state: state, command: command}
		},
	}
}

// TestEnableDisable verifies the login item command line and idempotent toggling.
func TestEnableDisable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	state := new(fakeEntry)
	m := newFakeManager(state)

	require.False(t, m.IsEnabled())
	require.NoError(t, m.Enable(ctx, "settings.yaml"))
	require.True(t, m.IsEnabled())

	absolute, err := filepath.Abs("settings.yaml")
	require.NoError(t, err)
	require.Equal(t, []string{"/opt/alarm-manager/alarm-manager", "run", "--config", absolute}, state.command)

	// Enabling again replaces the entry.
	require.NoError(t, m.Enable(ctx, ""))
	require.Equal(t, []string{"/opt/alarm-manager/alarm-manager", "run"}, state.command)
	require.Equal(t, 2, state.enables)
	require.Equal(t, 1, state.disables)

	require.NoError(t, m.Disable(ctx))
	require.False(t, m.IsEnabled())
	require.NoError(t, m.Disable(ctx))
	require.Equal(t, 2, state.disables)
}

// TestEnableFailure verifies errors from the platform are returned.
func TestEnableFailure(t *testing.T) {
	t.Parallel()

	m := newFakeManager(&fakeEntry{failWith: errTestDenied})

	require.ErrorIs(t, m.Enable(context.Background(), ""), errTestDenied)
	require.False(t, m.IsEnabled())
}
