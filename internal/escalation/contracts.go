package escalation

import (
	"context"
	"time"
)

// Handle identifies a running sound or program.
type Handle uint64

// Notifier raises a one-shot notice. It must not block for long.
type Notifier interface {
	Raise(ctx context.Context, title, body string) error
}

// SoundPlayer plays a sound file loops times (0 loops until cancelled).
// onDone is called once when playback ends on its own or fails midway;
// it is not called after Cancel.
type SoundPlayer interface {
	Play(ctx context.Context, path string, loops int, onDone func(error)) (Handle, error)
	Cancel(h Handle)
}

// ProcessLauncher runs an external program. A positive timeout kills it when
// exceeded. onDone is called once with the exit error; it is not called after
// Kill.
type ProcessLauncher interface {
	Run(ctx context.Context, command, options string, timeout time.Duration, onDone func(error)) (Handle, error)
	Kill(h Handle)
}

// Actions groups the collaborators of an escalation. Nil members disable the
// corresponding action.
type Actions struct {
	// Notifier raises notices.
	Notifier Notifier
	// Sound plays sound files.
	Sound SoundPlayer
	// Launcher runs programs.
	Launcher ProcessLauncher
}
