package process

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/google/shlex"

	"github.com/oshokin/alarm-manager/internal/escalation"
	"github.com/oshokin/alarm-manager/internal/logger"
)

// ErrUnterminatedQuote indicates options with an unbalanced quote or a
// trailing backslash.
var ErrUnterminatedQuote = errors.New("unterminated quote in program options")

// SplitOptions splits program options into arguments the way a POSIX shell
// splits words: single quotes are literal, double quotes and a bare backslash
// escape the next rune, and an unquoted # starts a comment.
func SplitOptions(options string) ([]string, error) {
	args, err := shlex.Split(options)
	if err != nil {
		// shlex only fails on input that ends inside a quote or an escape.
		return nil, fmt.Errorf("%w: %w", ErrUnterminatedQuote, err)
	}

	return args, nil
}

// process is one running program.
type process struct {
	// cancel kills the program.
	cancel context.CancelFunc
	// killed is set by Kill before cancel.
	killed bool
}

// Launcher starts programs with os/exec.
type Launcher struct {
	// mu protects the fields below.
	mu sync.Mutex
	// next is the last issued handle.
	next escalation.Handle
	// running are the programs not yet reaped.
	running map[escalation.Handle]*process
}

// New creates a launcher.
func New() *Launcher {
	return &Launcher{
		running: make(map[escalation.Handle]*process),
	}
}

// Run starts command with the split options. A positive timeout kills the
// program when exceeded, which counts as a normal end. onDone receives the
// exit error of a program that ended on its own; it is not called after Kill.
func (l *Launcher) Run(
	ctx context.Context,
	command, options string,
	timeout time.Duration,
	onDone func(error),
) (escalation.Handle, error) {
	args, err := SplitOptions(options)
	if err != nil {
		return 0, err
	}

	// The program outlives the round that started it.
	var (
		base   = context.WithoutCancel(ctx)
		runCtx context.Context
		cancel context.CancelFunc
	)

	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(base, timeout)
	} else {
		runCtx, cancel = context.WithCancel(base)
	}

	cmd := exec.CommandContext(runCtx, command, args...) //nolint:gosec // Command comes from the alert settings.
	if err := cmd.Start(); err != nil {
		cancel()

		return 0, fmt.Errorf("start %s: %w", command, err)
	}

	p := &process{cancel: cancel}

	l.mu.Lock()
	l.next++
	handle := l.next
	l.running[handle] = p
	l.mu.Unlock()

	logger.DebugKV(ctx, "Program started", "command", command, "args", args, "pid", cmd.Process.Pid, "handle", handle)

	go func() {
		waitErr := cmd.Wait()
		timedOut := errors.Is(runCtx.Err(), context.DeadlineExceeded)

		cancel()

		l.mu.Lock()
		killed := p.killed
		delete(l.running, handle)
		l.mu.Unlock()

		switch {
		case killed:
			return
		case timedOut:
			logger.InfoKV(ctx, "Program runtime limit reached", "command", command, "limit", timeout)

			waitErr = nil
		}

		if onDone != nil {
			onDone(waitErr)
		}
	}()

	return handle, nil
}

// Kill terminates a program. Unknown or finished handles are ignored.
func (l *Launcher) Kill(h escalation.Handle) {
	l.mu.Lock()
	p, ok := l.running[h]

	if ok {
		p.killed = true
	}
	l.mu.Unlock()

	if ok {
		p.cancel()
	}
}

// Running returns the number of programs not yet reaped.
func (l *Launcher) Running() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.running)
}
