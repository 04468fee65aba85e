package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/alarm-manager/internal/config"
	"github.com/oshokin/alarm-manager/internal/logger"
)

// ErrAlreadyRunning is returned when the pid file names a live daemon.
var ErrAlreadyRunning = errors.New("alarm manager is already running")

// pidGuard owns the pid file of the running daemon.
type pidGuard struct {
	// path is the pid file.
	path string
	// self is the pid of this process.
	self int
	// executable is the binary name of this process.
	executable string
	// lookup returns the binary name of a live process.
	lookup func(pid int) (string, bool)
}

func newPIDGuard(path string) *pidGuard {
	return &pidGuard{
		path:       path,
		self:       os.Getpid(),
		executable: filepath.Base(os.Args[0]),
		lookup:     lookupProcess,
	}
}

// lookupProcess finds a process by pid in the process table.
func lookupProcess(pid int) (string, bool) {
	process, err := ps.FindProcess(pid)
	if err != nil || process == nil {
		return "", false
	}

	return process.Executable(), true
}

// acquire writes the pid file, failing when it names another live daemon.
// Stale files of dead or unrelated processes are replaced.
func (g *pidGuard) acquire(ctx context.Context) error {
	contents, err := os.ReadFile(filepath.Clean(g.path))

	switch {
	case err == nil:
		if pid, ok := g.running(strings.TrimSpace(string(contents))); ok {
			return fmt.Errorf("%w with pid %d (%s)", ErrAlreadyRunning, pid, g.path)
		}

		logger.InfoKV(ctx, "Replacing stale pid file", "pid_file", g.path)
	case errors.Is(err, os.ErrNotExist):
	default:
		return fmt.Errorf("read pid file: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(g.path), []byte(strconv.Itoa(g.self)+"\n"), config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}

	return nil
}

// running reports whether raw is the pid of another live daemon.
func (g *pidGuard) running(raw string) (int, bool) {
	pid, err := strconv.Atoi(raw)
	if err != nil || pid <= 0 || pid == g.self {
		return 0, false
	}

	name, alive := g.lookup(pid)
	if !alive {
		return 0, false
	}

	// A recycled pid belongs to another program.
	return pid, strings.EqualFold(name, g.executable)
}

// release removes the pid file if it still holds this process.
func (g *pidGuard) release(ctx context.Context) {
	contents, err := os.ReadFile(filepath.Clean(g.path))
	if err != nil || strings.TrimSpace(string(contents)) != strconv.Itoa(g.self) {
		return
	}

	if err := os.Remove(g.path); err != nil {
		logger.WarnKV(ctx, "Failed to remove pid file", "pid_file", g.path, "error", err)
	}
}
