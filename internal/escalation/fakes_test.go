package escalation

import (
	"context"
	"errors"
	"sync"
	"time"
)

var errFakeAction = errors.New("fake action failure")

// call records one collaborator invocation.
type call struct {
	// at is the (fake) time of the call.
	at time.Time
	// arg is the path, the command or the title.
	arg string
	// loops is the requested loop count for sounds.
	loops int
	// handle is the returned handle.
	handle Handle
}

// fakeNotifier records raised notices.
type fakeNotifier struct {
	mu    sync.Mutex
	calls []call
	err   error
}

func (f *fakeNotifier) Raise(_ context.Context, title, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, call{at: time.Now(), arg: title})

	return f.err
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.calls)
}

// fakeRunner records started sounds or programs and their cancellation.
type fakeRunner struct {
	mu        sync.Mutex
	next      Handle
	calls     []call
	cancelled []Handle
	done      map[Handle]func(error)
	err       error
}

func (f *fakeRunner) start(arg string, loops int, onDone func(error)) (Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		f.calls = append(f.calls, call{at: time.Now(), arg: arg, loops: loops})

		return 0, f.err
	}

	f.next++
	f.calls = append(f.calls, call{at: time.Now(), arg: arg, loops: loops, handle: f.next})

	if f.done == nil {
		f.done = make(map[Handle]func(error))
	}

	f.done[f.next] = onDone

	return f.next, nil
}

func (f *fakeRunner) stop(h Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cancelled = append(f.cancelled, h)
	delete(f.done, h)
}

// complete reports natural completion of h.
func (f *fakeRunner) complete(h Handle, err error) {
	f.mu.Lock()
	onDone := f.done[h]
	delete(f.done, h)
	f.mu.Unlock()

	if onDone != nil {
		onDone(err)
	}
}

func (f *fakeRunner) snapshot() ([]call, []Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]call(nil), f.calls...), append([]Handle(nil), f.cancelled...)
}

// fakeSound adapts fakeRunner to SoundPlayer.
type fakeSound struct{ fakeRunner }

func (f *fakeSound) Play(_ context.Context, path string, loops int, onDone func(error)) (Handle, error) {
	return f.start(path, loops, onDone)
}

func (f *fakeSound) Cancel(h Handle) { f.stop(h) }

// fakeLauncher adapts fakeRunner to ProcessLauncher.
type fakeLauncher struct{ fakeRunner }

func (f *fakeLauncher) Run(_ context.Context, command, _ string, _ time.Duration, onDone func(error)) (Handle, error) {
	return f.start(command, 0, onDone)
}

func (f *fakeLauncher) Kill(h Handle) { f.stop(h) }
