package sound

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/oshokin/alarm-manager/internal/escalation"
	"github.com/oshokin/alarm-manager/internal/logger"
)

// pollInterval is how often a playing stream is checked for completion.
const pollInterval = 10 * time.Millisecond

// ErrFormatMismatch indicates a file whose format differs from the one the
// audio device was opened with.
var ErrFormatMismatch = errors.New("sample format differs from the open audio device")

// stream is one playing copy of a sound.
type stream interface {
	Play()
	Pause()
	IsPlaying() bool
	Close() error
}

// output creates streams on an open audio device.
type output interface {
	NewStream(r io.Reader) stream
}

// opener opens the audio device for a format.
type opener func(format wavFormat) (output, error)

// otoOutput adapts an oto context to output.
type otoOutput struct {
	ctx *oto.Context
}

//nolint:ireturn // Streams are swapped in tests.
func (o *otoOutput) NewStream(r io.Reader) stream {
	return o.ctx.NewPlayer(r)
}

// openOto opens the system audio device. oto allows one context per process.
//
//nolint:ireturn // Outputs are swapped in tests.
func openOto(format wavFormat) (output, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}

	// Wait for the hardware audio devices to be ready.
	<-ready

	return &otoOutput{ctx: ctx}, nil
}

// playback is one running Play call.
type playback struct {
	// stop is closed by Cancel.
	stop chan struct{}
	// once guards stop.
	once sync.Once
}

func (p *playback) cancel() {
	p.once.Do(func() { close(p.stop) })
}

// Player plays WAV files. The audio device is opened lazily with the format
// of the first file played; later files must share it.
type Player struct {
	// open opens the audio device.
	open opener
	// poll is the completion check interval.
	poll time.Duration

	// mu protects the fields below.
	mu sync.Mutex
	// out is the open device, nil until the first Play.
	out output
	// format is the format out was opened with.
	format wavFormat
	// next is the last issued handle.
	next escalation.Handle
	// playing are the running playbacks.
	playing map[escalation.Handle]*playback
}

// New creates a player on the system audio device.
func New() *Player {
	return newPlayer(openOto, pollInterval)
}

func newPlayer(open opener, poll time.Duration) *Player {
	return &Player{
		open:    open,
		poll:    poll,
		playing: make(map[escalation.Handle]*playback),
	}
}

// Play starts playing the WAV file at path loops times, or until cancelled
// when loops is 0. onDone is called when playback ends on its own; it is not
// called after Cancel or when ctx is cancelled.
func (p *Player) Play(ctx context.Context, path string, loops int, onDone func(error)) (escalation.Handle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read sound: %w", err)
	}

	format, samples, err := parseWAV(data)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}

	out, err := p.device(format)
	if err != nil {
		return 0, err
	}

	pb := &playback{stop: make(chan struct{})}

	p.mu.Lock()
	p.next++
	handle := p.next
	p.playing[handle] = pb
	p.mu.Unlock()

	logger.DebugKV(ctx, "Sound started", "path", path, "loops", loops, "handle", handle)

	go func() {
		finished := p.loop(ctx, out, pb, samples, loops)

		p.mu.Lock()
		delete(p.playing, handle)
		p.mu.Unlock()

		if finished && onDone != nil {
			onDone(nil)
		}
	}()

	return handle, nil
}

// Cancel stops a playback. Unknown or finished handles are ignored.
func (p *Player) Cancel(h escalation.Handle) {
	p.mu.Lock()
	pb, ok := p.playing[h]
	delete(p.playing, h)
	p.mu.Unlock()

	if ok {
		pb.cancel()
	}
}

// device returns the open output, opening it on first use.
//
//nolint:ireturn // See output.
func (p *Player) device(format wavFormat) (output, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.out != nil {
		if format.SampleRate != p.format.SampleRate || format.Channels != p.format.Channels {
			return nil, fmt.Errorf("%w: %d Hz x %d, device is %d Hz x %d", ErrFormatMismatch,
				format.SampleRate, format.Channels, p.format.SampleRate, p.format.Channels)
		}

		return p.out, nil
	}

	out, err := p.open(format)
	if err != nil {
		return nil, err
	}

	p.out, p.format = out, format

	return out, nil
}

// loop plays samples the requested number of times. It reports whether the
// playback ended on its own.
func (p *Player) loop(ctx context.Context, out output, pb *playback, samples []byte, loops int) bool {
	ticker := time.NewTicker(p.poll)
	defer ticker.Stop()

	for i := 0; loops == 0 || i < loops; i++ {
		s := out.NewStream(bytes.NewReader(samples))
		s.Play()

		for s.IsPlaying() {
			select {
			case <-pb.stop:
				stopStream(ctx, s)

				return false
			case <-ctx.Done():
				stopStream(ctx, s)

				return false
			case <-ticker.C:
			}
		}

		if err := s.Close(); err != nil {
			logger.WarnKV(ctx, "Failed to close audio stream", "error", err)
		}

		// Stop requested between loops.
		select {
		case <-pb.stop:
			return false
		default:
		}
	}

	return true
}

func stopStream(ctx context.Context, s stream) {
	s.Pause()

	if err := s.Close(); err != nil {
		logger.WarnKV(ctx, "Failed to close audio stream", "error", err)
	}
}
