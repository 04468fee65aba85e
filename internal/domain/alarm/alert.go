package alarm

import "time"

const (
	// MaxSoundLoops bounds Alert.SoundLoops.
	MaxSoundLoops = 1000
	// MaxProgramRuntime bounds Alert.ProgramRuntime.
	MaxProgramRuntime = 3600000 * time.Second
	// MaxRepeatInterval bounds Alert.RepeatInterval.
	MaxRepeatInterval = 24 * time.Hour
	// MaxRepeatCount bounds Alert.RepeatCount.
	MaxRepeatCount = 1000
)

// Alert is the escalation policy of a firing. A zero SoundLoops loops until
// acknowledged, a zero ProgramRuntime never kills the program, a zero
// RepeatInterval runs a single round and a zero RepeatCount repeats until
// acknowledged.
type Alert struct {
	// Notification raises a one-shot notice on every round.
	Notification bool
	// Sound is the path of the sound file, empty for none.
	Sound string
	// SoundLoops is how many times the sound is played per round.
	SoundLoops int
	// Program is the external command run on every round, empty for none.
	Program string
	// ProgramOptions is the argument string passed to Program.
	ProgramOptions string
	// ProgramRuntime is the limit after which the program is killed.
	ProgramRuntime time.Duration
	// RepeatInterval is the pause between rounds.
	RepeatInterval time.Duration
	// RepeatCount is the maximum number of rounds.
	RepeatCount int
}

// DefaultAlert returns the alert used when neither the alarm nor the store
// provide one.
func DefaultAlert() *Alert {
	return &Alert{
		Notification: true,
	}
}

// Clone returns a copy of the alert; nil stays nil.
func (a *Alert) Clone() *Alert {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}

// Repeats reports whether the escalation runs more than one round.
func (a *Alert) Repeats() bool {
	return a.RepeatInterval > 0 && a.RepeatCount != 1
}

// Validate checks the alert field ranges.
func (a *Alert) Validate() error {
	switch {
	case a.SoundLoops < 0 || a.SoundLoops > MaxSoundLoops:
		return newValidationError("alert sound loops", "%d is outside 0..%d", a.SoundLoops, MaxSoundLoops)
	case a.ProgramRuntime < 0 || a.ProgramRuntime > MaxProgramRuntime:
		return newValidationError("alert program runtime", "%s is outside 0..%s", a.ProgramRuntime, MaxProgramRuntime)
	case a.ProgramRuntime%time.Second != 0:
		return newValidationError("alert program runtime", "%s is not a whole number of seconds", a.ProgramRuntime)
	case a.RepeatInterval < 0 || a.RepeatInterval > MaxRepeatInterval:
		return newValidationError("alert repeat interval", "%s is outside 0..%s", a.RepeatInterval, MaxRepeatInterval)
	case a.RepeatInterval%time.Second != 0:
		return newValidationError("alert repeat interval", "%s is not a whole number of seconds", a.RepeatInterval)
	case a.RepeatCount < 0 || a.RepeatCount > MaxRepeatCount:
		return newValidationError("alert repeat count", "%d is outside 0..%d", a.RepeatCount, MaxRepeatCount)
	case a.ProgramOptions != "" && a.Program == "":
		return newValidationError("alert program options", "set without a program")
	}

	return nil
}
