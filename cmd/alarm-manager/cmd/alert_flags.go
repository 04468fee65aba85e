package cmd

import (
	"time"

	"github.com/spf13/pflag"

	"github.com/oshokin/alarm-manager/internal/service/client"
)

// alertFlags are the alert settings shared by "set" and "default-alert set".
type alertFlags struct {
	notification   bool
	sound          string
	soundLoops     int
	program        string
	programOptions string
	programRuntime time.Duration
	repeatInterval time.Duration
	repeatCount    int
}

func (f *alertFlags) register(flags *pflag.FlagSet) {
	flags.BoolVar(&f.notification, "notify", true, "show a desktop notification")
	flags.StringVar(&f.sound, "sound", "", "WAV file to play, empty for silence")
	flags.IntVar(&f.soundLoops, "sound-loops", 1, "times to play the sound, 0 loops until acknowledged")
	flags.StringVar(&f.program, "program", "", "program to launch")
	flags.StringVar(&f.programOptions, "program-options", "", "arguments of the program, quoted like a shell")
	flags.DurationVar(&f.programRuntime, "program-runtime", 0, "kill the program after this long, 0 lets it run")
	flags.DurationVar(&f.repeatInterval, "repeat-interval", 0, "pause between alert rounds")
	flags.IntVar(&f.repeatCount, "repeat-count", 0, "maximum alert rounds, 0 repeats until acknowledged")
}

// edit returns the alert fields whose flags were given, nil when none was.
func (f *alertFlags) edit(flags *pflag.FlagSet) *client.AlertEdit {
	var (
		edit    client.AlertEdit
		changed bool
	)

	pick := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()

			changed = true
		}
	}

	pick("notify", func() { edit.Notification = &f.notification })
	pick("sound", func() { edit.Sound = &f.sound })
	pick("sound-loops", func() { edit.SoundLoops = &f.soundLoops })
	pick("program", func() { edit.Program = &f.program })
	pick("program-options", func() { edit.ProgramOptions = &f.programOptions })
	pick("program-runtime", func() { edit.ProgramRuntime = &f.programRuntime })
	pick("repeat-interval", func() { edit.RepeatInterval = &f.repeatInterval })
	pick("repeat-count", func() { edit.RepeatCount = &f.repeatCount })

	if !changed {
		return nil
	}

	return &edit
}
