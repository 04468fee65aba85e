package client

import (
	"time"

	"github.com/oshokin/alarm-manager/internal/api/dto"
)

// Edit lists the alarm fields to set. Nil fields keep their current value,
// or the default for a new alarm.
type Edit struct {
	// Ref selects the alarm to update by id or name; empty creates one.
	Ref string

	Type  *string
	Name  *string
	Time  *string
	Color *string

	AutoStart         *bool
	AutoStop          *bool
	AutoStartOnResume *bool
	AutoStopOnSuspend *bool

	// Recurrence replaces the recurrence. TriggeredBy may be a name.
	Recurrence *dto.Recurrence

	// Alert changes the alert override, starting from the default alert when
	// the alarm has none.
	Alert *AlertEdit
	// ClearAlert drops the override so the default alert applies.
	ClearAlert bool
}

// AlertEdit lists the alert fields to set.
type AlertEdit struct {
	Notification   *bool
	Sound          *string
	SoundLoops     *int
	Program        *string
	ProgramOptions *string
	ProgramRuntime *time.Duration
	RepeatInterval *time.Duration
	RepeatCount    *int
}

func (e *Edit) apply(a *dto.Alarm) {
	set(&a.Type, e.Type)
	set(&a.Name, e.Name)
	set(&a.Time, e.Time)
	set(&a.Color, e.Color)
	set(&a.AutoStart, e.AutoStart)
	set(&a.AutoStop, e.AutoStop)
	set(&a.AutoStartOnResume, e.AutoStartOnResume)
	set(&a.AutoStopOnSuspend, e.AutoStopOnSuspend)

	if e.Recurrence != nil {
		recurrence := *e.Recurrence
		a.Recurrence = &recurrence
	}
}

func (e *AlertEdit) apply(a *dto.Alert) {
	set(&a.Notification, e.Notification)
	set(&a.Sound, e.Sound)
	set(&a.SoundLoops, e.SoundLoops)
	set(&a.Program, e.Program)
	set(&a.ProgramOptions, e.ProgramOptions)
	set(&a.RepeatCount, e.RepeatCount)

	if e.ProgramRuntime != nil {
		a.ProgramRuntimeSeconds = int64(*e.ProgramRuntime / time.Second)
	}

	if e.RepeatInterval != nil {
		a.RepeatIntervalSeconds = int64(*e.RepeatInterval / time.Second)
	}
}

func set[T any](target *T, value *T) {
	if value != nil {
		*target = *value
	}
}
