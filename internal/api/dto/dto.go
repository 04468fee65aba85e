package dto

import (
	"time"
)

// Alert is the wire form of alarm.Alert.
type Alert struct {
	Notification          bool   `json:"notification"`
	Sound                 string `json:"sound,omitempty"`
	SoundLoops            int    `json:"sound_loops"`
	Program               string `json:"program,omitempty"`
	ProgramOptions        string `json:"program_options,omitempty"`
	ProgramRuntimeSeconds int64  `json:"program_runtime_seconds"`
	RepeatIntervalSeconds int64  `json:"repeat_interval_seconds"`
	RepeatCount           int    `json:"repeat_count"`
}

// Recurrence is the wire form of alarm.Recurrence.
type Recurrence struct {
	// Kind is none, triggered-by, days-of-week or every-n.
	Kind string `json:"kind"`
	// TriggeredBy is the id of the trigger timer.
	TriggeredBy string `json:"triggered_by,omitempty"`
	// Days lists day names, e.g. "Mon,Wed".
	Days string `json:"days,omitempty"`
	// Every is the step count of every-n.
	Every int `json:"every,omitempty"`
	// Unit is days, weeks or months.
	Unit string `json:"unit,omitempty"`
}

// Alarm is the wire form of alarm.Alarm. An empty ID creates a new alarm.
type Alarm struct {
	ID                string      `json:"id,omitempty"`
	Position          int         `json:"position"`
	Type              string      `json:"type"`
	Name              string      `json:"name"`
	Time              string      `json:"time"`
	Color             string      `json:"color,omitempty"`
	AutoStart         bool        `json:"autostart"`
	AutoStop          bool        `json:"autostop"`
	AutoStartOnResume bool        `json:"autostart_on_resume"`
	AutoStopOnSuspend bool        `json:"autostop_on_suspend"`
	Recurrence        *Recurrence `json:"recurrence,omitempty"`
	Alert             *Alert      `json:"alert,omitempty"`
}

// Status is an alarm with its scheduling state.
type Status struct {
	Alarm            Alarm      `json:"alarm"`
	Armed            bool       `json:"armed"`
	NextFire         *time.Time `json:"next_fire,omitempty"`
	LastFired        *time.Time `json:"last_fired,omitempty"`
	RemainingSeconds int64      `json:"remaining_seconds"`
	ElapsedSeconds   int64      `json:"elapsed_seconds"`
	AlertState       string     `json:"alert_state"`
}

// StatusList is a list response.
type StatusList struct {
	Alarms []Status `json:"alarms"`
}

// MoveRequest moves an alarm to a display position.
type MoveRequest struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
}

// CountResult reports how many alarms an operation affected.
type CountResult struct {
	Count int `json:"count"`
}

// Occurrences lists upcoming fire times.
type Occurrences struct {
	ID    string      `json:"id"`
	Times []time.Time `json:"times"`
}

// UpcomingRequest asks for the next fire times of an alarm.
type UpcomingRequest struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}
