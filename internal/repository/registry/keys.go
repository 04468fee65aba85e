package registry

import "github.com/oshokin/alarm-manager/internal/repository/store"

// Top-level subtrees.
const (
	alarmsRoot       = "/alarms"
	positionsRoot    = "/positions"
	defaultAlertRoot = "/default-alert"
	alertSegment     = "alert"
)

// Alarm field names.
const (
	keyType              = "type"
	keyName              = "name"
	keyTime              = "time"
	keyColor             = "color"
	keyAutoStart         = "autostart"
	keyAutoStop          = "autostop"
	keyAutoStartOnResume = "autostart-on-resume"
	keyAutoStopOnSuspend = "autostop-on-suspend"
	keyRecurrenceKind    = "recurrence-kind"
	keyRecurrenceValue   = "recurrence-value"
	keyRecurrenceUnit    = "recurrence-unit"
	keyTriggeredTimerID  = "triggered-timer-id"
	keyStartedAt         = "started-at"
	keyLastFiredAt       = "last-fired-at"
	keyAnchorAt          = "anchor-at"
)

// Alert field names, shared by overrides and the default alert.
const (
	keyNotification   = "notification"
	keySound          = "sound"
	keySoundLoops     = "sound-loops"
	keyProgram        = "program"
	keyProgramOptions = "program-options"
	keyProgramRuntime = "program-runtime"
	keyRepeatInterval = "repeat-interval"
	keyRepeatCount    = "repeat-count"
)

// alarmPath returns the subtree of an alarm.
func alarmPath(id string) string {
	return store.Join(alarmsRoot, id)
}

// positionPath returns the position key of an alarm.
func positionPath(id string) string {
	return store.Join(positionsRoot, id)
}
