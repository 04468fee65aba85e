package alarm

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Kind is the alarm type.
type Kind int

const (
	// KindTimer counts a duration down from the moment it is started.
	KindTimer Kind = iota
	// KindClock fires at a time of day.
	KindClock
)

// String returns the persisted name of the kind.
func (k Kind) String() string {
	switch k {
	case KindTimer:
		return "timer"
	case KindClock:
		return "clock"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind parses a persisted kind name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "timer":
		return KindTimer, nil
	case "clock":
		return KindClock, nil
	default:
		return KindTimer, newValidationError("type", "unknown value %q", s)
	}
}

const (
	// MinTimerDuration is the shortest countdown.
	MinTimerDuration = time.Second
	// MaxTimerDuration is the longest countdown.
	MaxTimerDuration = 365 * 24 * time.Hour
	// MaxTimeOfDay is the latest time of day of a clock alarm.
	MaxTimeOfDay = 24*time.Hour - time.Second
)

// colorPattern matches the display colors accepted for alarms.
//
//nolint:gochecknoglobals // Compiled once.
var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Runtime is the armed state of an alarm. It is persisted so that countdowns
// resume after a restart, while escalation progress is not.
type Runtime struct {
	// StartedAt is when the current countdown was armed; zero when idle.
	StartedAt time.Time
	// LastFiredAt is when the alarm last fired.
	LastFiredAt time.Time
	// Anchor is the first fire of the current series; every-N rules step from it.
	Anchor time.Time
}

// Armed reports whether a countdown is running.
func (r Runtime) Armed() bool {
	return !r.StartedAt.IsZero()
}

// Alarm is a user-defined schedulable entity.
type Alarm struct {
	// ID is the stable identity, NilID until first persisted.
	ID ID
	// Position is the display position, filled in snapshots.
	Position int
	// Kind is the alarm type.
	Kind Kind
	// Name is the free text label.
	Name string
	// Time is the countdown duration of a timer or the time of day of a clock.
	Time time.Duration
	// Color is the display color as #rrggbb, empty for the default.
	Color string
	// AutoStart arms the alarm when the manager starts.
	AutoStart bool
	// AutoStop disarms the alarm when the manager stops.
	AutoStop bool
	// AutoStartOnResume arms the alarm when the system resumes.
	AutoStartOnResume bool
	// AutoStopOnSuspend disarms the alarm when the system suspends.
	AutoStopOnSuspend bool
	// Recurrence is the recurrence rule.
	Recurrence Recurrence
	// Alert overrides the default alert when set.
	Alert *Alert
	// Runtime is the armed state.
	Runtime Runtime
}

// Clone returns a deep copy suitable for detached editing.
func (a *Alarm) Clone() *Alarm {
	if a == nil {
		return nil
	}

	cloned := *a
	cloned.Alert = a.Alert.Clone()

	return &cloned
}

// IsTimer reports whether the alarm is a countdown timer.
func (a *Alarm) IsTimer() bool {
	return a.Kind == KindTimer
}

// EffectiveAlert returns the alarm's own alert or a copy of the fallback.
func (a *Alarm) EffectiveAlert(fallback *Alert) *Alert {
	if a.Alert != nil {
		return a.Alert.Clone()
	}

	if fallback == nil {
		return DefaultAlert()
	}

	return fallback.Clone()
}

// Validate checks the fields of the alarm in isolation.
func (a *Alarm) Validate() error {
	switch a.Kind {
	case KindTimer:
		if a.Time < MinTimerDuration || a.Time > MaxTimerDuration {
			return newValidationError("time", "timer duration %s is outside %s..%s", a.Time, MinTimerDuration, MaxTimerDuration)
		}
	case KindClock:
		if a.Time < 0 || a.Time > MaxTimeOfDay {
			return newValidationError("time", "time of day %s is outside 0s..%s", a.Time, MaxTimeOfDay)
		}
	default:
		return newValidationError("type", "unknown kind %d", int(a.Kind))
	}

	if a.Time%time.Second != 0 {
		return newValidationError("time", "%s is not a whole number of seconds", a.Time)
	}

	if !ValidColor(a.Color) {
		return newValidationError("color", "%q is not #rrggbb", a.Color)
	}

	if err := a.Recurrence.Validate(); err != nil {
		return err
	}

	if a.Recurrence.Kind == RecurrenceTriggeredBy && a.Kind != KindTimer {
		return newValidationError("recurrence", "only timers can be triggered by another timer")
	}

	if a.Alert != nil {
		if err := a.Alert.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// ValidColor reports whether s is empty or a #rrggbb color.
func ValidColor(s string) bool {
	return s == "" || colorPattern.MatchString(s)
}

// String renders a short description for logs.
func (a *Alarm) String() string {
	return fmt.Sprintf("%s %q (%s, %s)", a.Kind, a.Name, a.Time, a.Recurrence)
}
