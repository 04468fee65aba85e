package dto

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oshokin/alarm-manager/internal/domain/alarm"
	"github.com/oshokin/alarm-manager/internal/service/scheduler"
)

// FromAlert converts a domain alert; nil stays nil.
func FromAlert(a *alarm.Alert) *Alert {
	if a == nil {
		return nil
	}

	return &Alert{
		Notification:          a.Notification,
		Sound:                 a.Sound,
		SoundLoops:            a.SoundLoops,
		Program:               a.Program,
		ProgramOptions:        a.ProgramOptions,
		ProgramRuntimeSeconds: int64(a.ProgramRuntime / time.Second),
		RepeatIntervalSeconds: int64(a.RepeatInterval / time.Second),
		RepeatCount:           a.RepeatCount,
	}
}

// ToDomain converts the alert and validates it; nil stays nil.
func (a *Alert) ToDomain() (*alarm.Alert, error) {
	if a == nil {
		return nil, nil //nolint:nilnil // Absent override.
	}

	runtime, err := fromSeconds("alert program runtime", a.ProgramRuntimeSeconds, alarm.MaxProgramRuntime)
	if err != nil {
		return nil, err
	}

	interval, err := fromSeconds("alert repeat interval", a.RepeatIntervalSeconds, alarm.MaxRepeatInterval)
	if err != nil {
		return nil, err
	}

	result := &alarm.Alert{
		Notification:   a.Notification,
		Sound:          a.Sound,
		SoundLoops:     a.SoundLoops,
		Program:        a.Program,
		ProgramOptions: a.ProgramOptions,
		ProgramRuntime: runtime,
		RepeatInterval: interval,
		RepeatCount:    a.RepeatCount,
	}

	if err := result.Validate(); err != nil {
		return nil, err
	}

	return result, nil
}

// FromRecurrence converts a domain recurrence.
func FromRecurrence(r alarm.Recurrence) *Recurrence {
	result := &Recurrence{Kind: r.Kind.String()}

	switch r.Kind {
	case alarm.RecurrenceTriggeredBy:
		result.TriggeredBy = r.Trigger.String()
	case alarm.RecurrenceDaysOfWeek:
		result.Days = r.Days.String()
	case alarm.RecurrenceEveryN:
		result.Every = r.Every
		result.Unit = r.Unit.String()
	case alarm.RecurrenceNone:
	}

	return result
}

// ToDomain converts the recurrence; nil is no recurrence.
func (r *Recurrence) ToDomain() (alarm.Recurrence, error) {
	if r == nil || r.Kind == "" {
		return alarm.NoRecurrence(), nil
	}

	kind, err := alarm.ParseRecurrenceKind(r.Kind)
	if err != nil {
		return alarm.Recurrence{}, err
	}

	switch kind {
	case alarm.RecurrenceTriggeredBy:
		trigger, err := alarm.ParseID(r.TriggeredBy)
		if err != nil {
			return alarm.Recurrence{}, &alarm.ValidationError{Field: "recurrence", Reason: "invalid triggered timer id"}
		}

		return alarm.TriggeredBy(trigger), nil
	case alarm.RecurrenceDaysOfWeek:
		days, err := alarm.ParseWeekdays(r.Days)
		if err != nil {
			return alarm.Recurrence{}, err
		}

		return alarm.OnDays(days), nil
	case alarm.RecurrenceEveryN:
		unit, err := alarm.ParseUnit(r.Unit)
		if err != nil {
			return alarm.Recurrence{}, err
		}

		return alarm.EveryN(r.Every, unit), nil
	default:
		return alarm.NoRecurrence(), nil
	}
}

// FromAlarm converts a domain alarm.
func FromAlarm(a *alarm.Alarm) Alarm {
	return Alarm{
		ID:                a.ID.String(),
		Position:          a.Position,
		Type:              a.Kind.String(),
		Name:              a.Name,
		Time:              FormatTime(a.Kind, a.Time),
		Color:             a.Color,
		AutoStart:         a.AutoStart,
		AutoStop:          a.AutoStop,
		AutoStartOnResume: a.AutoStartOnResume,
		AutoStopOnSuspend: a.AutoStopOnSuspend,
		Recurrence:        FromRecurrence(a.Recurrence),
		Alert:             FromAlert(a.Alert),
	}
}

// ToDomain converts the alarm into a draft and validates it in isolation.
// References to other alarms are checked when the draft is saved.
func (a *Alarm) ToDomain() (*alarm.Alarm, error) {
	result := &alarm.Alarm{
		Name:              a.Name,
		Color:             a.Color,
		AutoStart:         a.AutoStart,
		AutoStop:          a.AutoStop,
		AutoStartOnResume: a.AutoStartOnResume,
		AutoStopOnSuspend: a.AutoStopOnSuspend,
	}

	if a.ID != "" {
		id, err := ParseID(a.ID)
		if err != nil {
			return nil, err
		}

		result.ID = id
	}

	kind, err := alarm.ParseKind(a.Type)
	if err != nil {
		return nil, err
	}

	result.Kind = kind

	if result.Time, err = ParseTime(kind, a.Time); err != nil {
		return nil, err
	}

	if result.Recurrence, err = a.Recurrence.ToDomain(); err != nil {
		return nil, err
	}

	if result.Alert, err = a.Alert.ToDomain(); err != nil {
		return nil, err
	}

	if err := result.Validate(); err != nil {
		return nil, err
	}

	return result, nil
}

// ParseID parses an alarm identifier received from a caller.
func ParseID(s string) (alarm.ID, error) {
	id, err := alarm.ParseID(s)
	if err != nil || id.IsZero() {
		return alarm.NilID, &alarm.ValidationError{Field: "id", Reason: "not a valid identifier"}
	}

	return id, nil
}

// FromSnapshot converts a scheduler snapshot.
func FromSnapshot(s scheduler.Snapshot) Status {
	result := Status{
		Alarm:            FromAlarm(s.Alarm),
		Armed:            s.Armed,
		RemainingSeconds: int64(s.Remaining / time.Second),
		ElapsedSeconds:   int64(s.Elapsed / time.Second),
		AlertState:       s.Alert.String(),
	}

	if s.Armed {
		next := s.NextFire
		result.NextFire = &next
	}

	if fired := s.Alarm.Runtime.LastFiredAt; !fired.IsZero() {
		result.LastFired = &fired
	}

	return result
}

// FromSnapshots converts a list of snapshots.
func FromSnapshots(snapshots []scheduler.Snapshot) StatusList {
	result := StatusList{Alarms: make([]Status, 0, len(snapshots))}
	for _, s := range snapshots {
		result.Alarms = append(result.Alarms, FromSnapshot(s))
	}

	return result
}

// FormatTime renders a timer length as a duration and a time of day as HH:MM
// or HH:MM:SS.
func FormatTime(kind alarm.Kind, d time.Duration) string {
	if kind == alarm.KindTimer {
		return d.String()
	}

	total := int(d / time.Second)
	hours, minutes, seconds := total/3600, total/60%60, total%60

	if seconds != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}

	return fmt.Sprintf("%02d:%02d", hours, minutes)
}

// ParseTime parses a timer length ("90s", "1h30m" or plain seconds) or a time
// of day ("07:30", "07:30:15").
func ParseTime(kind alarm.Kind, s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	if kind == alarm.KindTimer {
		if seconds, err := strconv.ParseInt(s, 10, 64); err == nil {
			return fromSeconds("time", seconds, alarm.MaxTimerDuration)
		}

		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, &alarm.ValidationError{Field: "time", Reason: fmt.Sprintf("%q is not a duration", s)}
		}

		return d, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, &alarm.ValidationError{Field: "time", Reason: fmt.Sprintf("%q is not HH:MM[:SS]", s)}
	}

	limits := []int{23, 59, 59}
	units := []time.Duration{time.Hour, time.Minute, time.Second}

	var result time.Duration

	for i, part := range parts {
		value, err := strconv.Atoi(part)
		if err != nil || value < 0 || value > limits[i] {
			return 0, &alarm.ValidationError{Field: "time", Reason: fmt.Sprintf("%q is not HH:MM[:SS]", s)}
		}

		result += time.Duration(value) * units[i]
	}

	return result, nil
}

// fromSeconds converts a count of seconds, rejecting values outside 0..limit
// before they can overflow.
func fromSeconds(field string, seconds int64, limit time.Duration) (time.Duration, error) {
	if seconds < 0 || seconds > int64(limit/time.Second) {
		return 0, &alarm.ValidationError{
			Field:  field,
			Reason: fmt.Sprintf("%d seconds is outside 0..%d", seconds, int64(limit/time.Second)),
		}
	}

	return time.Duration(seconds) * time.Second, nil
}
