package registry

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/oshokin/alarm-manager/internal/domain/alarm"
	"github.com/oshokin/alarm-manager/internal/logger"
	"github.com/oshokin/alarm-manager/internal/observability/metrics"
)

// defaultTimerDuration replaces a missing or corrupt timer duration.
const defaultTimerDuration = 5 * time.Minute

// encodeAlarm renders the subtree of an alarm as paths relative to it.
func encodeAlarm(a *alarm.Alarm) map[string]string {
	fields := map[string]string{
		keyType:              a.Kind.String(),
		keyName:              a.Name,
		keyTime:              formatSeconds(a.Time),
		keyColor:             a.Color,
		keyAutoStart:         strconv.FormatBool(a.AutoStart),
		keyAutoStop:          strconv.FormatBool(a.AutoStop),
		keyAutoStartOnResume: strconv.FormatBool(a.AutoStartOnResume),
		keyAutoStopOnSuspend: strconv.FormatBool(a.AutoStopOnSuspend),
		keyRecurrenceKind:    a.Recurrence.Kind.String(),
	}

	switch a.Recurrence.Kind {
	case alarm.RecurrenceTriggeredBy:
		fields[keyTriggeredTimerID] = a.Recurrence.Trigger.String()
	case alarm.RecurrenceDaysOfWeek:
		fields[keyRecurrenceValue] = strconv.Itoa(int(a.Recurrence.Days))
	case alarm.RecurrenceEveryN:
		fields[keyRecurrenceValue] = strconv.Itoa(a.Recurrence.Every)
		fields[keyRecurrenceUnit] = a.Recurrence.Unit.String()
	case alarm.RecurrenceNone:
	}

	for key, value := range encodeRuntime(a.Runtime) {
		fields[key] = value
	}

	if a.Alert != nil {
		for key, value := range encodeAlert(a.Alert) {
			fields[alertSegment+"/"+key] = value
		}
	}

	return fields
}

// encodeRuntime renders the armed state; zero times are stored empty.
func encodeRuntime(r alarm.Runtime) map[string]string {
	return map[string]string{
		keyStartedAt:   formatTime(r.StartedAt),
		keyLastFiredAt: formatTime(r.LastFiredAt),
		keyAnchorAt:    formatTime(r.Anchor),
	}
}

// encodeAlert renders alert fields.
func encodeAlert(a *alarm.Alert) map[string]string {
	return map[string]string{
		keyNotification:   strconv.FormatBool(a.Notification),
		keySound:          a.Sound,
		keySoundLoops:     strconv.Itoa(a.SoundLoops),
		keyProgram:        a.Program,
		keyProgramOptions: a.ProgramOptions,
		keyProgramRuntime: formatSeconds(a.ProgramRuntime),
		keyRepeatInterval: formatSeconds(a.RepeatInterval),
		keyRepeatCount:    strconv.Itoa(a.RepeatCount),
	}
}

// decoder reads fields relative to one subtree, replacing missing or corrupt
// values with defaults and logging a warning for the corrupt ones.
type decoder struct {
	// ctx carries the logger annotated with the subtree being read.
	ctx context.Context //nolint:containedctx // Short-lived, used for logging only.
	// fields are the values keyed by relative path.
	fields map[string]string
	// prefix is prepended to keys, e.g. "alert/".
	prefix string
	// corrupt counts fields that fell back to defaults.
	corrupt int
}

func (d *decoder) raw(key string) (string, bool) {
	value, ok := d.fields[d.prefix+key]

	return value, ok
}

func (d *decoder) warn(key, value string, reason any) {
	d.corrupt++

	metrics.IncStoreError("corrupt_field")
	logger.WarnKV(d.ctx, "Corrupt store field replaced by default", "key", d.prefix+key, "value", value, "error", reason)
}

func (d *decoder) str(key string) string {
	value, _ := d.raw(key)

	return value
}

func (d *decoder) boolean(key string, def bool) bool {
	value, ok := d.raw(key)
	if !ok || value == "" {
		return def
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		d.warn(key, value, err)

		return def
	}

	return parsed
}

func (d *decoder) integer(key string, def, lo, hi int) int {
	value, ok := d.raw(key)
	if !ok || value == "" {
		return def
	}

	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		d.warn(key, value, err)

		return def
	}

	if parsed < lo || parsed > hi {
		d.warn(key, value, "out of range")

		return def
	}

	return parsed
}

func (d *decoder) seconds(key string, def, lo, hi time.Duration) time.Duration {
	return time.Duration(d.integer(key, int(def/time.Second), int(lo/time.Second), int(hi/time.Second))) * time.Second
}

func (d *decoder) timestamp(key string) time.Time {
	value, ok := d.raw(key)
	if !ok || value == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		d.warn(key, value, err)

		return time.Time{}
	}

	return parsed.Local()
}

// decodeAlarm rebuilds an alarm from its subtree. Trigger references are
// resolved later by the registry.
func decodeAlarm(ctx context.Context, id alarm.ID, fields map[string]string) *alarm.Alarm {
	d := &decoder{ctx: ctx, fields: fields}

	a := &alarm.Alarm{
		ID:                id,
		Name:              d.str(keyName),
		Color:             d.str(keyColor),
		AutoStart:         d.boolean(keyAutoStart, false),
		AutoStop:          d.boolean(keyAutoStop, false),
		AutoStartOnResume: d.boolean(keyAutoStartOnResume, false),
		AutoStopOnSuspend: d.boolean(keyAutoStopOnSuspend, false),
		Runtime: alarm.Runtime{
			StartedAt:   d.timestamp(keyStartedAt),
			LastFiredAt: d.timestamp(keyLastFiredAt),
			Anchor:      d.timestamp(keyAnchorAt),
		},
	}

	if raw, ok := d.raw(keyType); ok {
		kind, err := alarm.ParseKind(raw)
		if err != nil {
			d.warn(keyType, raw, err)
		}

		a.Kind = kind
	} else {
		d.warn(keyType, "", "missing")
	}

	if a.IsTimer() {
		a.Time = d.seconds(keyTime, defaultTimerDuration, alarm.MinTimerDuration, alarm.MaxTimerDuration)
	} else {
		a.Time = d.seconds(keyTime, 0, 0, alarm.MaxTimeOfDay)
	}

	if !alarm.ValidColor(a.Color) {
		d.warn(keyColor, a.Color, "not #rrggbb")
		a.Color = ""
	}

	a.Recurrence = decodeRecurrence(d)

	if a.Recurrence.Kind == alarm.RecurrenceTriggeredBy && !a.IsTimer() {
		d.warn(keyRecurrenceKind, a.Recurrence.Kind.String(), "only timers can be triggered")
		a.Recurrence = alarm.NoRecurrence()
	}

	if hasSubtree(fields, alertSegment) {
		a.Alert = decodeAlert(&decoder{ctx: ctx, fields: fields, prefix: alertSegment + "/"})
	}

	return a
}

// decodeRecurrence rebuilds the tagged recurrence value.
func decodeRecurrence(d *decoder) alarm.Recurrence {
	raw, ok := d.raw(keyRecurrenceKind)
	if !ok || raw == "" {
		return alarm.NoRecurrence()
	}

	kind, err := alarm.ParseRecurrenceKind(raw)
	if err != nil {
		d.warn(keyRecurrenceKind, raw, err)

		return alarm.NoRecurrence()
	}

	switch kind {
	case alarm.RecurrenceTriggeredBy:
		value := d.str(keyTriggeredTimerID)

		trigger, err := alarm.ParseID(value)
		if err != nil {
			d.warn(keyTriggeredTimerID, value, err)

			return alarm.NoRecurrence()
		}

		return alarm.TriggeredBy(trigger)
	case alarm.RecurrenceDaysOfWeek:
		mask := d.integer(keyRecurrenceValue, 0, 1, int(alarm.AllWeekdays))
		if mask == 0 {
			return alarm.NoRecurrence()
		}

		return alarm.OnDays(alarm.Weekdays(mask))
	case alarm.RecurrenceEveryN:
		n := d.integer(keyRecurrenceValue, 0, 1, alarm.MaxEveryN)
		if n == 0 {
			return alarm.NoRecurrence()
		}

		unitRaw := d.str(keyRecurrenceUnit)

		unit, err := alarm.ParseUnit(unitRaw)
		if err != nil {
			d.warn(keyRecurrenceUnit, unitRaw, err)
		}

		return alarm.EveryN(n, unit)
	default:
		return alarm.NoRecurrence()
	}
}

// decodeAlert rebuilds alert fields, starting from the documented defaults.
func decodeAlert(d *decoder) *alarm.Alert {
	def := alarm.DefaultAlert()

	a := &alarm.Alert{
		Notification:   d.boolean(keyNotification, def.Notification),
		Sound:          d.str(keySound),
		SoundLoops:     d.integer(keySoundLoops, def.SoundLoops, 0, alarm.MaxSoundLoops),
		Program:        d.str(keyProgram),
		ProgramOptions: d.str(keyProgramOptions),
		ProgramRuntime: d.seconds(keyProgramRuntime, def.ProgramRuntime, 0, alarm.MaxProgramRuntime),
		RepeatInterval: d.seconds(keyRepeatInterval, def.RepeatInterval, 0, alarm.MaxRepeatInterval),
		RepeatCount:    d.integer(keyRepeatCount, def.RepeatCount, 0, alarm.MaxRepeatCount),
	}

	if a.Program == "" {
		a.ProgramOptions = ""
	}

	return a
}

// hasSubtree reports whether any relative key lies under segment.
func hasSubtree(fields map[string]string, segment string) bool {
	for key := range fields {
		if strings.HasPrefix(key, segment+"/") {
			return true
		}
	}

	return false
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatInt(int64(d/time.Second), 10)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format(time.RFC3339Nano)
}
