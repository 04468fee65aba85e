package recurrence

import (
	"time"

	"github.com/oshokin/alarm-manager/internal/domain/alarm"
)

// daysOfWeekScan bounds the forward scan of a days-of-week rule.
const daysOfWeekScan = 8

// Next returns the next fire time of a at or after ref, or false when the alarm
// is exhausted and has to be re-armed explicitly.
//
// Before the first fire (zero LastFiredAt) a timer fires ref plus its duration
// and a clock fires at its time of day. Afterwards one-shot and triggered
// alarms are exhausted, while days-of-week and every-N rules continue strictly
// after LastFiredAt. A result equal to ref is due now.
func Next(a *alarm.Alarm, ref time.Time) (time.Time, bool) {
	fired := a.Runtime.LastFiredAt

	if fired.IsZero() {
		return first(a, ref), true
	}

	switch a.Recurrence.Kind {
	case alarm.RecurrenceDaysOfWeek:
		return nextOnDays(a.Recurrence.Days, timeOfDay(a), fired, ref), true
	case alarm.RecurrenceEveryN:
		anchor := a.Runtime.Anchor
		if anchor.IsZero() {
			anchor = fired
		}

		return nextEvery(anchor, a.Recurrence.Every, a.Recurrence.Unit, fired, ref), true
	default:
		return time.Time{}, false
	}
}

// first computes the fire time of a freshly armed alarm.
func first(a *alarm.Alarm, ref time.Time) time.Time {
	if a.IsTimer() {
		return ref.Add(a.Time)
	}

	switch a.Recurrence.Kind {
	case alarm.RecurrenceDaysOfWeek:
		return nextOnDays(a.Recurrence.Days, a.Time, time.Time{}, ref)
	case alarm.RecurrenceEveryN:
		candidate := at(ref, a.Time)
		if candidate.Before(ref) {
			candidate = at(ref.AddDate(0, 0, 1), a.Time)
		}

		return candidate
	default:
		candidate := at(ref, a.Time)
		if !candidate.After(ref) {
			candidate = at(ref.AddDate(0, 0, 1), a.Time)
		}

		return candidate
	}
}

// nextOnDays scans forward from the later of fired and ref for the first day
// in the mask whose time of day is strictly after fired and not before ref.
func nextOnDays(days alarm.Weekdays, tod time.Duration, fired, ref time.Time) time.Time {
	start := ref
	if fired.After(start) {
		start = fired
	}

	for offset := range daysOfWeekScan {
		day := start.AddDate(0, 0, offset)
		if !days.Has(day.Weekday()) {
			continue
		}

		candidate := at(day, tod)
		if candidate.After(fired) && !candidate.Before(ref) {
			return candidate
		}
	}

	// Unreachable for a validated mask: eight days always contain a set day
	// after its first occurrence.
	return at(start.AddDate(0, 0, daysOfWeekScan), tod)
}

// nextEvery returns anchor advanced by the smallest multiple of the step that
// is strictly after fired and not before ref.
func nextEvery(anchor time.Time, n int, unit alarm.Unit, fired, ref time.Time) time.Time {
	if n < 1 {
		n = 1
	}

	bound := ref
	if fired.After(bound) {
		bound = fired
	}

	k := estimateSteps(anchor, bound, n, unit)
	for {
		candidate := advance(anchor, k*n, unit)
		if candidate.After(fired) && !candidate.Before(ref) {
			return candidate
		}

		k++
	}
}

// estimateSteps returns a step count whose occurrence is not after bound, so
// the caller only has to walk a few steps forward.
func estimateSteps(anchor, bound time.Time, n int, unit alarm.Unit) int {
	if !bound.After(anchor) {
		return 0
	}

	var units int

	switch unit {
	case alarm.UnitMonths:
		units = (bound.Year()-anchor.Year())*12 + int(bound.Month()) - int(anchor.Month())
	case alarm.UnitWeeks:
		units = int(bound.Sub(anchor).Hours() / 24 / 7)
	default:
		units = int(bound.Sub(anchor).Hours() / 24)
	}

	return max(units/n-1, 0)
}

// advance moves t forward by count units keeping its wall-clock time.
// Month steps clamp the day to the length of the target month.
func advance(t time.Time, count int, unit alarm.Unit) time.Time {
	switch unit {
	case alarm.UnitWeeks:
		return t.AddDate(0, 0, 7*count)
	case alarm.UnitMonths:
		year, month := t.Year(), int(t.Month())-1+count
		year += month / 12
		month = month%12 + 1

		day := min(t.Day(), daysIn(year, time.Month(month), t.Location()))

		return time.Date(year, time.Month(month), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	default:
		return t.AddDate(0, 0, count)
	}
}

// daysIn returns the number of days in the month.
func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// timeOfDay returns the time of day a repeating alarm fires at. Timers repeat
// at the time of day of their first fire.
func timeOfDay(a *alarm.Alarm) time.Duration {
	if !a.IsTimer() {
		return a.Time
	}

	anchor := a.Runtime.Anchor
	if anchor.IsZero() {
		anchor = a.Runtime.LastFiredAt
	}

	return sinceMidnight(anchor)
}

// sinceMidnight returns the wall-clock offset of t from its local midnight.
func sinceMidnight(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
}

// at combines the date of day with a time of day in day's location.
func at(day time.Time, tod time.Duration) time.Time {
	tod = tod.Truncate(time.Second)

	h := int(tod / time.Hour)
	m := int(tod % time.Hour / time.Minute)
	s := int(tod % time.Minute / time.Second)

	return time.Date(day.Year(), day.Month(), day.Day(), h, m, s, 0, day.Location())
}
