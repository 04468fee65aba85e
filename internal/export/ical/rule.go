package ical

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/oshokin/alarm-manager/internal/domain/alarm"
)

// ErrNotRepeating indicates an alarm without a calendar rule.
var ErrNotRepeating = errors.New("alarm does not repeat on a calendar rule")

// clampedMonthDay is the last day every month has.
const clampedMonthDay = 28

// weekdays maps mask bits, Monday first, to rrule weekdays.
//
//nolint:gochecknoglobals // Lookup table.
var weekdays = [...]rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU}

// Rule returns the calendar rule of a repeating alarm whose series starts at
// start. Monthly rules on days past the 28th fire on the last day of shorter
// months.
func Rule(r alarm.Recurrence, start time.Time) (*rrule.ROption, error) {
	switch r.Kind {
	case alarm.RecurrenceDaysOfWeek:
		option := &rrule.ROption{Freq: rrule.WEEKLY, Dtstart: start}

		for i, wd := range weekdays {
			if r.Days&(1<<i) != 0 {
				option.Byweekday = append(option.Byweekday, wd)
			}
		}

		return option, nil
	case alarm.RecurrenceEveryN:
		option := &rrule.ROption{Interval: r.Every, Dtstart: start}

		switch r.Unit {
		case alarm.UnitDays:
			option.Freq = rrule.DAILY
		case alarm.UnitWeeks:
			option.Freq = rrule.WEEKLY
		case alarm.UnitMonths:
			option.Freq = rrule.MONTHLY

			if day := start.Day(); day > clampedMonthDay {
				for d := clampedMonthDay; d <= day; d++ {
					option.Bymonthday = append(option.Bymonthday, d)
				}

				option.Bysetpos = []int{-1}
			}
		}

		return option, nil
	case alarm.RecurrenceNone, alarm.RecurrenceTriggeredBy:
		return nil, ErrNotRepeating
	default:
		return nil, ErrNotRepeating
	}
}

// Upcoming returns up to count fire times of a repeating alarm at or after
// from, for a series starting at start.
func Upcoming(r alarm.Recurrence, start, from time.Time, count int) ([]time.Time, error) {
	option, err := Rule(r, start)
	if err != nil {
		return nil, err
	}

	rule, err := rrule.NewRRule(*option)
	if err != nil {
		return nil, err
	}

	result := make([]time.Time, 0, count)
	next := rule.Iterator()

	for len(result) < count {
		t, ok := next()
		if !ok {
			break
		}

		if !t.Before(from) {
			result = append(result, t)
		}
	}

	return result, nil
}
