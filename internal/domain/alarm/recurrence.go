package alarm

import (
	"fmt"
	"strings"
	"time"
)

// RecurrenceKind discriminates the alternatives of Recurrence.
type RecurrenceKind int

const (
	// RecurrenceNone fires once.
	RecurrenceNone RecurrenceKind = iota
	// RecurrenceTriggeredBy re-arms a timer whenever another timer fires.
	RecurrenceTriggeredBy
	// RecurrenceDaysOfWeek fires on the weekdays set in a mask.
	RecurrenceDaysOfWeek
	// RecurrenceEveryN fires every N days, weeks or months.
	RecurrenceEveryN
)

// recurrenceKindNames maps kinds to their persisted names.
//
//nolint:gochecknoglobals // Lookup table.
var recurrenceKindNames = map[RecurrenceKind]string{
	RecurrenceNone:        "none",
	RecurrenceTriggeredBy: "triggered-by",
	RecurrenceDaysOfWeek:  "days-of-week",
	RecurrenceEveryN:      "every-n",
}

// String returns the persisted name of the kind.
func (k RecurrenceKind) String() string {
	if name, ok := recurrenceKindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("RecurrenceKind(%d)", int(k))
}

// ParseRecurrenceKind parses a persisted kind name.
func ParseRecurrenceKind(s string) (RecurrenceKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for kind, name := range recurrenceKindNames {
		if name == s {
			return kind, nil
		}
	}

	return RecurrenceNone, newValidationError("recurrence kind", "unknown value %q", s)
}

// Unit is the step of an every-N rule.
type Unit int

const (
	// UnitDays advances by calendar days.
	UnitDays Unit = iota
	// UnitWeeks advances by seven calendar days.
	UnitWeeks
	// UnitMonths advances by calendar months, clamping the day of month.
	UnitMonths
)

// String returns the persisted name of the unit.
func (u Unit) String() string {
	switch u {
	case UnitDays:
		return "days"
	case UnitWeeks:
		return "weeks"
	case UnitMonths:
		return "months"
	default:
		return fmt.Sprintf("Unit(%d)", int(u))
	}
}

// ParseUnit parses a persisted unit name.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "days":
		return UnitDays, nil
	case "weeks":
		return UnitWeeks, nil
	case "months":
		return UnitMonths, nil
	default:
		return UnitDays, newValidationError("recurrence unit", "unknown value %q", s)
	}
}

// Weekdays is a bit mask of days. Monday is bit 0 and Sunday is bit 6.
type Weekdays uint8

const (
	Monday Weekdays = 1 << iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday

	// AllWeekdays has every day set.
	AllWeekdays = Monday | Tuesday | Wednesday | Thursday | Friday | Saturday | Sunday
)

// WeekdayBit returns the mask bit of a time.Weekday.
func WeekdayBit(wd time.Weekday) Weekdays {
	return 1 << ((int(wd) + 6) % 7)
}

// Has reports whether the mask contains the weekday.
func (w Weekdays) Has(wd time.Weekday) bool {
	return w&WeekdayBit(wd) != 0
}

// String renders the mask as short day names, e.g. "Mon,Wed".
func (w Weekdays) String() string {
	names := [...]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	parts := make([]string, 0, len(names))

	for i, name := range names {
		if w&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}

	return strings.Join(parts, ",")
}

// ParseWeekdays parses a comma separated list of day names such as
// "mon,wed,fri" or "Monday, Friday". "all" selects every day.
func ParseWeekdays(s string) (Weekdays, error) {
	var mask Weekdays

	for part := range strings.SplitSeq(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}

		if part == "all" {
			mask |= AllWeekdays

			continue
		}

		bit, ok := weekdayByName(part)
		if !ok {
			return 0, newValidationError("recurrence days", "unknown day %q", part)
		}

		mask |= bit
	}

	if mask == 0 {
		return 0, newValidationError("recurrence days", "no day selected")
	}

	return mask, nil
}

// weekdayByName resolves a full or three-letter English day name.
func weekdayByName(name string) (Weekdays, bool) {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		full := strings.ToLower(wd.String())
		if name == full || name == full[:3] {
			return WeekdayBit(wd), true
		}
	}

	return 0, false
}

// MaxEveryN bounds the step of an every-N rule.
const MaxEveryN = 1000

// Recurrence is the tagged recurrence rule of an alarm.
// Only the fields belonging to Kind are meaningful.
type Recurrence struct {
	// Kind selects the alternative.
	Kind RecurrenceKind
	// Trigger is the timer whose firing re-arms this alarm (RecurrenceTriggeredBy).
	Trigger ID
	// Days is the weekday mask (RecurrenceDaysOfWeek).
	Days Weekdays
	// Every is the step count (RecurrenceEveryN).
	Every int
	// Unit is the step unit (RecurrenceEveryN).
	Unit Unit
}

// NoRecurrence returns the one-shot rule.
func NoRecurrence() Recurrence {
	return Recurrence{Kind: RecurrenceNone}
}

// TriggeredBy returns a rule re-arming the alarm whenever the trigger fires.
func TriggeredBy(trigger ID) Recurrence {
	return Recurrence{Kind: RecurrenceTriggeredBy, Trigger: trigger}
}

// OnDays returns a days-of-week rule.
func OnDays(days Weekdays) Recurrence {
	return Recurrence{Kind: RecurrenceDaysOfWeek, Days: days}
}

// EveryN returns an every-N-units rule.
func EveryN(n int, unit Unit) Recurrence {
	return Recurrence{Kind: RecurrenceEveryN, Every: n, Unit: unit}
}

// IsRepeating reports whether the rule produces further occurrences on its own.
func (r Recurrence) IsRepeating() bool {
	return r.Kind == RecurrenceDaysOfWeek || r.Kind == RecurrenceEveryN
}

// Normalize clears the fields that do not belong to Kind.
func (r Recurrence) Normalize() Recurrence {
	switch r.Kind {
	case RecurrenceTriggeredBy:
		return TriggeredBy(r.Trigger)
	case RecurrenceDaysOfWeek:
		return OnDays(r.Days)
	case RecurrenceEveryN:
		return EveryN(r.Every, r.Unit)
	default:
		return NoRecurrence()
	}
}

// Validate checks the rule in isolation. Whether a trigger exists is checked by
// the registry.
func (r Recurrence) Validate() error {
	switch r.Kind {
	case RecurrenceNone:
		return nil
	case RecurrenceTriggeredBy:
		if r.Trigger.IsZero() {
			return newValidationError("recurrence", "triggered timer id is required")
		}
	case RecurrenceDaysOfWeek:
		if r.Days == 0 || r.Days > AllWeekdays {
			return newValidationError("recurrence", "days of week mask %d is outside 1..%d", r.Days, AllWeekdays)
		}
	case RecurrenceEveryN:
		if r.Every < 1 || r.Every > MaxEveryN {
			return newValidationError("recurrence", "step %d is outside 1..%d", r.Every, MaxEveryN)
		}

		if r.Unit < UnitDays || r.Unit > UnitMonths {
			return newValidationError("recurrence", "unknown unit %d", int(r.Unit))
		}
	default:
		return newValidationError("recurrence", "unknown kind %d", int(r.Kind))
	}

	return nil
}

// String renders the rule for logs and CLI output.
func (r Recurrence) String() string {
	switch r.Kind {
	case RecurrenceTriggeredBy:
		return "triggered by " + r.Trigger.String()
	case RecurrenceDaysOfWeek:
		return "on " + r.Days.String()
	case RecurrenceEveryN:
		return fmt.Sprintf("every %d %s", r.Every, r.Unit)
	default:
		return "once"
	}
}
