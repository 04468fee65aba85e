package alarm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestWeekdayBit verifies that Monday maps to bit 0 and Sunday to bit 6.
func TestWeekdayBit(t *testing.T) {
	t.Parallel()

	require.Equal(t, Monday, WeekdayBit(time.Monday))
	require.Equal(t, Wednesday, WeekdayBit(time.Wednesday))
	require.Equal(t, Sunday, WeekdayBit(time.Sunday))
	require.Equal(t, Weekdays(5), Monday|Wednesday)

	mask := Monday | Wednesday
	require.True(t, mask.Has(time.Monday))
	require.False(t, mask.Has(time.Tuesday))
	require.Equal(t, "Mon,Wed", mask.String())
}

// TestParseNames verifies round trips of the persisted enum names and rejection of unknown ones.
func TestParseNames(t *testing.T) {
	t.Parallel()

	for _, kind := range []RecurrenceKind{RecurrenceNone, RecurrenceTriggeredBy, RecurrenceDaysOfWeek, RecurrenceEveryN} {
		got, err := ParseRecurrenceKind(kind.String())
		require.NoError(t, err)
		require.Equal(t, kind, got)
	}

	for _, unit := range []Unit{UnitDays, UnitWeeks, UnitMonths} {
		got, err := ParseUnit(unit.String())
		require.NoError(t, err)
		require.Equal(t, unit, got)
	}

	_, err := ParseRecurrenceKind("sometimes")
	require.True(t, IsValidation(err))

	_, err = ParseUnit("fortnights")
	require.True(t, IsValidation(err))

	_, err = ParseKind("egg-timer")
	require.True(t, IsValidation(err))
}

// TestRecurrenceNormalize verifies that fields of other alternatives are cleared.
func TestRecurrenceNormalize(t *testing.T) {
	t.Parallel()

	r := Recurrence{Kind: RecurrenceDaysOfWeek, Days: Friday, Every: 3, Unit: UnitMonths, Trigger: NewID()}
	require.Equal(t, OnDays(Friday), r.Normalize())

	r = Recurrence{Kind: RecurrenceNone, Days: Friday}
	require.Equal(t, NoRecurrence(), r.Normalize())
	require.False(t, r.Normalize().IsRepeating())
	require.True(t, EveryN(1, UnitDays).IsRepeating())
}

// TestID verifies parsing, zero detection and the textual form.
func TestID(t *testing.T) {
	t.Parallel()

	require.True(t, NilID.IsZero())
	require.Empty(t, NilID.String())

	id := NewID()
	require.False(t, id.IsZero())

	parsed, err := ParseID(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)

	_, err = ParseID("not-a-uuid")
	require.Error(t, err)
}

// TestReferentialErrorMessage verifies the message names the referencing alarms.
func TestReferentialErrorMessage(t *testing.T) {
	t.Parallel()

	source, dependant := NewID(), NewID()
	err := error(&ReferentialError{AlarmID: source, ReferencedBy: []ID{dependant}, Reason: "cannot delete"})

	require.True(t, IsReferential(err))
	require.False(t, IsValidation(err))
	require.Contains(t, err.Error(), dependant.String())
	require.Contains(t, err.Error(), "cannot delete")
}

// TestParseWeekdays verifies day list parsing round-trips with String.
func TestParseWeekdays(t *testing.T) {
	t.Parallel()

	mask, err := ParseWeekdays("mon, Wednesday ,FRI")
	require.NoError(t, err)
	require.Equal(t, Monday|Wednesday|Friday, mask)

	again, err := ParseWeekdays(mask.String())
	require.NoError(t, err)
	require.Equal(t, mask, again)

	mask, err = ParseWeekdays("all")
	require.NoError(t, err)
	require.Equal(t, AllWeekdays, mask)

	_, err = ParseWeekdays("someday")
	require.True(t, IsValidation(err))

	_, err = ParseWeekdays(" , ")
	require.True(t, IsValidation(err))
}
