package recurrence

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-manager/internal/domain/alarm"
)

// day returns a local time on 2024-01-<d> (2024-01-01 is a Monday).
func day(d, h, m, s int) time.Time {
	return time.Date(2024, time.January, d, h, m, s, 0, time.UTC)
}

// clockAlarm builds a clock alarm at the provided time of day.
func clockAlarm(tod time.Duration, r alarm.Recurrence) *alarm.Alarm {
	return &alarm.Alarm{
		Kind:       alarm.KindClock,
		Time:       tod,
		Recurrence: r,
	}
}

// TestTimerOneShot verifies a 300s timer fires 300s after arming and is exhausted afterwards.
func TestTimerOneShot(t *testing.T) {
	t.Parallel()

	start := day(1, 0, 0, 0)
	a := &alarm.Alarm{Kind: alarm.KindTimer, Time: 300 * time.Second}

	got, ok := Next(a, start)
	require.True(t, ok)
	require.Equal(t, start.Add(300*time.Second), got)

	a.Runtime.LastFiredAt = got

	_, ok = Next(a, got)
	require.False(t, ok)

	// Triggered timers are exhausted the same way.
	a.Recurrence = alarm.TriggeredBy(alarm.NewID())

	_, ok = Next(a, got)
	require.False(t, ok)
}

// TestClockOnce verifies the same-day and next-day cases of a daily clock alarm.
func TestClockOnce(t *testing.T) {
	t.Parallel()

	a := clockAlarm(8*time.Hour, alarm.NoRecurrence())

	got, ok := Next(a, day(3, 7, 0, 0))
	require.True(t, ok)
	require.Equal(t, day(3, 8, 0, 0), got)

	got, ok = Next(a, day(3, 9, 0, 0))
	require.True(t, ok)
	require.Equal(t, day(4, 8, 0, 0), got)

	// Strictly after: exactly 08:00 rolls over to tomorrow.
	got, ok = Next(a, day(3, 8, 0, 0))
	require.True(t, ok)
	require.Equal(t, day(4, 8, 0, 0), got)
}

// TestClockOnceProperties checks that results are in the future, at most a day ahead and stable.
func TestClockOnceProperties(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 2))

	for range 500 {
		tod := time.Duration(rng.IntN(86400)) * time.Second
		ref := day(1, 0, 0, 0).Add(time.Duration(rng.Int64N(int64(60 * 24 * time.Hour))))
		a := clockAlarm(tod, alarm.NoRecurrence())

		got, ok := Next(a, ref)
		require.True(t, ok)
		require.True(t, got.After(ref))
		require.LessOrEqual(t, got.Sub(ref), 24*time.Hour)

		again, _ := Next(a, ref)
		require.Equal(t, got, again)
	}
}

// TestDaysOfWeek verifies the Monday|Wednesday scenario and firing later on the same day.
func TestDaysOfWeek(t *testing.T) {
	t.Parallel()

	a := clockAlarm(9*time.Hour, alarm.OnDays(alarm.Monday|alarm.Wednesday))

	// Tuesday 10:00 -> Wednesday 09:00.
	got, ok := Next(a, day(2, 10, 0, 0))
	require.True(t, ok)
	require.Equal(t, day(3, 9, 0, 0), got)

	// Monday 08:00 -> Monday 09:00.
	got, _ = Next(a, day(1, 8, 0, 0))
	require.Equal(t, day(1, 9, 0, 0), got)

	// Due now when the reference is exactly the fire time.
	got, _ = Next(a, day(1, 9, 0, 0))
	require.Equal(t, day(1, 9, 0, 0), got)

	// After firing on Wednesday the next one is the following Monday.
	a.Runtime.LastFiredAt = day(3, 9, 0, 0)
	a.Runtime.Anchor = day(1, 9, 0, 0)

	got, _ = Next(a, day(3, 9, 0, 0))
	require.Equal(t, day(8, 9, 0, 0), got)
}

// TestDaysOfWeekProperties checks that fires land on set days and consecutive fires are at most a week apart.
func TestDaysOfWeekProperties(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(3, 4))

	for range 200 {
		mask := alarm.Weekdays(rng.IntN(127) + 1)
		a := clockAlarm(time.Duration(rng.IntN(86400))*time.Second, alarm.OnDays(mask))
		ref := day(1, 0, 0, 0).Add(time.Duration(rng.Int64N(int64(30 * 24 * time.Hour))))

		prev, ok := Next(a, ref)
		require.True(t, ok)
		require.True(t, mask.Has(prev.Weekday()))
		require.False(t, prev.Before(ref))

		for range 10 {
			a.Runtime.LastFiredAt = prev

			next, ok := Next(a, prev)
			require.True(t, ok)
			require.True(t, mask.Has(next.Weekday()))
			require.True(t, next.After(prev))
			require.LessOrEqual(t, next.Sub(prev), 7*24*time.Hour+time.Hour)

			prev = next
		}
	}
}

// TestEveryN covers day, week and clamped month steps.
func TestEveryN(t *testing.T) {
	t.Parallel()

	// Every 3 days at 06:30.
	a := clockAlarm(6*time.Hour+30*time.Minute, alarm.EveryN(3, alarm.UnitDays))

	got, ok := Next(a, day(5, 6, 0, 0))
	require.True(t, ok)
	require.Equal(t, day(5, 6, 30, 0), got)

	a.Runtime.LastFiredAt = got
	a.Runtime.Anchor = got

	got, _ = Next(a, got)
	require.Equal(t, day(8, 6, 30, 0), got)

	// Every 2 weeks.
	a.Recurrence = alarm.EveryN(2, alarm.UnitWeeks)

	got, _ = Next(a, a.Runtime.LastFiredAt)
	require.Equal(t, day(19, 6, 30, 0), got)

	// Monthly from the 31st clamps to shorter months without drifting.
	anchor := time.Date(2024, time.January, 31, 7, 0, 0, 0, time.UTC)
	m := clockAlarm(7*time.Hour, alarm.EveryN(1, alarm.UnitMonths))
	m.Runtime.Anchor = anchor
	m.Runtime.LastFiredAt = anchor

	feb, _ := Next(m, anchor)
	require.Equal(t, time.Date(2024, time.February, 29, 7, 0, 0, 0, time.UTC), feb)

	m.Runtime.LastFiredAt = feb

	mar, _ := Next(m, feb)
	require.Equal(t, time.Date(2024, time.March, 31, 7, 0, 0, 0, time.UTC), mar)
}

// TestEveryNCatchUp verifies that missed occurrences collapse into the first one not before the reference.
func TestEveryNCatchUp(t *testing.T) {
	t.Parallel()

	anchor := day(1, 12, 0, 0)
	a := clockAlarm(12*time.Hour, alarm.EveryN(2, alarm.UnitDays))
	a.Runtime.Anchor = anchor
	a.Runtime.LastFiredAt = anchor

	// Reference lands exactly on an occurrence: due now.
	got, _ := Next(a, day(11, 12, 0, 0))
	require.Equal(t, day(11, 12, 0, 0), got)

	got, _ = Next(a, day(11, 12, 0, 1))
	require.Equal(t, day(13, 12, 0, 0), got)
}

// TestTimerRepeatingOnDays verifies that a repeating timer keeps the time of day of its first fire.
func TestTimerRepeatingOnDays(t *testing.T) {
	t.Parallel()

	a := &alarm.Alarm{
		Kind:       alarm.KindTimer,
		Time:       90 * time.Minute,
		Recurrence: alarm.OnDays(alarm.AllWeekdays),
	}

	firstFire, _ := Next(a, day(2, 10, 0, 0))
	require.Equal(t, day(2, 11, 30, 0), firstFire)

	a.Runtime.LastFiredAt = firstFire
	a.Runtime.Anchor = firstFire

	got, _ := Next(a, firstFire)
	require.Equal(t, day(3, 11, 30, 0), got)
}

// TestNextIsPure verifies the input alarm is left untouched.
func TestNextIsPure(t *testing.T) {
	t.Parallel()

	a := clockAlarm(time.Hour, alarm.EveryN(1, alarm.UnitMonths))
	a.Runtime.LastFiredAt = day(1, 1, 0, 0)
	before := a.Clone()

	_, _ = Next(a, day(15, 0, 0, 0))
	require.Equal(t, before, a)
}
