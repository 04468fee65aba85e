package ical

import (
	"time"

	"github.com/oshokin/alarm-manager/internal/service/scheduler"
)

// Occurrences lists up to count upcoming fire times of an alarm, starting with
// its next fire. One-shot alarms have at most one.
func Occurrences(s scheduler.Snapshot, now time.Time, count int) ([]time.Time, error) {
	if count <= 0 {
		return nil, nil
	}

	first, ok := NextFire(s, now)
	if !ok {
		return nil, nil
	}

	if !s.Alarm.Recurrence.IsRepeating() {
		return []time.Time{first}, nil
	}

	start := s.Alarm.Runtime.Anchor
	if start.IsZero() {
		start = first
	}

	return Upcoming(s.Alarm.Recurrence, start, first, count)
}
