package scheduler

import (
	"time"

	"github.com/oshokin/alarm-manager/internal/domain/alarm"
	"github.com/oshokin/alarm-manager/internal/escalation"
)

// Snapshot is a read-only view of an alarm with its scheduling state.
type Snapshot struct {
	// Alarm is a detached copy with Position filled.
	Alarm *alarm.Alarm
	// Armed reports whether a deadline is pending.
	Armed bool
	// NextFire is the pending deadline, zero when not armed.
	NextFire time.Time
	// Remaining is the time left until NextFire, never negative.
	Remaining time.Duration
	// Elapsed is the time since the alarm was armed.
	Elapsed time.Duration
	// Alert is the phase of the latest escalation, StateIdle when none.
	Alert escalation.State
}

// snapshot builds the view of a at now. Loop-owned state is read, so it must
// only be called from the event loop.
func (s *Scheduler) snapshot(a *alarm.Alarm, now time.Time) Snapshot {
	result := Snapshot{
		Alarm: a,
		Alert: escalation.StateIdle,
	}

	if deadline, ok := s.deadlines[a.ID]; ok {
		result.Armed = true
		result.NextFire = deadline
		result.Remaining = max(deadline.Sub(now), 0)
	}

	if started := a.Runtime.StartedAt; result.Armed && !started.IsZero() {
		result.Elapsed = max(now.Sub(started), 0)
	}

	if e, ok := s.escalations[a.ID]; ok {
		result.Alert = e.State()
	}

	return result
}
