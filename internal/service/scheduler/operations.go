package scheduler

import (
	"context"

	"github.com/oshokin/alarm-manager/internal/domain/alarm"
	"github.com/oshokin/alarm-manager/internal/logger"
)

// List returns all alarms in display order with their scheduling state.
func (s *Scheduler) List(ctx context.Context) ([]Snapshot, error) {
	var result []Snapshot

	err := s.do(ctx, func(context.Context) error {
		now := s.clock.Now()
		alarms := s.registry.List()

		result = make([]Snapshot, 0, len(alarms))
		for _, a := range alarms {
			result = append(result, s.snapshot(a, now))
		}

		return nil
	})

	return result, err
}

// Get returns one alarm with its scheduling state.
func (s *Scheduler) Get(ctx context.Context, id alarm.ID) (Snapshot, error) {
	var result Snapshot

	err := s.do(ctx, func(context.Context) error {
		a, err := s.registry.Get(id)
		if err != nil {
			return err
		}

		result = s.snapshot(a, s.clock.Now())

		return nil
	})

	return result, err
}

// Save creates an alarm from a draft without identity or replaces the alarm
// with the draft's identity. The draft's runtime is ignored: an armed alarm is
// re-armed from now with the new settings, a disarmed one stays disarmed.
func (s *Scheduler) Save(ctx context.Context, draft *alarm.Alarm) (Snapshot, error) {
	var result Snapshot

	err := s.do(ctx, func(ctx context.Context) error {
		now := s.clock.Now()

		a := draft.Clone()
		a.Runtime = alarm.Runtime{}

		if !a.ID.IsZero() {
			existing, err := s.registry.Get(a.ID)
			if err != nil {
				return err
			}

			if existing.Runtime.Armed() {
				a.Runtime = alarm.Runtime{StartedAt: now}
			}
		}

		saved, err := s.registry.Save(ctx, a)
		if err != nil {
			return err
		}

		delete(s.deadlines, saved.ID)

		if saved.Runtime.Armed() {
			s.schedule(ctx, saved)
		}

		logger.InfoKV(ctx, "Alarm saved", "alarm_id", saved.ID.String(), "name", saved.Name, "armed", saved.Runtime.Armed())

		result = s.snapshot(saved, now)

		return nil
	})

	return result, err
}

// Delete removes an alarm, cancelling its deadline and its escalation. Deleting
// a timer that triggers other timers is rejected with a ReferentialError.
func (s *Scheduler) Delete(ctx context.Context, id alarm.ID) error {
	return s.do(ctx, func(ctx context.Context) error {
		if err := s.registry.Delete(ctx, id); err != nil {
			return err
		}

		delete(s.deadlines, id)
		s.acknowledge(ctx, id)

		logger.InfoKV(ctx, "Alarm deleted", "alarm_id", id.String())

		return nil
	})
}

// Move puts an alarm at newIndex of the display order.
func (s *Scheduler) Move(ctx context.Context, id alarm.ID, newIndex int) error {
	return s.do(ctx, func(ctx context.Context) error {
		if err := s.registry.Move(ctx, id, newIndex); err != nil {
			return err
		}

		logger.InfoKV(ctx, "Alarm moved", "alarm_id", id.String(), "index", newIndex)

		return nil
	})
}

// Acknowledge stops the running alert of an alarm. It reports whether an
// alert was running; acknowledging twice is not an error.
func (s *Scheduler) Acknowledge(ctx context.Context, id alarm.ID) (bool, error) {
	var acknowledged bool

	err := s.do(ctx, func(ctx context.Context) error {
		if _, err := s.registry.Get(id); err != nil {
			return err
		}

		acknowledged = s.acknowledge(ctx, id)

		return nil
	})

	return acknowledged, err
}

// AcknowledgeAll stops every running alert and returns how many were running.
func (s *Scheduler) AcknowledgeAll(ctx context.Context) (int, error) {
	var count int

	err := s.do(ctx, func(ctx context.Context) error {
		for id := range s.escalations {
			if s.acknowledge(ctx, id) {
				count++
			}
		}

		return nil
	})

	return count, err
}

// Start arms an alarm from now. A running countdown restarts.
func (s *Scheduler) Start(ctx context.Context, id alarm.ID) (Snapshot, error) {
	var result Snapshot

	err := s.do(ctx, func(ctx context.Context) error {
		now := s.clock.Now()

		if err := s.arm(ctx, id, now); err != nil {
			return err
		}

		a, err := s.registry.Get(id)
		if err != nil {
			return err
		}

		logger.InfoKV(ctx, "Alarm started", "alarm_id", id.String(), "next_fire", s.deadlines[id])

		result = s.snapshot(a, now)

		return nil
	})

	return result, err
}

// Stop disarms an alarm and acknowledges its running alert.
func (s *Scheduler) Stop(ctx context.Context, id alarm.ID) (Snapshot, error) {
	var result Snapshot

	err := s.do(ctx, func(ctx context.Context) error {
		if _, err := s.registry.Get(id); err != nil {
			return err
		}

		if err := s.disarm(ctx, id); err != nil {
			return err
		}

		s.acknowledge(ctx, id)

		a, err := s.registry.Get(id)
		if err != nil {
			return err
		}

		logger.InfoKV(ctx, "Alarm stopped", "alarm_id", id.String())

		result = s.snapshot(a, s.clock.Now())

		return nil
	})

	return result, err
}

// Suspend disarms the armed alarms flagged autoStopOnSuspend and returns
// how many were disarmed.
func (s *Scheduler) Suspend(ctx context.Context) (int, error) {
	var count int

	err := s.do(ctx, func(ctx context.Context) error {
		for _, a := range s.registry.List() {
			if !a.AutoStopOnSuspend || !a.Runtime.Armed() {
				continue
			}

			if err := s.disarm(ctx, a.ID); err != nil {
				return err
			}

			count++
		}

		logger.InfoKV(ctx, "Suspend handled", "stopped", count)

		return nil
	})

	return count, err
}

// Resume arms the idle alarms flagged autoStartOnResume and returns how many
// were armed.
func (s *Scheduler) Resume(ctx context.Context) (int, error) {
	var count int

	err := s.do(ctx, func(ctx context.Context) error {
		now := s.clock.Now()

		for _, a := range s.registry.List() {
			if !a.AutoStartOnResume || a.Runtime.Armed() {
				continue
			}

			if err := s.arm(ctx, a.ID, now); err != nil {
				return err
			}

			count++
		}

		logger.InfoKV(ctx, "Resume handled", "started", count)

		return nil
	})

	return count, err
}

// DefaultAlert returns the alert used by alarms without an override.
func (s *Scheduler) DefaultAlert(ctx context.Context) (*alarm.Alert, error) {
	var result *alarm.Alert

	err := s.do(ctx, func(context.Context) error {
		result = s.registry.DefaultAlert()

		return nil
	})

	return result, err
}

// SetDefaultAlert validates and persists the default alert. Running alerts
// keep the policy they started with.
func (s *Scheduler) SetDefaultAlert(ctx context.Context, a *alarm.Alert) error {
	return s.do(ctx, func(ctx context.Context) error {
		if err := s.registry.SetDefaultAlert(ctx, a); err != nil {
			return err
		}

		logger.Info(ctx, "Default alert updated")

		return nil
	})
}
