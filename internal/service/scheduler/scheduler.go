package scheduler

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/oshokin/alarm-manager/internal/clock"
	"github.com/oshokin/alarm-manager/internal/domain/alarm"
	"github.com/oshokin/alarm-manager/internal/escalation"
	"github.com/oshokin/alarm-manager/internal/logger"
	"github.com/oshokin/alarm-manager/internal/observability/metrics"
	"github.com/oshokin/alarm-manager/internal/recurrence"
	"github.com/oshokin/alarm-manager/internal/repository/registry"
)

// ErrStopped is returned by operations issued after the event loop exited.
var ErrStopped = errors.New("scheduler stopped")

// request is one operation waiting to run on the event loop.
type request struct {
	// ctx is the caller's context, used for store writes and logging.
	ctx context.Context //nolint:containedctx // Travels with the request to the loop.
	// fn runs on the loop goroutine.
	fn func(ctx context.Context) error
	// done receives the result of fn.
	done chan error
}

// Scheduler holds the countdowns, wakes at the nearest deadline and fires
// escalations. The registry passed to New must be loaded and must not be used
// elsewhere afterwards.
type Scheduler struct {
	// registry is owned by the event loop.
	registry *registry.Registry
	// clock reads time and schedules the wake-ups.
	clock clock.Clock
	// actions are handed to every escalation.
	actions escalation.Actions

	// requests feeds operations to the loop.
	requests chan request
	// stopped is closed when Run returns.
	stopped chan struct{}

	// deadlines are the pending fire times of armed alarms. Loop-owned.
	deadlines map[alarm.ID]time.Time
	// escalations are the latest firings per alarm until acknowledged. Loop-owned.
	escalations map[alarm.ID]*escalation.Escalation
}

// New creates a scheduler over a loaded registry. Call Run to start it.
func New(reg *registry.Registry, clk clock.Clock, actions escalation.Actions) *Scheduler {
	return &Scheduler{
		registry:    reg,
		clock:       clk,
		actions:     actions,
		requests:    make(chan request),
		stopped:     make(chan struct{}),
		deadlines:   make(map[alarm.ID]time.Time),
		escalations: make(map[alarm.ID]*escalation.Escalation),
	}
}

// Run restores armed alarms, arms the auto-start ones and serves operations
// and deadlines until ctx is cancelled. On the way out auto-stop alarms are
// disarmed and running escalations are acknowledged. Run must be called once.
func (s *Scheduler) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "scheduler")

	defer close(s.stopped)

	s.restore(ctx)

	var (
		wait   clock.Wait
		waitAt time.Time
	)

	defer func() {
		if wait != nil {
			wait.Stop()
		}
	}()

	for {
		metrics.SetArmedAlarms(len(s.deadlines))

		// Keep exactly one wake-up, at the nearest deadline.
		next, ok := s.nearest()
		if wait != nil && (!ok || !next.Equal(waitAt)) {
			wait.Stop()
			wait = nil
		}

		if ok && wait == nil {
			wait = s.clock.ScheduleAt(next)
			waitAt = next
		}

		var wakeup <-chan time.Time
		if wait != nil {
			wakeup = wait.C()
		}

		select {
		case <-ctx.Done():
			s.shutdown(context.WithoutCancel(ctx))

			return nil
		case req := <-s.requests:
			req.done <- req.fn(req.ctx)
		case <-wakeup:
			wait = nil

			s.fireDue(ctx)
		}
	}
}

// do runs fn on the event loop and waits for its result.
func (s *Scheduler) do(ctx context.Context, fn func(ctx context.Context) error) error {
	req := request{
		ctx:  logger.WithName(ctx, "scheduler"),
		fn:   fn,
		done: make(chan error, 1),
	}

	select {
	case s.requests <- req:
	case <-s.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// restore schedules the alarms armed before the restart. Escalations are not
// restored. Alarms flagged autoStart are armed when they are not already.
func (s *Scheduler) restore(ctx context.Context) {
	now := s.clock.Now()
	restored, started := 0, 0

	for _, a := range s.registry.List() {
		switch {
		case a.Runtime.Armed():
			s.schedule(ctx, a)

			restored++
		case a.AutoStart:
			if err := s.arm(ctx, a.ID, now); err != nil {
				logger.ErrorKV(ctx, "Failed to auto-start alarm", "alarm_id", a.ID.String(), "error", err)

				continue
			}

			started++
		}
	}

	logger.InfoKV(ctx, "Scheduler started", "alarms", s.registry.Len(), "restored", restored, "auto_started", started)
}

// shutdown disarms the auto-stop alarms and acknowledges every escalation.
func (s *Scheduler) shutdown(ctx context.Context) {
	for _, a := range s.registry.List() {
		if !a.AutoStop || !a.Runtime.Armed() {
			continue
		}

		if err := s.disarm(ctx, a.ID); err != nil {
			logger.ErrorKV(ctx, "Failed to auto-stop alarm", "alarm_id", a.ID.String(), "error", err)
		}
	}

	for id, e := range s.escalations {
		e.Acknowledge()
		delete(s.escalations, id)
	}

	metrics.SetArmedAlarms(0)
	logger.Info(ctx, "Scheduler stopped")
}

// nearest returns the earliest pending deadline.
func (s *Scheduler) nearest() (time.Time, bool) {
	var (
		result time.Time
		found  bool
	)

	for _, deadline := range s.deadlines {
		if !found || deadline.Before(result) {
			result, found = deadline, true
		}
	}

	return result, found
}

// fireDue fires every alarm whose deadline has passed, earliest first.
func (s *Scheduler) fireDue(ctx context.Context) {
	now := s.clock.Now()

	type due struct {
		id       alarm.ID
		deadline time.Time
	}

	var pending []due

	for id, deadline := range s.deadlines {
		if !deadline.After(now) {
			pending = append(pending, due{id: id, deadline: deadline})
		}
	}

	slices.SortFunc(pending, func(a, b due) int {
		if c := a.deadline.Compare(b.deadline); c != 0 {
			return c
		}

		return cmp.Compare(a.id.String(), b.id.String())
	})

	for _, d := range pending {
		// An earlier fire in this batch may have re-armed it.
		if deadline, ok := s.deadlines[d.id]; !ok || !deadline.Equal(d.deadline) {
			continue
		}

		s.fire(ctx, d.id, d.deadline, now)
	}
}

// fire records the firing, re-arms repeating alarms, arms the alarms chained
// to this one and starts a new escalation.
func (s *Scheduler) fire(ctx context.Context, id alarm.ID, deadline, now time.Time) {
	delete(s.deadlines, id)

	a, err := s.registry.Get(id)
	if err != nil {
		return
	}

	ctx = logger.WithKV(ctx, "alarm_id", id.String())

	runtime := a.Runtime
	runtime.LastFiredAt = now

	if runtime.Anchor.IsZero() {
		runtime.Anchor = deadline
	}

	if !a.Recurrence.IsRepeating() {
		runtime.StartedAt = time.Time{}
	}

	if err := s.registry.SaveRuntime(ctx, id, runtime); err != nil {
		logger.ErrorKV(ctx, "Failed to persist fired alarm", "error", err)
	}

	a.Runtime = runtime

	metrics.IncAlarmFire(a.Kind.String())
	logger.InfoKV(ctx, "Alarm fired", "name", a.Name, "kind", a.Kind.String(), "late_by", now.Sub(deadline))

	if a.Recurrence.IsRepeating() {
		s.schedule(ctx, a)
	}

	s.chain(ctx, a, now)

	if previous, ok := s.escalations[id]; ok {
		previous.Acknowledge()
	}

	s.escalations[id] = escalation.Start(ctx, s.clock, s.actions, escalation.Params{
		AlarmID: id,
		Title:   title(a),
		Body:    body(a, now),
		Alert:   a.EffectiveAlert(s.registry.DefaultAlert()),
	})
}

// chain arms the timers triggered by a, including a itself.
func (s *Scheduler) chain(ctx context.Context, a *alarm.Alarm, now time.Time) {
	targets := s.registry.Dependants(a.ID)
	if a.Recurrence.Kind == alarm.RecurrenceTriggeredBy && a.Recurrence.Trigger == a.ID {
		targets = append(targets, a.ID)
	}

	for _, target := range targets {
		if err := s.arm(ctx, target, now); err != nil {
			logger.ErrorKV(ctx, "Failed to arm triggered timer", "trigger_id", a.ID.String(), "target_id", target.String(), "error", err)

			continue
		}

		logger.DebugKV(ctx, "Triggered timer armed", "target_id", target.String())
	}
}

// arm resets the runtime of an alarm, persists it and schedules the first fire.
func (s *Scheduler) arm(ctx context.Context, id alarm.ID, now time.Time) error {
	a, err := s.registry.Get(id)
	if err != nil {
		return err
	}

	a.Runtime = alarm.Runtime{StartedAt: now}

	if err := s.registry.SaveRuntime(ctx, id, a.Runtime); err != nil {
		return fmt.Errorf("persist armed state: %w", err)
	}

	s.schedule(ctx, a)

	return nil
}

// disarm clears the runtime of an alarm and drops its deadline.
func (s *Scheduler) disarm(ctx context.Context, id alarm.ID) error {
	delete(s.deadlines, id)

	if err := s.registry.SaveRuntime(ctx, id, alarm.Runtime{}); err != nil {
		return fmt.Errorf("persist disarmed state: %w", err)
	}

	return nil
}

// schedule computes the next deadline of an armed alarm. An alarm without a
// next fire is disarmed.
func (s *Scheduler) schedule(ctx context.Context, a *alarm.Alarm) {
	ref := a.Runtime.LastFiredAt
	if ref.IsZero() {
		ref = a.Runtime.StartedAt
	}

	next, ok := recurrence.Next(a, ref)
	if !ok {
		logger.DebugKV(ctx, "Alarm has no further fire", "alarm_id", a.ID.String())

		if err := s.disarm(ctx, a.ID); err != nil {
			logger.ErrorKV(ctx, "Failed to disarm exhausted alarm", "alarm_id", a.ID.String(), "error", err)
		}

		return
	}

	s.deadlines[a.ID] = next

	logger.DebugKV(ctx, "Alarm scheduled", "alarm_id", a.ID.String(), "next_fire", next)
}

// acknowledge stops the latest escalation of an alarm. It reports whether one
// was running.
func (s *Scheduler) acknowledge(ctx context.Context, id alarm.ID) bool {
	e, ok := s.escalations[id]
	if !ok {
		return false
	}

	delete(s.escalations, id)
	e.Acknowledge()

	metrics.IncAcknowledged()
	logger.InfoKV(ctx, "Alert acknowledged", "alarm_id", id.String(), "rounds", e.Rounds())

	return true
}

// title is the notification title of a firing.
func title(a *alarm.Alarm) string {
	if a.Name != "" {
		return a.Name
	}

	if a.IsTimer() {
		return "Timer"
	}

	return "Alarm"
}

// body is the notification text of a firing.
func body(a *alarm.Alarm, now time.Time) string {
	if a.IsTimer() {
		return fmt.Sprintf("%s elapsed", a.Time)
	}

	return "It is " + now.Format("15:04")
}
