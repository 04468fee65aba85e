package clock

import "time"

// Wait is a pending wake-up created by Clock.ScheduleAt.
type Wait interface {
	// C delivers the wake-up time once.
	C() <-chan time.Time
	// Stop cancels the wait. It reports whether the wait was still pending.
	Stop() bool
}

// Clock reads the current time and schedules wake-ups.
type Clock interface {
	Now() time.Time
	ScheduleAt(t time.Time) Wait
}

// System is the Clock backed by the runtime timers.
type System struct{}

// Now returns time.Now.
func (System) Now() time.Time {
	return time.Now()
}

// ScheduleAt returns a wait that fires at t, or immediately when t has passed.
//
//nolint:ireturn // Wait hides the timer implementation.
func (System) ScheduleAt(t time.Time) Wait {
	return &timerWait{timer: time.NewTimer(max(time.Until(t), 0))}
}

// timerWait adapts *time.Timer to Wait.
type timerWait struct {
	timer *time.Timer
}

func (w *timerWait) C() <-chan time.Time { return w.timer.C }

func (w *timerWait) Stop() bool { return w.timer.Stop() }
