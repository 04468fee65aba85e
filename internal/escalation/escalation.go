package escalation

import (
	"context"
	"sync"

	"github.com/oshokin/alarm-manager/internal/clock"
	"github.com/oshokin/alarm-manager/internal/domain/alarm"
	"github.com/oshokin/alarm-manager/internal/logger"
	"github.com/oshokin/alarm-manager/internal/observability/metrics"
)

// Action names used in logs and metrics.
const (
	actionNotification = "notification"
	actionSound        = "sound"
	actionProgram      = "program"
)

// unbounded marks repeatsLeft of an alert repeating until acknowledged.
const unbounded = -1

// Params describes one firing.
type Params struct {
	// AlarmID is the alarm that fired.
	AlarmID alarm.ID
	// Title is the notification title.
	Title string
	// Body is the notification body.
	Body string
	// Alert is the policy of this firing. It is copied by Start.
	Alert *alarm.Alert
}

// Escalation is the state machine of one firing.
type Escalation struct {
	// alarmID is the alarm that fired.
	alarmID alarm.ID
	// title and body are passed to the notifier on every round.
	title, body string
	// alert is the private copy of the policy.
	alert *alarm.Alert
	// actions are the collaborators.
	actions Actions
	// clock schedules the pauses between rounds.
	clock clock.Clock

	// cancel stops the round loop.
	cancel context.CancelFunc
	// finished is closed when the round loop returns.
	finished chan struct{}

	// mu protects the fields below.
	mu sync.Mutex
	// state is the current phase.
	state State
	// rounds counts started rounds.
	rounds int
	// repeatsLeft is the remaining round budget or unbounded.
	repeatsLeft int
	// sound is the handle of the playing sound, if soundActive.
	sound       Handle
	soundActive bool
	// program is the handle of the running program, if programActive.
	program       Handle
	programActive bool
}

// Start begins escalating in a new goroutine and returns immediately.
func Start(ctx context.Context, clk clock.Clock, actions Actions, params Params) *Escalation {
	alert := params.Alert.Clone()
	if alert == nil {
		alert = alarm.DefaultAlert()
	}

	repeatsLeft := alert.RepeatCount
	if repeatsLeft == 0 {
		repeatsLeft = unbounded
	}

	ctx = logger.WithKV(logger.WithName(ctx, "escalation"), "alarm_id", params.AlarmID.String())
	ctx, cancel := context.WithCancel(ctx)

	e := &Escalation{
		alarmID:     params.AlarmID,
		title:       params.Title,
		body:        params.Body,
		alert:       alert,
		actions:     actions,
		clock:       clk,
		cancel:      cancel,
		finished:    make(chan struct{}),
		state:       StateIdle,
		repeatsLeft: repeatsLeft,
	}

	go e.run(ctx)

	return e
}

// AlarmID returns the alarm the escalation belongs to.
func (e *Escalation) AlarmID() alarm.ID {
	return e.alarmID
}

// State returns the current phase.
func (e *Escalation) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state
}

// Rounds returns how many rounds have started.
func (e *Escalation) Rounds() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.rounds
}

// Finished is closed once no further rounds will start.
func (e *Escalation) Finished() <-chan struct{} {
	return e.finished
}

// Acknowledge stops repetition and cancels the running sound and program.
// It is safe to call more than once and after the escalation is exhausted.
func (e *Escalation) Acknowledge() {
	e.mu.Lock()

	if e.state == StateAcknowledged {
		e.mu.Unlock()

		return
	}

	e.state = StateAcknowledged
	e.mu.Unlock()

	e.cancel()
	e.stopActions()
}

// run executes rounds until the budget is spent or the context is cancelled.
func (e *Escalation) run(ctx context.Context) {
	defer close(e.finished)

	for {
		if !e.round(ctx) {
			return
		}

		if done, exhausted := e.consumeRound(); done {
			if exhausted {
				logger.InfoKV(ctx, "Alert exhausted", "rounds", e.Rounds())
			}

			return
		}

		if !e.transition(StateAwaitingRepeat) {
			return
		}

		wait := e.clock.ScheduleAt(e.clock.Now().Add(e.alert.RepeatInterval))

		select {
		case <-ctx.Done():
			wait.Stop()
			e.stopActions()

			return
		case <-wait.C():
		}
	}
}

// round issues the actions of one round. It returns false when the escalation
// was acknowledged meanwhile.
func (e *Escalation) round(ctx context.Context) bool {
	e.mu.Lock()
	if e.state == StateAcknowledged {
		e.mu.Unlock()

		return false
	}

	e.rounds++
	round := e.rounds
	e.mu.Unlock()

	metrics.IncEscalationRound()
	logger.DebugKV(ctx, "Alert round started", "round", round)

	if !e.transition(StateNotifying) {
		return false
	}

	e.notify(ctx)

	if !e.transition(StateSoundLooping) {
		return false
	}

	e.playSound(ctx, round)

	if !e.transition(StateProgramRunning) {
		return false
	}

	e.runProgram(ctx, round)

	return true
}

// consumeRound decrements the budget. done reports that no further round
// runs; exhausted that the budget rather than an acknowledgement ended it.
func (e *Escalation) consumeRound() (done, exhausted bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateAcknowledged {
		return true, false
	}

	if e.repeatsLeft > 0 {
		e.repeatsLeft--
	}

	if e.repeatsLeft == 0 || e.alert.RepeatInterval <= 0 {
		e.state = StateExhausted

		return true, true
	}

	return false, false
}

// transition moves to next unless the escalation was acknowledged.
func (e *Escalation) transition(next State) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateAcknowledged {
		return false
	}

	e.state = next

	return true
}

// notify raises the notice; failures are logged and skipped.
func (e *Escalation) notify(ctx context.Context) {
	if !e.alert.Notification || e.actions.Notifier == nil {
		return
	}

	if err := e.actions.Notifier.Raise(ctx, e.title, e.body); err != nil {
		e.actionFailed(ctx, actionNotification, err)
	}
}

// playSound restarts the sound for this round.
func (e *Escalation) playSound(ctx context.Context, round int) {
	if e.alert.Sound == "" || e.actions.Sound == nil {
		return
	}

	e.cancelSound()

	handle, err := e.actions.Sound.Play(ctx, e.alert.Sound, e.alert.SoundLoops, func(err error) {
		if err != nil {
			e.actionFailed(ctx, actionSound, err)
		}

		e.mu.Lock()
		defer e.mu.Unlock()

		if e.rounds == round {
			e.soundActive = false
		}
	})
	if err != nil {
		e.actionFailed(ctx, actionSound, err)

		return
	}

	e.mu.Lock()
	acknowledged := e.state == StateAcknowledged

	if !acknowledged {
		e.sound, e.soundActive = handle, true
	}
	e.mu.Unlock()

	if acknowledged {
		e.actions.Sound.Cancel(handle)
	}
}

// runProgram restarts the program for this round.
func (e *Escalation) runProgram(ctx context.Context, round int) {
	if e.alert.Program == "" || e.actions.Launcher == nil {
		return
	}

	e.killProgram()

	handle, err := e.actions.Launcher.Run(ctx, e.alert.Program, e.alert.ProgramOptions, e.alert.ProgramRuntime,
		func(err error) {
			if err != nil {
				e.actionFailed(ctx, actionProgram, err)
			}

			e.mu.Lock()
			defer e.mu.Unlock()

			if e.rounds == round {
				e.programActive = false
			}
		})
	if err != nil {
		e.actionFailed(ctx, actionProgram, err)

		return
	}

	e.mu.Lock()
	acknowledged := e.state == StateAcknowledged

	if !acknowledged {
		e.program, e.programActive = handle, true
	}
	e.mu.Unlock()

	if acknowledged {
		e.actions.Launcher.Kill(handle)
	}
}

// stopActions cancels whatever the last round left running.
func (e *Escalation) stopActions() {
	e.cancelSound()
	e.killProgram()
}

func (e *Escalation) cancelSound() {
	e.mu.Lock()
	handle, active := e.sound, e.soundActive
	e.soundActive = false
	e.mu.Unlock()

	if active {
		e.actions.Sound.Cancel(handle)
	}
}

func (e *Escalation) killProgram() {
	e.mu.Lock()
	handle, active := e.program, e.programActive
	e.programActive = false
	e.mu.Unlock()

	if active {
		e.actions.Launcher.Kill(handle)
	}
}

// actionFailed logs and counts a failed action.
func (e *Escalation) actionFailed(ctx context.Context, action string, err error) {
	metrics.IncActionFailure(action)
	logger.WarnKV(ctx, "Alert action failed", "action", action, "error", err)
}
