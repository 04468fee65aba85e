package scheduler

import (
	"context"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-manager/internal/clock"
	"github.com/oshokin/alarm-manager/internal/domain/alarm"
	"github.com/oshokin/alarm-manager/internal/escalation"
	"github.com/oshokin/alarm-manager/internal/repository/registry"
	"github.com/oshokin/alarm-manager/internal/repository/store"
)

// notice is one raised notification.
type notice struct {
	at    time.Time
	title string
}

// fakeNotifier records notices with the (bubble) time they were raised at.
type fakeNotifier struct {
	mu      sync.Mutex
	notices []notice
}

func (f *fakeNotifier) Raise(_ context.Context, title, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.notices = append(f.notices, notice{at: time.Now(), title: title})

	return nil
}

func (f *fakeNotifier) all() []notice {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]notice(nil), f.notices...)
}

func (f *fakeNotifier) count() int {
	return len(f.all())
}

// harness runs one scheduler over a store inside a synctest bubble.
type harness struct {
	scheduler *Scheduler
	notifier  *fakeNotifier
	cancel    context.CancelFunc
	done      chan error
}

func startHarness(t *testing.T, st store.Store) *harness {
	t.Helper()

	reg := registry.New(st)
	require.NoError(t, reg.Load(context.Background()))

	h := &harness{
		notifier: new(fakeNotifier),
		done:     make(chan error, 1),
	}

	h.scheduler = New(reg, clock.System{}, escalation.Actions{Notifier: h.notifier})

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel

	go func() {
		h.done <- h.scheduler.Run(ctx)
	}()

	return h
}

func (h *harness) stop(t *testing.T) {
	t.Helper()

	h.cancel()
	require.NoError(t, <-h.done)
}

func (h *harness) save(t *testing.T, draft *alarm.Alarm) alarm.ID {
	t.Helper()

	snap, err := h.scheduler.Save(context.Background(), draft)
	require.NoError(t, err)

	return snap.Alarm.ID
}

func (h *harness) get(t *testing.T, id alarm.ID) Snapshot {
	t.Helper()

	snap, err := h.scheduler.Get(context.Background(), id)
	require.NoError(t, err)

	return snap
}

// requireSameTime compares instants, ignoring monotonic readings and locations.
func requireSameTime(t *testing.T, want, got time.Time) {
	t.Helper()

	require.Truef(t, want.Equal(got), "want %s, got %s", want, got)
}

func timer(name string, d time.Duration) *alarm.Alarm {
	return &alarm.Alarm{Kind: alarm.KindTimer, Name: name, Time: d}
}

// TestTimerFiresOnce verifies a one-shot timer fires after its duration, alerts once and is disarmed.
func TestTimerFiresOnce(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		h := startHarness(t, store.NewMemoryStore())
		defer h.stop(t)

		id := h.save(t, timer("Tea", 5*time.Minute))
		require.False(t, h.get(t, id).Armed)

		snap, err := h.scheduler.Start(ctx, id)
		require.NoError(t, err)
		require.True(t, snap.Armed)
		require.Equal(t, 5*time.Minute, snap.Remaining)

		time.Sleep(5*time.Minute - time.Second)
		synctest.Wait()
		require.Zero(t, h.notifier.count())
		require.Equal(t, time.Second, h.get(t, id).Remaining)

		time.Sleep(time.Second)
		synctest.Wait()
		require.Equal(t, 1, h.notifier.count())

		snap = h.get(t, id)
		require.False(t, snap.Armed)
		require.Equal(t, escalation.StateExhausted, snap.Alert)
		require.False(t, snap.Alarm.Runtime.LastFiredAt.IsZero())

		time.Sleep(time.Hour)
		synctest.Wait()
		require.Equal(t, 1, h.notifier.count())
	})
}

// TestTriggeredTimerChain verifies that firing a timer arms the timers triggered by it.
func TestTriggeredTimerChain(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		h := startHarness(t, store.NewMemoryStore())
		defer h.stop(t)

		start := time.Now()
		first := h.save(t, timer("Boil", time.Minute))

		second := timer("Steep", 2*time.Minute)
		second.Recurrence = alarm.TriggeredBy(first)
		secondID := h.save(t, second)

		_, err := h.scheduler.Start(ctx, first)
		require.NoError(t, err)

		time.Sleep(time.Minute)
		synctest.Wait()
		require.True(t, h.get(t, secondID).Armed)

		time.Sleep(2 * time.Minute)
		synctest.Wait()

		notices := h.notifier.all()
		require.Len(t, notices, 2)
		require.Equal(t, "Boil", notices[0].title)
		requireSameTime(t, start.Add(time.Minute), notices[0].at)
		require.Equal(t, "Steep", notices[1].title)
		requireSameTime(t, start.Add(3*time.Minute), notices[1].at)

		// The source cannot go while the chain references it.
		err = h.scheduler.Delete(ctx, first)
		require.True(t, alarm.IsReferential(err))

		_, err = h.scheduler.Get(ctx, first)
		require.NoError(t, err)
	})
}

// TestSelfTriggeredTimer verifies a timer triggered by itself keeps cycling.
func TestSelfTriggeredTimer(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		h := startHarness(t, store.NewMemoryStore())
		defer h.stop(t)

		id := h.save(t, timer("Stretch", 20*time.Minute))

		loop := h.get(t, id).Alarm
		loop.Recurrence = alarm.TriggeredBy(id)
		h.save(t, loop)

		_, err := h.scheduler.Start(ctx, id)
		require.NoError(t, err)

		time.Sleep(time.Hour)
		synctest.Wait()
		require.Equal(t, 3, h.notifier.count())
		require.True(t, h.get(t, id).Armed)

		_, err = h.scheduler.Stop(ctx, id)
		require.NoError(t, err)

		time.Sleep(time.Hour)
		synctest.Wait()
		require.Equal(t, 3, h.notifier.count())
	})
}

// TestAcknowledgeStopsRepeats verifies acknowledging an unbounded alert stops its rounds and is idempotent.
func TestAcknowledgeStopsRepeats(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		h := startHarness(t, store.NewMemoryStore())
		defer h.stop(t)

		draft := timer("Oven", time.Minute)
		draft.Alert = &alarm.Alert{Notification: true, RepeatInterval: time.Minute}
		id := h.save(t, draft)

		_, err := h.scheduler.Start(ctx, id)
		require.NoError(t, err)

		time.Sleep(3*time.Minute + 30*time.Second)
		synctest.Wait()
		require.Equal(t, 3, h.notifier.count())
		require.Equal(t, escalation.StateAwaitingRepeat, h.get(t, id).Alert)

		acknowledged, err := h.scheduler.Acknowledge(ctx, id)
		require.NoError(t, err)
		require.True(t, acknowledged)

		time.Sleep(10 * time.Minute)
		synctest.Wait()
		require.Equal(t, 3, h.notifier.count())

		acknowledged, err = h.scheduler.Acknowledge(ctx, id)
		require.NoError(t, err)
		require.False(t, acknowledged)

		_, err = h.scheduler.Acknowledge(ctx, alarm.NewID())
		require.ErrorIs(t, err, alarm.ErrNotFound)
	})
}

// TestEveryNRepeats verifies a repeating rule re-arms itself after each fire.
func TestEveryNRepeats(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		h := startHarness(t, store.NewMemoryStore())
		defer h.stop(t)

		start := time.Now()

		draft := timer("Water plants", time.Minute)
		draft.Recurrence = alarm.EveryN(1, alarm.UnitDays)
		id := h.save(t, draft)

		_, err := h.scheduler.Start(ctx, id)
		require.NoError(t, err)

		time.Sleep(72 * time.Hour)
		synctest.Wait()

		notices := h.notifier.all()
		require.Len(t, notices, 3)

		for i, n := range notices {
			requireSameTime(t, start.Add(time.Minute).AddDate(0, 0, i), n.at)
		}

		snap := h.get(t, id)
		require.True(t, snap.Armed)
		requireSameTime(t, start.Add(time.Minute).AddDate(0, 0, 3), snap.NextFire)
	})
}

// TestRestartRestoresArmedAlarms verifies armed alarms survive a restart while auto-stop ones are disarmed.
func TestRestartRestoresArmedAlarms(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		st := store.NewMemoryStore()
		start := time.Now()

		h := startHarness(t, st)

		kept := h.save(t, timer("Laundry", 10*time.Minute))

		stopping := timer("Meeting", 10*time.Minute)
		stopping.AutoStop = true
		stopped := h.save(t, stopping)

		booting := timer("Standup", 15*time.Minute)
		booting.AutoStart = true
		booted := h.save(t, booting)

		for _, id := range []alarm.ID{kept, stopped} {
			_, err := h.scheduler.Start(ctx, id)
			require.NoError(t, err)
		}

		time.Sleep(4 * time.Minute)
		synctest.Wait()
		h.stop(t)

		_, err := h.scheduler.List(ctx)
		require.ErrorIs(t, err, ErrStopped)

		h = startHarness(t, st)
		defer h.stop(t)

		require.True(t, h.get(t, kept).Armed)
		require.False(t, h.get(t, stopped).Armed)
		require.True(t, h.get(t, booted).Armed)
		require.Equal(t, 6*time.Minute, h.get(t, kept).Remaining)

		time.Sleep(6 * time.Minute)
		synctest.Wait()

		notices := h.notifier.all()
		require.Len(t, notices, 1)
		require.Equal(t, "Laundry", notices[0].title)
		requireSameTime(t, start.Add(10*time.Minute), notices[0].at)
	})
}

// TestSuspendResume verifies power signals stop and start the flagged alarms only.
func TestSuspendResume(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		h := startHarness(t, store.NewMemoryStore())
		defer h.stop(t)

		suspended := timer("Focus", time.Hour)
		suspended.AutoStopOnSuspend = true
		suspendedID := h.save(t, suspended)

		resumed := timer("Break", time.Hour)
		resumed.AutoStartOnResume = true
		resumedID := h.save(t, resumed)

		plainID := h.save(t, timer("Plain", time.Hour))

		for _, id := range []alarm.ID{suspendedID, plainID} {
			_, err := h.scheduler.Start(ctx, id)
			require.NoError(t, err)
		}

		count, err := h.scheduler.Suspend(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, count)
		require.False(t, h.get(t, suspendedID).Armed)
		require.True(t, h.get(t, plainID).Armed)

		count, err = h.scheduler.Resume(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, count)
		require.True(t, h.get(t, resumedID).Armed)
		require.False(t, h.get(t, suspendedID).Armed)
	})
}

// TestEditAndDelete verifies editing an armed alarm re-arms it from now and deleting cancels its deadline.
func TestEditAndDelete(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		h := startHarness(t, store.NewMemoryStore())
		defer h.stop(t)

		start := time.Now()
		id := h.save(t, timer("Bread", 10*time.Minute))

		_, err := h.scheduler.Start(ctx, id)
		require.NoError(t, err)

		time.Sleep(4 * time.Minute)

		edited := h.get(t, id).Alarm
		edited.Time = 2 * time.Minute

		snap, err := h.scheduler.Save(ctx, edited)
		require.NoError(t, err)
		require.True(t, snap.Armed)
		requireSameTime(t, start.Add(6*time.Minute), snap.NextFire)

		_, err = h.scheduler.Save(ctx, &alarm.Alarm{Kind: alarm.KindTimer})
		require.True(t, alarm.IsValidation(err))

		other := h.save(t, timer("Pizza", time.Minute))
		_, err = h.scheduler.Start(ctx, other)
		require.NoError(t, err)
		require.NoError(t, h.scheduler.Delete(ctx, other))

		require.NoError(t, h.scheduler.Move(ctx, id, 0))
		require.ErrorIs(t, h.scheduler.Move(ctx, id, 5), alarm.ErrInvalidIndex)

		time.Sleep(2 * time.Minute)
		synctest.Wait()

		notices := h.notifier.all()
		require.Len(t, notices, 1)
		require.Equal(t, "Bread", notices[0].title)
		requireSameTime(t, start.Add(6*time.Minute), notices[0].at)

		list, err := h.scheduler.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
	})
}

// TestDefaultAlertApplies verifies alarms without an override use the current default alert.
func TestDefaultAlertApplies(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		h := startHarness(t, store.NewMemoryStore())
		defer h.stop(t)

		def, err := h.scheduler.DefaultAlert(ctx)
		require.NoError(t, err)
		require.Equal(t, alarm.DefaultAlert(), def)

		require.NoError(t, h.scheduler.SetDefaultAlert(ctx, &alarm.Alert{
			Notification:   true,
			RepeatInterval: time.Minute,
			RepeatCount:    2,
		}))

		id := h.save(t, timer("Eggs", time.Minute))
		_, err = h.scheduler.Start(ctx, id)
		require.NoError(t, err)

		time.Sleep(10 * time.Minute)
		synctest.Wait()
		require.Equal(t, 2, h.notifier.count())

		count, err := h.scheduler.AcknowledgeAll(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, count)
	})
}
