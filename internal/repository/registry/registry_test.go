package registry

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-manager/internal/domain/alarm"
	"github.com/oshokin/alarm-manager/internal/repository/store"
)

// recordingStore wraps a MemoryStore and records the keys of every write.
type recordingStore struct {
	*store.MemoryStore

	mu      sync.Mutex
	written [][]string
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryStore: store.NewMemoryStore()}
}

func (s *recordingStore) SetMany(ctx context.Context, values map[string]string) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	s.mu.Lock()
	s.written = append(s.written, keys)
	s.mu.Unlock()

	return s.MemoryStore.SetMany(ctx, values)
}

func (s *recordingStore) Set(ctx context.Context, path, value string) error {
	return s.SetMany(ctx, map[string]string{path: value})
}

func (s *recordingStore) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.written = nil
}

func (s *recordingStore) writes() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([][]string(nil), s.written...)
}

// sampleAlarms returns drafts covering every recurrence alternative.
func sampleAlarms() []*alarm.Alarm {
	return []*alarm.Alarm{
		{
			Kind:      alarm.KindTimer,
			Name:      "Tea",
			Time:      3 * time.Minute,
			Color:     "#ff8800",
			AutoStart: true,
		},
		{
			Kind:              alarm.KindClock,
			Name:              "Wake up",
			Time:              7*time.Hour + 30*time.Minute,
			Recurrence:        alarm.OnDays(alarm.Monday | alarm.Wednesday | alarm.Friday),
			AutoStartOnResume: true,
			Alert: &alarm.Alert{
				Notification:   true,
				Sound:          "/usr/share/sounds/alarm.wav",
				SoundLoops:     3,
				Program:        "/usr/bin/light",
				ProgramOptions: "--on --brightness 80",
				ProgramRuntime: 30 * time.Second,
				RepeatInterval: time.Minute,
				RepeatCount:    5,
			},
		},
		{
			Kind:              alarm.KindClock,
			Name:              "Rent",
			Time:              9 * time.Hour,
			Recurrence:        alarm.EveryN(1, alarm.UnitMonths),
			AutoStopOnSuspend: true,
			Runtime: alarm.Runtime{
				StartedAt: time.Date(2024, time.March, 1, 8, 0, 0, 0, time.Local),
				Anchor:    time.Date(2024, time.March, 1, 9, 0, 0, 0, time.Local),
			},
		},
	}
}

// saveAll commits drafts and returns the committed copies.
func saveAll(t *testing.T, r *Registry, drafts []*alarm.Alarm) []*alarm.Alarm {
	t.Helper()

	result := make([]*alarm.Alarm, 0, len(drafts))

	for _, d := range drafts {
		saved, err := r.Save(context.Background(), d)
		require.NoError(t, err)
		require.False(t, saved.ID.IsZero())

		result = append(result, saved)
	}

	return result
}

// TestRoundTrip verifies that save followed by load reproduces fields and order on every file-like backend.
func TestRoundTrip(t *testing.T) {
	t.Parallel()

	backends := map[string]func(t *testing.T) store.Store{
		"memory": func(*testing.T) store.Store { return store.NewMemoryStore() },
		"file": func(t *testing.T) store.Store {
			return store.NewFileStore(filepath.Join(t.TempDir(), "alarms.yaml"))
		},
	}

	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			st := newStore(t)
			r := New(st)
			saved := saveAll(t, r, sampleAlarms())

			// A timer chained to the first one.
			chained, err := r.Save(context.Background(), &alarm.Alarm{
				Kind:       alarm.KindTimer,
				Name:       "Steep again",
				Time:       time.Minute,
				Recurrence: alarm.TriggeredBy(saved[0].ID),
			})
			require.NoError(t, err)

			saved = append(saved, chained)

			require.NoError(t, r.Move(context.Background(), saved[2].ID, 0))

			reloaded := New(st)
			require.NoError(t, reloaded.Load(context.Background()))

			got := reloaded.List()
			require.Len(t, got, 4)

			want := []*alarm.Alarm{saved[2], saved[0], saved[1], saved[3]}
			for i := range want {
				expected := want[i].Clone()
				expected.Position = i

				require.Equal(t, expected.ID, got[i].ID)
				require.Equal(t, expected.Name, got[i].Name)
				require.Equal(t, expected.Kind, got[i].Kind)
				require.Equal(t, expected.Time, got[i].Time)
				require.Equal(t, expected.Color, got[i].Color)
				require.Equal(t, expected.Recurrence, got[i].Recurrence)
				require.Equal(t, expected.Alert, got[i].Alert)
				require.Equal(t, expected.AutoStart, got[i].AutoStart)
				require.Equal(t, expected.AutoStartOnResume, got[i].AutoStartOnResume)
				require.Equal(t, expected.AutoStopOnSuspend, got[i].AutoStopOnSuspend)
				require.True(t, expected.Runtime.StartedAt.Equal(got[i].Runtime.StartedAt))
				require.True(t, expected.Runtime.Anchor.Equal(got[i].Runtime.Anchor))
				require.Equal(t, i, got[i].Position)
			}
		})
	}
}

// TestDeleteReferencedTrigger verifies a trigger source cannot be deleted until its dependant is.
func TestDeleteReferencedTrigger(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := New(store.NewMemoryStore())
	source := saveAll(t, r, sampleAlarms()[:1])[0]

	dependant, err := r.Save(ctx, &alarm.Alarm{
		Kind:       alarm.KindTimer,
		Name:       "Chained",
		Time:       time.Minute,
		Recurrence: alarm.TriggeredBy(source.ID),
	})
	require.NoError(t, err)

	err = r.Delete(ctx, source.ID)
	require.True(t, alarm.IsReferential(err))
	require.Equal(t, 2, r.Len())

	// Turning the source into a clock is rejected as well.
	edited := source.Clone()
	edited.Kind = alarm.KindClock
	edited.Time = time.Hour

	_, err = r.Save(ctx, edited)
	require.True(t, alarm.IsReferential(err))

	// Clearing the reference explicitly unblocks the delete.
	dependant.Recurrence = alarm.NoRecurrence()

	_, err = r.Save(ctx, dependant)
	require.NoError(t, err)
	require.NoError(t, r.Delete(ctx, source.ID))
	require.Equal(t, 1, r.Len())
}

// TestSaveRejectsInvalidTrigger verifies trigger sources must exist and be non-repeating timers.
func TestSaveRejectsInvalidTrigger(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := New(store.NewMemoryStore())
	saved := saveAll(t, r, sampleAlarms())

	for _, trigger := range []alarm.ID{alarm.NewID(), saved[1].ID} {
		_, err := r.Save(ctx, &alarm.Alarm{
			Kind:       alarm.KindTimer,
			Time:       time.Minute,
			Recurrence: alarm.TriggeredBy(trigger),
		})
		require.True(t, alarm.IsValidation(err))
	}

	require.Equal(t, 3, r.Len())
}

// TestSelfTriggeredTimer verifies a timer may re-arm itself and still be deleted.
func TestSelfTriggeredTimer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := New(store.NewMemoryStore())
	timer := saveAll(t, r, sampleAlarms()[:1])[0]

	timer.Recurrence = alarm.TriggeredBy(timer.ID)

	_, err := r.Save(ctx, timer)
	require.NoError(t, err)
	require.NoError(t, r.Delete(ctx, timer.ID))
}

// TestSaveOrderTouchesMinimalRange verifies that a move only rewrites the positions between source and target.
func TestSaveOrderTouchesMinimalRange(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newRecordingStore()
	r := New(st)

	var drafts []*alarm.Alarm
	for range 6 {
		drafts = append(drafts, &alarm.Alarm{Kind: alarm.KindTimer, Time: time.Minute})
	}

	saved := saveAll(t, r, drafts)
	st.reset()

	require.NoError(t, r.Move(ctx, saved[1].ID, 3))

	writes := st.writes()
	require.Len(t, writes, 1)

	want := []string{
		positionPath(saved[1].ID.String()),
		positionPath(saved[2].ID.String()),
		positionPath(saved[3].ID.String()),
	}
	sort.Strings(want)
	require.Equal(t, want, writes[0])

	order := r.List()
	require.Equal(t, saved[2].ID, order[1].ID)
	require.Equal(t, saved[3].ID, order[2].ID)
	require.Equal(t, saved[1].ID, order[3].ID)

	require.ErrorIs(t, r.Move(ctx, saved[0].ID, 6), alarm.ErrInvalidIndex)
	require.ErrorIs(t, r.Move(ctx, alarm.NewID(), 0), alarm.ErrNotFound)
}

// TestLoadSkipsCorruptEntries verifies corrupt fields fall back to defaults and unreadable entries are skipped.
func TestLoadSkipsCorruptEntries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := store.NewMemoryStore()

	good := alarm.NewID().String()
	fallback := alarm.NewID().String()
	dangling := alarm.NewID().String()

	require.NoError(t, st.SetMany(ctx, map[string]string{
		// Unparsable identity.
		"/alarms/not-a-uuid/name": "Broken",
		"/alarms/not-a-uuid/type": "timer",

		"/alarms/" + good + "/type":             "clock",
		"/alarms/" + good + "/name":             "Good",
		"/alarms/" + good + "/time":             "3600",
		"/alarms/" + good + "/recurrence-kind":  "days-of-week",
		"/alarms/" + good + "/recurrence-value": "200",
		"/alarms/" + good + "/autostart":        "maybe",
		"/positions/" + good:                    "1",

		"/alarms/" + fallback + "/type":               "sundial",
		"/alarms/" + fallback + "/time":               "-5",
		"/alarms/" + fallback + "/alert/sound-loops":  "lots",
		"/alarms/" + fallback + "/alert/repeat-count": "2",
		"/alarms/" + fallback + "/alert/notification": "false",
		"/positions/" + fallback:                      "0",

		"/alarms/" + dangling + "/type":               "timer",
		"/alarms/" + dangling + "/time":               "60",
		"/alarms/" + dangling + "/recurrence-kind":    "triggered-by",
		"/alarms/" + dangling + "/triggered-timer-id": alarm.NewID().String(),
	}))

	r := New(st)
	require.NoError(t, r.Load(ctx))

	got := r.List()
	require.Len(t, got, 3)

	// Position order, then alarms without a position.
	require.Equal(t, fallback, got[0].ID.String())
	require.Equal(t, good, got[1].ID.String())
	require.Equal(t, dangling, got[2].ID.String())

	// Corrupt fields fell back to defaults.
	require.Equal(t, alarm.KindTimer, got[0].Kind)
	require.Equal(t, defaultTimerDuration, got[0].Time)
	require.NotNil(t, got[0].Alert)
	require.Equal(t, 0, got[0].Alert.SoundLoops)
	require.Equal(t, 2, got[0].Alert.RepeatCount)
	require.False(t, got[0].Alert.Notification)

	require.Equal(t, alarm.NoRecurrence(), got[1].Recurrence)
	require.False(t, got[1].AutoStart)
	require.Equal(t, time.Hour, got[1].Time)

	// The dangling trigger reference was dropped.
	require.Equal(t, alarm.NoRecurrence(), got[2].Recurrence)

	// Positions were rewritten to the loaded order.
	positions, err := st.Enumerate(ctx, "/positions")
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"/positions/" + fallback: "0",
		"/positions/" + good:     "1",
		"/positions/" + dangling: "2",
	}, positions)
}

// TestLoadKeepsOrderOfUnpositionedAlarms verifies that an alarm saved after loading
// entries without positions stays behind them across a reload.
func TestLoadKeepsOrderOfUnpositionedAlarms(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := store.NewMemoryStore()

	first, second := alarm.NewID().String(), alarm.NewID().String()
	if second < first {
		first, second = second, first
	}

	require.NoError(t, st.SetMany(ctx, map[string]string{
		"/alarms/" + first + "/type":  "timer",
		"/alarms/" + first + "/time":  "60",
		"/alarms/" + second + "/type": "timer",
		"/alarms/" + second + "/time": "120",
		// Two alarms claiming the same slot.
		"/positions/" + first:  "0",
		"/positions/" + second: "0",
	}))

	r := New(st)
	require.NoError(t, r.Load(ctx))

	added, err := r.Save(ctx, &alarm.Alarm{Kind: alarm.KindTimer, Name: "Added", Time: time.Minute})
	require.NoError(t, err)

	reloaded := New(st)
	require.NoError(t, reloaded.Load(ctx))

	got := reloaded.List()
	require.Len(t, got, 3)
	require.Equal(t, first, got[0].ID.String())
	require.Equal(t, second, got[1].ID.String())
	require.Equal(t, added.ID, got[2].ID)
}

// TestDefaultAlert verifies the default alert survives a reload and rejects invalid values.
func TestDefaultAlert(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := store.NewMemoryStore()
	r := New(st)

	require.Equal(t, alarm.DefaultAlert(), r.DefaultAlert())

	custom := &alarm.Alert{Sound: "chime.wav", SoundLoops: 2, RepeatInterval: 30 * time.Second}
	require.NoError(t, r.SetDefaultAlert(ctx, custom))

	require.True(t, alarm.IsValidation(r.SetDefaultAlert(ctx, &alarm.Alert{RepeatCount: -3})))

	reloaded := New(st)
	require.NoError(t, reloaded.Load(ctx))
	require.Equal(t, custom, reloaded.DefaultAlert())

	value, err := st.Get(ctx, "/default-alert/sound")
	require.NoError(t, err)
	require.Equal(t, "chime.wav", value)
}

// TestDeleteRewritesFollowingPositions verifies positions stay contiguous after a delete.
func TestDeleteRewritesFollowingPositions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := store.NewMemoryStore()
	r := New(st)
	saved := saveAll(t, r, sampleAlarms())

	require.NoError(t, r.Delete(ctx, saved[0].ID))

	entries, err := st.Enumerate(ctx, "/alarms/"+saved[0].ID.String())
	require.NoError(t, err)
	require.Empty(t, entries)

	positions, err := st.Enumerate(ctx, "/positions")
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"/positions/" + saved[1].ID.String(): "0",
		"/positions/" + saved[2].ID.String(): "1",
	}, positions)

	require.ErrorIs(t, r.Delete(ctx, saved[0].ID), alarm.ErrNotFound)
}

// TestSaveRuntime verifies only the armed state keys are written.
func TestSaveRuntime(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newRecordingStore()
	r := New(st)
	a := saveAll(t, r, sampleAlarms()[:1])[0]
	st.reset()

	started := time.Date(2024, time.May, 5, 10, 0, 0, 0, time.Local)
	require.NoError(t, r.SaveRuntime(ctx, a.ID, alarm.Runtime{StartedAt: started}))

	writes := st.writes()
	require.Len(t, writes, 1)
	require.Len(t, writes[0], 3)

	got, err := r.Get(a.ID)
	require.NoError(t, err)
	require.True(t, started.Equal(got.Runtime.StartedAt))
}
