package registry

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/oshokin/alarm-manager/internal/domain/alarm"
	"github.com/oshokin/alarm-manager/internal/logger"
	"github.com/oshokin/alarm-manager/internal/observability/metrics"
	"github.com/oshokin/alarm-manager/internal/repository/store"
)

// Registry is the ordered collection of alarms and its persistence mapping.
type Registry struct {
	// store is the backing key/value store.
	store store.Store
	// alarms is the list in display order.
	alarms []*alarm.Alarm
	// defaultAlert is the shared alert of alarms without an override.
	defaultAlert *alarm.Alert
}

// New creates an empty registry over st. Call Load to read persisted alarms.
func New(st store.Store) *Registry {
	return &Registry{
		store:        st,
		defaultAlert: alarm.DefaultAlert(),
	}
}

// Load replaces the in-memory state with the persisted one. Corrupt fields
// fall back to defaults, unreadable entries are skipped and dangling trigger
// references are dropped, each with a warning.
func (r *Registry) Load(ctx context.Context) error {
	ctx = logger.WithName(ctx, "registry")

	entries, err := r.store.Enumerate(ctx, alarmsRoot)
	if err != nil {
		return fmt.Errorf("enumerate alarms: %w", err)
	}

	positions, err := r.store.Enumerate(ctx, positionsRoot)
	if err != nil {
		return fmt.Errorf("enumerate positions: %w", err)
	}

	defaults, err := r.store.Enumerate(ctx, defaultAlertRoot)
	if err != nil {
		return fmt.Errorf("enumerate default alert: %w", err)
	}

	groups := groupByID(ctx, entries)
	alarms := make([]*alarm.Alarm, 0, len(groups))

	for id, fields := range groups {
		a := decodeAlarm(logger.WithKV(ctx, "alarm_id", id.String()), id, fields)
		if err := a.Validate(); err != nil {
			metrics.IncStoreError("corrupt_entry")
			logger.WarnKV(ctx, "Skipping unreadable alarm", "alarm_id", id.String(), "error", err)

			continue
		}

		alarms = append(alarms, a)
	}

	ordered := sortByPosition(ctx, alarms, positions)
	resolveTriggers(ctx, alarms)

	r.alarms = alarms

	// Missing or duplicate positions are rewritten so that later saves,
	// which append at len, keep the loaded order.
	if !ordered {
		if err := r.SaveOrder(ctx, 0, len(alarms)-1); err != nil {
			logger.WarnKV(ctx, "Failed to normalize alarm positions", "error", err)
		} else {
			logger.InfoKV(ctx, "Alarm positions normalized", "count", len(alarms))
		}
	}
	r.defaultAlert = alarm.DefaultAlert()

	if len(defaults) > 0 {
		relative := make(map[string]string, len(defaults))
		for key, value := range defaults {
			relative[strings.TrimPrefix(key, defaultAlertRoot+"/")] = value
		}

		r.defaultAlert = decodeAlert(&decoder{ctx: logger.WithKV(ctx, "key", defaultAlertRoot), fields: relative})
	}

	logger.InfoKV(ctx, "Alarms loaded", "count", len(r.alarms))

	return nil
}

// groupByID splits alarm keys by their identity segment into relative fields.
func groupByID(ctx context.Context, entries map[string]string) map[alarm.ID]map[string]string {
	groups := make(map[alarm.ID]map[string]string)
	skipped := make(map[string]struct{})

	for key, value := range entries {
		rest := strings.TrimPrefix(key, alarmsRoot+"/")

		segment, field, ok := strings.Cut(rest, "/")
		if !ok || field == "" {
			continue
		}

		id, err := alarm.ParseID(segment)
		if err != nil {
			if _, seen := skipped[segment]; !seen {
				skipped[segment] = struct{}{}

				metrics.IncStoreError("corrupt_entry")
				logger.WarnKV(ctx, "Skipping alarm with invalid id", "id", segment, "error", err)
			}

			continue
		}

		if groups[id] == nil {
			groups[id] = make(map[string]string)
		}

		groups[id][field] = value
	}

	return groups
}

// sortByPosition orders alarms by their position key. Alarms without a
// readable position go last, ordered by id. It reports whether every alarm
// already held its index as position.
func sortByPosition(ctx context.Context, alarms []*alarm.Alarm, positions map[string]string) bool {
	pos := make(map[alarm.ID]int, len(alarms))

	for _, a := range alarms {
		raw, ok := positions[positionPath(a.ID.String())]
		if !ok {
			continue
		}

		p, err := strconv.Atoi(raw)
		if err != nil || p < 0 {
			metrics.IncStoreError("corrupt_field")
			logger.WarnKV(ctx, "Ignoring corrupt alarm position", "alarm_id", a.ID.String(), "value", raw)

			continue
		}

		pos[a.ID] = p
	}

	slices.SortStableFunc(alarms, func(a, b *alarm.Alarm) int {
		pa, okA := pos[a.ID]
		pb, okB := pos[b.ID]

		switch {
		case okA && okB && pa != pb:
			return cmp.Compare(pa, pb)
		case okA != okB:
			if okA {
				return -1
			}

			return 1
		default:
			return strings.Compare(a.ID.String(), b.ID.String())
		}
	})

	for i, a := range alarms {
		if p, ok := pos[a.ID]; !ok || p != i {
			return false
		}
	}

	return true
}

// resolveTriggers drops trigger references that do not point at a loaded timer.
func resolveTriggers(ctx context.Context, alarms []*alarm.Alarm) {
	byID := make(map[alarm.ID]*alarm.Alarm, len(alarms))
	for _, a := range alarms {
		byID[a.ID] = a
	}

	for _, a := range alarms {
		if a.Recurrence.Kind != alarm.RecurrenceTriggeredBy {
			continue
		}

		if err := checkTrigger(a, byID[a.Recurrence.Trigger]); err != nil {
			logger.WarnKV(ctx, "Dropping dangling trigger reference",
				"alarm_id", a.ID.String(), "trigger_id", a.Recurrence.Trigger.String(), "error", err)

			a.Recurrence = alarm.NoRecurrence()
		}
	}
}

// checkTrigger validates the source of a TriggeredBy rule.
func checkTrigger(a, source *alarm.Alarm) error {
	if source == nil {
		return &alarm.ValidationError{Field: "recurrence", Reason: "triggered timer does not exist"}
	}

	if !source.IsTimer() {
		return &alarm.ValidationError{Field: "recurrence", Reason: "triggered timer is not a timer"}
	}

	if source.ID != a.ID && source.Recurrence.IsRepeating() {
		return &alarm.ValidationError{Field: "recurrence", Reason: "triggered timer repeats on its own"}
	}

	return nil
}

// Len returns the number of alarms.
func (r *Registry) Len() int {
	return len(r.alarms)
}

// List returns copies of the alarms in display order with Position filled.
func (r *Registry) List() []*alarm.Alarm {
	result := make([]*alarm.Alarm, 0, len(r.alarms))

	for i, a := range r.alarms {
		cloned := a.Clone()
		cloned.Position = i
		result = append(result, cloned)
	}

	return result
}

// Get returns a copy of the alarm with the provided identity.
func (r *Registry) Get(id alarm.ID) (*alarm.Alarm, error) {
	i := r.index(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", alarm.ErrNotFound, id)
	}

	cloned := r.alarms[i].Clone()
	cloned.Position = i

	return cloned, nil
}

// Dependants returns the alarms triggered by id, excluding id itself.
func (r *Registry) Dependants(id alarm.ID) []alarm.ID {
	var result []alarm.ID

	for _, a := range r.alarms {
		if a.ID != id && a.Recurrence.Kind == alarm.RecurrenceTriggeredBy && a.Recurrence.Trigger == id {
			result = append(result, a.ID)
		}
	}

	return result
}

// Save validates and commits a draft. A draft without an identity is
// appended at the end of the list and receives a new one. The committed copy
// is returned.
func (r *Registry) Save(ctx context.Context, draft *alarm.Alarm) (*alarm.Alarm, error) {
	a := draft.Clone()
	a.Recurrence = a.Recurrence.Normalize()

	isNew := a.ID.IsZero()
	if isNew {
		a.ID = alarm.NewID()
	}

	if err := r.check(a, isNew); err != nil {
		return nil, err
	}

	index := r.index(a.ID)
	if index < 0 {
		if !isNew {
			return nil, fmt.Errorf("%w: %s", alarm.ErrNotFound, a.ID)
		}

		index = len(r.alarms)
	}

	if err := r.write(ctx, a, index); err != nil {
		return nil, err
	}

	if index == len(r.alarms) {
		r.alarms = append(r.alarms, a)
	} else {
		r.alarms[index] = a
	}

	result := a.Clone()
	result.Position = index

	return result, nil
}

// check validates a draft against the rest of the registry.
func (r *Registry) check(a *alarm.Alarm, isNew bool) error {
	if err := a.Validate(); err != nil {
		return err
	}

	if a.Recurrence.Kind == alarm.RecurrenceTriggeredBy {
		source := a
		if a.Recurrence.Trigger != a.ID {
			source = r.find(a.Recurrence.Trigger)
		}

		if err := checkTrigger(a, source); err != nil {
			return err
		}
	}

	if isNew {
		return nil
	}

	// A trigger source must stay a non-repeating timer.
	if dependants := r.Dependants(a.ID); len(dependants) > 0 && (!a.IsTimer() || a.Recurrence.IsRepeating()) {
		return &alarm.ReferentialError{
			AlarmID:      a.ID,
			ReferencedBy: dependants,
			Reason:       "a trigger source must remain a non-repeating timer",
		}
	}

	return nil
}

// write rewrites the subtree and the position of an alarm.
func (r *Registry) write(ctx context.Context, a *alarm.Alarm, index int) error {
	id := a.ID.String()
	prefix := alarmPath(id)

	values := make(map[string]string)
	for key, value := range encodeAlarm(a) {
		values[store.Join(prefix, key)] = value
	}

	values[positionPath(id)] = strconv.Itoa(index)

	if err := r.store.ResetSubtree(ctx, prefix); err != nil {
		metrics.IncStoreError("write")

		return fmt.Errorf("reset alarm %s: %w", id, err)
	}

	if err := r.store.SetMany(ctx, values); err != nil {
		metrics.IncStoreError("write")

		return fmt.Errorf("write alarm %s: %w", id, err)
	}

	return nil
}

// SaveRuntime persists only the armed state of an alarm.
func (r *Registry) SaveRuntime(ctx context.Context, id alarm.ID, runtime alarm.Runtime) error {
	a := r.find(id)
	if a == nil {
		return fmt.Errorf("%w: %s", alarm.ErrNotFound, id)
	}

	values := make(map[string]string)
	for key, value := range encodeRuntime(runtime) {
		values[store.Join(alarmPath(id.String()), key)] = value
	}

	if err := r.store.SetMany(ctx, values); err != nil {
		metrics.IncStoreError("write")

		return fmt.Errorf("write runtime of %s: %w", id, err)
	}

	a.Runtime = runtime

	return nil
}

// Delete removes an alarm. It is rejected with a ReferentialError while other
// alarms are triggered by it.
func (r *Registry) Delete(ctx context.Context, id alarm.ID) error {
	index := r.index(id)
	if index < 0 {
		return fmt.Errorf("%w: %s", alarm.ErrNotFound, id)
	}

	if dependants := r.Dependants(id); len(dependants) > 0 {
		return &alarm.ReferentialError{
			AlarmID:      id,
			ReferencedBy: dependants,
			Reason:       "cannot delete a timer that triggers other timers",
		}
	}

	if err := r.store.ResetSubtree(ctx, alarmPath(id.String())); err != nil {
		metrics.IncStoreError("write")

		return fmt.Errorf("reset alarm %s: %w", id, err)
	}

	if err := r.store.ResetSubtree(ctx, positionPath(id.String())); err != nil {
		metrics.IncStoreError("write")

		return fmt.Errorf("reset position of %s: %w", id, err)
	}

	r.alarms = slices.Delete(r.alarms, index, index+1)

	if index < len(r.alarms) {
		return r.SaveOrder(ctx, index, len(r.alarms)-1)
	}

	return nil
}

// Move puts an alarm at newIndex and rewrites the positions in between.
func (r *Registry) Move(ctx context.Context, id alarm.ID, newIndex int) error {
	index := r.index(id)
	if index < 0 {
		return fmt.Errorf("%w: %s", alarm.ErrNotFound, id)
	}

	if newIndex < 0 || newIndex >= len(r.alarms) {
		return fmt.Errorf("%w: %d not in 0..%d", alarm.ErrInvalidIndex, newIndex, len(r.alarms)-1)
	}

	if newIndex == index {
		return nil
	}

	moved := r.alarms[index]
	r.alarms = slices.Delete(r.alarms, index, index+1)
	r.alarms = slices.Insert(r.alarms, newIndex, moved)

	return r.SaveOrder(ctx, min(index, newIndex), max(index, newIndex))
}

// SaveOrder rewrites the positions of the alarms from..to inclusive.
func (r *Registry) SaveOrder(ctx context.Context, from, to int) error {
	if from > to {
		from, to = to, from
	}

	if from < 0 || to >= len(r.alarms) {
		return fmt.Errorf("%w: range %d..%d", alarm.ErrInvalidIndex, from, to)
	}

	values := make(map[string]string, to-from+1)
	for i := from; i <= to; i++ {
		values[positionPath(r.alarms[i].ID.String())] = strconv.Itoa(i)
	}

	if err := r.store.SetMany(ctx, values); err != nil {
		metrics.IncStoreError("write")

		return fmt.Errorf("write positions %d..%d: %w", from, to, err)
	}

	return nil
}

// DefaultAlert returns a copy of the shared default alert.
func (r *Registry) DefaultAlert() *alarm.Alert {
	return r.defaultAlert.Clone()
}

// SetDefaultAlert validates and persists the shared default alert.
func (r *Registry) SetDefaultAlert(ctx context.Context, a *alarm.Alert) error {
	if a == nil {
		return &alarm.ValidationError{Field: "alert", Reason: "is required"}
	}

	if err := a.Validate(); err != nil {
		return err
	}

	values := make(map[string]string)
	for key, value := range encodeAlert(a) {
		values[store.Join(defaultAlertRoot, key)] = value
	}

	if err := r.store.SetMany(ctx, values); err != nil {
		metrics.IncStoreError("write")

		return fmt.Errorf("write default alert: %w", err)
	}

	r.defaultAlert = a.Clone()

	return nil
}

func (r *Registry) index(id alarm.ID) int {
	return slices.IndexFunc(r.alarms, func(a *alarm.Alarm) bool { return a.ID == id })
}

func (r *Registry) find(id alarm.ID) *alarm.Alarm {
	if i := r.index(id); i >= 0 {
		return r.alarms[i]
	}

	return nil
}
