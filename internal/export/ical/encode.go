package ical

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"

	"github.com/oshokin/alarm-manager/internal/domain/alarm"
	"github.com/oshokin/alarm-manager/internal/recurrence"
	"github.com/oshokin/alarm-manager/internal/service/scheduler"
)

const (
	// productID identifies the generator of the feed.
	productID = "-//oshokin//alarm-manager//EN"
	// floatingFormat is a DATE-TIME without a zone.
	floatingFormat = "20060102T150405"
	// propColor is the RFC 7986 event color.
	propColor = "COLOR"
	// eventLength is the duration given to alarm events.
	eventLength = time.Minute
)

// Calendar builds a calendar of the alarms that have a known next fire:
// clock alarms always, timers only while armed. Repeating alarms carry their
// rule.
func Calendar(snapshots []scheduler.Snapshot, now time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	for _, s := range snapshots {
		if event := eventOf(s, now); event != nil {
			cal.Children = append(cal.Children, event.Component)
		}
	}

	return cal
}

// Encode writes the calendar of the alarms to w. Without any event the
// calendar carries only its properties.
func Encode(w io.Writer, snapshots []scheduler.Snapshot, now time.Time) error {
	cal := Calendar(snapshots, now)

	// go-ical refuses to encode a calendar without components.
	if len(cal.Children) == 0 {
		return encodeEmpty(w)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}

	return nil
}

func encodeEmpty(w io.Writer) error {
	const layout = "BEGIN:%s\r\n%s:%s\r\n%s:%s\r\nEND:%s\r\n"

	_, err := fmt.Fprintf(w, layout,
		ical.CompCalendar,
		ical.PropProductID, productID,
		ical.PropVersion, "2.0",
		ical.CompCalendar)
	if err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}

	return nil
}

// NextFire returns when an alarm fires next: the pending deadline of an armed
// alarm, otherwise the fire a clock alarm would have when armed now.
func NextFire(s scheduler.Snapshot, now time.Time) (time.Time, bool) {
	if s.Armed {
		return s.NextFire, true
	}

	if s.Alarm.IsTimer() {
		return time.Time{}, false
	}

	idle := s.Alarm.Clone()
	idle.Runtime = alarm.Runtime{}

	return recurrence.Next(idle, now)
}

func eventOf(s scheduler.Snapshot, now time.Time) *ical.Event {
	start, ok := NextFire(s, now)
	if !ok {
		return nil
	}

	a := s.Alarm

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, a.ID.String()+"@alarm-manager")
	event.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	event.Props.Set(floating(ical.PropDateTimeStart, start))
	event.Props.Set(floating(ical.PropDateTimeEnd, start.Add(eventLength)))
	event.Props.SetText(ical.PropSummary, summary(a))
	event.Props.SetText(ical.PropDescription, description(a))

	if a.Color != "" {
		event.Props.SetText(propColor, a.Color)
	}

	if rule, err := Rule(a.Recurrence, start); err == nil {
		event.Props.SetRecurrenceRule(rule)
	}

	reminder := ical.NewComponent(ical.CompAlarm)
	reminder.Props.SetText(ical.PropAction, "DISPLAY")
	reminder.Props.SetText(ical.PropDescription, summary(a))

	trigger := ical.NewProp(ical.PropTrigger)
	trigger.SetValueType(ical.ValueDuration)
	trigger.Value = "PT0S"
	reminder.Props.Set(trigger)

	event.Children = append(event.Children, reminder)

	return event
}

// floating builds a DATE-TIME property in local wall-clock time.
func floating(name string, t time.Time) *ical.Prop {
	prop := ical.NewProp(name)
	prop.SetValueType(ical.ValueDateTime)
	prop.Value = t.Local().Format(floatingFormat)

	return prop
}

func summary(a *alarm.Alarm) string {
	if a.Name != "" {
		return a.Name
	}

	if a.IsTimer() {
		return "Timer"
	}

	return "Alarm"
}

func description(a *alarm.Alarm) string {
	if a.IsTimer() {
		return fmt.Sprintf("Timer of %s (%s)", a.Time, a.Recurrence)
	}

	return fmt.Sprintf("Clock alarm (%s)", a.Recurrence)
}
