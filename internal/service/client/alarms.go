package client

import (
	"context"
	"fmt"
	"io"

	"github.com/oshokin/alarm-manager/internal/api/dto"
	"github.com/oshokin/alarm-manager/internal/logger"
)

// defaultUpcoming is how many fire times Show prints.
const defaultUpcoming = 5

// List prints all alarms in display order.
func List(ctx context.Context, opts *Options) error {
	return withSession(ctx, opts, func(s *session) error {
		list, err := s.client.ListAlarms(ctx)
		if err != nil {
			return err
		}

		return printList(s.out, list)
	})
}

// Show prints one alarm with its upcoming fire times.
func Show(ctx context.Context, opts *Options, ref string) error {
	return withSession(ctx, opts, func(s *session) error {
		id, err := s.resolve(ctx, ref)
		if err != nil {
			return err
		}

		status, err := s.client.GetAlarm(ctx, id)
		if err != nil {
			return err
		}

		upcoming, err := s.client.Upcoming(ctx, id, defaultUpcoming)
		if err != nil {
			return err
		}

		list, err := s.client.ListAlarms(ctx)
		if err != nil {
			return err
		}

		return printStatus(s.out, status, upcoming.Times, namesOf(list))
	})
}

// Set creates an alarm or updates the one edit refers to.
func Set(ctx context.Context, opts *Options, edit *Edit) error {
	return withSession(ctx, opts, func(s *session) error {
		draft := dto.Alarm{Type: "timer"}

		if edit.Ref != "" {
			id, err := s.resolve(ctx, edit.Ref)
			if err != nil {
				return err
			}

			current, err := s.client.GetAlarm(ctx, id)
			if err != nil {
				return err
			}

			draft = current.Alarm
		}

		edit.apply(&draft)

		if r := draft.Recurrence; r != nil && r.Kind == "triggered-by" && r.TriggeredBy != "" {
			trigger, err := s.resolve(ctx, r.TriggeredBy)
			if err != nil {
				return fmt.Errorf("triggering timer: %w", err)
			}

			r.TriggeredBy = trigger
		}

		if edit.ClearAlert {
			draft.Alert = nil
		}

		if edit.Alert != nil {
			if draft.Alert == nil {
				fallback, err := s.client.DefaultAlert(ctx)
				if err != nil {
					return err
				}

				draft.Alert = &fallback
			}

			edit.Alert.apply(draft.Alert)
		}

		saved, err := s.client.SaveAlarm(ctx, &draft)
		if err != nil {
			return err
		}

		logger.InfoKV(ctx, "Alarm saved", "alarm_id", saved.Alarm.ID)
		fmt.Fprintf(s.out, "Saved %s (%s)\n", displayName(saved.Alarm), saved.Alarm.ID)

		return nil
	})
}

// Delete removes an alarm.
func Delete(ctx context.Context, opts *Options, ref string) error {
	return withSession(ctx, opts, func(s *session) error {
		id, err := s.resolve(ctx, ref)
		if err != nil {
			return err
		}

		if err := s.client.DeleteAlarm(ctx, id); err != nil {
			return err
		}

		fmt.Fprintf(s.out, "Deleted %s\n", id)

		return nil
	})
}

// Move puts an alarm at a 1-based position of the display order.
func Move(ctx context.Context, opts *Options, ref string, position int) error {
	return withSession(ctx, opts, func(s *session) error {
		id, err := s.resolve(ctx, ref)
		if err != nil {
			return err
		}

		if err := s.client.MoveAlarm(ctx, id, position-1); err != nil {
			return err
		}

		fmt.Fprintf(s.out, "Moved %s to position %d\n", id, position)

		return nil
	})
}

// Start arms an alarm from now.
func Start(ctx context.Context, opts *Options, ref string) error {
	return toggle(ctx, opts, ref, true)
}

// Stop disarms an alarm and silences its alert.
func Stop(ctx context.Context, opts *Options, ref string) error {
	return toggle(ctx, opts, ref, false)
}

func toggle(ctx context.Context, opts *Options, ref string, start bool) error {
	return withSession(ctx, opts, func(s *session) error {
		id, err := s.resolve(ctx, ref)
		if err != nil {
			return err
		}

		var status dto.Status
		if start {
			status, err = s.client.StartAlarm(ctx, id)
		} else {
			status, err = s.client.StopAlarm(ctx, id)
		}

		if err != nil {
			return err
		}

		fmt.Fprintf(s.out, "%s: %s\n", displayName(status.Alarm), describeState(status))

		return nil
	})
}

// Acknowledge silences the alert of an alarm, or every alert for an empty ref.
func Acknowledge(ctx context.Context, opts *Options, ref string) error {
	return withSession(ctx, opts, func(s *session) error {
		var id string

		if ref != "" {
			var err error
			if id, err = s.resolve(ctx, ref); err != nil {
				return err
			}
		}

		count, err := s.client.Acknowledge(ctx, id)
		if err != nil {
			return err
		}

		fmt.Fprintf(s.out, "Acknowledged %d alert(s)\n", count)

		return nil
	})
}

// Suspend tells the daemon the system is going to sleep.
func Suspend(ctx context.Context, opts *Options) error {
	return withSession(ctx, opts, func(s *session) error {
		count, err := s.client.Suspend(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintf(s.out, "Stopped %d alarm(s)\n", count)

		return nil
	})
}

// Resume tells the daemon the system woke up.
func Resume(ctx context.Context, opts *Options) error {
	return withSession(ctx, opts, func(s *session) error {
		count, err := s.client.Resume(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintf(s.out, "Started %d alarm(s)\n", count)

		return nil
	})
}

// ShowDefaultAlert prints the alert used by alarms without an override.
func ShowDefaultAlert(ctx context.Context, opts *Options) error {
	return withSession(ctx, opts, func(s *session) error {
		alert, err := s.client.DefaultAlert(ctx)
		if err != nil {
			return err
		}

		printAlert(s.out, "", &alert)

		return nil
	})
}

// SetDefaultAlert changes the default alert.
func SetDefaultAlert(ctx context.Context, opts *Options, edit *AlertEdit) error {
	return withSession(ctx, opts, func(s *session) error {
		alert, err := s.client.DefaultAlert(ctx)
		if err != nil {
			return err
		}

		edit.apply(&alert)

		if err := s.client.SetDefaultAlert(ctx, &alert); err != nil {
			return err
		}

		printAlert(s.out, "", &alert)

		return nil
	})
}

// Export writes the alarms as an iCalendar document to w.
func Export(ctx context.Context, opts *Options, w io.Writer) error {
	return withSession(ctx, opts, func(s *session) error {
		calendar, err := s.client.ExportCalendar(ctx)
		if err != nil {
			return err
		}

		if _, err := io.WriteString(w, calendar); err != nil {
			return fmt.Errorf("write calendar: %w", err)
		}

		return nil
	})
}
