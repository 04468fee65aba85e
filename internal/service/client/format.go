package client

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/oshokin/alarm-manager/internal/api/dto"
)

// timeLayout renders fire times in the local zone.
const timeLayout = "Mon 2006-01-02 15:04:05"

func printList(w io.Writer, list dto.StatusList) error {
	if len(list.Alarms) == 0 {
		fmt.Fprintln(w, "No alarms")

		return nil
	}

	names := namesOf(list)
	table := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(table, "#\tID\tNAME\tTYPE\tTIME\tREPEAT\tSTATE")

	for _, status := range list.Alarms {
		a := status.Alarm
		fmt.Fprintf(table, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			a.Position+1, a.ID, displayName(a), a.Type, a.Time,
			describeRecurrence(a.Recurrence, names), describeState(status))
	}

	if err := table.Flush(); err != nil {
		return fmt.Errorf("print alarms: %w", err)
	}

	return nil
}

func printStatus(w io.Writer, status dto.Status, upcoming []time.Time, names map[string]string) error {
	a := status.Alarm

	table := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(table, "ID:\t%s\n", a.ID)
	fmt.Fprintf(table, "Name:\t%s\n", displayName(a))
	fmt.Fprintf(table, "Position:\t%d\n", a.Position+1)
	fmt.Fprintf(table, "Type:\t%s\n", a.Type)
	fmt.Fprintf(table, "Time:\t%s\n", a.Time)
	fmt.Fprintf(table, "Repeat:\t%s\n", describeRecurrence(a.Recurrence, names))
	fmt.Fprintf(table, "State:\t%s\n", describeState(status))

	if a.Color != "" {
		fmt.Fprintf(table, "Color:\t%s\n", a.Color)
	}

	if flags := describeFlags(a); flags != "" {
		fmt.Fprintf(table, "Flags:\t%s\n", flags)
	}

	if status.LastFired != nil {
		fmt.Fprintf(table, "Last fired:\t%s\n", status.LastFired.Local().Format(timeLayout))
	}

	for i, t := range upcoming {
		label := ""
		if i == 0 {
			label = "Upcoming:"
		}

		fmt.Fprintf(table, "%s\t%s\n", label, t.Local().Format(timeLayout))
	}

	if err := table.Flush(); err != nil {
		return fmt.Errorf("print alarm: %w", err)
	}

	if a.Alert != nil {
		fmt.Fprintln(w, "Alert:")
		printAlert(w, "  ", a.Alert)
	}

	return nil
}

func printAlert(w io.Writer, indent string, a *dto.Alert) {
	fmt.Fprintf(w, "%snotification: %t\n", indent, a.Notification)

	if a.Sound != "" {
		loops := "until acknowledged"
		if a.SoundLoops > 0 {
			loops = fmt.Sprintf("%d time(s)", a.SoundLoops)
		}

		fmt.Fprintf(w, "%ssound: %s, %s\n", indent, a.Sound, loops)
	}

	if a.Program != "" {
		fmt.Fprintf(w, "%sprogram: %s %s", indent, a.Program, a.ProgramOptions)

		if a.ProgramRuntimeSeconds > 0 {
			fmt.Fprintf(w, " (killed after %s)", time.Duration(a.ProgramRuntimeSeconds)*time.Second)
		}

		fmt.Fprintln(w)
	}

	switch {
	case a.RepeatIntervalSeconds == 0 || a.RepeatCount == 1:
		fmt.Fprintf(w, "%srepeat: no\n", indent)
	case a.RepeatCount == 0:
		fmt.Fprintf(w, "%srepeat: every %s until acknowledged\n", indent, time.Duration(a.RepeatIntervalSeconds)*time.Second)
	default:
		fmt.Fprintf(w, "%srepeat: every %s, %d round(s)\n", indent, time.Duration(a.RepeatIntervalSeconds)*time.Second, a.RepeatCount)
	}
}

// namesOf maps alarm ids to display names.
func namesOf(list dto.StatusList) map[string]string {
	names := make(map[string]string, len(list.Alarms))
	for _, status := range list.Alarms {
		names[status.Alarm.ID] = displayName(status.Alarm)
	}

	return names
}

func displayName(a dto.Alarm) string {
	if a.Name != "" {
		return a.Name
	}

	if a.Type == "clock" {
		return "Alarm"
	}

	return "Timer"
}

func describeState(status dto.Status) string {
	var parts []string

	switch {
	case status.Armed && status.Alarm.Type == "timer":
		parts = append(parts, "running, "+(time.Duration(status.RemainingSeconds)*time.Second).String()+" left")
	case status.Armed && status.NextFire != nil:
		parts = append(parts, "armed for "+status.NextFire.Local().Format(timeLayout))
	default:
		parts = append(parts, "stopped")
	}

	if status.AlertState != "" && status.AlertState != "idle" {
		parts = append(parts, "alert "+status.AlertState)
	}

	return strings.Join(parts, ", ")
}

func describeRecurrence(r *dto.Recurrence, names map[string]string) string {
	if r == nil {
		return "once"
	}

	switch r.Kind {
	case "triggered-by":
		name, ok := names[r.TriggeredBy]
		if !ok {
			name = r.TriggeredBy
		}

		return "after " + name
	case "days-of-week":
		return "on " + r.Days
	case "every-n":
		return fmt.Sprintf("every %d %s", r.Every, r.Unit)
	default:
		return "once"
	}
}

func describeFlags(a dto.Alarm) string {
	var flags []string

	if a.AutoStart {
		flags = append(flags, "autostart")
	}

	if a.AutoStop {
		flags = append(flags, "autostop")
	}

	if a.AutoStartOnResume {
		flags = append(flags, "autostart-on-resume")
	}

	if a.AutoStopOnSuspend {
		flags = append(flags, "autostop-on-suspend")
	}

	return strings.Join(flags, ", ")
}
