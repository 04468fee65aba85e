package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oshokin/alarm-manager/internal/api/dto"
	"github.com/oshokin/alarm-manager/internal/service/client"
)

//nolint:gochecknoglobals // Cobra commands are package-level by convention.
var (
	listCmd = &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the alarms in display order.",
		Args:    cobra.NoArgs,
		RunE: withClient(func(ctx context.Context, opts *client.Options, _ []string) error {
			return client.List(ctx, opts)
		}),
	}

	showCmd = &cobra.Command{
		Use:   "show <id|name>",
		Short: "Show an alarm with its upcoming fire times.",
		Args:  cobra.ExactArgs(1),
		RunE: withClient(func(ctx context.Context, opts *client.Options, args []string) error {
			return client.Show(ctx, opts, args[0])
		}),
	}

	deleteCmd = &cobra.Command{
		Use:     "delete <id|name>",
		Aliases: []string{"rm"},
		Short:   "Delete an alarm.",
		Args:    cobra.ExactArgs(1),
		RunE: withClient(func(ctx context.Context, opts *client.Options, args []string) error {
			return client.Delete(ctx, opts, args[0])
		}),
	}

	moveCmd = &cobra.Command{
		Use:   "move <id|name> <position>",
		Short: "Move an alarm to a 1-based position of the list.",
		Args:  cobra.ExactArgs(2), //nolint:mnd // Reference and position.
		RunE: withClient(func(ctx context.Context, opts *client.Options, args []string) error {
			position, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid position %q: %w", args[1], err)
			}

			return client.Move(ctx, opts, args[0], position)
		}),
	}

	startCmd = &cobra.Command{
		Use:   "start <id|name>",
		Short: "Start a timer or enable an alarm clock.",
		Args:  cobra.ExactArgs(1),
		RunE: withClient(func(ctx context.Context, opts *client.Options, args []string) error {
			return client.Start(ctx, opts, args[0])
		}),
	}

	stopCmd = &cobra.Command{
		Use:   "stop <id|name>",
		Short: "Stop a timer or disable an alarm clock.",
		Args:  cobra.ExactArgs(1),
		RunE: withClient(func(ctx context.Context, opts *client.Options, args []string) error {
			return client.Stop(ctx, opts, args[0])
		}),
	}

	ackCmd = &cobra.Command{
		Use:   "ack [id|name]",
		Short: "Acknowledge the alert of an alarm, or every alert.",
		Args:  cobra.MaximumNArgs(1),
		RunE: withClient(func(ctx context.Context, opts *client.Options, args []string) error {
			var ref string
			if len(args) > 0 {
				ref = args[0]
			}

			return client.Acknowledge(ctx, opts, ref)
		}),
	}
)

var (
	errAlertConflict = errors.New("--default-alert cannot be combined with alert flags")
	errMissingUnit   = errors.New("--unit is required with every-n")
)

// setFlags are the values of the "set" command.
//
//nolint:gochecknoglobals // Bound to cobra flags.
var setFlags struct {
	alarmType         string
	name              string
	time              string
	color             string
	autoStart         bool
	autoStop          bool
	autoStartOnResume bool
	autoStopOnSuspend bool
	repeat            string
	triggeredBy       string
	days              string
	every             int
	unit              string
	defaultAlert      bool
	alert             alertFlags
}

//nolint:gochecknoglobals // Cobra commands are package-level by convention.
var setCmd = &cobra.Command{
	Use:   "set [id|name]",
	Short: "Create an alarm, or change the one given.",
	Long: `Creates a timer or an alarm clock, or updates an existing one when a reference
is given. Only the flags passed are changed.

Examples:
  alarm-manager set --name tea --time 4m
  alarm-manager set --type clock --name wake --time 07:30 --days Mon,Tue,Wed,Thu,Fri
  alarm-manager set --name stretch --time 50m --triggered-by stretch
  alarm-manager set wake --sound /usr/share/sounds/alarm.wav --sound-loops 0`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(command *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		edit, err := buildEdit(command, args)
		if err != nil {
			return err
		}

		return client.Set(ctx, clientOptions(command), edit)
	},
}

// buildEdit turns the flags given to "set" into an Edit.
func buildEdit(command *cobra.Command, args []string) (*client.Edit, error) {
	flags := command.Flags()
	edit := &client.Edit{}

	if len(args) > 0 {
		edit.Ref = args[0]
	}

	edit.Type = changed(flags, "type", &setFlags.alarmType)
	edit.Name = changed(flags, "name", &setFlags.name)
	edit.Time = changed(flags, "time", &setFlags.time)
	edit.Color = changed(flags, "color", &setFlags.color)
	edit.AutoStart = changed(flags, "autostart", &setFlags.autoStart)
	edit.AutoStop = changed(flags, "autostop", &setFlags.autoStop)
	edit.AutoStartOnResume = changed(flags, "autostart-on-resume", &setFlags.autoStartOnResume)
	edit.AutoStopOnSuspend = changed(flags, "autostop-on-suspend", &setFlags.autoStopOnSuspend)

	recurrence, err := buildRecurrence(command)
	if err != nil {
		return nil, err
	}

	edit.Recurrence = recurrence
	edit.ClearAlert = setFlags.defaultAlert
	edit.Alert = setFlags.alert.edit(flags)

	if edit.ClearAlert && edit.Alert != nil {
		return nil, errAlertConflict
	}

	return edit, nil
}

// buildRecurrence reads the recurrence flags. The kind follows from the flag
// given unless --repeat names it.
func buildRecurrence(command *cobra.Command) (*dto.Recurrence, error) {
	flags := command.Flags()

	var given []string

	for _, name := range []string{"repeat", "triggered-by", "days", "every", "unit"} {
		if flags.Changed(name) {
			given = append(given, name)
		}
	}

	if len(given) == 0 {
		return nil, nil //nolint:nilnil // No recurrence change.
	}

	r := &dto.Recurrence{
		Kind:        setFlags.repeat,
		TriggeredBy: setFlags.triggeredBy,
		Days:        setFlags.days,
		Every:       setFlags.every,
		Unit:        setFlags.unit,
	}

	if !flags.Changed("repeat") {
		switch {
		case flags.Changed("triggered-by"):
			r.Kind = "triggered-by"
		case flags.Changed("days"):
			r.Kind = "days-of-week"
		case flags.Changed("every"), flags.Changed("unit"):
			r.Kind = "every-n"
		}
	}

	if r.Kind == "every-n" && r.Unit == "" {
		return nil, errMissingUnit
	}

	return r, nil
}

// changed returns value when the flag was given on the command line.
func changed[T any](flags *pflag.FlagSet, name string, value *T) *T {
	if !flags.Changed(name) {
		return nil
	}

	return value
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := setCmd.Flags()
	flags.StringVar(&setFlags.alarmType, "type", "timer", "timer or clock")
	flags.StringVar(&setFlags.name, "name", "", "display name")
	flags.StringVar(&setFlags.time, "time", "", "countdown of a timer (1h30m, 90s, 01:30:00) or HH:MM of an alarm")
	flags.StringVar(&setFlags.color, "color", "", "display color, e.g. #FF8800")
	flags.BoolVar(&setFlags.autoStart, "autostart", false, "start when the daemon starts")
	flags.BoolVar(&setFlags.autoStop, "autostop", false, "stop when the daemon stops")
	flags.BoolVar(&setFlags.autoStartOnResume, "autostart-on-resume", false, "start when the system resumes")
	flags.BoolVar(&setFlags.autoStopOnSuspend, "autostop-on-suspend", false, "stop when the system suspends")
	flags.StringVar(&setFlags.repeat, "repeat", "none", "recurrence: none, triggered-by, days-of-week or every-n")
	flags.StringVar(&setFlags.triggeredBy, "triggered-by", "", "timer whose firing starts this timer, may be itself")
	flags.StringVar(&setFlags.days, "days", "", "days of the week, e.g. Mon,Wed,Fri")
	flags.IntVar(&setFlags.every, "every", 1, "step of every-n")
	flags.StringVar(&setFlags.unit, "unit", "", "unit of every-n: days, weeks or months")
	flags.BoolVar(&setFlags.defaultAlert, "default-alert", false, "drop the alert override and use the default alert")
	setFlags.alert.register(flags)

	rootCmd.AddCommand(listCmd, showCmd, setCmd, deleteCmd, moveCmd, startCmd, stopCmd, ackCmd)
}
