package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/terraincognita07/cyclecal/internal/calendar"
	"github.com/terraincognita07/cyclecal/internal/cli"
	"github.com/terraincognita07/cyclecal/internal/client"
	"github.com/terraincognita07/cyclecal/internal/cycle"
)

func newLoginCommand(opts *rootOptions) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and print a session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readPassword(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			session, err := opts.client().Login(ctx, email, password)
			if err != nil {
				return err
			}
			printSession(cmd.OutOrStdout(), session)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRegisterCommand(opts *rootOptions) *cobra.Command {
	var email, name string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and print a session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readPassword(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			session, err := opts.client().Register(ctx, email, password, name)
			if err != nil {
				return err
			}
			printSession(cmd.OutOrStdout(), session)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// readPassword prompts on the terminal, or reads one line when stdin is
// piped. Tests swap the command input for a plain reader.
func readPassword(cmd *cobra.Command) (string, error) {
	if file, ok := cmd.InOrStdin().(*os.File); ok {
		return cli.PromptPassword(file, cmd.ErrOrStderr(), "Password: ")
	}
	raw, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), 1024))
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(string(raw), "\n")
	return strings.TrimSpace(line), nil
}

func printSession(out io.Writer, session client.Session) {
	fmt.Fprintf(out, "export CYCLECAL_TOKEN=%s\n", session.Token)
}

func newStatusCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show logged dates and the next predicted start",
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := opts.signedInClient()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			view, err := api.Summary(ctx)
			if err != nil {
				return err
			}
			printView(cmd.OutOrStdout(), view)
			return nil
		},
	}
}

func printView(out io.Writer, view cycle.View) {
	if len(view.Dates) == 0 {
		fmt.Fprintln(out, "No periods logged.")
	} else {
		fmt.Fprintln(out, "Logged periods:")
		for _, day := range view.Dates {
			fmt.Fprintf(out, "  %s\n", day.DisplayString())
		}
	}
	if view.Average != nil {
		fmt.Fprintf(out, "Average cycle: %d days\n", *view.Average)
	}

	reminder := view.Reminder
	if !reminder.Available() {
		fmt.Fprintln(out, reminder.Message)
		return
	}
	fmt.Fprintln(out, reminder.PredictionMessage)
	fmt.Fprintln(out, reminder.ReminderMessage)
}

type markMode string

const (
	markAdd    markMode = "add"
	markRemove markMode = "remove"
)

// newMarkCommand drives the calendar controller the same way the date
// dialog does: select, check the offered action, confirm.
func newMarkCommand(opts *rootOptions, mode markMode) *cobra.Command {
	short := "Log a period start date (YYYY-MM-DD)"
	if mode == markRemove {
		short = "Delete a logged period start date (YYYY-MM-DD)"
	}

	return &cobra.Command{
		Use:   string(mode) + " <date>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := cycle.ParseDate(args[0])
			if err != nil {
				return err
			}
			api, err := opts.signedInClient()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			controller := newController(cmd, opts, api)
			if err := controller.Load(ctx); err != nil {
				return err
			}

			action, err := controller.SelectDate(day)
			if err != nil {
				return err
			}
			switch {
			case mode == markAdd && action == calendar.ActionAdd:
				err = controller.ConfirmAdd()
			case mode == markRemove && action == calendar.ActionRemove:
				err = controller.ConfirmRemove()
			default:
				controller.Cancel()
				fmt.Fprintf(cmd.OutOrStdout(), "Nothing to %s on %s.\n", mode, day.DisplayString())
				return nil
			}
			if err != nil {
				return err
			}
			if err := finish(ctx, controller); err != nil {
				return err
			}
			printView(cmd.OutOrStdout(), controller.View())
			return nil
		},
	}
}

func newClearCommand(opts *rootOptions) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every logged date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := opts.signedInClient()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			controller := newController(cmd, opts, api)
			if err := controller.Load(ctx); err != nil {
				return err
			}
			if err := controller.RequestClearAll(); err != nil {
				return err
			}
			if !confirmed {
				controller.Cancel()
				fmt.Fprintf(cmd.OutOrStdout(), "This deletes %d logged dates. Re-run with --yes to confirm.\n", len(controller.View().Dates))
				return nil
			}
			if err := controller.ConfirmClearAll(); err != nil {
				return err
			}
			if err := finish(ctx, controller); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All dates cleared.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm deleting all dates")
	return cmd
}

type transitionPrinter struct {
	out io.Writer
}

func (printer transitionPrinter) ObserveTransition(kind string, status string) {
	fmt.Fprintf(printer.out, "transition %s: %s\n", kind, status)
}

// newController builds a controller over the remote stores. Failed saves
// are reported on stderr as they happen.
func newController(cmd *cobra.Command, opts *rootOptions, api *client.Client) *calendar.Controller {
	stderr := cmd.ErrOrStderr()
	options := []calendar.Option{
		calendar.WithLogger(opts.logger),
		calendar.WithRequestTimeout(opts.timeout),
		calendar.WithLocation(time.Local),
		calendar.WithResyncAfterCommit(true),
		calendar.WithStoreErrorHandler(func(storeErr calendar.StoreError) {
			notice := "kept locally"
			if storeErr.RolledBack() {
				notice = "reverted"
			}
			fmt.Fprintf(stderr, "Could not save change (%s): %v\n", notice, storeErr)
		}),
	}
	if opts.verbose {
		options = append(options, calendar.WithObserver(transitionPrinter{out: stderr}))
	}
	periods := calendar.NewCachedPeriodStore(api, calendar.DefaultCacheTTL)
	return calendar.New(0, periods, api, options...)
}

// finish waits for dispatched store calls and surfaces the first failure.
func finish(ctx context.Context, controller *calendar.Controller) error {
	if err := controller.Wait(ctx); err != nil {
		return err
	}
	for _, transition := range controller.Transitions() {
		if transition.Err != nil {
			return calendar.StoreError{Transition: transition, Err: transition.Err}
		}
	}
	return nil
}

func newSettingsCommand(opts *rootOptions) *cobra.Command {
	var (
		cycleOverride int
		clearOverride bool
		notifyDays    int
	)

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the cycle override and reminder lead time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := opts.signedInClient()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			patch := client.SettingsPatch{ClearCycleOverride: clearOverride}
			if cmd.Flags().Changed("cycle-override") {
				if clearOverride {
					return errors.New("--cycle-override and --clear-override are mutually exclusive")
				}
				patch.CycleOverrideDays = &cycleOverride
			}
			if cmd.Flags().Changed("notify-days") {
				patch.NotifyLeadDays = &notifyDays
			}

			var settings cycle.Settings
			if patch == (client.SettingsPatch{}) {
				settings, err = api.GetSettings(ctx, 0)
			} else {
				settings, err = api.UpdateSettings(ctx, patch)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if days, ok := settings.OverrideDays(); ok {
				fmt.Fprintf(out, "Cycle override: %d days\n", days)
			} else {
				fmt.Fprintln(out, "Cycle override: off (using average)")
			}
			fmt.Fprintf(out, "Reminder lead time: %d days\n", settings.LeadDays())
			return nil
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&cycleOverride, "cycle-override", 0, "fixed cycle length in days (15-90)")
	flags.BoolVar(&clearOverride, "clear-override", false, "go back to the average cycle length")
	flags.IntVar(&notifyDays, "notify-days", 0, "days before the predicted start to remind (1-5)")
	return cmd
}

func newICSCommand(opts *rootOptions) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "ics",
		Short: "Download the calendar as an iCalendar file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := opts.signedInClient()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			body, err := api.CalendarICS(ctx)
			if err != nil {
				return err
			}
			if outputPath == "" || outputPath == "-" {
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			if err := os.WriteFile(outputPath, body, 0o600); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outputPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write to file instead of stdout")
	return cmd
}
