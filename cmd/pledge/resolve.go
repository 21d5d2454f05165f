package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/pledge/internal/commitments"
	"github.com/JaimeStill/pledge/internal/deadline"
	"github.com/JaimeStill/pledge/internal/priority"
)

var (
	resolveAt       string
	resolveTimezone string
	resolveDayEnd   string
	resolveWeekEnd  string
	resolveCategory string
)

func init() {
	resolveCmd.Flags().StringVar(&resolveAt, "at", "", "reference time, RFC 3339 (defaults to now)")
	resolveCmd.Flags().StringVar(&resolveTimezone, "tz", "Europe/Moscow", "timezone for the default reference time")
	resolveCmd.Flags().StringVar(&resolveDayEnd, "day-end", "", "business day end, HH:MM")
	resolveCmd.Flags().StringVar(&resolveWeekEnd, "week-end", "", "weekday that closes a week")
	resolveCmd.Flags().StringVar(&resolveCategory, "category", "", "commitment category, to print its priority")
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <phrase>",
	Short: "Resolve a spoken deadline phrase",
	Long: `Resolve a free-form deadline phrase against a reference time and print the
absolute deadline. With --category, also print the priority the commitment
would receive.

Examples:
  pledge resolve "завтра до 18:00" --at 2025-10-24T10:00:00+03:00
  pledge resolve "до конца недели" --category document`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	ref, err := referenceTime()
	if err != nil {
		return err
	}

	cfg := &deadline.Config{BusinessDayEnd: resolveDayEnd, WeekEnd: resolveWeekEnd}
	if err := cfg.Finalize(nil); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	at, ok := deadline.New(cfg).Resolve(args[0], ref)
	if ok {
		fmt.Fprintf(out, "deadline: %s (%s)\n", at.Format(time.RFC3339), at.Weekday())
	} else {
		fmt.Fprintln(out, "deadline: unresolved")
	}

	if resolveCategory != "" {
		var d *time.Time
		if ok {
			d = &at
		}
		category := commitments.ParseCategory(resolveCategory)
		p := priority.Default().Classify(category, d, ref, args[0])
		fmt.Fprintf(out, "category: %s\npriority: %s\n", category, p)
	}
	return nil
}

func referenceTime() (time.Time, error) {
	if resolveAt != "" {
		t, err := time.Parse(time.RFC3339, resolveAt)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --at: %w", err)
		}
		return t, nil
	}

	loc, err := time.LoadLocation(resolveTimezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --tz: %w", err)
	}
	return time.Now().In(loc), nil
}
