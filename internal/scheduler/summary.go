package scheduler

import (
	"context"
	"fmt"
	"time"
)

// RunSummary sends the daily summary for the most recent summary time that
// has passed, unless it was already claimed by this or another process.
// The day is claimed before sending, so a failed send is not retried.
func (s *Scheduler) RunSummary(ctx context.Context) (Report, error) {
	report := Report{Job: JobSummary}

	at := s.lastSummaryTime(s.now())
	day := at.Format(time.DateOnly)

	claimed, err := s.store.ClaimDay(ctx, JobSummary, day)
	if err != nil {
		return report, fmt.Errorf("claim summary day %s: %w", day, err)
	}
	report.Selected = 1
	if !claimed {
		report.Skipped = 1
		return report, nil
	}

	uctx, cancel := s.unit(ctx)
	defer cancel()

	stats, err := s.store.Stats(uctx, at.Add(-24*time.Hour), at)
	if err != nil {
		report.Failed = 1
		return report, fmt.Errorf("summary stats for %s: %w", day, err)
	}

	if err := s.notifier.Summary(uctx, s.recipient, stats, day); err != nil {
		report.Failed = 1
		return report, fmt.Errorf("summary for %s: %w", day, err)
	}

	report.Processed = 1
	return report, nil
}

// daily catches up a missed summary, then runs the summary job at the
// configured time each day.
func (s *Scheduler) daily(ctx context.Context) {
	s.catchUp(ctx)

	for {
		wait := s.nextSummaryTime(s.now()).Sub(s.now())
		if !sleep(ctx, wait) {
			return
		}
		s.run(ctx, JobSummary, s.RunSummary)
	}
}

// catchUp sends the summary missed while the process was down. A job that
// never ran has nothing to catch up.
func (s *Scheduler) catchUp(ctx context.Context) {
	last, err := s.store.LastDay(ctx, JobSummary)
	if err != nil {
		s.logger.Error("read summary checkpoint failed", "error", err)
		return
	}
	if last == "" {
		return
	}

	due := s.lastSummaryTime(s.now()).Format(time.DateOnly)
	if last < due {
		s.logger.Info("catching up missed summary", "last_day", last, "day", due)
		s.run(ctx, JobSummary, s.RunSummary)
	}
}

// lastSummaryTime returns the latest summary time at or before now.
func (s *Scheduler) lastSummaryTime(now time.Time) time.Time {
	local := now.In(s.loc)
	at := time.Date(local.Year(), local.Month(), local.Day(), s.summaryHour, s.summaryMinute, 0, 0, s.loc)
	if at.After(local) {
		at = at.AddDate(0, 0, -1)
	}
	return at
}

// nextSummaryTime returns the first summary time strictly after now.
func (s *Scheduler) nextSummaryTime(now time.Time) time.Time {
	return s.lastSummaryTime(now).AddDate(0, 0, 1)
}
