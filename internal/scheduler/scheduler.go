// Package scheduler runs the recurring commitment jobs: reminders before a
// deadline, overdue detection, manager escalation, and the daily summary.
//
// Every dispatch is guarded by a store lease and followed by a conditional
// state transition, so overlapping runs in one or many processes send at
// most one notification per commitment while a failed send stays eligible
// for the next run.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/pledge/internal/commitments"
	"github.com/JaimeStill/pledge/internal/metrics"
	"github.com/JaimeStill/pledge/internal/notify"
	"github.com/JaimeStill/pledge/pkg/lifecycle"
)

// Job names.
const (
	JobReminders   = "reminders"
	JobOverdue     = "overdue"
	JobEscalations = "escalations"
	JobSummary     = "daily_summary"
)

// Notifier sends the notifications the jobs produce.
type Notifier interface {
	Reminder(ctx context.Context, c commitments.Commitment, now time.Time) error
	Escalation(ctx context.Context, managerID string, batch []commitments.Commitment, now time.Time) error
	Summary(ctx context.Context, recipient string, stats commitments.Stats, day string) error
}

// Runtime carries the scheduler's collaborators. Clock defaults to
// time.Now and Metrics may be nil.
type Runtime struct {
	Store            commitments.Store
	Notifier         Notifier
	Directory        notify.Directory
	SummaryRecipient string
	Metrics          *metrics.Metrics
	Logger           *slog.Logger
	Clock            func() time.Time
}

// Report summarizes one job run.
type Report struct {
	Job       string        `json:"job"`
	Selected  int           `json:"selected"`
	Processed int           `json:"processed"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// Scheduler owns the four periodic jobs.
type Scheduler struct {
	store     commitments.Store
	notifier  Notifier
	directory notify.Directory
	recipient string
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time

	owner    string
	loc      *time.Location
	escalate chan struct{}

	reminderEvery   time.Duration
	lead            time.Duration
	overdueEvery    time.Duration
	escalationEvery time.Duration
	summaryHour     int
	summaryMinute   int
	grace           time.Duration
	jitter          time.Duration
	dispatchTimeout time.Duration
	leaseTTL        time.Duration
}

// New creates a Scheduler from a finalized Config. Each Scheduler holds
// leases under its own owner id.
func New(cfg *Config, rt Runtime) *Scheduler {
	now := rt.Clock
	if now == nil {
		now = time.Now
	}
	hour, minute := cfg.SummaryClock()

	return &Scheduler{
		store:     rt.Store,
		notifier:  rt.Notifier,
		directory: rt.Directory,
		recipient: rt.SummaryRecipient,
		metrics:   rt.Metrics,
		logger:    rt.Logger.With("system", "scheduler"),
		now:       now,

		owner:    uuid.NewString(),
		loc:      cfg.Location(),
		escalate: make(chan struct{}, 1),

		reminderEvery:   cfg.ReminderIntervalDuration(),
		lead:            cfg.ReminderLeadDuration(),
		overdueEvery:    cfg.OverdueIntervalDuration(),
		escalationEvery: cfg.EscalationIntervalDuration(),
		summaryHour:     hour,
		summaryMinute:   minute,
		grace:           cfg.StartupGraceDuration(),
		jitter:          cfg.MaxJitterDuration(),
		dispatchTimeout: cfg.DispatchTimeoutDuration(),
		leaseTTL:        cfg.LeaseTTLDuration(),
	}
}

// Start runs the jobs as a lifecycle worker once startup completes.
func (s *Scheduler) Start(lc *lifecycle.Coordinator) error {
	s.logger.Info("starting scheduler", "owner", s.owner)
	lc.Go(func(ctx context.Context) {
		if err := s.Run(ctx, lc.Started()); err != nil {
			s.logger.Error("scheduler stopped", "error", err)
		}
	})
	return nil
}

// Run waits for ready to close and the startup grace window to pass, then
// runs every job until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, ready <-chan struct{}) error {
	select {
	case <-ctx.Done():
		return nil
	case <-ready:
	}

	if !sleep(ctx, s.grace) {
		return nil
	}
	s.logger.Info("scheduler running",
		"reminder_interval", s.reminderEvery,
		"overdue_interval", s.overdueEvery,
		"escalation_interval", s.escalationEvery,
		"summary_at", fmt.Sprintf("%02d:%02d", s.summaryHour, s.summaryMinute),
		"timezone", s.loc.String(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.every(gctx, JobReminders, s.reminderEvery, nil, s.RunReminders)
		return nil
	})
	g.Go(func() error {
		s.every(gctx, JobOverdue, s.overdueEvery, nil, s.RunOverdue)
		return nil
	})
	g.Go(func() error {
		s.every(gctx, JobEscalations, s.escalationEvery, s.escalate, s.RunEscalations)
		return nil
	})
	g.Go(func() error {
		s.daily(gctx)
		return nil
	})

	err := g.Wait()
	s.logger.Info("scheduler stopped")
	return err
}

// CheckOverdue runs the overdue and escalation jobs immediately.
func (s *Scheduler) CheckOverdue(ctx context.Context) (commitments.CheckResult, error) {
	overdue, err := s.run(ctx, JobOverdue, s.RunOverdue)
	if err != nil {
		return commitments.CheckResult{Marked: overdue.Processed, Failed: overdue.Failed}, err
	}

	escalated, err := s.run(ctx, JobEscalations, s.RunEscalations)
	return commitments.CheckResult{
		Marked:    overdue.Processed,
		Escalated: escalated.Processed,
		Failed:    overdue.Failed + escalated.Failed,
	}, err
}

func (s *Scheduler) every(
	ctx context.Context,
	job string,
	interval time.Duration,
	trigger <-chan struct{},
	fn func(context.Context) (Report, error),
) {
	if !sleep(ctx, s.phase()) {
		return
	}
	s.run(ctx, job, fn)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-trigger:
		}
		s.run(ctx, job, fn)
	}
}

// run executes one job run, recording and logging its report. Panics are
// recovered so a failing run never ends the loop.
func (s *Scheduler) run(
	ctx context.Context,
	job string,
	fn func(context.Context) (Report, error),
) (report Report, err error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job, r)
		}
		report.Job = job
		report.Duration = time.Since(start)
		s.metrics.JobRun(job, report.Duration, err)

		attrs := []any{
			"job", job,
			"selected", report.Selected,
			"processed", report.Processed,
			"skipped", report.Skipped,
			"failed", report.Failed,
			"duration", report.Duration,
		}
		if err != nil {
			s.logger.Error("job failed", append(attrs, "error", err)...)
			return
		}
		s.logger.Info("job finished", attrs...)
	}()

	return fn(ctx)
}

// unit bounds one unit of work. It outlives ctx cancellation so shutdown
// never interrupts a unit between dispatch and state transition.
func (s *Scheduler) unit(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.dispatchTimeout)
}

func (s *Scheduler) phase() time.Duration {
	if s.jitter <= 0 {
		return 0
	}
	return rand.N(s.jitter)
}

func (s *Scheduler) signalEscalation() {
	select {
	case s.escalate <- struct{}{}:
	default:
	}
}

// sleep waits for d and reports false when ctx ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
