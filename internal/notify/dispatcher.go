// Package notify formats commitment notifications and delivers them through
// a throttled Sink. It also resolves the manager an agent escalates to.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/JaimeStill/pledge/internal/commitments"
	"github.com/JaimeStill/pledge/internal/metrics"
)

// Notification kinds, used as metric and log labels.
const (
	KindReminder   = "reminder"
	KindEscalation = "escalation"
	KindSummary    = "summary"
)

// Dispatcher renders and sends notifications. Sends share one token bucket
// and each is bounded by the configured timeout.
type Dispatcher struct {
	sink    Sink
	limiter *rate.Limiter
	timeout time.Duration
	top     int
	loc     *time.Location
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a Dispatcher. Times in messages are rendered in loc.
func New(sink Sink, cfg *Config, loc *time.Location, m *metrics.Metrics, logger *slog.Logger) *Dispatcher {
	if loc == nil {
		loc = time.Local
	}
	return &Dispatcher{
		sink:    sink,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		timeout: cfg.SendTimeoutDuration(),
		top:     cfg.TopItems,
		loc:     loc,
		metrics: m,
		logger:  logger.With("system", "notify"),
	}
}

// Reminder notifies the commitment's agent of its approaching deadline.
func (d *Dispatcher) Reminder(ctx context.Context, c commitments.Commitment, now time.Time) error {
	if c.Deadline == nil {
		return fmt.Errorf("%w: commitment %s has no deadline", ErrDispatchFailed, c.ID)
	}
	return d.send(ctx, KindReminder, c.AgentID, ReminderMessage(c, now, d.loc))
}

// Escalation sends one aggregate message about batch to managerID.
func (d *Dispatcher) Escalation(ctx context.Context, managerID string, batch []commitments.Commitment, now time.Time) error {
	if len(batch) == 0 {
		return nil
	}
	return d.send(ctx, KindEscalation, managerID, EscalationMessage(batch, now, d.top))
}

// Summary sends the daily statistics for day to recipient.
func (d *Dispatcher) Summary(ctx context.Context, recipient string, stats commitments.Stats, day string) error {
	return d.send(ctx, KindSummary, recipient, SummaryMessage(stats, day))
}

func (d *Dispatcher) send(ctx context.Context, kind, recipient, message string) error {
	if err := d.limiter.Wait(ctx); err != nil {
		d.metrics.Dispatched(kind, err)
		return fmt.Errorf("%w: %s to %s: throttled: %w", ErrDispatchFailed, kind, recipient, err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	err := d.sink.Send(sendCtx, recipient, message)
	d.metrics.Dispatched(kind, err)

	if err != nil {
		d.logger.Warn("notification failed", "kind", kind, "recipient", recipient, "error", err)
		return fmt.Errorf("%w: %s to %s: %w", ErrDispatchFailed, kind, recipient, err)
	}

	d.logger.Debug("notification sent", "kind", kind, "recipient", recipient, "duration", time.Since(start))
	return nil
}
