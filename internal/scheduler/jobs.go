package scheduler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/pledge/internal/commitments"
	"github.com/JaimeStill/pledge/internal/notify"
)

type outcome int

const (
	processed outcome = iota
	skipped
	failed
)

func (r *Report) add(o outcome, n int) {
	switch o {
	case processed:
		r.Processed += n
	case skipped:
		r.Skipped += n
	case failed:
		r.Failed += n
	}
}

// RunReminders sends one reminder for each open commitment whose deadline
// falls within the reminder lead time.
func (s *Scheduler) RunReminders(ctx context.Context) (Report, error) {
	report := Report{Job: JobReminders}
	now := s.now()

	due, err := s.store.DueForReminder(ctx, now, s.lead)
	if err != nil {
		return report, fmt.Errorf("select reminders: %w", err)
	}
	report.Selected = len(due)

	for _, c := range due {
		if ctx.Err() != nil {
			break
		}
		report.add(s.remind(ctx, c, now), 1)
	}
	return report, nil
}

func (s *Scheduler) remind(ctx context.Context, c commitments.Commitment, now time.Time) outcome {
	uctx, cancel := s.unit(ctx)
	defer cancel()

	ids := []uuid.UUID{c.ID}
	won, err := s.claimAll(uctx, ids)
	if err != nil {
		return failed
	}
	if !won {
		return skipped
	}
	defer s.release(uctx, ids)

	current, err := s.store.Find(uctx, c.ID)
	if err != nil {
		s.logger.Error("reload commitment failed", "id", c.ID, "error", err)
		return failed
	}
	if current.Fulfilled || current.ReminderSent {
		return skipped
	}

	if err := s.notifier.Reminder(uctx, *current, now); err != nil {
		s.logger.Warn("reminder not delivered", "id", c.ID, "agent_id", c.AgentID, "error", err)
		return failed
	}

	changed, err := s.store.MarkReminderSent(uctx, c.ID, s.now())
	if err != nil {
		s.logger.Error("mark reminder sent failed", "id", c.ID, "error", err)
		return failed
	}
	if !changed {
		s.logger.Warn("reminder already recorded", "id", c.ID)
	}
	return processed
}

// RunOverdue flags open commitments past their deadline and, when any
// changed, signals the escalation job to run promptly.
func (s *Scheduler) RunOverdue(ctx context.Context) (Report, error) {
	report := Report{Job: JobOverdue}
	now := s.now()

	late, err := s.store.OverdueUnmarked(ctx, now)
	if err != nil {
		return report, fmt.Errorf("select overdue: %w", err)
	}
	report.Selected = len(late)

	for _, c := range late {
		if ctx.Err() != nil {
			break
		}

		uctx, cancel := s.unit(ctx)
		changed, err := s.store.MarkOverdue(uctx, c.ID, now)
		cancel()

		switch {
		case err != nil:
			s.logger.Error("mark overdue failed", "id", c.ID, "error", err)
			report.add(failed, 1)
		case changed:
			report.add(processed, 1)
		default:
			report.add(skipped, 1)
		}
	}

	if report.Processed > 0 {
		s.signalEscalation()
	}
	return report, nil
}

type batch struct {
	manager string
	items   []commitments.Commitment
}

// RunEscalations sends one aggregate escalation per manager covering every
// open commitment past its deadline that has not been escalated. A batch is
// escalated whole or not at all.
func (s *Scheduler) RunEscalations(ctx context.Context) (Report, error) {
	report := Report{Job: JobEscalations}
	now := s.now()

	late, err := s.store.OverdueUnescalated(ctx, now)
	if err != nil {
		return report, fmt.Errorf("select escalations: %w", err)
	}
	report.Selected = len(late)

	batches, unrouted, failures := s.group(ctx, late)
	report.add(skipped, unrouted)
	report.add(failed, failures)

	for _, b := range batches {
		if ctx.Err() != nil {
			break
		}
		o, n := s.escalateBatch(ctx, b, now)
		report.add(o, n)
	}
	return report, nil
}

// group resolves each agent's manager once and groups commitments per
// manager in manager id order.
func (s *Scheduler) group(ctx context.Context, late []commitments.Commitment) (batches []batch, unrouted, failures int) {
	managers := make(map[string]string)
	lookupErr := make(map[string]error)
	index := make(map[string]int)

	for _, c := range late {
		m, seen := managers[c.AgentID]
		err := lookupErr[c.AgentID]

		if !seen && err == nil {
			uctx, cancel := s.unit(ctx)
			m, err = s.directory.Manager(uctx, c.AgentID)
			cancel()

			if err != nil {
				lookupErr[c.AgentID] = err
				if errors.Is(err, notify.ErrNoManager) {
					s.logger.Warn("agent has no manager, escalation skipped", "agent_id", c.AgentID)
				} else {
					s.logger.Error("manager lookup failed", "agent_id", c.AgentID, "error", err)
				}
			} else {
				managers[c.AgentID] = m
			}
		}

		if err != nil {
			if errors.Is(err, notify.ErrNoManager) {
				unrouted++
			} else {
				failures++
			}
			continue
		}

		i, ok := index[m]
		if !ok {
			i = len(batches)
			index[m] = i
			batches = append(batches, batch{manager: m})
		}
		batches[i].items = append(batches[i].items, c)
	}

	slices.SortFunc(batches, func(a, b batch) int {
		switch {
		case a.manager < b.manager:
			return -1
		case a.manager > b.manager:
			return 1
		}
		return 0
	})
	return batches, unrouted, failures
}

func (s *Scheduler) escalateBatch(ctx context.Context, b batch, now time.Time) (outcome, int) {
	uctx, cancel := s.unit(ctx)
	defer cancel()

	ids := make([]uuid.UUID, len(b.items))
	for i, c := range b.items {
		ids[i] = c.ID
	}

	won, err := s.claimAll(uctx, ids)
	if err != nil {
		return failed, len(ids)
	}
	if !won {
		s.logger.Info("escalation batch held by another run", "manager_id", b.manager, "items", len(ids))
		return skipped, len(ids)
	}
	defer s.release(uctx, ids)

	for _, id := range ids {
		current, err := s.store.Find(uctx, id)
		if err != nil {
			s.logger.Error("reload commitment failed", "id", id, "error", err)
			return failed, len(ids)
		}
		if current.Escalated || current.Fulfilled {
			return skipped, len(ids)
		}
	}

	if err := s.notifier.Escalation(uctx, b.manager, b.items, now); err != nil {
		s.logger.Warn("escalation not delivered", "manager_id", b.manager, "items", len(ids), "error", err)
		return failed, len(ids)
	}

	n, err := s.store.MarkEscalated(uctx, ids, s.now())
	if err != nil {
		s.logger.Error("mark escalated failed", "manager_id", b.manager, "error", err)
		return failed, len(ids)
	}

	s.logger.Info("escalation sent", "manager_id", b.manager, "items", len(ids), "marked", n)
	return processed, n
}

// claimAll leases every id or none: a partial claim is released.
func (s *Scheduler) claimAll(ctx context.Context, ids []uuid.UUID) (bool, error) {
	won, err := s.store.Claim(ctx, ids, s.owner, s.now(), s.leaseTTL)
	if err != nil {
		s.logger.Error("claim failed", "items", len(ids), "error", err)
		return false, err
	}
	if len(won) == len(ids) {
		return true, nil
	}
	if len(won) > 0 {
		s.release(ctx, won)
	}
	return false, nil
}

func (s *Scheduler) release(ctx context.Context, ids []uuid.UUID) {
	if err := s.store.Release(ctx, ids, s.owner); err != nil {
		s.logger.Warn("release failed", "items", len(ids), "error", err)
	}
}
