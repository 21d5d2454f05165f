package commitments

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/pledge/pkg/pagination"
)

// Store defines the public contract for commitment persistence.
// It exclusively owns the lifecycle fields. Every Mark* transition is a
// per-record conditional update: a call that finds the transition already
// applied reports false and is never an error.
type Store interface {
	Create(ctx context.Context, c *Commitment) error
	Find(ctx context.Context, id uuid.UUID) (*Commitment, error)

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Commitment], error)

	// DueForReminder returns open commitments without a reminder whose
	// deadline falls in (now, now+lead].
	DueForReminder(ctx context.Context, now time.Time, lead time.Duration) ([]Commitment, error)
	// OverdueUnmarked returns open commitments past their deadline that are
	// not yet flagged overdue.
	OverdueUnmarked(ctx context.Context, now time.Time) ([]Commitment, error)
	// OverdueUnescalated returns open commitments past their deadline that
	// have not been escalated.
	OverdueUnescalated(ctx context.Context, now time.Time) ([]Commitment, error)

	// Claim leases each id to owner until now+ttl unless another owner holds
	// an unexpired lease, and returns the ids won.
	Claim(ctx context.Context, ids []uuid.UUID, owner string, now time.Time, ttl time.Duration) ([]uuid.UUID, error)
	// Release drops the leases owner holds on ids.
	Release(ctx context.Context, ids []uuid.UUID, owner string) error

	MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	MarkOverdue(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	// MarkEscalated flags every eligible id in one transaction and returns
	// how many changed. On error none are flagged.
	MarkEscalated(ctx context.Context, ids []uuid.UUID, at time.Time) (int, error)
	MarkFulfilled(ctx context.Context, id uuid.UUID, at time.Time) (*Commitment, error)
	// SetDeadline returns ErrClosed once the commitment is fulfilled, flagged
	// overdue or escalated.
	SetDeadline(ctx context.Context, id uuid.UUID, deadline time.Time) (*Commitment, error)

	Stats(ctx context.Context, since, until time.Time) (Stats, error)

	// ClaimDay records day (YYYY-MM-DD) as the last run of job if it is
	// later than the stored one, and reports whether this call advanced it.
	ClaimDay(ctx context.Context, job, day string) (bool, error)
	// LastDay returns the last claimed day of job, or "" when it never ran.
	LastDay(ctx context.Context, job string) (string, error)
}

// Ingester turns a call transcript into stored commitments.
type Ingester interface {
	Ingest(ctx context.Context, cmd IngestCommand) ([]Commitment, error)
}

// Checker runs an immediate overdue scan followed by escalation.
type Checker interface {
	CheckOverdue(ctx context.Context) (CheckResult, error)
}

// CheckResult reports the outcome of an operational overdue check.
type CheckResult struct {
	Marked    int `json:"marked"`
	Escalated int `json:"escalated"`
	Failed    int `json:"failed"`
}
