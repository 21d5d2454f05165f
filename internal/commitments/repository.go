package commitments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/pledge/pkg/pagination"
	"github.com/JaimeStill/pledge/pkg/query"
	"github.com/JaimeStill/pledge/pkg/repository"
)

// scanLimit bounds how many candidates a single scheduler query returns.
const scanLimit = 1000

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a Postgres-backed Store.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) Store {
	return &repo{
		db:         db,
		logger:     logger.With("system", "commitments"),
		pagination: pagination,
	}
}

func (r *repo) Create(ctx context.Context, c *Commitment) error {
	if err := prepare(c); err != nil {
		return err
	}

	q := `
		INSERT INTO commitments(
			id, call_id, deal_id, agent_id, text, category, deadline_phrase,
			deadline, reference_time, created_at, priority
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, q,
		c.ID,
		c.CallID,
		c.DealID,
		c.AgentID,
		c.Text,
		string(c.Category),
		c.DeadlinePhrase,
		c.Deadline,
		c.ReferenceTime,
		c.CreatedAt,
		string(c.Priority),
	)
	if err != nil {
		return fmt.Errorf("insert commitment: %w", mapStoreError(err))
	}

	r.logger.Info("commitment created",
		"id", c.ID,
		"call_id", c.CallID,
		"agent_id", c.AgentID,
		"category", c.Category,
		"priority", c.Priority,
		"deadline", c.Deadline,
	)
	return nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Commitment, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	c, err := repository.QueryOne(ctx, r.db, q, args, scanCommitment)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return &c, nil
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Commitment], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Text", "DeadlinePhrase")

	filters.Apply(qb, time.Now())

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count commitments: %w", mapStoreError(err))
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanCommitment)
	if err != nil {
		return nil, fmt.Errorf("query commitments: %w", mapStoreError(err))
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) DueForReminder(ctx context.Context, now time.Time, lead time.Duration) ([]Commitment, error) {
	q, args := query.
		NewBuilder(projection, deadlineSort).
		Where("c.fulfilled = false").
		Where("c.reminder_sent = false").
		Where("c.deadline > ?", now).
		Where("c.deadline <= ?", now.Add(lead)).
		BuildLimit(scanLimit)

	return r.scan(ctx, "due for reminder", q, args)
}

func (r *repo) OverdueUnmarked(ctx context.Context, now time.Time) ([]Commitment, error) {
	q, args := query.
		NewBuilder(projection, deadlineSort).
		Where("c.fulfilled = false").
		Where("c.overdue = false").
		Where("c.deadline < ?", now).
		BuildLimit(scanLimit)

	return r.scan(ctx, "overdue unmarked", q, args)
}

func (r *repo) OverdueUnescalated(ctx context.Context, now time.Time) ([]Commitment, error) {
	q, args := query.
		NewBuilder(projection, deadlineSort).
		Where("c.fulfilled = false").
		Where("c.escalated = false").
		Where("c.deadline < ?", now).
		BuildLimit(scanLimit)

	return r.scan(ctx, "overdue unescalated", q, args)
}

func (r *repo) scan(ctx context.Context, name, q string, args []any) ([]Commitment, error) {
	items, err := repository.QueryMany(ctx, r.db, q, args, scanCommitment)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, mapStoreError(err))
	}
	return items, nil
}

func (r *repo) Claim(
	ctx context.Context,
	ids []uuid.UUID,
	owner string,
	now time.Time,
	ttl time.Duration,
) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	claimQ := `
		UPDATE commitments
		SET lease_owner = $2, lease_expires_at = $3
		WHERE id = $1
		  AND (lease_owner IS NULL OR lease_owner = $2 OR lease_expires_at <= $4)`

	won, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) ([]uuid.UUID, error) {
		won := make([]uuid.UUID, 0, len(ids))
		for _, id := range ids {
			ok, err := repository.ExecAffected(ctx, tx, claimQ, id, owner, now.Add(ttl), now)
			if err != nil {
				return nil, err
			}
			if ok {
				won = append(won, id)
			}
		}
		return won, nil
	})

	if err != nil {
		return nil, fmt.Errorf("claim commitments: %w", mapStoreError(err))
	}
	return won, nil
}

func (r *repo) Release(ctx context.Context, ids []uuid.UUID, owner string) error {
	if len(ids) == 0 {
		return nil
	}

	releaseQ := `
		UPDATE commitments
		SET lease_owner = NULL, lease_expires_at = NULL
		WHERE id = $1 AND lease_owner = $2`

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx, releaseQ, id, owner); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})

	if err != nil {
		return fmt.Errorf("release commitments: %w", mapStoreError(err))
	}
	return nil
}

func (r *repo) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	q := `
		UPDATE commitments
		SET reminder_sent = true, reminder_sent_at = $2
		WHERE id = $1 AND reminder_sent = false AND fulfilled = false`

	ok, err := repository.ExecAffected(ctx, r.db, q, id, at)
	if err != nil {
		return false, fmt.Errorf("mark reminder sent: %w", mapStoreError(err))
	}
	return ok, nil
}

func (r *repo) MarkOverdue(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	q := `
		UPDATE commitments
		SET overdue = true, overdue_at = $2
		WHERE id = $1 AND overdue = false AND fulfilled = false AND deadline < $2`

	ok, err := repository.ExecAffected(ctx, r.db, q, id, at)
	if err != nil {
		return false, fmt.Errorf("mark overdue: %w", mapStoreError(err))
	}
	return ok, nil
}

func (r *repo) MarkEscalated(ctx context.Context, ids []uuid.UUID, at time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	q := `
		UPDATE commitments
		SET escalated = true, escalated_at = $2
		WHERE id = $1 AND escalated = false AND fulfilled = false AND deadline < $2`

	n, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (int, error) {
		n := 0
		for _, id := range ids {
			ok, err := repository.ExecAffected(ctx, tx, q, id, at)
			if err != nil {
				return 0, err
			}
			if ok {
				n++
			}
		}
		return n, nil
	})

	if err != nil {
		return 0, fmt.Errorf("mark escalated: %w", mapStoreError(err))
	}
	return n, nil
}

func (r *repo) MarkFulfilled(ctx context.Context, id uuid.UUID, at time.Time) (*Commitment, error) {
	fulfillQ := `
		UPDATE commitments
		SET fulfilled = true, fulfilled_at = $2, overdue = false
		WHERE id = $1 AND fulfilled = false`

	findQ, findArgs := query.NewBuilder(projection).BuildSingle("ID", id)

	var changed bool
	c, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Commitment, error) {
		ok, err := repository.ExecAffected(ctx, tx, fulfillQ, id, at)
		if err != nil {
			return Commitment{}, err
		}
		changed = ok
		return repository.QueryOne(ctx, tx, findQ, findArgs, scanCommitment)
	})

	if err != nil {
		return nil, mapStoreError(err)
	}

	if changed {
		r.logger.Info("commitment fulfilled", "id", id, "agent_id", c.AgentID)
	}
	return &c, nil
}

func (r *repo) SetDeadline(ctx context.Context, id uuid.UUID, deadline time.Time) (*Commitment, error) {
	updateQ := `
		UPDATE commitments
		SET deadline = $2
		WHERE id = $1 AND fulfilled = false AND overdue = false AND escalated = false`

	findQ, findArgs := query.NewBuilder(projection).BuildSingle("ID", id)

	c, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Commitment, error) {
		ok, err := repository.ExecAffected(ctx, tx, updateQ, id, deadline)
		if err != nil {
			return Commitment{}, err
		}

		c, err := repository.QueryOne(ctx, tx, findQ, findArgs, scanCommitment)
		if err != nil {
			return Commitment{}, err
		}
		if !ok {
			return Commitment{}, ErrClosed
		}
		return c, nil
	})

	if err != nil {
		if errors.Is(err, ErrClosed) {
			return nil, err
		}
		return nil, mapStoreError(err)
	}

	r.logger.Info("commitment deadline set", "id", id, "deadline", deadline)
	return &c, nil
}

func (r *repo) Stats(ctx context.Context, since, until time.Time) (Stats, error) {
	q := `
		SELECT
			COUNT(*) FILTER (WHERE created_at >= $1 AND created_at < $2),
			COUNT(*) FILTER (WHERE reminder_sent_at >= $1 AND reminder_sent_at < $2),
			COUNT(*) FILTER (WHERE escalated_at >= $1 AND escalated_at < $2),
			COUNT(*) FILTER (WHERE fulfilled_at >= $1 AND fulfilled_at < $2),
			COUNT(*) FILTER (WHERE fulfilled = false AND (overdue = true OR deadline < $2))
		FROM commitments`

	s := Stats{Since: since, Until: until}
	err := r.db.QueryRowContext(ctx, q, since, until).Scan(
		&s.Created,
		&s.RemindersSent,
		&s.Escalated,
		&s.Fulfilled,
		&s.OpenOverdue,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", mapStoreError(err))
	}
	return s, nil
}

func (r *repo) ClaimDay(ctx context.Context, job, day string) (bool, error) {
	q := `
		INSERT INTO scheduler_checkpoints(job, last_day, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (job) DO UPDATE
		SET last_day = EXCLUDED.last_day, updated_at = EXCLUDED.updated_at
		WHERE scheduler_checkpoints.last_day < EXCLUDED.last_day`

	ok, err := repository.ExecAffected(ctx, r.db, q, job, day)
	if err != nil {
		return false, fmt.Errorf("claim %s checkpoint: %w", job, mapStoreError(err))
	}
	return ok, nil
}

func (r *repo) LastDay(ctx context.Context, job string) (string, error) {
	var day string
	err := r.db.QueryRowContext(ctx,
		"SELECT last_day FROM scheduler_checkpoints WHERE job = $1",
		job,
	).Scan(&day)

	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s checkpoint: %w", job, mapStoreError(err))
	}
	return day, nil
}

// prepare validates a new commitment and fills its identity and defaults.
func prepare(c *Commitment) error {
	if c.CallID == "" || c.AgentID == "" || c.Text == "" {
		return fmt.Errorf("%w: call_id, agent_id and text are required", ErrInvalidInput)
	}

	if c.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate commitment id: %w", err)
		}
		c.ID = id
	}

	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.ReferenceTime.IsZero() {
		c.ReferenceTime = c.CreatedAt
	}
	if c.Category == "" {
		c.Category = CategoryOther
	}
	if c.Priority == "" {
		c.Priority = PriorityLow
	}

	c.Fulfilled, c.FulfilledAt = false, nil
	c.Overdue, c.OverdueAt = false, nil
	c.ReminderSent, c.ReminderSentAt = false, nil
	c.Escalated, c.EscalatedAt = false, nil
	return nil
}
