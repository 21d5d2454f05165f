package commitments

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/pledge/pkg/pagination"
	"github.com/JaimeStill/pledge/pkg/query"
)

type lease struct {
	owner   string
	expires time.Time
}

type memory struct {
	mu          sync.Mutex
	items       map[uuid.UUID]*Commitment
	order       []uuid.UUID
	leases      map[uuid.UUID]lease
	checkpoints map[string]string
	logger      *slog.Logger
	pagination  pagination.Config
}

// NewMemory creates an in-process Store with the same transition semantics
// as the Postgres store. State is lost when the process exits.
func NewMemory(logger *slog.Logger, pagination pagination.Config) Store {
	return &memory{
		items:       make(map[uuid.UUID]*Commitment),
		leases:      make(map[uuid.UUID]lease),
		checkpoints: make(map[string]string),
		logger:      logger.With("system", "commitments", "store", "memory"),
		pagination:  pagination,
	}
}

func (m *memory) Create(_ context.Context, c *Commitment) error {
	if err := prepare(c); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[c.ID]; ok {
		return ErrDuplicate
	}
	for _, id := range m.order {
		existing := m.items[id]
		if existing.CallID == c.CallID && existing.Text == c.Text {
			return ErrDuplicate
		}
	}

	stored := clone(*c)
	m.items[c.ID] = &stored
	m.order = append(m.order, c.ID)

	m.logger.Info("commitment created",
		"id", c.ID,
		"call_id", c.CallID,
		"agent_id", c.AgentID,
		"priority", c.Priority,
	)
	return nil
}

func (m *memory) Find(_ context.Context, id uuid.UUID) (*Commitment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := clone(*c)
	return &out, nil
}

func (m *memory) List(
	_ context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Commitment], error) {
	page.Normalize(m.pagination)
	now := time.Now()

	var search string
	if page.Search != nil {
		search = strings.ToLower(*page.Search)
	}

	matched := m.selectWhere(func(c *Commitment) bool {
		if !filters.Match(c, now) {
			return false
		}
		if search == "" {
			return true
		}
		return strings.Contains(strings.ToLower(c.Text), search) ||
			strings.Contains(strings.ToLower(c.DeadlinePhrase), search)
	})

	sortFields := page.Sort
	if len(sortFields) == 0 {
		sortFields = []query.SortField{defaultSort}
	}
	slices.SortStableFunc(matched, func(a, b Commitment) int {
		for _, f := range sortFields {
			r := compareField(a, b, f.Field)
			if f.Descending {
				r = -r
			}
			if r != 0 {
				return r
			}
		}
		return 0
	})

	total := len(matched)
	start := min(page.Offset(), total)
	end := min(start+page.PageSize, total)

	result := pagination.NewPageResult(matched[start:end], total, page.Page, page.PageSize)
	return &result, nil
}

func (m *memory) DueForReminder(_ context.Context, now time.Time, lead time.Duration) ([]Commitment, error) {
	limit := now.Add(lead)
	return m.scan(func(c *Commitment) bool {
		return !c.Fulfilled && !c.ReminderSent && c.Deadline != nil &&
			c.Deadline.After(now) && !c.Deadline.After(limit)
	}), nil
}

func (m *memory) OverdueUnmarked(_ context.Context, now time.Time) ([]Commitment, error) {
	return m.scan(func(c *Commitment) bool {
		return !c.Overdue && c.PastDeadline(now)
	}), nil
}

func (m *memory) OverdueUnescalated(_ context.Context, now time.Time) ([]Commitment, error) {
	return m.scan(func(c *Commitment) bool {
		return !c.Escalated && c.PastDeadline(now)
	}), nil
}

func (m *memory) scan(pred func(*Commitment) bool) []Commitment {
	items := m.selectWhere(pred)
	slices.SortStableFunc(items, func(a, b Commitment) int {
		return compareField(a, b, deadlineSort.Field)
	})
	if len(items) > scanLimit {
		items = items[:scanLimit]
	}
	return items
}

func (m *memory) selectWhere(pred func(*Commitment) bool) []Commitment {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Commitment, 0)
	for _, id := range m.order {
		if c := m.items[id]; pred(c) {
			out = append(out, clone(*c))
		}
	}
	return out
}

func (m *memory) Claim(
	_ context.Context,
	ids []uuid.UUID,
	owner string,
	now time.Time,
	ttl time.Duration,
) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	won := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := m.items[id]; !ok {
			continue
		}
		if l, held := m.leases[id]; held && l.owner != owner && l.expires.After(now) {
			continue
		}
		m.leases[id] = lease{owner: owner, expires: now.Add(ttl)}
		won = append(won, id)
	}
	return won, nil
}

func (m *memory) Release(_ context.Context, ids []uuid.UUID, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		if l, ok := m.leases[id]; ok && l.owner == owner {
			delete(m.leases, id)
		}
	}
	return nil
}

func (m *memory) MarkReminderSent(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	return m.transition(id, func(c *Commitment) bool {
		if c.ReminderSent || c.Fulfilled {
			return false
		}
		c.ReminderSent, c.ReminderSentAt = true, &at
		return true
	}), nil
}

func (m *memory) MarkOverdue(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	return m.transition(id, func(c *Commitment) bool {
		if c.Overdue || !c.PastDeadline(at) {
			return false
		}
		c.Overdue, c.OverdueAt = true, &at
		return true
	}), nil
}

func (m *memory) MarkEscalated(_ context.Context, ids []uuid.UUID, at time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, id := range ids {
		c, ok := m.items[id]
		if !ok || c.Escalated || !c.PastDeadline(at) {
			continue
		}
		c.Escalated, c.EscalatedAt = true, &at
		n++
	}
	return n, nil
}

func (m *memory) MarkFulfilled(_ context.Context, id uuid.UUID, at time.Time) (*Commitment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}

	if !c.Fulfilled {
		c.Fulfilled, c.FulfilledAt = true, &at
		c.Overdue = false
		m.logger.Info("commitment fulfilled", "id", id, "agent_id", c.AgentID)
	}

	out := clone(*c)
	return &out, nil
}

func (m *memory) SetDeadline(_ context.Context, id uuid.UUID, deadline time.Time) (*Commitment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	if c.Fulfilled || c.Overdue || c.Escalated {
		return nil, ErrClosed
	}

	c.Deadline = &deadline
	m.logger.Info("commitment deadline set", "id", id, "deadline", deadline)

	out := clone(*c)
	return &out, nil
}

func (m *memory) Stats(_ context.Context, since, until time.Time) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	in := func(t *time.Time) bool {
		return t != nil && !t.Before(since) && t.Before(until)
	}

	s := Stats{Since: since, Until: until}
	for _, c := range m.items {
		if in(&c.CreatedAt) {
			s.Created++
		}
		if in(c.ReminderSentAt) {
			s.RemindersSent++
		}
		if in(c.EscalatedAt) {
			s.Escalated++
		}
		if in(c.FulfilledAt) {
			s.Fulfilled++
		}
		if !c.Fulfilled && (c.Overdue || c.PastDeadline(until)) {
			s.OpenOverdue++
		}
	}
	return s, nil
}

func (m *memory) ClaimDay(_ context.Context, job, day string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if last, ok := m.checkpoints[job]; ok && last >= day {
		return false, nil
	}
	m.checkpoints[job] = day
	return true, nil
}

func (m *memory) LastDay(_ context.Context, job string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkpoints[job], nil
}

func (m *memory) transition(id uuid.UUID, apply func(*Commitment) bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.items[id]
	if !ok {
		return false
	}
	return apply(c)
}

func clone(c Commitment) Commitment {
	c.Deadline = clonePtr(c.Deadline)
	c.FulfilledAt = clonePtr(c.FulfilledAt)
	c.OverdueAt = clonePtr(c.OverdueAt)
	c.ReminderSentAt = clonePtr(c.ReminderSentAt)
	c.EscalatedAt = clonePtr(c.EscalatedAt)
	return c
}

func clonePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// compareField orders commitments by a projection field name. Unknown
// fields compare equal. Nil deadlines sort last.
func compareField(a, b Commitment, field string) int {
	switch field {
	case "Deadline":
		switch {
		case a.Deadline == nil && b.Deadline == nil:
			return 0
		case a.Deadline == nil:
			return 1
		case b.Deadline == nil:
			return -1
		}
		return a.Deadline.Compare(*b.Deadline)
	case "CreatedAt":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "ReferenceTime":
		return a.ReferenceTime.Compare(b.ReferenceTime)
	case "Priority":
		return cmp.Compare(priorityRank(a.Priority), priorityRank(b.Priority))
	case "AgentID":
		return cmp.Compare(a.AgentID, b.AgentID)
	case "Category":
		return cmp.Compare(a.Category, b.Category)
	case "Text":
		return cmp.Compare(a.Text, b.Text)
	}
	return 0
}

func priorityRank(p Priority) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	}
	return 2
}
