package commitments

import (
	"net/url"
	"time"

	"github.com/JaimeStill/pledge/pkg/query"
	"github.com/JaimeStill/pledge/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "commitments", "c").
	Project("id", "ID").
	Project("call_id", "CallID").
	Project("deal_id", "DealID").
	Project("agent_id", "AgentID").
	Project("text", "Text").
	Project("category", "Category").
	Project("deadline_phrase", "DeadlinePhrase").
	Project("deadline", "Deadline").
	Project("reference_time", "ReferenceTime").
	Project("created_at", "CreatedAt").
	Project("priority", "Priority").
	Project("fulfilled", "Fulfilled").
	Project("fulfilled_at", "FulfilledAt").
	Project("overdue", "Overdue").
	Project("overdue_at", "OverdueAt").
	Project("reminder_sent", "ReminderSent").
	Project("reminder_sent_at", "ReminderSentAt").
	Project("escalated", "Escalated").
	Project("escalated_at", "EscalatedAt").
	OrderAs("Priority", "CASE %s WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

var deadlineSort = query.SortField{Field: "Deadline"}

// Filters contains optional filtering criteria for commitment queries.
// Nil fields are ignored. Status defaults to StatusAll.
type Filters struct {
	AgentID  *string   `json:"agent_id,omitempty"`
	DealID   *string   `json:"deal_id,omitempty"`
	CallID   *string   `json:"call_id,omitempty"`
	Category *Category `json:"category,omitempty"`
	Priority *Priority `json:"priority,omitempty"`
	Status   Status    `json:"status,omitempty"`
}

// Apply adds filter conditions to a query builder. Status conditions are
// evaluated against now.
func (f Filters) Apply(b *query.Builder, now time.Time) *query.Builder {
	b.
		WhereEquals("AgentID", f.AgentID).
		WhereEquals("DealID", f.DealID).
		WhereEquals("CallID", f.CallID).
		WhereEquals("Category", f.Category).
		WhereEquals("Priority", f.Priority)

	switch f.Status {
	case StatusPending:
		b.Where("c.fulfilled = false AND c.overdue = false AND (c.deadline IS NULL OR c.deadline >= ?)", now)
	case StatusOverdue:
		b.Where("c.fulfilled = false AND (c.overdue = true OR c.deadline < ?)", now)
	case StatusFulfilled:
		b.Where("c.fulfilled = true")
	}

	return b
}

// Match reports whether c satisfies every set filter at now.
func (f Filters) Match(c *Commitment, now time.Time) bool {
	switch {
	case f.AgentID != nil && c.AgentID != *f.AgentID:
		return false
	case f.DealID != nil && c.DealID != *f.DealID:
		return false
	case f.CallID != nil && c.CallID != *f.CallID:
		return false
	case f.Category != nil && c.Category != *f.Category:
		return false
	case f.Priority != nil && c.Priority != *f.Priority:
		return false
	}
	return c.Matches(f.Status, now)
}

// FiltersFromQuery extracts filter values from URL query parameters.
// An unknown status value is reported as ErrInvalidInput.
func FiltersFromQuery(values url.Values) (Filters, error) {
	var f Filters

	if a := values.Get("agent_id"); a != "" {
		f.AgentID = &a
	}

	if d := values.Get("deal_id"); d != "" {
		f.DealID = &d
	}

	if c := values.Get("call_id"); c != "" {
		f.CallID = &c
	}

	if c := values.Get("category"); c != "" {
		cat := ParseCategory(c)
		f.Category = &cat
	}

	if p := values.Get("priority"); p != "" {
		if pr, ok := ParsePriority(p); ok {
			f.Priority = &pr
		}
	}

	status, err := ParseStatus(values.Get("status"))
	if err != nil {
		return f, err
	}
	f.Status = status

	return f, nil
}

func scanCommitment(s repository.Scanner) (Commitment, error) {
	var c Commitment
	err := s.Scan(
		&c.ID,
		&c.CallID,
		&c.DealID,
		&c.AgentID,
		&c.Text,
		&c.Category,
		&c.DeadlinePhrase,
		&c.Deadline,
		&c.ReferenceTime,
		&c.CreatedAt,
		&c.Priority,
		&c.Fulfilled,
		&c.FulfilledAt,
		&c.Overdue,
		&c.OverdueAt,
		&c.ReminderSent,
		&c.ReminderSentAt,
		&c.Escalated,
		&c.EscalatedAt,
	)
	return c, err
}
