// Package commitments implements the commitment domain for Pledge.
// It provides the commitment record, its closed category and priority
// enums, the lifecycle store (Postgres and in-memory), and the HTTP
// endpoints that expose them.
package commitments

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category is the closed set of commitment kinds.
type Category string

const (
	CategoryDocument    Category = "document"
	CategoryCall        Category = "call"
	CategoryMeeting     Category = "meeting"
	CategoryApproval    Category = "approval"
	CategoryInformation Category = "information"
	CategoryOther       Category = "other"
)

// Categories lists every category in declaration order.
var Categories = []Category{
	CategoryDocument,
	CategoryCall,
	CategoryMeeting,
	CategoryApproval,
	CategoryInformation,
	CategoryOther,
}

// categoryStems maps lowercase word stems (Russian and English) to a
// category. Labels are matched against these after the exact enum names,
// in order, so approval and meeting wording wins over the nouns they act on.
var categoryStems = []struct {
	stem     string
	category Category
}{
	{"соглас", CategoryApproval},
	{"утверд", CategoryApproval},
	{"одобр", CategoryApproval},
	{"approv", CategoryApproval},
	{"sign-off", CategoryApproval},
	{"встреч", CategoryMeeting},
	{"демо", CategoryMeeting},
	{"meet", CategoryMeeting},
	{"demo", CategoryMeeting},
	{"перезвон", CategoryCall},
	{"созвон", CategoryCall},
	{"звон", CategoryCall},
	{"call", CategoryCall},
	{"документ", CategoryDocument},
	{"договор", CategoryDocument},
	{"коммерческ", CategoryDocument},
	{"счет", CategoryDocument},
	{"презентац", CategoryDocument},
	{"отправ", CategoryDocument},
	{"пришл", CategoryDocument},
	{"doc", CategoryDocument},
	{"contract", CategoryDocument},
	{"proposal", CategoryDocument},
	{"invoice", CategoryDocument},
	{"send", CategoryDocument},
	{"информац", CategoryInformation},
	{"уточн", CategoryInformation},
	{"узна", CategoryInformation},
	{"info", CategoryInformation},
	{"answer", CategoryInformation},
	{"clarif", CategoryInformation},
}

// ParseCategory normalizes a free-text category label to the closed enum.
// Exact enum names win, then the first known stem found in the label.
// Anything else is CategoryOther.
func ParseCategory(label string) Category {
	l := strings.ToLower(strings.TrimSpace(label))
	l = strings.ReplaceAll(l, "ё", "е")

	for _, c := range Categories {
		if l == string(c) {
			return c
		}
	}

	if l == "" {
		return CategoryOther
	}

	for _, s := range categoryStems {
		if strings.Contains(l, s.stem) {
			return s.category
		}
	}

	return CategoryOther
}

// Priority is the closed set of commitment priority tiers.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority returns the priority named by s, or PriorityLow and false.
func ParsePriority(s string) (Priority, bool) {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityHigh:
		return PriorityHigh, true
	case PriorityMedium:
		return PriorityMedium, true
	case PriorityLow:
		return PriorityLow, true
	}
	return PriorityLow, false
}

// Status selects commitments by lifecycle state when listing.
type Status string

const (
	StatusAll       Status = "all"
	StatusPending   Status = "pending"
	StatusOverdue   Status = "overdue"
	StatusFulfilled Status = "fulfilled"
)

// ParseStatus accepts the listing status filters. An empty value is StatusAll.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case "", StatusAll:
		return StatusAll, nil
	case StatusPending, StatusOverdue, StatusFulfilled:
		return st, nil
	}
	return "", ErrInvalidInput
}

// Commitment is a promise an agent made to a client during a call, with
// its resolved deadline and lifecycle state.
type Commitment struct {
	ID             uuid.UUID  `json:"id"`
	CallID         string     `json:"call_id"`
	DealID         string     `json:"deal_id"`
	AgentID        string     `json:"agent_id"`
	Text           string     `json:"text"`
	Category       Category   `json:"category"`
	DeadlinePhrase string     `json:"deadline_phrase"`
	Deadline       *time.Time `json:"deadline"`
	ReferenceTime  time.Time  `json:"reference_time"`
	CreatedAt      time.Time  `json:"created_at"`
	Priority       Priority   `json:"priority"`
	Fulfilled      bool       `json:"fulfilled"`
	FulfilledAt    *time.Time `json:"fulfilled_at"`
	Overdue        bool       `json:"overdue"`
	OverdueAt      *time.Time `json:"overdue_at"`
	ReminderSent   bool       `json:"reminder_sent"`
	ReminderSentAt *time.Time `json:"reminder_sent_at"`
	Escalated      bool       `json:"escalated"`
	EscalatedAt    *time.Time `json:"escalated_at"`
}

// PastDeadline reports whether c is open and its deadline is before now.
func (c *Commitment) PastDeadline(now time.Time) bool {
	return !c.Fulfilled && c.Deadline != nil && c.Deadline.Before(now)
}

// Matches reports whether c is selected by status at now.
// Pending commitments are open and not past due. Overdue commitments are
// open and either flagged overdue or past their deadline.
func (c *Commitment) Matches(status Status, now time.Time) bool {
	switch status {
	case StatusPending:
		return !c.Fulfilled && !c.Overdue && !c.PastDeadline(now)
	case StatusOverdue:
		return !c.Fulfilled && (c.Overdue || c.PastDeadline(now))
	case StatusFulfilled:
		return c.Fulfilled
	}
	return true
}

// Stats aggregates lifecycle activity over a window for the daily summary.
type Stats struct {
	Since         time.Time `json:"since"`
	Until         time.Time `json:"until"`
	Created       int       `json:"created"`
	RemindersSent int       `json:"reminders_sent"`
	Escalated     int       `json:"escalated"`
	Fulfilled     int       `json:"fulfilled"`
	OpenOverdue   int       `json:"open_overdue"`
}

// IngestCommand carries a call transcript to extract commitments from.
// Exactly one of Transcript and TranscriptKey is set; the key names a blob
// in transcript storage.
type IngestCommand struct {
	CallID        string    `json:"call_id" validate:"required,max=128"`
	DealID        string    `json:"deal_id" validate:"max=128"`
	AgentID       string    `json:"agent_id" validate:"required,max=128"`
	ReferenceTime time.Time `json:"reference_time" validate:"required"`
	Transcript    string    `json:"transcript" validate:"required_without=TranscriptKey,excluded_with=TranscriptKey"`
	TranscriptKey string    `json:"transcript_key" validate:"required_without=Transcript,excluded_with=Transcript,max=1024"`
}

// DeadlineCommand sets a deadline by hand on a commitment.
type DeadlineCommand struct {
	Deadline time.Time `json:"deadline" validate:"required"`
}
