// Package priority assigns a priority tier to a commitment from its category,
// deadline proximity, and urgency wording.
package priority

import (
	"strings"
	"time"

	"github.com/JaimeStill/pledge/internal/commitments"
)

// Classifier is a pure, deterministic priority rule set.
type Classifier struct {
	keywords []string
	high     time.Duration
	medium   time.Duration
}

// New creates a Classifier from a finalized Config.
func New(cfg *Config) *Classifier {
	keywords := make([]string, 0, len(cfg.UrgencyKeywords))
	for _, k := range cfg.UrgencyKeywords {
		if k = normalize(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	return &Classifier{
		keywords: keywords,
		high:     cfg.HighWindowDuration(),
		medium:   cfg.MediumWindowDuration(),
	}
}

// Default returns a Classifier with the default windows and keywords.
func Default() *Classifier {
	cfg := &Config{}
	cfg.loadDefaults()
	return New(cfg)
}

// Classify returns the priority tier, evaluating the rules in order:
//
//   - high: approval or document due within the high window of ref, or
//     text containing an urgency keyword
//   - medium: due within the medium window, or a call or meeting
//   - low: everything else, including unresolved deadlines
//
// A nil deadline never counts as within a window.
func (c *Classifier) Classify(
	category commitments.Category,
	deadline *time.Time,
	ref time.Time,
	text string,
) commitments.Priority {
	switch category {
	case commitments.CategoryApproval, commitments.CategoryDocument:
		if within(deadline, ref, c.high) {
			return commitments.PriorityHigh
		}
	}

	if c.Urgent(text) {
		return commitments.PriorityHigh
	}

	if within(deadline, ref, c.medium) {
		return commitments.PriorityMedium
	}

	switch category {
	case commitments.CategoryCall, commitments.CategoryMeeting:
		return commitments.PriorityMedium
	}

	return commitments.PriorityLow
}

// Urgent reports whether text contains any urgency keyword.
func (c *Classifier) Urgent(text string) bool {
	t := normalize(text)
	for _, k := range c.keywords {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}

func within(deadline *time.Time, ref time.Time, window time.Duration) bool {
	if deadline == nil {
		return false
	}
	d := deadline.Sub(ref)
	return d >= 0 && d <= window
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "ё", "е")
	return strings.Join(strings.Fields(s), " ")
}
