package priority_test

import (
	"testing"
	"time"

	"github.com/JaimeStill/pledge/internal/commitments"
	"github.com/JaimeStill/pledge/internal/deadline"
	"github.com/JaimeStill/pledge/internal/priority"
)

var msk = time.FixedZone("MSK", 3*60*60)

func at(day, hour int) time.Time {
	return time.Date(2025, 10, day, hour, 0, 0, 0, msk)
}

func ptr(t time.Time) *time.Time { return &t }

func TestClassify(t *testing.T) {
	c := priority.Default()
	ref := at(24, 10)

	tests := []struct {
		name     string
		category commitments.Category
		deadline *time.Time
		text     string
		want     commitments.Priority
	}{
		{"approval within 24h", commitments.CategoryApproval, ptr(at(24, 18)), "согласую", commitments.PriorityHigh},
		{"document exactly 24h", commitments.CategoryDocument, ptr(at(25, 10)), "", commitments.PriorityHigh},
		{"document just past 24h", commitments.CategoryDocument, ptr(at(25, 11)), "", commitments.PriorityMedium},
		{"document within 72h", commitments.CategoryDocument, ptr(at(26, 18)), "", commitments.PriorityMedium},
		{"document beyond 72h", commitments.CategoryDocument, ptr(at(28, 18)), "", commitments.PriorityLow},
		{"urgent keyword without deadline", commitments.CategoryOther, nil, "Пришлю СРОЧНО", commitments.PriorityHigh},
		{"urgent multiword keyword", commitments.CategoryInformation, nil, "уточню сегодня   обязательно", commitments.PriorityHigh},
		{"urgent english", commitments.CategoryOther, ptr(at(30, 18)), "will send ASAP", commitments.PriorityHigh},
		{"call without deadline", commitments.CategoryCall, nil, "перезвоню", commitments.PriorityMedium},
		{"meeting far away", commitments.CategoryMeeting, ptr(at(31, 18)), "", commitments.PriorityMedium},
		{"information within 24h", commitments.CategoryInformation, ptr(at(24, 18)), "", commitments.PriorityMedium},
		{"unresolved document", commitments.CategoryDocument, nil, "пришлю договор", commitments.PriorityLow},
		{"deadline before ref", commitments.CategoryApproval, ptr(at(23, 18)), "", commitments.PriorityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.category, tt.deadline, ref, tt.text)
			if got != tt.want {
				t.Errorf("Classify = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestScenarios(t *testing.T) {
	r := deadline.Default()
	c := priority.Default()

	tests := []struct {
		name     string
		phrase   string
		ref      time.Time
		category commitments.Category
		deadline time.Time
		priority commitments.Priority
	}{
		{
			name:     "tomorrow document is medium",
			phrase:   "завтра до 18:00",
			ref:      at(24, 10),
			category: commitments.CategoryDocument,
			deadline: at(25, 18),
			priority: commitments.PriorityMedium,
		},
		{
			name:     "today approval is high",
			phrase:   "сегодня",
			ref:      at(24, 16),
			category: commitments.CategoryApproval,
			deadline: at(24, 18),
			priority: commitments.PriorityHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := r.Resolve(tt.phrase, tt.ref)
			if !ok || !d.Equal(tt.deadline) {
				t.Fatalf("Resolve(%q) = %v, %v; want %v", tt.phrase, d, ok, tt.deadline)
			}
			if got := c.Classify(tt.category, &d, tt.ref, ""); got != tt.priority {
				t.Errorf("Classify = %s, want %s", got, tt.priority)
			}
		})
	}
}

func TestCustomConfig(t *testing.T) {
	cfg := &priority.Config{
		UrgencyKeywords: []string{"  Горит  "},
		HighWindow:      "2h",
		MediumWindow:    "12h",
	}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}
	c := priority.New(cfg)
	ref := at(24, 10)

	if got := c.Classify(commitments.CategoryDocument, ptr(at(24, 18)), ref, ""); got != commitments.PriorityMedium {
		t.Errorf("8h document with 2h high window = %s, want medium", got)
	}
	if got := c.Classify(commitments.CategoryOther, nil, ref, "всё горит"); got != commitments.PriorityHigh {
		t.Errorf("custom keyword = %s, want high", got)
	}
	if got := c.Classify(commitments.CategoryOther, nil, ref, "срочно"); got != commitments.PriorityLow {
		t.Errorf("default keyword should be replaced, got %s", got)
	}
}

func TestConfigFinalize(t *testing.T) {
	t.Setenv("PLEDGE_TEST_URGENCY", "горит, fire ,")
	t.Setenv("PLEDGE_TEST_HIGH", "12h")

	cfg := &priority.Config{}
	err := cfg.Finalize(&priority.Env{
		UrgencyKeywords: "PLEDGE_TEST_URGENCY",
		HighWindow:      "PLEDGE_TEST_HIGH",
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(cfg.UrgencyKeywords) != 2 || cfg.UrgencyKeywords[1] != "fire" {
		t.Errorf("keywords = %q", cfg.UrgencyKeywords)
	}
	if cfg.HighWindowDuration() != 12*time.Hour || cfg.MediumWindowDuration() != 72*time.Hour {
		t.Errorf("windows = %s, %s", cfg.HighWindowDuration(), cfg.MediumWindowDuration())
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  priority.Config
	}{
		{"bad duration", priority.Config{HighWindow: "soon"}},
		{"medium shorter than high", priority.Config{HighWindow: "48h", MediumWindow: "24h"}},
		{"negative high", priority.Config{HighWindow: "-1h"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Finalize(nil); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestConfigMerge(t *testing.T) {
	base := &priority.Config{HighWindow: "24h", MediumWindow: "72h", UrgencyKeywords: []string{"срочно"}}
	base.Merge(&priority.Config{MediumWindow: "96h"})

	if base.HighWindow != "24h" || base.MediumWindow != "96h" || len(base.UrgencyKeywords) != 1 {
		t.Errorf("merged = %+v", base)
	}
}
