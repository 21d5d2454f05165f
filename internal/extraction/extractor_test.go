package extraction_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/pledge/internal/commitments"
	"github.com/JaimeStill/pledge/internal/extraction"
)

const transcript = `Менеджер: Добрый день! Клиент: Здравствуйте, нам нужен договор и счёт.
Менеджер: Договор пришлю завтра до 18:00, а счёт выставлю сегодня. Перезвоню вам в пятницу.`

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func config(t *testing.T) *extraction.Config {
	t.Helper()
	cfg := &extraction.Config{Timeout: "1s"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func reply(out string) extraction.Inferer {
	return extraction.InfererFunc(func(context.Context, string, string) (string, error) {
		return out, nil
	})
}

func TestExtractShapes(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want []string
	}{
		{
			name: "bare array",
			out:  `[{"text":"пришлю договор","category":"document","deadline":"завтра до 18:00"}]`,
			want: []string{"пришлю договор"},
		},
		{
			name: "envelope",
			out:  `{"commitments":[{"text":"перезвоню","category":"call","deadline":"в пятницу"}]}`,
			want: []string{"перезвоню"},
		},
		{
			name: "fenced",
			out:  "```json\n{\"commitments\":[{\"text\":\"выставлю счёт\",\"category\":\"документ\"}]}\n```",
			want: []string{"выставлю счёт"},
		},
		{
			name: "embedded in prose",
			out:  `Вот что я нашёл: {"commitments":[{"text":"пришлю КП","deadline_phrase":"сегодня"}]} Надеюсь, помог.`,
			want: []string{"пришлю КП"},
		},
		{
			name: "empty envelope",
			out:  `{"commitments":[]}`,
			want: []string{},
		},
		{
			name: "duplicates trimmed",
			out:  `[{"text":"пришлю договор"},{"text":"  пришлю договор "},{"text":"перезвоню"}]`,
			want: []string{"пришлю договор", "перезвоню"},
		},
		{
			name: "invalid candidate dropped",
			out:  `[{"text":""},{"text":"перезвоню"}]`,
			want: []string{"перезвоню"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := extraction.New(reply(tt.out), config(t), discard())
			got, err := e.Extract(context.Background(), transcript, "call-1", "deal-1", "agent-1")
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d candidates, want %d", len(got), len(tt.want))
			}
			for i, w := range tt.want {
				if got[i].Text != w {
					t.Errorf("candidate %d = %q, want %q", i, got[i].Text, w)
				}
				if got[i].CallID != "call-1" || got[i].AgentID != "agent-1" || got[i].DealID != "deal-1" {
					t.Errorf("provenance not copied: %+v", got[i])
				}
			}
		})
	}
}

func TestExtractFieldMapping(t *testing.T) {
	out := `[
		{"text":"пришлю договор","category":"Документы","deadline":" завтра до 18:00 "},
		{"text":"перезвоню","category":"call"},
		{"text":"что-то сделаю","category":"misc"}
	]`
	e := extraction.New(reply(out), config(t), discard())

	got, err := e.Extract(context.Background(), transcript, "c", "d", "a")
	if err != nil {
		t.Fatal(err)
	}

	want := []struct {
		category commitments.Category
		phrase   string
	}{
		{commitments.CategoryDocument, "завтра до 18:00"},
		{commitments.CategoryCall, ""},
		{commitments.CategoryOther, ""},
	}
	for i, w := range want {
		if got[i].Category != w.category || got[i].DeadlinePhrase != w.phrase {
			t.Errorf("candidate %d = %s %q, want %s %q", i, got[i].Category, got[i].DeadlinePhrase, w.category, w.phrase)
		}
	}
	if got[0].RawCategory != "Документы" {
		t.Errorf("raw category = %q", got[0].RawCategory)
	}
}

func TestExtractFailsClosed(t *testing.T) {
	tests := []struct {
		name    string
		inferer extraction.Inferer
	}{
		{"prose only", reply("Обещаний не найдено.")},
		{"wrong scalar", reply(`"nothing"`)},
		{"object without commitments", reply(`{"items":[]}`)},
		{"wrong item shape", reply(`[1, 2, 3]`)},
		{"all invalid", reply(`[{"text":""},{"category":"call"}]`)},
		{"truncated json", reply(`{"commitments":[{"text":"пришлю`)},
		{"inferer error", extraction.InfererFunc(func(context.Context, string, string) (string, error) {
			return "", errors.New("connection reset")
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := extraction.New(tt.inferer, config(t), discard())
			got, err := e.Extract(context.Background(), transcript, "c", "d", "a")
			if !errors.Is(err, extraction.ErrExtractionFailed) {
				t.Errorf("error = %v, want ErrExtractionFailed", err)
			}
			if len(got) != 0 {
				t.Errorf("got %d candidates on failure", len(got))
			}
		})
	}
}

func TestExtractTimeout(t *testing.T) {
	cfg := &extraction.Config{Timeout: "20ms"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}

	slow := extraction.InfererFunc(func(ctx context.Context, _, _ string) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(5 * time.Second):
			return "[]", nil
		}
	})

	e := extraction.New(slow, cfg, discard())
	start := time.Now()
	_, err := e.Extract(context.Background(), transcript, "c", "d", "a")
	if !errors.Is(err, extraction.ErrExtractionFailed) {
		t.Errorf("error = %v, want ErrExtractionFailed", err)
	}
	if time.Since(start) > time.Second {
		t.Error("timeout not enforced")
	}
}

func TestExtractSkipsShortTranscript(t *testing.T) {
	called := false
	inf := extraction.InfererFunc(func(context.Context, string, string) (string, error) {
		called = true
		return "[]", nil
	})

	e := extraction.New(inf, config(t), discard())
	got, err := e.Extract(context.Background(), "   Алло?   ", "c", "d", "a")
	if err != nil || got != nil {
		t.Errorf("short transcript = %v, %v; want nil, nil", got, err)
	}
	if called {
		t.Error("inferer called for a short transcript")
	}
}

func TestExtractTruncatesAndCaps(t *testing.T) {
	cfg := &extraction.Config{MaxTranscriptChars: 60, MaxCandidates: 2}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}

	var seen string
	inf := extraction.InfererFunc(func(_ context.Context, prompt, in string) (string, error) {
		if prompt == "" {
			t.Error("empty prompt")
		}
		seen = in
		return `[{"text":"один"},{"text":"два"},{"text":"три"}]`, nil
	})

	e := extraction.New(inf, cfg, discard())
	got, err := e.Extract(context.Background(), strings.Repeat("ж", 500), "c", "d", "a")
	if err != nil {
		t.Fatal(err)
	}
	if n := len([]rune(seen)); n != 60 {
		t.Errorf("inferer received %d runes, want 60", n)
	}
	if len(got) != 2 {
		t.Errorf("got %d candidates, want cap of 2", len(got))
	}
}

func TestConfigFinalize(t *testing.T) {
	t.Setenv("PLEDGE_TEST_PROVIDER", "openai")
	t.Setenv("PLEDGE_TEST_MAX_CANDIDATES", "5")

	cfg := &extraction.Config{}
	err := cfg.Finalize(&extraction.Env{
		Provider:      "PLEDGE_TEST_PROVIDER",
		MaxCandidates: "PLEDGE_TEST_MAX_CANDIDATES",
	})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Provider != extraction.ProviderOpenAI || cfg.MaxCandidates != 5 {
		t.Errorf("provider=%s max_candidates=%d", cfg.Provider, cfg.MaxCandidates)
	}
	if cfg.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("base_url = %s", cfg.BaseURL)
	}
	if cfg.MinTranscriptLength != 50 || cfg.TimeoutDuration() != time.Minute {
		t.Errorf("defaults: min=%d timeout=%s", cfg.MinTranscriptLength, cfg.TimeoutDuration())
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  extraction.Config
	}{
		{"unknown provider", extraction.Config{Provider: "bard"}},
		{"bad timeout", extraction.Config{Timeout: "later"}},
		{"negative timeout", extraction.Config{Timeout: "-1s"}},
		{"max below min", extraction.Config{MinTranscriptLength: 100, MaxTranscriptChars: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Finalize(nil); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
