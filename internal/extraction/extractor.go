// Package extraction turns call transcripts into candidate commitments by
// delegating language understanding to an Inferer and tolerantly parsing
// its output.
package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/JaimeStill/pledge/internal/commitments"
	"github.com/JaimeStill/pledge/pkg/formatting"
)

// ErrExtractionFailed reports that the inference call failed or its output
// could not be parsed into candidates. It is non-fatal to callers.
var ErrExtractionFailed = errors.New("extraction failed")

// RawCommitment is a candidate promise before deadline resolution and
// priority classification.
type RawCommitment struct {
	CallID         string
	DealID         string
	AgentID        string
	Text           string
	Category       commitments.Category
	RawCategory    string
	DeadlinePhrase string
}

type candidate struct {
	Text           string `json:"text" validate:"required,max=2000"`
	Category       string `json:"category" validate:"max=128"`
	Deadline       string `json:"deadline" validate:"max=256"`
	DeadlinePhrase string `json:"deadline_phrase" validate:"max=256"`
}

func (c candidate) phrase() string {
	if c.Deadline != "" {
		return c.Deadline
	}
	return c.DeadlinePhrase
}

type envelope struct {
	Commitments *[]candidate `json:"commitments"`
}

// Extractor produces candidate commitments from a transcript.
type Extractor struct {
	inferer   Inferer
	prompt    string
	timeout   time.Duration
	minLength int
	maxChars  int
	maxItems  int
	validate  *validator.Validate
	logger    *slog.Logger
}

// New creates an Extractor using inferer and the limits in cfg.
func New(inferer Inferer, cfg *Config, logger *slog.Logger) *Extractor {
	return &Extractor{
		inferer:   inferer,
		prompt:    Prompt,
		timeout:   cfg.TimeoutDuration(),
		minLength: cfg.MinTranscriptLength,
		maxChars:  cfg.MaxTranscriptChars,
		maxItems:  cfg.MaxCandidates,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger.With("system", "extraction"),
	}
}

// Extract returns the commitments found in transcript. Transcripts shorter
// than the configured minimum yield nil without calling the inferer. Any
// inference or parse failure yields nil and an error wrapping
// ErrExtractionFailed.
func (e *Extractor) Extract(
	ctx context.Context,
	transcript, callID, dealID, agentID string,
) ([]RawCommitment, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" || utf8.RuneCountInString(transcript) < e.minLength {
		e.logger.Debug("transcript below minimum length, skipping", "call_id", callID)
		return nil, nil
	}

	input := formatting.Truncate(transcript, e.maxChars)
	if len(input) < len(transcript) {
		e.logger.Warn("transcript truncated",
			"call_id", callID,
			"max_chars", e.maxChars,
		)
	}

	inferCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	out, err := e.inferer.Infer(inferCtx, e.prompt, input)
	if err != nil {
		return nil, fmt.Errorf("%w: infer call %s: %v", ErrExtractionFailed, callID, err)
	}

	candidates, err := e.parse(out)
	if err != nil {
		return nil, fmt.Errorf("%w: call %s: %v", ErrExtractionFailed, callID, err)
	}

	result := make([]RawCommitment, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))

	for _, c := range candidates {
		text := strings.TrimSpace(c.Text)
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}

		if len(result) == e.maxItems {
			e.logger.Warn("candidate cap reached", "call_id", callID, "max_candidates", e.maxItems)
			break
		}

		result = append(result, RawCommitment{
			CallID:         callID,
			DealID:         dealID,
			AgentID:        agentID,
			Text:           text,
			Category:       commitments.ParseCategory(c.Category),
			RawCategory:    c.Category,
			DeadlinePhrase: strings.TrimSpace(c.phrase()),
		})
	}

	e.logger.Info("commitments extracted",
		"call_id", callID,
		"candidates", len(candidates),
		"kept", len(result),
		"duration", time.Since(start),
	)
	return result, nil
}

// parse accepts a bare candidate array or an object with a commitments
// array, optionally wrapped in code fences or prose. Candidates failing
// validation are dropped; a non-empty list with no valid candidate fails.
func (e *Extractor) parse(out string) ([]candidate, error) {
	raw, err := formatting.Parse[json.RawMessage](out)
	if err != nil {
		return nil, err
	}

	var list []candidate
	switch first(raw) {
	case '[':
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("decode candidate array: %w", err)
		}
	case '{':
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("decode candidate object: %w", err)
		}
		if env.Commitments == nil {
			return nil, fmt.Errorf("object has no commitments field")
		}
		list = *env.Commitments
	default:
		return nil, fmt.Errorf("expected a JSON array or object")
	}

	valid := make([]candidate, 0, len(list))
	for i, c := range list {
		c.Text = strings.TrimSpace(c.Text)
		if err := e.validate.Struct(c); err != nil {
			e.logger.Debug("candidate rejected", "index", i, "error", err)
			continue
		}
		valid = append(valid, c)
	}

	if len(list) > 0 && len(valid) == 0 {
		return nil, fmt.Errorf("none of %d candidates passed validation", len(list))
	}
	return valid, nil
}

func first(raw json.RawMessage) byte {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}
