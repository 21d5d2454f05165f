// Package tracker runs the ingest pipeline: it extracts commitments from a
// call transcript, resolves their deadlines, classifies their priority and
// persists them.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/pledge/internal/commitments"
	"github.com/JaimeStill/pledge/internal/deadline"
	"github.com/JaimeStill/pledge/internal/extraction"
	"github.com/JaimeStill/pledge/internal/metrics"
	"github.com/JaimeStill/pledge/internal/priority"
	"github.com/JaimeStill/pledge/pkg/storage"
)

// Extractor finds candidate commitments in a transcript.
type Extractor interface {
	Extract(ctx context.Context, transcript, callID, dealID, agentID string) ([]extraction.RawCommitment, error)
}

// Transcripts reads transcript text stored under a blob key.
type Transcripts interface {
	ReadText(ctx context.Context, key string) (string, error)
}

// Runtime carries the collaborators the pipeline needs. Transcripts may be
// nil when blob storage is disabled; Metrics may be nil.
type Runtime struct {
	Store       commitments.Store
	Extractor   Extractor
	Resolver    *deadline.Resolver
	Classifier  *priority.Classifier
	Transcripts Transcripts
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// Tracker implements commitments.Ingester.
type Tracker struct {
	rt     Runtime
	logger *slog.Logger
}

// New creates a Tracker from rt.
func New(rt Runtime) *Tracker {
	return &Tracker{
		rt:     rt,
		logger: rt.Logger.With("system", "tracker"),
	}
}

// Ingest stores the commitments found in the command's transcript and
// returns them. Re-ingesting a call skips commitments already stored for it.
// A failed extraction is logged and yields an empty result.
func (t *Tracker) Ingest(ctx context.Context, cmd commitments.IngestCommand) ([]commitments.Commitment, error) {
	transcript, err := t.transcript(ctx, cmd)
	if err != nil {
		return nil, err
	}

	raw, err := t.rt.Extractor.Extract(ctx, transcript, cmd.CallID, cmd.DealID, cmd.AgentID)
	if err != nil {
		if errors.Is(err, extraction.ErrExtractionFailed) {
			t.rt.Metrics.ExtractionFailed()
			t.logger.Warn("extraction failed", "call_id", cmd.CallID, "error", err)
			return []commitments.Commitment{}, nil
		}
		return nil, err
	}

	created := make([]commitments.Commitment, 0, len(raw))
	for _, r := range raw {
		c := t.build(r, cmd.ReferenceTime)

		if err := t.rt.Store.Create(ctx, &c); err != nil {
			if errors.Is(err, commitments.ErrDuplicate) {
				t.logger.Debug("commitment already stored", "call_id", c.CallID, "text", c.Text)
				continue
			}
			return created, fmt.Errorf("store commitment for call %s: %w", c.CallID, err)
		}

		t.rt.Metrics.Created(string(c.Category), string(c.Priority))
		created = append(created, c)
	}

	t.logger.Info("transcript ingested",
		"call_id", cmd.CallID,
		"agent_id", cmd.AgentID,
		"candidates", len(raw),
		"created", len(created),
	)
	return created, nil
}

func (t *Tracker) build(r extraction.RawCommitment, ref time.Time) commitments.Commitment {
	c := commitments.Commitment{
		CallID:         r.CallID,
		DealID:         r.DealID,
		AgentID:        r.AgentID,
		Text:           r.Text,
		Category:       r.Category,
		DeadlinePhrase: r.DeadlinePhrase,
		ReferenceTime:  ref,
	}

	if d, ok := t.rt.Resolver.Resolve(r.DeadlinePhrase, ref); ok {
		c.Deadline = &d
	} else if r.DeadlinePhrase != "" {
		t.logger.Debug("deadline unresolved", "call_id", r.CallID, "phrase", r.DeadlinePhrase)
	}

	c.Priority = t.rt.Classifier.Classify(c.Category, c.Deadline, ref, c.Text)
	return c
}

func (t *Tracker) transcript(ctx context.Context, cmd commitments.IngestCommand) (string, error) {
	if cmd.TranscriptKey == "" {
		return cmd.Transcript, nil
	}
	if t.rt.Transcripts == nil {
		return "", fmt.Errorf("%w: transcript_key: %w", commitments.ErrInvalidInput, storage.ErrDisabled)
	}

	text, err := t.rt.Transcripts.ReadText(ctx, cmd.TranscriptKey)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound),
			errors.Is(err, storage.ErrEmptyKey),
			errors.Is(err, storage.ErrInvalidKey),
			errors.Is(err, storage.ErrTooLarge):
			return "", fmt.Errorf("%w: transcript_key %s: %w", commitments.ErrInvalidInput, cmd.TranscriptKey, err)
		}
		return "", fmt.Errorf("read transcript %s: %w", cmd.TranscriptKey, err)
	}
	return text, nil
}
