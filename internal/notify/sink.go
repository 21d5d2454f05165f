package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// Sink delivers a message to a recipient. A nil error means the sink
// acknowledged delivery.
type Sink interface {
	Send(ctx context.Context, recipient, message string) error
}

// LogSink writes notifications to the log. It never fails.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger.With("sink", "log")}
}

func (s *LogSink) Send(_ context.Context, recipient, message string) error {
	s.logger.Info("notification", "recipient", recipient, "message", message)
	return nil
}

// NATSSink publishes each notification as a request on
// "<prefix>.<recipient>" and waits for the delivery service to reply.
// An empty reply or one starting with "error:" is a failed delivery.
type NATSSink struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

// NewNATSSink connects to the server at cfg.URL.
func NewNATSSink(cfg *NATSConfig, logger *slog.Logger) (*NATSSink, error) {
	logger = logger.With("sink", "nats")

	conn, err := nats.Connect(
		cfg.URL,
		nats.Name(cfg.Name),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", cfg.URL, err)
	}

	return &NATSSink{
		conn:   conn,
		prefix: cfg.SubjectPrefix,
		logger: logger,
	}, nil
}

func (s *NATSSink) Send(ctx context.Context, recipient, message string) error {
	subject := s.prefix + "." + subjectToken(recipient)

	msg, err := s.conn.RequestWithContext(ctx, subject, []byte(message))
	if err != nil {
		return fmt.Errorf("request %s: %w", subject, err)
	}

	reply := strings.TrimSpace(string(msg.Data))
	switch {
	case reply == "":
		return fmt.Errorf("request %s: empty reply", subject)
	case strings.HasPrefix(strings.ToLower(reply), "error:"):
		return fmt.Errorf("request %s: %s", subject, reply)
	}
	return nil
}

// Close drains the connection.
func (s *NATSSink) Close() error {
	return s.conn.Drain()
}

// subjectToken replaces characters that would split or wildcard a subject.
func subjectToken(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, s)
}
