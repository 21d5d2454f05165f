package notify

import (
	"log/slog"

	"github.com/JaimeStill/pledge/pkg/lifecycle"
)

// System holds the configured sink and directory.
type System struct {
	Sink      Sink
	Directory Directory

	closers []func() error
	logger  *slog.Logger
}

// Open builds the sink and directory selected by cfg.
func Open(cfg *Config, logger *slog.Logger) (*System, error) {
	s := &System{logger: logger.With("system", "notify")}

	switch cfg.Sink {
	case SinkNATS:
		sink, err := NewNATSSink(&cfg.NATS, logger)
		if err != nil {
			return nil, err
		}
		s.Sink = sink
		s.closers = append(s.closers, sink.Close)
	default:
		s.Sink = NewLogSink(logger)
	}

	switch cfg.Directory.Kind {
	case DirectoryRedis:
		dir := NewRedisDirectory(&cfg.Directory.Redis)
		s.Directory = dir
		s.closers = append(s.closers, dir.Close)
	default:
		s.Directory = NewStaticDirectory(cfg.Directory.Managers)
	}

	s.logger.Info("notify configured", "sink", cfg.Sink, "directory", cfg.Directory.Kind)
	return s, nil
}

// Start registers a shutdown hook that closes the sink and directory
// connections.
func (s *System) Start(lc *lifecycle.Coordinator) error {
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		s.Close()
	})
	return nil
}

// Close releases the underlying connections.
func (s *System) Close() {
	for _, fn := range s.closers {
		if err := fn(); err != nil {
			s.logger.Error("notify close failed", "error", err)
		}
	}
	s.closers = nil
}
