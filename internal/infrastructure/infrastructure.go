// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, metrics, database, transcript storage)
// that domain systems require.
package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/pledge/internal/config"
	"github.com/JaimeStill/pledge/internal/metrics"
	"github.com/JaimeStill/pledge/pkg/database"
	"github.com/JaimeStill/pledge/pkg/lifecycle"
	"github.com/JaimeStill/pledge/pkg/storage"
)

// ErrNotReady is returned by Check before startup completes.
var ErrNotReady = errors.New("service not ready")

// Infrastructure holds the core systems required by all domain modules.
// Database is nil when commitments are kept in memory and Storage is nil
// when no transcript container is configured.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Database  database.System
	Storage   storage.System
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	return NewWithLogger(cfg, slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

// NewWithLogger is New with a caller-supplied logger.
func NewWithLogger(cfg *config.Config, logger *slog.Logger) (*Infrastructure, error) {
	infra := &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
		Metrics:   metrics.New(),
	}

	if cfg.UsesDatabase() {
		db, err := database.New(&cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		infra.Database = db
	}

	store, err := storage.New(&cfg.Storage, logger)
	switch {
	case errors.Is(err, storage.ErrDisabled):
		logger.Info("transcript storage disabled")
	case err != nil:
		return nil, fmt.Errorf("storage init failed: %w", err)
	default:
		infra.Storage = store
	}

	return infra, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if i.Database != nil {
		if err := i.Database.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("database start failed: %w", err)
		}
	}
	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
	}
	return nil
}

// Check reports whether startup finished and the database answers.
func (i *Infrastructure) Check(ctx context.Context) error {
	if !i.Lifecycle.Ready() {
		return ErrNotReady
	}
	if i.Database != nil {
		return i.Database.Check(ctx)
	}
	return nil
}
