package api

import (
	"fmt"

	"github.com/JaimeStill/pledge/internal/commitments"
	"github.com/JaimeStill/pledge/internal/config"
	"github.com/JaimeStill/pledge/internal/deadline"
	"github.com/JaimeStill/pledge/internal/extraction"
	"github.com/JaimeStill/pledge/internal/notify"
	"github.com/JaimeStill/pledge/internal/priority"
	"github.com/JaimeStill/pledge/internal/scheduler"
	"github.com/JaimeStill/pledge/internal/tracker"
	"github.com/JaimeStill/pledge/pkg/lifecycle"
)

// Domain holds all domain systems that comprise the API and its
// background jobs.
type Domain struct {
	Commitments commitments.Store
	Notify      *notify.System
	Dispatcher  *notify.Dispatcher
	Tracker     *tracker.Tracker
	Scheduler   *scheduler.Scheduler

	schedulerDisabled bool
}

// NewDomain creates all domain systems from the API runtime. The
// commitment store is Postgres when the runtime carries a database and
// in-memory otherwise.
func NewDomain(cfg *config.Config, runtime *Runtime) (*Domain, error) {
	var store commitments.Store
	if runtime.Database != nil {
		store = commitments.New(runtime.Database.Connection(), runtime.Logger, runtime.Pagination)
	} else {
		store = commitments.NewMemory(runtime.Logger, runtime.Pagination)
	}

	inferer, err := extraction.NewInferer(&cfg.Extraction)
	if err != nil {
		return nil, fmt.Errorf("extraction init failed: %w", err)
	}

	notifySystem, err := notify.Open(&cfg.Notify, runtime.Logger)
	if err != nil {
		return nil, fmt.Errorf("notify init failed: %w", err)
	}

	loc := cfg.Scheduler.Location()
	dispatcher := notify.New(notifySystem.Sink, &cfg.Notify, loc, runtime.Metrics, runtime.Logger)

	t := tracker.New(tracker.Runtime{
		Store:       store,
		Extractor:   extraction.New(inferer, &cfg.Extraction, runtime.Logger),
		Resolver:    deadline.New(&cfg.Deadline),
		Classifier:  priority.New(&cfg.Priority),
		Transcripts: runtime.Storage,
		Metrics:     runtime.Metrics,
		Logger:      runtime.Logger,
	})

	s := scheduler.New(&cfg.Scheduler, scheduler.Runtime{
		Store:            store,
		Notifier:         dispatcher,
		Directory:        notifySystem.Directory,
		SummaryRecipient: cfg.Notify.SummaryRecipient,
		Metrics:          runtime.Metrics,
		Logger:           runtime.Logger,
	})

	return &Domain{
		Commitments:       store,
		Notify:            notifySystem,
		Dispatcher:        dispatcher,
		Tracker:           t,
		Scheduler:         s,
		schedulerDisabled: cfg.Scheduler.Disabled,
	}, nil
}

// Start registers the notify connections and, unless disabled, the
// scheduler jobs with the lifecycle coordinator.
func (d *Domain) Start(lc *lifecycle.Coordinator) error {
	if err := d.Notify.Start(lc); err != nil {
		return fmt.Errorf("notify start failed: %w", err)
	}
	if d.schedulerDisabled {
		return nil
	}
	if err := d.Scheduler.Start(lc); err != nil {
		return fmt.Errorf("scheduler start failed: %w", err)
	}
	return nil
}
