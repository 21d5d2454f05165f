// Package lifecycle coordinates startup, readiness, background workers, and
// graceful shutdown for long-running subsystems.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ReadinessChecker reports whether a subsystem is ready to serve traffic.
type ReadinessChecker interface {
	Ready() bool
}

// Coordinator manages startup and shutdown hooks for the application lifecycle.
// Workers registered with Go receive the coordinator context. Shutdown waits
// for every worker to return before any shutdown hook runs, so the resources
// the hooks release stay usable until in-flight work completes.
type Coordinator struct {
	ctx        context.Context
	cancel     context.CancelFunc
	startedAt  time.Time
	startupWg  sync.WaitGroup
	workerWg   sync.WaitGroup
	shutdownWg sync.WaitGroup
	started    chan struct{}
	startOnce  sync.Once
	drained    chan struct{}
	drainOnce  sync.Once
}

// New creates a Coordinator with a cancellable context.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		ctx:       ctx,
		cancel:    cancel,
		startedAt: time.Now(),
		started:   make(chan struct{}),
		drained:   make(chan struct{}),
	}
}

// Context returns the coordinator's context, cancelled on shutdown.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// StartedAt returns the time the coordinator was created.
func (c *Coordinator) StartedAt() time.Time {
	return c.startedAt
}

// OnStartup registers a function to run concurrently during startup.
func (c *Coordinator) OnStartup(fn func()) {
	c.startupWg.Go(fn)
}

// OnShutdown registers a function to run concurrently during shutdown, after
// all workers have returned.
// Shutdown hooks should block on <-c.Context().Done() before executing cleanup.
func (c *Coordinator) OnShutdown(fn func()) {
	c.shutdownWg.Go(func() {
		<-c.drained
		fn()
	})
}

// Go runs fn as a background worker bound to the coordinator context.
// Shutdown waits for fn to return, so workers should finish their current
// unit of work and exit once the context is cancelled.
func (c *Coordinator) Go(fn func(ctx context.Context)) {
	c.workerWg.Go(func() {
		fn(c.ctx)
	})
}

// Drained returns a channel closed once shutdown has begun and every worker
// has returned.
func (c *Coordinator) Drained() <-chan struct{} {
	return c.drained
}

// Started returns a channel closed once all startup hooks have completed.
func (c *Coordinator) Started() <-chan struct{} {
	return c.started
}

// Ready returns true after all startup hooks have completed.
func (c *Coordinator) Ready() bool {
	select {
	case <-c.started:
		return true
	default:
		return false
	}
}

// WaitForStartup blocks until all startup hooks have completed and marks the
// coordinator ready.
func (c *Coordinator) WaitForStartup() {
	c.startupWg.Wait()
	c.startOnce.Do(func() {
		close(c.started)
	})
}

// Shutdown cancels the context, waits for workers to return, then releases
// the shutdown hooks and waits for them, all within the given timeout.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.workerWg.Wait()
		c.drainOnce.Do(func() {
			close(c.drained)
		})
		c.shutdownWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timeout after %v", timeout)
	}
}
