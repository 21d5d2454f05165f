package notify

import "errors"

var (
	// ErrDispatchFailed reports that a notification was not delivered.
	// Callers keep the commitment eligible so the next run retries it.
	ErrDispatchFailed = errors.New("dispatch failed")
	// ErrNoManager reports that the directory has no manager for an agent.
	ErrNoManager = errors.New("no manager for agent")
)
