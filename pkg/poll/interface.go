package poll

import (
	"context"
	"time"
)

type PollerConfig struct {
	Interval time.Duration
	// RunImmediately runs the func once on Start instead of waiting a full interval
	RunImmediately bool
}

type MetaFunc struct {
	FetchFunc
	PollerConfig
}

// Poller runs registered funcs periodically until stopped
type Poller interface {
	// Start begins polling in the background
	Start(ctx context.Context) error
	// Stop gracefully stops the poller and waits for running funcs
	Stop() error
	// RegisterFetchFunc registers a periodic func; it must be called before Start
	RegisterFetchFunc(name string, fetchFunc FetchFunc, config PollerConfig)
}

// FetchFunc is a single periodic unit of work
type FetchFunc func(ctx context.Context) error
