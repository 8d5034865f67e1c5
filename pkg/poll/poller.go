package poll

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Alwanly/service-edge-controller/pkg/logger"
	"go.uber.org/zap"
)

var ErrAlreadyStarted = errors.New("poller already started")

// poller implements the Poller interface
type poller struct {
	logger     *logger.CanonicalLogger
	mu         sync.Mutex
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	fetchFuncs map[string]MetaFunc
}

// NewPoller creates a new Poller instance
func NewPoller(log *logger.CanonicalLogger) Poller {
	return &poller{
		logger:     log.Component("poller"),
		fetchFuncs: make(map[string]MetaFunc),
	}
}

// Start launches one loop per registered func
func (p *poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for name, meta := range p.fetchFuncs {
		p.wg.Add(1)
		go p.loop(ctx, name, meta)
	}
	return nil
}

// Stop gracefully stops the poller
func (p *poller) Stop() error {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
	return nil
}

func (p *poller) loop(ctx context.Context, name string, meta MetaFunc) {
	defer p.wg.Done()

	ticker := time.NewTicker(meta.Interval)
	defer ticker.Stop()
	p.logger.Info("started polling", zap.String(logger.FieldPollName, name), zap.Duration("interval", meta.Interval))

	if meta.RunImmediately {
		p.performPoll(ctx, name, meta.FetchFunc)
	}

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("stopping poller", zap.String(logger.FieldPollName, name))
			return
		case <-ticker.C:
			p.performPoll(ctx, name, meta.FetchFunc)
		}
	}
}

// performPoll executes a single run with its own log context
func (p *poller) performPoll(ctx context.Context, name string, fn FetchFunc) {
	logCtx := logger.NewLogContext()
	ctx = logger.WithLogContext(ctx, logCtx)
	logCtx.AddField(zap.String(logger.FieldPollName, name))

	start := time.Now()
	err := fn(ctx)

	fields := append(logCtx.Fields(), zap.Duration("duration", time.Since(start)))
	if err != nil {
		p.logger.Error("poll run failed", append(fields, zap.Error(err), zap.Bool(logger.FieldSuccess, false))...)
		return
	}
	p.logger.Debug("poll run completed", append(fields, zap.Bool(logger.FieldSuccess, true))...)
}

// RegisterFetchFunc registers a fetch function with its polling configuration
func (p *poller) RegisterFetchFunc(name string, fetchFunc FetchFunc, config PollerConfig) {
	if name == "" || fetchFunc == nil || config.Interval <= 0 {
		p.logger.Error("invalid fetch function registration", zap.String(logger.FieldPollName, name))
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.fetchFuncs[name]; exists {
		panic(fmt.Sprintf("poll func %q already registered", name))
	}
	p.fetchFuncs[name] = MetaFunc{
		FetchFunc:    fetchFunc,
		PollerConfig: config,
	}
}
