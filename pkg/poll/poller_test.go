package poll

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alwanly/service-edge-controller/pkg/logger"
)

func newTestPoller(t *testing.T) Poller {
	t.Helper()
	log, err := logger.NewLoggerFromEnv("test")
	require.NoError(t, err)
	return NewPoller(log)
}

func TestPollerRunsRegisteredFuncs(t *testing.T) {
	p := newTestPoller(t)

	var fast, failing int32
	p.RegisterFetchFunc("fast", func(ctx context.Context) error {
		atomic.AddInt32(&fast, 1)
		return nil
	}, PollerConfig{Interval: 10 * time.Millisecond, RunImmediately: true})
	p.RegisterFetchFunc("failing", func(ctx context.Context) error {
		atomic.AddInt32(&failing, 1)
		return errors.New("boom")
	}, PollerConfig{Interval: 10 * time.Millisecond})

	require.NoError(t, p.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&fast) >= 3 && atomic.LoadInt32(&failing) >= 2
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, p.Stop())
	stopped := atomic.LoadInt32(&fast)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, atomic.LoadInt32(&fast))
}

func TestPollerStartTwice(t *testing.T) {
	p := newTestPoller(t)
	require.NoError(t, p.Start(context.Background()))
	defer p.Stop()

	assert.ErrorIs(t, p.Start(context.Background()), ErrAlreadyStarted)
}

func TestPollerDuplicateNamePanics(t *testing.T) {
	p := newTestPoller(t)
	fn := func(ctx context.Context) error { return nil }
	p.RegisterFetchFunc("sweep", fn, PollerConfig{Interval: time.Second})

	assert.Panics(t, func() {
		p.RegisterFetchFunc("sweep", fn, PollerConfig{Interval: time.Second})
	})
}
