package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/port/usecases_port"

	"github.com/eliyaaki/todo-micro-services/pkg/contextkeys"
	"github.com/eliyaaki/todo-micro-services/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublishAll struct {
	mu     sync.Mutex
	calls  int
	traces []string
	err    error
	onCall func(ctx context.Context)
}

func (f *fakePublishAll) Execute(ctx context.Context) (usecases_port.PublishReport, error) {
	f.mu.Lock()
	f.calls++
	f.traces = append(f.traces, contextkeys.TraceIDFromContext(ctx))
	onCall := f.onCall
	f.mu.Unlock()

	if onCall != nil {
		onCall(ctx)
	}
	return usecases_port.PublishReport{Total: 1, Published: 1}, f.err
}

func (f *fakePublishAll) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestNextBoundary(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 30, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 1, 0, 0, time.UTC), nextBoundary(at, time.Minute))

	onBoundary := time.Date(2024, 5, 1, 12, 1, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 2, 0, 0, time.UTC), nextBoundary(onBoundary, time.Minute))
}

func TestNewIntervalScheduler_Validation(t *testing.T) {
	_, err := NewIntervalScheduler(0, &fakePublishAll{}, logger.NewNoopLogger())
	assert.Error(t, err)
	_, err = NewIntervalScheduler(time.Second, nil, logger.NewNoopLogger())
	assert.Error(t, err)
}

func TestIntervalScheduler_TicksUntilCancelled(t *testing.T) {
	uc := &fakePublishAll{err: errors.New("store down")}
	rec := logger.NewRecorder()
	s, err := NewIntervalScheduler(10*time.Millisecond, uc, rec)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	assert.Eventually(t, func() bool { return uc.Calls() >= 3 }, 2*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	calls := uc.Calls()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, uc.Calls(), "no ticks after stop")

	uc.mu.Lock()
	assert.NotEqual(t, uc.traces[0], uc.traces[1], "every tick has its own trace id")
	uc.mu.Unlock()
	assert.NotEqual(t, -1, rec.Index("Scheduled publish failed, waiting for next tick"))
}

func TestIntervalScheduler_InFlightTickCompletes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var tickErr error
	finished := false
	uc := &fakePublishAll{}
	uc.onCall = func(tickCtx context.Context) {
		cancel()
		time.Sleep(10 * time.Millisecond)
		tickErr = tickCtx.Err()
		finished = true
	}

	s, err := NewIntervalScheduler(5*time.Millisecond, uc, logger.NewNoopLogger())
	require.NoError(t, err)

	require.NoError(t, s.Start(ctx))
	assert.True(t, finished)
	assert.NoError(t, tickErr)
	assert.Equal(t, 1, uc.Calls())
}
