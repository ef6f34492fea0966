package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/port"
	"github.com/eliyaaki/todo-micro-services/services/todo-service/internal/core/port/usecases_port"

	"github.com/eliyaaki/todo-micro-services/pkg/contextkeys"
	"github.com/google/uuid"
)

// IntervalScheduler runs the re-broadcast on wall-clock boundaries of the
// interval: with one minute it fires at the top of every minute.
type IntervalScheduler struct {
	interval time.Duration
	useCase  usecases_port.PublishAllTodosUseCasePort
	logger   port.LoggerPort
	now      func() time.Time
}

func NewIntervalScheduler(interval time.Duration, uc usecases_port.PublishAllTodosUseCasePort, logger port.LoggerPort) (*IntervalScheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("scheduler: interval must be positive")
	}
	if uc == nil {
		return nil, fmt.Errorf("scheduler: use case cannot be nil")
	}
	return &IntervalScheduler{
		interval: interval,
		useCase:  uc,
		logger:   logger.WithFields(port.Fields{"component": "IntervalScheduler"}),
		now:      time.Now,
	}, nil
}

// nextBoundary returns the first multiple of interval strictly after t.
func nextBoundary(t time.Time, interval time.Duration) time.Time {
	return t.Truncate(interval).Add(interval)
}

// Start blocks until ctx is cancelled. Ticks run one at a time; a tick in
// progress when ctx is cancelled is finished before Start returns.
func (s *IntervalScheduler) Start(ctx context.Context) error {
	s.logger.Info("Scheduler started", port.Fields{"interval": s.interval.String()})

	for {
		now := s.now()
		timer := time.NewTimer(nextBoundary(now, s.interval).Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("Scheduler stopped", nil)
			return nil
		case <-timer.C:
		}

		s.tick(context.WithoutCancel(ctx))
	}
}

var _ port.BackgroundJobPort = (*IntervalScheduler)(nil)

func (s *IntervalScheduler) tick(ctx context.Context) {
	traceID := uuid.New().String()
	tickLogger := s.logger.WithFields(port.Fields{"trace_id": traceID})
	ctx = contextkeys.ContextWithTraceID(ctx, traceID)
	ctx = contextkeys.ContextWithLogger(ctx, tickLogger)

	tickLogger.Info("Scheduler triggered", nil)
	report, err := s.useCase.Execute(ctx)
	if err != nil {
		tickLogger.Error("Scheduled publish failed, waiting for next tick", err, nil)
		return
	}
	if report.Failed > 0 {
		tickLogger.Warn("Some todos were not published", port.Fields{
			"failed": report.Failed,
			"total":  report.Total,
		})
	}
}
