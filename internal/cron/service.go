package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/wholesale-backend/pkg/logger"
	"github.com/angelmondragon/wholesale-backend/pkg/metrics"
)

const defaultTick = time.Minute

type ServiceParams struct {
	Logger   *logger.Logger
	Schedule *Schedule
	Lock     Lock
	Metrics  *metrics.JobMetrics
	// Tick is how often the schedule is checked.
	Tick time.Duration
}

// Service checks the schedule every tick and runs due jobs while holding
// the lock.
type Service struct {
	logg     *logger.Logger
	schedule *Schedule
	lock     Lock
	metrics  *metrics.JobMetrics
	tick     time.Duration
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("cron: logger required")
	}
	if params.Lock == nil {
		return nil, errors.New("cron: lock required")
	}
	schedule := params.Schedule
	if schedule == nil {
		schedule = NewSchedule()
	}
	tick := params.Tick
	if tick <= 0 {
		tick = defaultTick
	}
	return &Service{
		logg:     params.Logger,
		schedule: schedule,
		lock:     params.Lock,
		metrics:  params.Metrics,
		tick:     tick,
		now:      time.Now,
	}, nil
}

// Run blocks until ctx is canceled. Job failures are logged and do not stop
// the loop.
func (s *Service) Run(ctx context.Context) error {
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"jobs": s.schedule.Len(),
		"tick": s.tick.String(),
	}), "cron schedule loaded")

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		if err := s.RunDue(ctx); err != nil {
			s.logg.Error(ctx, "cron tick failed", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunDue runs every job that is due now. Each job runs even if an earlier
// one failed; the failures are combined.
func (s *Service) RunDue(ctx context.Context) error {
	release, ok, err := s.lock.TryAcquire(ctx)
	if err != nil {
		return err
	}
	if !ok {
		s.logg.Debug(ctx, "cron lock held elsewhere, skipping tick")
		return nil
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logg.Error(ctx, "cron lock release failed", err)
		}
	}()

	var errs error
	for _, job := range s.schedule.Due(s.now()) {
		if err := s.run(ctx, job); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", job.Name(), err))
		}
	}
	return errs
}

func (s *Service) run(ctx context.Context, job Job) error {
	ctx = s.logg.WithField(ctx, "job", job.Name())
	start := time.Now()
	rows, err := job.Run(ctx)
	elapsed := time.Since(start)
	s.metrics.Observe(job.Name(), elapsed, rows, err)

	ctx = s.logg.WithFields(ctx, map[string]any{
		"duration_ms": elapsed.Milliseconds(),
		"rows":        rows,
	})
	if err != nil {
		s.logg.Error(ctx, "cron job failed", err)
		return err
	}
	s.logg.Info(ctx, "cron job finished")
	return nil
}
