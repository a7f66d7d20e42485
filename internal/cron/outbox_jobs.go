package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/wholesale-backend/pkg/logger"
	"github.com/angelmondragon/wholesale-backend/pkg/metrics"
)

const (
	defaultRetention        = 30 * 24 * time.Hour
	defaultBacklogThreshold = 100
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPurger interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error)
}

type outboxCounter interface {
	Pending(ctx context.Context) (int64, error)
}

// OutboxRetention deletes published order events older than the retention
// window, together with events the relay gave up on.
type OutboxRetention struct {
	logg        *logger.Logger
	db          txRunner
	repo        outboxPurger
	keep        time.Duration
	maxAttempts int
	now         func() time.Time
}

type OutboxRetentionParams struct {
	Logger        *logger.Logger
	DB            txRunner
	Repository    outboxPurger
	RetentionDays int
	// MaxAttempts is the relay's attempt limit; unpublished rows at or past
	// it are dead and purged with the published ones.
	MaxAttempts int
}

func NewOutboxRetention(p OutboxRetentionParams) (*OutboxRetention, error) {
	if p.DB == nil || p.Repository == nil {
		return nil, errors.New("outbox retention: db and repository required")
	}
	if p.MaxAttempts <= 0 {
		return nil, errors.New("outbox retention: max attempts must be positive")
	}
	keep := defaultRetention
	if p.RetentionDays > 0 {
		keep = time.Duration(p.RetentionDays) * 24 * time.Hour
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &OutboxRetention{
		logg:        logg,
		db:          p.DB,
		repo:        p.Repository,
		keep:        keep,
		maxAttempts: p.MaxAttempts,
		now:         time.Now,
	}, nil
}

func (j *OutboxRetention) Name() string { return "outbox-retention" }

func (j *OutboxRetention) Run(ctx context.Context) (int64, error) {
	cutoff := j.now().UTC().Add(-j.keep)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := j.repo.DeletePublishedBefore(ctx, tx, cutoff, j.maxAttempts)
		deleted = n
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("purge outbox before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"deleted": deleted,
	}), "outbox purged")
	return deleted, nil
}

// OutboxBacklog publishes the number of unpublished order events and warns
// when the relay falls behind.
type OutboxBacklog struct {
	logg      *logger.Logger
	repo      outboxCounter
	gauge     *metrics.OutboxMetrics
	threshold int64
}

type OutboxBacklogParams struct {
	Logger     *logger.Logger
	Repository outboxCounter
	Metrics    *metrics.OutboxMetrics
	Threshold  int64
}

func NewOutboxBacklog(p OutboxBacklogParams) (*OutboxBacklog, error) {
	if p.Repository == nil {
		return nil, errors.New("outbox backlog: repository required")
	}
	threshold := p.Threshold
	if threshold <= 0 {
		threshold = defaultBacklogThreshold
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &OutboxBacklog{logg: logg, repo: p.Repository, gauge: p.Metrics, threshold: threshold}, nil
}

func (j *OutboxBacklog) Name() string { return "outbox-backlog" }

func (j *OutboxBacklog) Run(ctx context.Context) (int64, error) {
	pending, err := j.repo.Pending(ctx)
	if err != nil {
		return 0, fmt.Errorf("count pending outbox rows: %w", err)
	}
	j.gauge.SetBacklog(pending)
	if pending >= j.threshold {
		j.logg.Warn(j.logg.WithFields(ctx, map[string]any{
			"pending":   pending,
			"threshold": j.threshold,
		}), "order events are piling up in the outbox")
	}
	return pending, nil
}
