// Package relay moves order log events from the outbox table to Pub/Sub.
//
// Rows are drained in batches inside one transaction so a second relay
// instance skips the locked rows. A row that fails to publish is retried on a
// later batch until it reaches the attempt limit, then parked. Rows that can
// never be published (unknown type, broken payload) are parked immediately.
package relay

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesale-backend/pkg/config"
	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
	"github.com/angelmondragon/wholesale-backend/pkg/metrics"
	"github.com/angelmondragon/wholesale-backend/pkg/outbox"
	"github.com/angelmondragon/wholesale-backend/pkg/outbox/registry"
)

// Transactor opens the transaction a batch runs in.
type Transactor interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Store is the slice of the outbox repository the relay needs.
type Store interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

// Resolver decodes a row into its topic and typed payload.
type Resolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

// Sender publishes one message and blocks until the broker acknowledges it.
type Sender interface {
	Send(ctx context.Context, topic string, msg *gcppubsub.Message) (string, error)
}

// Options tune batching and retry behaviour.
type Options struct {
	BatchSize      int
	MaxAttempts    int
	PollInterval   time.Duration
	MaxBackoff     time.Duration
	PublishTimeout time.Duration
}

// OptionsFromConfig maps the outbox settings onto relay options.
func OptionsFromConfig(cfg config.OutboxConfig) Options {
	return Options{
		BatchSize:    cfg.BatchSize,
		MaxAttempts:  cfg.MaxAttempts,
		PollInterval: time.Duration(cfg.PollIntervalMS) * time.Millisecond,
	}
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = 50
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 10
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 500 * time.Millisecond
	}
	if o.MaxBackoff < o.PollInterval {
		o.MaxBackoff = 10 * time.Second
	}
	if o.PublishTimeout <= 0 {
		o.PublishTimeout = 15 * time.Second
	}
	return o
}

type Params struct {
	Options  Options
	DB       Transactor
	Store    Store
	Resolver Resolver
	Sender   Sender
	Metrics  *metrics.OutboxMetrics
	Logger   *logger.Logger
}

// Relay drains the outbox.
type Relay struct {
	opts     Options
	db       Transactor
	store    Store
	resolver Resolver
	sender   Sender
	metrics  *metrics.OutboxMetrics
	logg     *logger.Logger
	sleep    func(context.Context, time.Duration) error
}

func New(p Params) (*Relay, error) {
	switch {
	case p.DB == nil:
		return nil, errors.New("relay: transactor required")
	case p.Store == nil:
		return nil, errors.New("relay: outbox store required")
	case p.Resolver == nil:
		return nil, errors.New("relay: event resolver required")
	case p.Sender == nil:
		return nil, errors.New("relay: sender required")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Relay{
		opts:     p.Options.withDefaults(),
		db:       p.DB,
		store:    p.Store,
		resolver: p.Resolver,
		sender:   p.Sender,
		metrics:  p.Metrics,
		logg:     logg,
		sleep:    sleepCtx,
	}, nil
}

// Report summarizes one drained batch.
type Report struct {
	Published int
	Retried   int
	Parked    int
}

// Handled is the number of rows the batch touched.
func (r Report) Handled() int { return r.Published + r.Retried + r.Parked }

func (r *Report) add(outcome string) {
	switch outcome {
	case metrics.OutboxPublished:
		r.Published++
	case metrics.OutboxRetried:
		r.Retried++
	case metrics.OutboxParked:
		r.Parked++
	}
}

// Run drains batches until ctx is canceled. Full batches are followed
// immediately by the next one; an empty batch waits one poll interval and a
// failing batch backs off exponentially.
func (r *Relay) Run(ctx context.Context) error {
	wait := newBackoff(r.opts.PollInterval, r.opts.MaxBackoff)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		report, err := r.Drain(ctx)
		var pause time.Duration
		switch {
		case err != nil:
			if errors.Is(err, context.Canceled) {
				return err
			}
			r.logg.Error(ctx, "outbox batch failed", err)
			pause = wait.next()
		case report.Handled() >= r.opts.BatchSize:
			wait.reset()
			continue
		default:
			wait.reset()
			pause = r.opts.PollInterval
		}
		if err := r.sleep(ctx, jitter(pause)); err != nil {
			return err
		}
	}
}

// Drain publishes one batch. Only storage errors abort the batch; publish
// failures are recorded on the row and the batch moves on.
func (r *Relay) Drain(ctx context.Context) (Report, error) {
	var report Report
	start := time.Now()
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		report = Report{}
		rows, err := r.store.FetchUnpublishedForPublish(tx, r.opts.BatchSize, r.opts.MaxAttempts)
		if err != nil {
			return fmt.Errorf("fetch outbox rows: %w", err)
		}
		for _, row := range rows {
			outcome, err := r.deliver(ctx, tx, row)
			if err != nil {
				return err
			}
			report.add(outcome)
			r.metrics.Record(row.EventType, outcome)
		}
		return nil
	})
	if report.Handled() > 0 {
		r.metrics.ObserveBatch(time.Since(start))
	}
	return report, err
}

func (r *Relay) deliver(ctx context.Context, tx *gorm.DB, row models.OutboxEvent) (string, error) {
	logCtx := r.logg.WithFields(ctx, map[string]any{
		"outbox_id":  row.ID.String(),
		"event_type": row.EventType,
		"order_id":   row.AggregateID,
		"attempt":    row.AttemptCount + 1,
	})

	resolved, err := r.resolver.Resolve(row)
	if err != nil {
		return r.park(logCtx, tx, row, err)
	}
	logCtx = r.logg.WithField(logCtx, "topic", resolved.Descriptor.Topic)

	sendCtx, cancel := context.WithTimeout(ctx, r.opts.PublishTimeout)
	serverID, err := r.sender.Send(sendCtx, resolved.Descriptor.Topic, message(row, resolved))
	cancel()
	if err == nil {
		if err := r.store.MarkPublishedTx(tx, row.ID); err != nil {
			return "", fmt.Errorf("mark %s published: %w", row.ID, err)
		}
		r.logg.Info(r.logg.WithField(logCtx, "message_id", serverID), "order event published")
		return metrics.OutboxPublished, nil
	}

	if permanentSendError(err) {
		return r.park(logCtx, tx, row, err)
	}
	if row.AttemptCount+1 >= r.opts.MaxAttempts {
		return r.park(logCtx, tx, row, fmt.Errorf("gave up after %d attempts: %w", r.opts.MaxAttempts, err))
	}
	r.logg.Warn(r.logg.WithField(logCtx, "error", err.Error()), "order event publish failed, will retry")
	if err := r.store.MarkFailedTx(tx, row.ID, err); err != nil {
		return "", fmt.Errorf("mark %s failed: %w", row.ID, err)
	}
	return metrics.OutboxRetried, nil
}

func (r *Relay) park(ctx context.Context, tx *gorm.DB, row models.OutboxEvent, cause error) (string, error) {
	r.logg.Warn(r.logg.WithField(ctx, "error", cause.Error()), "order event parked")
	if err := r.store.MarkTerminalTx(tx, row.ID, cause, r.opts.MaxAttempts); err != nil {
		return "", fmt.Errorf("park %s: %w", row.ID, err)
	}
	return metrics.OutboxParked, nil
}

// message carries the stored payload verbatim; attributes let subscribers
// filter without decoding it.
func message(row models.OutboxEvent, resolved *registry.ResolvedEvent) *gcppubsub.Message {
	attrs := map[string]string{
		"event_id":       resolved.Envelope.EventID,
		"event_type":     row.EventType,
		"aggregate_type": row.AggregateType,
		"aggregate_id":   row.AggregateID,
		"schema_version": strconv.Itoa(resolved.Envelope.Version),
		"occurred_at":    resolved.Envelope.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
	if evt, ok := resolved.Payload.(*outbox.OrderLoggedEvent); ok {
		attrs["order_total"] = evt.TotalPrice.StringFixed(2)
		attrs["item_count"] = strconv.Itoa(evt.ItemCount)
	}
	return &gcppubsub.Message{Data: row.Payload, Attributes: attrs}
}

// permanentSendError covers errors the broker will keep returning for this
// message: a deleted topic, missing publish rights or a rejected message.
func permanentSendError(err error) bool {
	if registry.IsPermanent(err) {
		return true
	}
	switch status.Code(err) {
	case codes.NotFound, codes.PermissionDenied, codes.InvalidArgument:
		return true
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
