package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
)

// DomainEvent is an event as callers raise it. Version and OccurredAt default
// to the current schema and the wall clock.
type DomainEvent struct {
	EventType     string
	AggregateType string
	AggregateID   string
	Data          any
	Version       int
	OccurredAt    time.Time
}

func (e DomainEvent) check() error {
	switch {
	case e.EventType == "":
		return errors.New("outbox: event type is required")
	case e.AggregateType == "" || e.AggregateID == "":
		return errors.New("outbox: aggregate type and id are required")
	}
	return nil
}

// Service queues events next to the business write that produced them.
type Service struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{repo: repo, logg: logg, now: time.Now}
}

// Emit stores event through tx, so it is published only if tx commits. It
// returns the event id consumers see.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) (string, error) {
	if tx == nil {
		return "", errors.New("outbox: emit needs an open transaction")
	}
	if err := event.check(); err != nil {
		return "", err
	}
	at := event.OccurredAt
	if at.IsZero() {
		at = s.now()
	}
	env, raw, err := sealEnvelope(event.Data, event.Version, at)
	if err != nil {
		return "", err
	}

	if err := s.repo.Insert(tx, models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       raw,
	}); err != nil {
		return "", err
	}
	s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
		"event_id":     env.EventID,
		"event_type":   event.EventType,
		"aggregate_id": event.AggregateID,
	}), "outbox event queued")
	return env.EventID, nil
}
