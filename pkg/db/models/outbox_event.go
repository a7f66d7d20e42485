package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxEvent is a domain event waiting to be published.
type OutboxEvent struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	EventType     string          `gorm:"column:event_type;not null"`
	AggregateType string          `gorm:"column:aggregate_type;not null"`
	AggregateID   string          `gorm:"column:aggregate_id;not null"`
	Payload       json.RawMessage `gorm:"column:payload;type:jsonb;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	PublishedAt   *time.Time      `gorm:"column:published_at"`
	AttemptCount  int             `gorm:"column:attempt_count;not null;default:0"`
	LastError     *string         `gorm:"column:last_error"`
}

func (OutboxEvent) TableName() string { return "outbox_events" }
