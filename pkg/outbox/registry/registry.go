// Package registry knows which outbox event types may leave the service,
// where they go, and how to decode them.
package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/wholesale-backend/pkg/config"
	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	"github.com/angelmondragon/wholesale-backend/pkg/outbox"
)

// Descriptor routes one event type to a topic.
type Descriptor struct {
	EventType     string
	AggregateType string
	Topic         string
	decode        func(json.RawMessage) (any, error)
}

// Describe builds a descriptor whose payload decodes into *T.
func Describe[T any](eventType, aggregateType, topic string) Descriptor {
	return Descriptor{
		EventType:     eventType,
		AggregateType: aggregateType,
		Topic:         topic,
		decode: func(raw json.RawMessage) (any, error) {
			v := new(T)
			if err := json.Unmarshal(raw, v); err != nil {
				return nil, err
			}
			return v, nil
		},
	}
}

// ResolvedEvent is an outbox row that passed validation.
type ResolvedEvent struct {
	Descriptor Descriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

type EventRegistry struct {
	byType map[string]Descriptor
}

func New(descriptors ...Descriptor) (*EventRegistry, error) {
	r := &EventRegistry{byType: make(map[string]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		switch {
		case d.decode == nil:
			return nil, fmt.Errorf("event %q: build descriptors with Describe", d.EventType)
		case strings.TrimSpace(d.Topic) == "":
			return nil, fmt.Errorf("event %q: topic is required", d.EventType)
		}
		if _, dup := r.byType[d.EventType]; dup {
			return nil, fmt.Errorf("event %q registered twice", d.EventType)
		}
		r.byType[d.EventType] = d
	}
	return r, nil
}

// NewEventRegistry registers the events this service publishes.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	return New(
		Describe[outbox.OrderLoggedEvent](outbox.EventOrderLogged, outbox.AggregateOrder, cfg.OrdersTopic),
	)
}

// Resolve checks the row against its descriptor and decodes the payload.
// Every error it returns is permanent: retrying the same row cannot help.
func (r *EventRegistry) Resolve(row models.OutboxEvent) (*ResolvedEvent, error) {
	d, ok := r.byType[row.EventType]
	if !ok {
		return nil, Permanent(fmt.Errorf("unsupported event type %q", row.EventType))
	}
	if row.AggregateType != d.AggregateType {
		return nil, Permanent(fmt.Errorf("event %s belongs to %s, row says %s", row.EventType, d.AggregateType, row.AggregateType))
	}
	if strings.TrimSpace(row.AggregateID) == "" {
		return nil, Permanent(errors.New("row has no aggregate id"))
	}

	env, err := outbox.DecodeEnvelope(row.Payload)
	if err != nil {
		return nil, Permanent(fmt.Errorf("decode envelope: %w", err))
	}
	if data := bytes.TrimSpace(env.Data); len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, Permanent(fmt.Errorf("event %s has no data", row.EventType))
	}
	payload, err := d.decode(env.Data)
	if err != nil {
		return nil, Permanent(fmt.Errorf("decode %s data: %w", row.EventType, err))
	}
	return &ResolvedEvent{Descriptor: d, Envelope: env, Payload: payload}, nil
}

type permanentError struct{ err error }

func (e permanentError) Error() string { return "permanent: " + e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// IsPermanent reports whether err, or anything it wraps, was marked Permanent.
func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}
