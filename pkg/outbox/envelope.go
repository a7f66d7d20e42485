package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const currentSchemaVersion = 1

// PayloadEnvelope is what the payload column of outbox_events holds. Data is
// the event body; the rest lets consumers deduplicate and order events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

func sealEnvelope(data any, version int, at time.Time) (PayloadEnvelope, []byte, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return PayloadEnvelope{}, nil, fmt.Errorf("encode event data: %w", err)
	}
	if version <= 0 {
		version = currentSchemaVersion
	}
	env := PayloadEnvelope{Version: version, EventID: uuid.NewString(), OccurredAt: at.UTC(), Data: body}
	raw, err := json.Marshal(env)
	if err != nil {
		return PayloadEnvelope{}, nil, fmt.Errorf("encode envelope: %w", err)
	}
	return env, raw, nil
}

func DecodeEnvelope(raw json.RawMessage) (PayloadEnvelope, error) {
	var env PayloadEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return PayloadEnvelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}
