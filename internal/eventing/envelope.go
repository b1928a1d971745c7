package eventing

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Envelope wraps a transport payload with delivery metadata. The topic
// records the pub/sub channel the event was published on, e.g.
// ev/station/station-01/telemetry.
type Envelope struct {
	EventID       string          `json:"event_id"`
	Topic         string          `json:"topic"`
	EventType     string          `json:"event_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	StationID     string          `json:"station_id,omitempty"`
	SchemaVersion int             `json:"schema_version"`
	Payload       json.RawMessage `json:"payload"`
}

// Meta provides envelope metadata set by the publisher.
type Meta struct {
	EventID       string
	Topic         string
	StationID     string
	OccurredAt    time.Time
	SchemaVersion int
}

// NewEventID generates a random event identifier.
func NewEventID() string {
	return uuid.NewString()
}

// BuildEnvelope constructs an envelope from an event payload and metadata.
func BuildEnvelope(event any, meta Meta) (Envelope, error) {
	if event == nil {
		return Envelope{}, ErrNilEvent
	}
	if meta.Topic == "" {
		return Envelope{}, errors.New("eventing: empty topic")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, err
	}

	eventID := meta.EventID
	if eventID == "" {
		eventID = NewEventID()
	}
	occurredAt := meta.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	schemaVersion := meta.SchemaVersion
	if schemaVersion == 0 {
		schemaVersion = 1
	}

	return Envelope{
		EventID:       eventID,
		Topic:         meta.Topic,
		EventType:     EventType(event),
		OccurredAt:    occurredAt.UTC(),
		StationID:     meta.StationID,
		SchemaVersion: schemaVersion,
		Payload:       payload,
	}, nil
}
