package interfaces

import (
	"context"
	"errors"
	"testing"
	"time"

	"swapstation-cloud/internal/eventing"
	"swapstation-cloud/internal/telemetry/application"
	telemetry "swapstation-cloud/internal/telemetry/domain"
	"swapstation-cloud/internal/telemetry/infrastructure/memory"
)

type brokenStateStore struct{}

func (brokenStateStore) Upsert(ctx context.Context, state telemetry.StationState) error {
	return errors.New("down")
}

func (brokenStateStore) Get(ctx context.Context, stationID string) (*telemetry.StationState, error) {
	return nil, errors.New("down")
}

func (brokenStateStore) List(ctx context.Context, pageToken string, limit int) ([]telemetry.StationState, string, error) {
	return nil, "", errors.New("down")
}

type brokenArchiveStore struct{}

func (brokenArchiveStore) Put(ctx context.Context, key string, body []byte, meta telemetry.ArchiveMetadata) error {
	return errors.New("down")
}

func consumerRecord() telemetry.RawRecord {
	return telemetry.RawRecord{
		"station_id":        "station-01",
		"battery_available": float64(9),
		"timestamp":         "2024-01-15T14:23:45Z",
	}
}

func newConsumer(t *testing.T, states telemetry.StateStore, archive telemetry.ArchiveStore) *TelemetryConsumer {
	t.Helper()
	pipeline, err := application.NewPipeline(states, archive, nil)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	consumer, err := NewTelemetryConsumer(pipeline, nil)
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}
	return consumer
}

func TestConsumer_DeliversToStores(t *testing.T) {
	states := memory.NewStateStore()
	archive := memory.NewArchiveStore()
	consumer := newConsumer(t, states, archive)

	ctx := eventing.WithEnvelope(context.Background(), eventing.Envelope{
		EventID:    "evt-1",
		Topic:      "ev/station/station-01/telemetry",
		OccurredAt: time.Now().UTC(),
	})
	if err := consumer.HandleEvent(ctx, consumerRecord()); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if states.Len() != 1 {
		t.Fatalf("expected state write, got %d", states.Len())
	}
	if len(archive.Objects()) != 1 {
		t.Fatalf("expected archive write, got %d", len(archive.Objects()))
	}
}

func TestConsumer_RejectionIsNotADeliveryError(t *testing.T) {
	consumer := newConsumer(t, memory.NewStateStore(), memory.NewArchiveStore())

	record := consumerRecord()
	record["battery_available"] = float64(-1)
	if err := consumer.Consume(context.Background(), record); err != nil {
		t.Fatalf("expected nil for rejected record, got %v", err)
	}
}

func TestConsumer_PartialFailureAcksDelivery(t *testing.T) {
	consumer := newConsumer(t, brokenStateStore{}, memory.NewArchiveStore())

	if err := consumer.Consume(context.Background(), consumerRecord()); err != nil {
		t.Fatalf("expected nil for partial outcome, got %v", err)
	}
}

func TestConsumer_TotalFailureReturnsError(t *testing.T) {
	consumer := newConsumer(t, brokenStateStore{}, brokenArchiveStore{})

	if err := consumer.Consume(context.Background(), consumerRecord()); err == nil {
		t.Fatalf("expected error when both stores fail")
	}
}

func TestConsumer_WrongEventType(t *testing.T) {
	consumer := newConsumer(t, memory.NewStateStore(), memory.NewArchiveStore())

	err := consumer.HandleEvent(context.Background(), "not a record")
	if !errors.Is(err, eventing.ErrInvalidEventType) {
		t.Fatalf("expected ErrInvalidEventType, got %v", err)
	}
}
