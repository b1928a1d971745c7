package eventing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"swapstation-cloud/internal/eventing"
	"swapstation-cloud/internal/eventing/infrastructure/memory"
)

type tickEvent struct {
	Value int `json:"value"`
}

func publishOne(t *testing.T, outbox *memory.OutboxStore, value int) {
	t.Helper()
	publisher, err := eventing.NewPublisher(outbox, nil)
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	meta := eventing.Meta{
		EventID:    eventing.NewEventID(),
		Topic:      "ev/station/station-01/telemetry",
		StationID:  "station-01",
		OccurredAt: time.Now().UTC(),
	}
	if err := publisher.Publish(context.Background(), meta, tickEvent{Value: value}); err != nil {
		t.Fatalf("publish: %v", err)
	}
}

func TestDispatcher_DeliversAndMarksSent(t *testing.T) {
	outbox := memory.NewOutboxStore()
	dlq := memory.NewDLQ()
	publishOne(t, outbox, 1)
	publishOne(t, outbox, 2)

	registry := eventing.NewRegistry()
	registry.Register(tickEvent{})

	bus := eventing.NewInMemoryBus()
	var values []int
	var topics []string
	bus.Subscribe(eventing.EventTypeOf[tickEvent](), func(ctx context.Context, event any) error {
		evt := event.(tickEvent)
		values = append(values, evt.Value)
		if env, ok := eventing.EnvelopeFromContext(ctx); ok {
			topics = append(topics, env.Topic)
		}
		return nil
	})

	dispatcher := eventing.NewDispatcher(bus, outbox, registry, dlq, nil)
	if err := dispatcher.Dispatch(context.Background(), 10); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if len(values) != 2 || values[0] != 1 || values[1] != 2 {
		t.Fatalf("unexpected deliveries %v", values)
	}
	if len(topics) != 2 || topics[0] != "ev/station/station-01/telemetry" {
		t.Fatalf("expected envelope in context, got %v", topics)
	}

	counts := outbox.StatusCounts()
	if counts["sent"] != 2 || counts["pending"] != 0 {
		t.Fatalf("unexpected outbox status %v", counts)
	}
	if len(dlq.Entries()) != 0 {
		t.Fatalf("expected empty dlq, got %d", len(dlq.Entries()))
	}
}

func TestDispatcher_HandlerFailureGoesToDLQ(t *testing.T) {
	outbox := memory.NewOutboxStore()
	dlq := memory.NewDLQ()
	publishOne(t, outbox, 1)

	registry := eventing.NewRegistry()
	registry.Register(tickEvent{})

	bus := eventing.NewInMemoryBus()
	bus.Subscribe(eventing.EventTypeOf[tickEvent](), func(ctx context.Context, event any) error {
		return errors.New("consumer down")
	})

	dispatcher := eventing.NewDispatcher(bus, outbox, registry, dlq, nil)
	if err := dispatcher.Dispatch(context.Background(), 10); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	counts := outbox.StatusCounts()
	if counts["failed"] != 1 || counts["sent"] != 0 {
		t.Fatalf("unexpected outbox status %v", counts)
	}
	entries := dlq.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 dead letter, got %d", len(entries))
	}
	if entries[0].Err != "consumer down" {
		t.Fatalf("unexpected cause %s", entries[0].Err)
	}
}

func TestDispatcher_UnknownEventTypeGoesToDLQ(t *testing.T) {
	outbox := memory.NewOutboxStore()
	dlq := memory.NewDLQ()
	publishOne(t, outbox, 1)

	// No Register call for tickEvent.
	registry := eventing.NewRegistry()

	dispatcher := eventing.NewDispatcher(eventing.NewInMemoryBus(), outbox, registry, dlq, nil)
	if err := dispatcher.Dispatch(context.Background(), 10); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(dlq.Entries()) != 1 {
		t.Fatalf("expected 1 dead letter, got %d", len(dlq.Entries()))
	}
}

func TestDispatcher_RunStopsOnCancel(t *testing.T) {
	outbox := memory.NewOutboxStore()
	publishOne(t, outbox, 1)

	registry := eventing.NewRegistry()
	registry.Register(tickEvent{})

	bus := eventing.NewInMemoryBus()
	delivered := make(chan struct{}, 1)
	bus.Subscribe(eventing.EventTypeOf[tickEvent](), func(ctx context.Context, event any) error {
		select {
		case delivered <- struct{}{}:
		default:
		}
		return nil
	})

	dispatcher := eventing.NewDispatcher(bus, outbox, registry, memory.NewDLQ(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		dispatcher.Run(ctx, 5*time.Millisecond, 10)
		close(done)
	}()

	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected delivery before deadline")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("dispatcher did not stop after cancel")
	}
}
