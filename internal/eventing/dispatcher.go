package eventing

import (
	"context"
	"log"
	"time"

	"swapstation-cloud/internal/observability/metrics"
)

// OutboxStore provides access to pending outbox records.
type OutboxStore interface {
	ListPending(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

// DLQStore records undeliverable envelopes.
type DLQStore interface {
	RecordFailure(ctx context.Context, env Envelope, err error) error
}

// OutboxRecord represents a pending outbox entry.
type OutboxRecord struct {
	ID       string
	Envelope Envelope
}

// Dispatcher pulls pending outbox records and delivers them to the
// in-process bus. A record is marked sent only after every subscribed
// handler returned without error, so a crash mid-delivery leads to
// redelivery on the next poll: at-least-once, never at-most-once.
type Dispatcher struct {
	bus      EventBus
	outbox   OutboxStore
	registry *Registry
	dlq      DLQStore
	logger   *log.Logger
}

// NewDispatcher constructs a dispatcher.
func NewDispatcher(bus EventBus, outbox OutboxStore, registry *Registry, dlq DLQStore, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{bus: bus, outbox: outbox, registry: registry, dlq: dlq, logger: logger}
}

// Dispatch pulls up to limit pending outbox records and delivers them.
func (d *Dispatcher) Dispatch(ctx context.Context, limit int) error {
	if d == nil || d.outbox == nil || d.bus == nil || d.registry == nil {
		return nil
	}
	if limit <= 0 {
		limit = 50
	}
	records, err := d.outbox.ListPending(ctx, limit)
	if err != nil {
		return err
	}

	for _, record := range records {
		env := record.Envelope
		payload, err := d.registry.DecodePayload(env)
		if err != nil {
			d.fail(ctx, record, err)
			continue
		}

		ctxWithEnv := WithEnvelope(ctx, env)
		if err := d.bus.Publish(ctxWithEnv, payload); err != nil {
			d.fail(ctx, record, err)
			continue
		}

		_ = d.outbox.MarkSent(ctx, record.ID)
		metrics.IncDispatched(metrics.ResultSuccess)
	}
	return nil
}

// Run polls the outbox at the given interval until the context is done.
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration, limit int) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.Dispatch(ctx, limit); err != nil {
				d.logger.Printf("dispatch error: %v", err)
			}
		}
	}
}

func (d *Dispatcher) fail(ctx context.Context, record OutboxRecord, cause error) {
	d.logger.Printf("dispatch failed: outbox_id=%s topic=%s err=%v", record.ID, record.Envelope.Topic, cause)
	_ = d.outbox.MarkFailed(ctx, record.ID)
	if d.dlq != nil {
		_ = d.dlq.RecordFailure(ctx, record.Envelope, cause)
	}
	metrics.IncDispatched(metrics.ResultError)
}
