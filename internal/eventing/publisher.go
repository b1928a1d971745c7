package eventing

import (
	"context"
	"errors"
	"log"
	"time"

	"swapstation-cloud/internal/observability/metrics"
)

// OutboxWriter inserts outbox records. The insert is the transport's
// delivery acknowledgement: once a record is pending it will be dispatched
// at least once.
type OutboxWriter interface {
	Insert(ctx context.Context, env Envelope) (string, error)
}

// Publisher writes events to the outbox.
type Publisher struct {
	outbox OutboxWriter
	logger *log.Logger
}

// NewPublisher constructs a publisher.
func NewPublisher(outbox OutboxWriter, logger *log.Logger) (*Publisher, error) {
	if outbox == nil {
		return nil, errors.New("eventing: nil outbox writer")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Publisher{outbox: outbox, logger: logger}, nil
}

// Publish writes the event to the outbox under the given topic and blocks
// until the write is acknowledged.
func (p *Publisher) Publish(ctx context.Context, meta Meta, event any) error {
	start := time.Now()
	result := metrics.ResultSuccess

	env, err := BuildEnvelope(event, meta)
	if err != nil {
		result = metrics.ResultError
		metrics.ObservePublish(result, time.Since(start))
		return err
	}
	if _, err := p.outbox.Insert(ctx, env); err != nil {
		result = metrics.ResultError
		metrics.ObservePublish(result, time.Since(start))
		return err
	}

	duration := time.Since(start)
	metrics.ObservePublish(result, duration)
	if duration > 50*time.Millisecond {
		p.logger.Printf("publish duration_ms=%d topic=%s event_type=%s",
			duration.Milliseconds(), env.Topic, env.EventType)
	}
	return nil
}
