package interfaces

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"swapstation-cloud/internal/eventing"
	"swapstation-cloud/internal/telemetry/application"
	telemetry "swapstation-cloud/internal/telemetry/domain"
)

// TelemetryConsumer feeds transport-delivered records into the ingestion
// pipeline. Each invocation is stateless; the transport may deliver
// concurrently and may redeliver.
type TelemetryConsumer struct {
	pipeline *application.Pipeline
	logger   *log.Logger
}

// NewTelemetryConsumer constructs a consumer.
func NewTelemetryConsumer(pipeline *application.Pipeline, logger *log.Logger) (*TelemetryConsumer, error) {
	if pipeline == nil {
		return nil, errors.New("telemetry consumer: nil pipeline")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &TelemetryConsumer{pipeline: pipeline, logger: logger}, nil
}

// HandleEvent is the bus subscription entry point.
func (c *TelemetryConsumer) HandleEvent(ctx context.Context, event any) error {
	raw, ok := event.(telemetry.RawRecord)
	if !ok {
		return eventing.ErrInvalidEventType
	}
	return c.Consume(ctx, raw)
}

// Consume ingests one record. Validation rejections are client-caused and
// never redelivered, so they do not count as delivery errors. A total
// persistence failure is returned as an error so the transport records the
// envelope in the dead letter queue.
func (c *TelemetryConsumer) Consume(ctx context.Context, raw telemetry.RawRecord) error {
	topic := ""
	if env, ok := eventing.EnvelopeFromContext(ctx); ok {
		topic = env.Topic
	}

	result := c.pipeline.Ingest(ctx, raw)
	stationID, _ := raw.StringField(telemetry.FieldStationID)
	response := BuildIngestResponse(result, stationID, time.Now())

	if result.Rejected() {
		c.logger.Printf("telemetry consume: rejected station=%s topic=%s reason=%s", stationID, topic, result.Verdict.Reason)
		return nil
	}

	c.logger.Printf("telemetry consume: station=%s topic=%s status=%d fast_store_ok=%t archive_ok=%t",
		stationID, topic, response.StatusCode, result.Outcome.StateOK, result.Outcome.ArchiveOK)

	if result.Outcome.Status() == application.OutcomeFailure {
		return fmt.Errorf("telemetry consume: both stores failed for station %s", stationID)
	}
	return nil
}
