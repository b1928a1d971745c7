package application

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"swapstation-cloud/internal/observability/metrics"
	telemetry "swapstation-cloud/internal/telemetry/domain"
)

// Outcome captures the independent results of the two persistence writes.
// The stores offer no cross-store transaction, so partial states are a
// normal, observable condition rather than an error.
type Outcome struct {
	StateOK   bool
	ArchiveOK bool
}

// OutcomeStatus is the three-way aggregate of an Outcome.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomePartial OutcomeStatus = "partial"
	OutcomeFailure OutcomeStatus = "failure"
)

// Status derives the aggregate status.
func (o Outcome) Status() OutcomeStatus {
	switch {
	case o.StateOK && o.ArchiveOK:
		return OutcomeSuccess
	case o.StateOK || o.ArchiveOK:
		return OutcomePartial
	default:
		return OutcomeFailure
	}
}

// Result is the outcome of one pipeline invocation. A rejected verdict
// means neither store was touched and Outcome is meaningless.
type Result struct {
	Verdict    telemetry.Verdict
	Outcome    Outcome
	ArchiveKey string
}

// Rejected reports whether validation stopped the pipeline.
func (r Result) Rejected() bool {
	return !r.Verdict.OK
}

// Pipeline validates telemetry records and persists them to the fast state
// store and the archival store independently. It holds no state of its own
// and is safe for concurrent use; it never retries.
type Pipeline struct {
	states    telemetry.StateStore
	archive   telemetry.ArchiveStore
	logger    *log.Logger
	now       func() time.Time
	newSuffix func() string
}

// PipelineOption configures the pipeline.
type PipelineOption func(*Pipeline)

// WithClock overrides the processing wall clock.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithArchiveSuffix overrides the archive key disambiguator source.
func WithArchiveSuffix(suffix func() string) PipelineOption {
	return func(p *Pipeline) {
		if suffix != nil {
			p.newSuffix = suffix
		}
	}
}

// NewPipeline constructs an ingestion pipeline.
func NewPipeline(states telemetry.StateStore, archive telemetry.ArchiveStore, logger *log.Logger, opts ...PipelineOption) (*Pipeline, error) {
	if states == nil {
		return nil, errors.New("pipeline: nil state store")
	}
	if archive == nil {
		return nil, errors.New("pipeline: nil archive store")
	}
	if logger == nil {
		logger = log.Default()
	}
	p := &Pipeline{
		states:    states,
		archive:   archive,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		newSuffix: telemetry.NewArchiveDisambiguator,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Ingest runs validation and, for accepted records, the two store writes.
// Each write's failure is caught and recorded so the other write still runs.
func (p *Pipeline) Ingest(ctx context.Context, raw telemetry.RawRecord) Result {
	start := time.Now()

	verdict := telemetry.ValidateRecord(raw)
	if !verdict.OK {
		p.logger.Printf("ingest rejected: reason=%s field=%s", verdict.Reason, verdict.Field)
		metrics.IncIngestReject(string(verdict.Reason))
		metrics.ObserveIngest(metrics.OutcomeRejected, time.Since(start))
		return Result{Verdict: verdict}
	}

	stationID, _ := raw.StringField(telemetry.FieldStationID)
	outcome := Outcome{}

	state, err := telemetry.NewStationState(raw, p.now())
	if err == nil {
		err = p.states.Upsert(ctx, state)
	}
	if err != nil {
		p.logger.Printf("ingest: state store write failed: station=%s err=%v", stationID, err)
		metrics.IncStoreWriteFailure("state")
	} else {
		outcome.StateOK = true
	}

	archiveKey, err := p.writeArchive(ctx, raw, stationID)
	if err != nil {
		p.logger.Printf("ingest: archive write failed: station=%s err=%v", stationID, err)
		metrics.IncStoreWriteFailure("archive")
	} else {
		outcome.ArchiveOK = true
	}

	metrics.ObserveIngest(string(outcome.Status()), time.Since(start))
	return Result{Verdict: verdict, Outcome: outcome, ArchiveKey: archiveKey}
}

// writeArchive serializes the full original record and puts it under a
// date-partitioned key derived from the record's own timestamp.
func (p *Pipeline) writeArchive(ctx context.Context, raw telemetry.RawRecord, stationID string) (string, error) {
	tsValue, _ := raw.StringField(telemetry.FieldTimestamp)
	recordTS, err := telemetry.ParseRecordTimestamp(tsValue)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(raw)
	if err != nil {
		return "", err
	}

	key := telemetry.BuildArchiveKey(stationID, recordTS, p.newSuffix())
	meta := telemetry.ArchiveMetadata{
		StationID:  stationID,
		IngestedAt: p.now(),
	}
	if err := p.archive.Put(ctx, key, body, meta); err != nil {
		return "", err
	}
	return key, nil
}
