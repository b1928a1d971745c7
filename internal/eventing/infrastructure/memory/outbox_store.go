package memory

import (
	"context"
	"sync"

	"swapstation-cloud/internal/eventing"
)

// OutboxStore is an in-memory outbox with the same pending/sent/failed
// lifecycle as the Postgres implementation.
type OutboxStore struct {
	mu      sync.Mutex
	order   []string
	records map[string]*record
}

type record struct {
	env    eventing.Envelope
	status string
}

// NewOutboxStore constructs an empty in-memory outbox.
func NewOutboxStore() *OutboxStore {
	return &OutboxStore{records: make(map[string]*record)}
}

// Insert appends a pending record.
func (s *OutboxStore) Insert(ctx context.Context, env eventing.Envelope) (string, error) {
	_ = ctx
	id := eventing.NewEventID()
	s.mu.Lock()
	s.order = append(s.order, id)
	s.records[id] = &record{env: env, status: "pending"}
	s.mu.Unlock()
	return id, nil
}

// ListPending returns pending records in insertion order.
func (s *OutboxStore) ListPending(ctx context.Context, limit int) ([]eventing.OutboxRecord, error) {
	_ = ctx
	if limit <= 0 {
		limit = 50
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []eventing.OutboxRecord
	for _, id := range s.order {
		if len(result) >= limit {
			break
		}
		if rec := s.records[id]; rec.status == "pending" {
			result = append(result, eventing.OutboxRecord{ID: id, Envelope: rec.env})
		}
	}
	return result, nil
}

// MarkSent marks a record sent.
func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, "sent")
}

// MarkFailed marks a record failed.
func (s *OutboxStore) MarkFailed(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, "failed")
}

func (s *OutboxStore) setStatus(_ context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[id]; ok {
		rec.status = status
	}
	return nil
}

// StatusCounts returns record counts per status, for assertions.
func (s *OutboxStore) StatusCounts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[string]int)
	for _, rec := range s.records {
		counts[rec.status]++
	}
	return counts
}

// DLQ is an in-memory dead letter recorder.
type DLQ struct {
	mu      sync.Mutex
	entries []DeadLetter
}

// DeadLetter is one recorded delivery failure.
type DeadLetter struct {
	Envelope eventing.Envelope
	Err      string
}

// NewDLQ constructs an empty DLQ.
func NewDLQ() *DLQ {
	return &DLQ{}
}

// RecordFailure appends a dead letter.
func (d *DLQ) RecordFailure(ctx context.Context, env eventing.Envelope, cause error) error {
	_ = ctx
	message := ""
	if cause != nil {
		message = cause.Error()
	}
	d.mu.Lock()
	d.entries = append(d.entries, DeadLetter{Envelope: env, Err: message})
	d.mu.Unlock()
	return nil
}

// Entries returns recorded dead letters.
func (d *DLQ) Entries() []DeadLetter {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]DeadLetter(nil), d.entries...)
}
