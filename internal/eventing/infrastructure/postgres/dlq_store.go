package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"swapstation-cloud/internal/eventing"
)

const defaultDLQTable = "telemetry_dead_letters"

// DLQStore records envelopes that could not be delivered.
type DLQStore struct {
	db    *sql.DB
	table string
}

// NewDLQStore constructs a DLQ store.
func NewDLQStore(db *sql.DB) *DLQStore {
	return &DLQStore{db: db, table: defaultDLQTable}
}

// RecordFailure appends a dead letter with the delivery error.
func (s *DLQStore) RecordFailure(ctx context.Context, env eventing.Envelope, cause error) error {
	if s == nil || s.db == nil {
		return errors.New("dlq store: nil db")
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	message := ""
	if cause != nil {
		message = cause.Error()
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	event_id,
	event_type,
	topic,
	payload,
	error
) VALUES (
	$1, $2, $3, $4, $5, $6
)`, s.table)

	_, err = s.db.ExecContext(ctx, query, eventing.NewEventID(), env.EventID, env.EventType, env.Topic, payload, message)
	return err
}
