package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	telemetry "swapstation-cloud/internal/telemetry/domain"
)

const defaultArchiveTable = "telemetry_archive"

// ArchiveStore is the Postgres implementation of the archival object store.
// Objects are inserted once under their derived key and never updated or
// deleted by this system.
type ArchiveStore struct {
	db    *sql.DB
	table string
}

// ArchiveStoreOption configures the store.
type ArchiveStoreOption func(*ArchiveStore)

// WithArchiveTable overrides the default table name.
func WithArchiveTable(table string) ArchiveStoreOption {
	return func(store *ArchiveStore) {
		if table != "" {
			store.table = table
		}
	}
}

// NewArchiveStore constructs an archive store.
func NewArchiveStore(db *sql.DB, opts ...ArchiveStoreOption) *ArchiveStore {
	store := &ArchiveStore{db: db, table: defaultArchiveTable}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Put writes one immutable object under its key with metadata attached.
func (s *ArchiveStore) Put(ctx context.Context, key string, body []byte, meta telemetry.ArchiveMetadata) error {
	if s == nil || s.db == nil {
		return errors.New("archive store: nil db")
	}
	if key == "" {
		return errors.New("archive store: empty object key")
	}
	if len(body) == 0 {
		return errors.New("archive store: empty body")
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	object_key,
	body,
	station_id,
	ingested_at
) VALUES (
	$1, $2, $3, $4
)`, s.table)

	_, err := s.db.ExecContext(ctx, query, key, body, meta.StationID, meta.IngestedAt)
	return err
}
