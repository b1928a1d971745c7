package memory

import (
	"context"
	"sort"
	"sync"

	telemetry "swapstation-cloud/internal/telemetry/domain"
)

// StateStore is an in-memory fast store with the same pagination contract
// as the Postgres implementation.
type StateStore struct {
	mu   sync.RWMutex
	data map[string]telemetry.StationState
}

// NewStateStore constructs an empty in-memory state store.
func NewStateStore() *StateStore {
	return &StateStore{data: make(map[string]telemetry.StationState)}
}

// Upsert replaces the row for the station.
func (s *StateStore) Upsert(ctx context.Context, state telemetry.StationState) error {
	_ = ctx
	s.mu.Lock()
	s.data[state.StationID] = state
	s.mu.Unlock()
	return nil
}

// Get returns the row for a station, or nil when absent.
func (s *StateStore) Get(ctx context.Context, stationID string) (*telemetry.StationState, error) {
	_ = ctx
	s.mu.RLock()
	state, ok := s.data[stationID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return &state, nil
}

// List pages through rows in station-id order.
func (s *StateStore) List(ctx context.Context, pageToken string, limit int) ([]telemetry.StationState, string, error) {
	_ = ctx
	if limit <= 0 {
		limit = 100
	}

	s.mu.RLock()
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		if id > pageToken {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	if len(ids) > limit {
		ids = ids[:limit]
	}
	page := make([]telemetry.StationState, 0, len(ids))
	for _, id := range ids {
		page = append(page, s.data[id])
	}
	s.mu.RUnlock()

	nextToken := ""
	if len(page) == limit {
		nextToken = page[len(page)-1].StationID
	}
	return page, nextToken, nil
}

// Len returns the row count.
func (s *StateStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// ArchivedObject is one stored archive entry.
type ArchivedObject struct {
	Key  string
	Body []byte
	Meta telemetry.ArchiveMetadata
}

// ArchiveStore is an in-memory append-only object store.
type ArchiveStore struct {
	mu      sync.RWMutex
	objects []ArchivedObject
}

// NewArchiveStore constructs an empty in-memory archive store.
func NewArchiveStore() *ArchiveStore {
	return &ArchiveStore{}
}

// Put appends one object.
func (s *ArchiveStore) Put(ctx context.Context, key string, body []byte, meta telemetry.ArchiveMetadata) error {
	_ = ctx
	copied := append([]byte(nil), body...)
	s.mu.Lock()
	s.objects = append(s.objects, ArchivedObject{Key: key, Body: copied, Meta: meta})
	s.mu.Unlock()
	return nil
}

// Objects returns a copy of everything stored so far.
func (s *ArchiveStore) Objects() []ArchivedObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ArchivedObject(nil), s.objects...)
}
