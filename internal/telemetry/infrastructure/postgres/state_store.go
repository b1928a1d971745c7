package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	telemetry "swapstation-cloud/internal/telemetry/domain"
)

const defaultStateTable = "station_states"

// StateStore is the Postgres implementation of the fast lookup store. One
// row per station id; every write is a full overwrite.
type StateStore struct {
	db    *sql.DB
	table string
}

// StateStoreOption configures the store.
type StateStoreOption func(*StateStore)

// WithStateTable overrides the default table name.
func WithStateTable(table string) StateStoreOption {
	return func(store *StateStore) {
		if table != "" {
			store.table = table
		}
	}
}

// NewStateStore constructs a state store.
func NewStateStore(db *sql.DB, opts ...StateStoreOption) *StateStore {
	store := &StateStore{db: db, table: defaultStateTable}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Upsert writes the latest state for a station, replacing any prior row.
func (s *StateStore) Upsert(ctx context.Context, state telemetry.StationState) error {
	if s == nil || s.db == nil {
		return errors.New("state store: nil db")
	}
	if state.StationID == "" {
		return errors.New("state store: empty station id")
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	station_id,
	battery_available,
	battery_charging,
	temperature,
	humidity,
	status,
	total_swaps_today,
	last_swap_time,
	record_ts,
	processed_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
)
ON CONFLICT (station_id)
DO UPDATE SET
	battery_available = EXCLUDED.battery_available,
	battery_charging = EXCLUDED.battery_charging,
	temperature = EXCLUDED.temperature,
	humidity = EXCLUDED.humidity,
	status = EXCLUDED.status,
	total_swaps_today = EXCLUDED.total_swaps_today,
	last_swap_time = EXCLUDED.last_swap_time,
	record_ts = EXCLUDED.record_ts,
	processed_at = EXCLUDED.processed_at,
	updated_at = NOW()`, s.table)

	_, err := s.db.ExecContext(
		ctx,
		query,
		state.StationID,
		state.BatteryAvailable,
		nullInt(state.BatteryCharging),
		nullFloat(state.Temperature),
		nullFloat(state.Humidity),
		nullString(state.Status),
		nullInt(state.TotalSwapsToday),
		nullString(state.LastSwapTime),
		state.Timestamp,
		state.ProcessedAt,
	)
	return err
}

// Get returns the state for one station, or nil when no row exists.
func (s *StateStore) Get(ctx context.Context, stationID string) (*telemetry.StationState, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("state store: nil db")
	}

	query := fmt.Sprintf(`
SELECT station_id, battery_available, battery_charging, temperature, humidity,
	status, total_swaps_today, last_swap_time, record_ts, processed_at
FROM %s
WHERE station_id = $1`, s.table)

	state, err := scanState(s.db.QueryRowContext(ctx, query, stationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}

// List returns one page of states in station-id order. The returned token
// continues the scan; an empty token means no rows remain.
func (s *StateStore) List(ctx context.Context, pageToken string, limit int) ([]telemetry.StationState, string, error) {
	if s == nil || s.db == nil {
		return nil, "", errors.New("state store: nil db")
	}
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`
SELECT station_id, battery_available, battery_charging, temperature, humidity,
	status, total_swaps_today, last_swap_time, record_ts, processed_at
FROM %s
WHERE station_id > $1
ORDER BY station_id ASC
LIMIT $2`, s.table)

	rows, err := s.db.QueryContext(ctx, query, pageToken, limit)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var page []telemetry.StationState
	for rows.Next() {
		state, err := scanState(rows)
		if err != nil {
			return nil, "", err
		}
		page = append(page, state)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	nextToken := ""
	if len(page) == limit {
		nextToken = page[len(page)-1].StationID
	}
	return page, nextToken, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanState(row rowScanner) (telemetry.StationState, error) {
	var (
		state        telemetry.StationState
		charging     sql.NullInt64
		temperature  sql.NullFloat64
		humidity     sql.NullFloat64
		status       sql.NullString
		totalSwaps   sql.NullInt64
		lastSwapTime sql.NullString
		recordTS     time.Time
		processedAt  time.Time
	)
	if err := row.Scan(
		&state.StationID,
		&state.BatteryAvailable,
		&charging,
		&temperature,
		&humidity,
		&status,
		&totalSwaps,
		&lastSwapTime,
		&recordTS,
		&processedAt,
	); err != nil {
		return telemetry.StationState{}, err
	}

	if charging.Valid {
		v := int(charging.Int64)
		state.BatteryCharging = &v
	}
	if temperature.Valid {
		v := temperature.Float64
		state.Temperature = &v
	}
	if humidity.Valid {
		v := humidity.Float64
		state.Humidity = &v
	}
	if status.Valid {
		state.Status = status.String
	}
	if totalSwaps.Valid {
		v := int(totalSwaps.Int64)
		state.TotalSwapsToday = &v
	}
	if lastSwapTime.Valid {
		state.LastSwapTime = lastSwapTime.String
	}
	state.Timestamp = recordTS.UTC()
	state.ProcessedAt = processedAt.UTC()
	return state, nil
}

func nullInt(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}

func nullFloat(value *float64) sql.NullFloat64 {
	if value == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *value, Valid: true}
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
