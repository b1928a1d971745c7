package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Wire-format field names of a telemetry record.
const (
	FieldStationID        = "station_id"
	FieldBatteryAvailable = "battery_available"
	FieldBatteryCharging  = "battery_charging"
	FieldTemperature      = "temperature"
	FieldHumidity         = "humidity"
	FieldStatus           = "status"
	FieldTotalSwapsToday  = "total_swaps_today"
	FieldLastSwapTime     = "last_swap_time"
	FieldTimestamp        = "timestamp"
)

// Station operational statuses.
const (
	StatusOperational = "operational"
	StatusMaintenance = "maintenance"
)

// RawRecord is one telemetry record as delivered by the transport, before
// validation. Values carry whatever types the JSON decoder produced.
type RawRecord map[string]any

// StringField returns a string-typed field.
func (r RawRecord) StringField(name string) (string, bool) {
	value, ok := r[name]
	if !ok {
		return "", false
	}
	s, ok := value.(string)
	return s, ok
}

// NumberField returns a numeric field as float64. JSON decoding yields
// float64, but records built in-process may carry int values.
func (r RawRecord) NumberField(name string) (float64, bool) {
	value, ok := r[name]
	if !ok {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Clone returns a shallow copy of the record.
func (r RawRecord) Clone() RawRecord {
	if r == nil {
		return nil
	}
	copied := make(RawRecord, len(r))
	for key, value := range r {
		copied[key] = value
	}
	return copied
}

// recordTimestampLayouts are accepted in addition to RFC 3339; timestamps
// without a zone designator are read as UTC.
var recordTimestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ParseRecordTimestamp parses an ISO-8601 record timestamp. The literal
// suffix Z is accepted as the UTC designator.
func ParseRecordTimestamp(value string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.UTC(), nil
	}
	for _, layout := range recordTimestampLayouts {
		if ts, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("telemetry: unparsable timestamp %q", value)
}

// StationState is the latest telemetry for a station plus the wall-clock
// time the pipeline processed it. The fast store keeps at most one row per
// station id; every write is a full overwrite.
type StationState struct {
	StationID        string    `json:"station_id"`
	BatteryAvailable int       `json:"battery_available"`
	BatteryCharging  *int      `json:"battery_charging,omitempty"`
	Temperature      *float64  `json:"temperature,omitempty"`
	Humidity         *float64  `json:"humidity,omitempty"`
	Status           string    `json:"status,omitempty"`
	TotalSwapsToday  *int      `json:"total_swaps_today,omitempty"`
	LastSwapTime     string    `json:"last_swap_time,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
	ProcessedAt      time.Time `json:"processed_at"`
}

// NewStationState normalizes a validated raw record into a typed state row.
// Counts are truncated toward zero; callers must validate first.
func NewStationState(raw RawRecord, processedAt time.Time) (StationState, error) {
	stationID, ok := raw.StringField(FieldStationID)
	if !ok || strings.TrimSpace(stationID) == "" {
		return StationState{}, errors.New("telemetry: record missing station id")
	}
	available, ok := raw.NumberField(FieldBatteryAvailable)
	if !ok {
		return StationState{}, errors.New("telemetry: record missing battery_available")
	}
	tsValue, ok := raw.StringField(FieldTimestamp)
	if !ok {
		return StationState{}, errors.New("telemetry: record missing timestamp")
	}
	ts, err := ParseRecordTimestamp(tsValue)
	if err != nil {
		return StationState{}, err
	}

	// The raw id is kept verbatim so the state row and the archive key agree
	// on the station identifier.
	state := StationState{
		StationID:        stationID,
		BatteryAvailable: int(available),
		Timestamp:        ts,
		ProcessedAt:      processedAt.UTC(),
	}
	if charging, ok := raw.NumberField(FieldBatteryCharging); ok {
		v := int(charging)
		state.BatteryCharging = &v
	}
	if temperature, ok := raw.NumberField(FieldTemperature); ok {
		v := temperature
		state.Temperature = &v
	}
	if humidity, ok := raw.NumberField(FieldHumidity); ok {
		v := humidity
		state.Humidity = &v
	}
	if status, ok := raw.StringField(FieldStatus); ok {
		state.Status = status
	}
	if swaps, ok := raw.NumberField(FieldTotalSwapsToday); ok {
		v := int(swaps)
		state.TotalSwapsToday = &v
	}
	if lastSwap, ok := raw.StringField(FieldLastSwapTime); ok {
		state.LastSwapTime = lastSwap
	}
	return state, nil
}

// StateStore is the fast lookup store: one row per station, upsert-by-key,
// get-by-key and a paginated scan. List returns a continuation token; an
// empty token means no rows remain.
type StateStore interface {
	Upsert(ctx context.Context, state StationState) error
	Get(ctx context.Context, stationID string) (*StationState, error)
	List(ctx context.Context, pageToken string, limit int) ([]StationState, string, error)
}

// ArchiveMetadata is attached to every archived object.
type ArchiveMetadata struct {
	StationID  string
	IngestedAt time.Time
}

// ArchiveStore is the append-only archival store: put-by-key with metadata.
// Objects are never updated or deleted.
type ArchiveStore interface {
	Put(ctx context.Context, key string, body []byte, meta ArchiveMetadata) error
}
