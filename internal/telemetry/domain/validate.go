package telemetry

import "strings"

// RejectReason classifies why a record failed validation.
type RejectReason string

const (
	RejectMissingField        RejectReason = "missing_field"
	RejectInvalidStationID    RejectReason = "invalid_station_id"
	RejectInvalidBatteryCount RejectReason = "invalid_battery_count"
	RejectInvalidTimestamp    RejectReason = "invalid_timestamp"
)

// Verdict is the result of validating a raw record. A rejected verdict
// carries the reason, the offending field and a client-facing message.
type Verdict struct {
	OK      bool
	Reason  RejectReason
	Field   string
	Message string
}

// Accept returns an accepting verdict.
func Accept() Verdict {
	return Verdict{OK: true}
}

// Reject returns a rejecting verdict.
func Reject(reason RejectReason, field, message string) Verdict {
	return Verdict{Reason: reason, Field: field, Message: message}
}

// requiredFields must be present before any other check runs.
var requiredFields = []string{
	FieldStationID,
	FieldBatteryAvailable,
	FieldTimestamp,
}

// ValidateRecord checks a raw record ahead of persistence. Checks run in a
// fixed order and short-circuit on the first failure. No side effects; the
// same input always yields the same verdict.
func ValidateRecord(raw RawRecord) Verdict {
	for _, field := range requiredFields {
		if _, ok := raw[field]; !ok {
			return Reject(RejectMissingField, field, "Missing required field: "+field)
		}
	}

	stationID, ok := raw.StringField(FieldStationID)
	if !ok || strings.TrimSpace(stationID) == "" {
		return Reject(RejectInvalidStationID, FieldStationID, "station_id must be a non-empty string")
	}

	available, ok := raw.NumberField(FieldBatteryAvailable)
	if !ok || available < 0 {
		return Reject(RejectInvalidBatteryCount, FieldBatteryAvailable, "battery_available must be a non-negative number")
	}

	tsValue, ok := raw.StringField(FieldTimestamp)
	if !ok {
		return Reject(RejectInvalidTimestamp, FieldTimestamp, "timestamp must be valid ISO-8601 format")
	}
	if _, err := ParseRecordTimestamp(tsValue); err != nil {
		return Reject(RejectInvalidTimestamp, FieldTimestamp, "timestamp must be valid ISO-8601 format")
	}

	return Accept()
}
