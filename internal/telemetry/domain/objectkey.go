package telemetry

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BuildArchiveKey derives the archival object key for a record. The prefix
// is deterministic (date partition from the record's own timestamp, UTC);
// the suffix disambiguates records landing in the same second.
//
// Layout: telemetry/year={Y}/month={MM}/day={DD}/{station}_{YYYYMMDD_HHMMSS}_{8hex}.json
func BuildArchiveKey(stationID string, recordTS time.Time, disambiguator string) string {
	ts := recordTS.UTC()
	return fmt.Sprintf("telemetry/year=%04d/month=%02d/day=%02d/%s_%s_%s.json",
		ts.Year(), int(ts.Month()), ts.Day(),
		stationID, ts.Format("20060102_150405"), disambiguator)
}

// NewArchiveDisambiguator returns the random 8-hex-character key suffix.
func NewArchiveDisambiguator() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
