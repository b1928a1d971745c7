package interfaces

import (
	"net/http"
	"time"

	"swapstation-cloud/internal/telemetry/application"
)

// IngestResponse is the informational result envelope for one ingested
// record. The transport does not consume it, but the HTTP ingest endpoint
// returns it verbatim and the consumer logs it.
type IngestResponse struct {
	StatusCode int `json:"statusCode"`
	Body       any `json:"body"`
}

// IngestBody is the response body for records that reached the stores.
type IngestBody struct {
	Message     string `json:"message"`
	StationID   string `json:"station_id"`
	FastStoreOK bool   `json:"fastStoreOk"`
	ArchiveOK   bool   `json:"archiveOk"`
	Timestamp   string `json:"timestamp"`
}

// ErrorBody is the response body for rejections and unexpected failures.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// BuildIngestResponse maps a pipeline result onto the response envelope:
// 200 full success, 207 partial success, 500 total failure, 400 rejection.
func BuildIngestResponse(result application.Result, stationID string, now time.Time) IngestResponse {
	if result.Rejected() {
		return IngestResponse{
			StatusCode: http.StatusBadRequest,
			Body: ErrorBody{
				Error:   "Validation failed",
				Message: result.Verdict.Message,
			},
		}
	}

	statusCode := http.StatusOK
	message := "Telemetry processed successfully"
	switch result.Outcome.Status() {
	case application.OutcomePartial:
		statusCode = http.StatusMultiStatus
		message = "Telemetry partially processed"
	case application.OutcomeFailure:
		statusCode = http.StatusInternalServerError
		message = "Failed to process telemetry"
	}

	return IngestResponse{
		StatusCode: statusCode,
		Body: IngestBody{
			Message:     message,
			StationID:   stationID,
			FastStoreOK: result.Outcome.StateOK,
			ArchiveOK:   result.Outcome.ArchiveOK,
			Timestamp:   now.UTC().Format(time.RFC3339),
		},
	}
}
