package stationhttp

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"swapstation-cloud/internal/telemetry/application"
	telemetry "swapstation-cloud/internal/telemetry/domain"
	"swapstation-cloud/internal/telemetry/interfaces"
)

const maxIngestBodyBytes = 1 << 20

// IngestHandler accepts a single telemetry record over HTTP and runs it
// through the ingestion pipeline synchronously. Stations that cannot speak
// the broker protocol post here instead.
type IngestHandler struct {
	pipeline *application.Pipeline
	logger   *log.Logger
	now      func() time.Time
}

// NewIngestHandler constructs an ingest handler.
func NewIngestHandler(pipeline *application.Pipeline, logger *log.Logger) (*IngestHandler, error) {
	if pipeline == nil {
		return nil, errors.New("ingest handler: nil pipeline")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &IngestHandler{pipeline: pipeline, logger: logger, now: time.Now}, nil
}

// ServeHTTP handles POST /ingest/telemetry.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)

	switch r.Method {
	case http.MethodOptions:
		writeJSON(w, http.StatusOK, map[string]string{"message": "CORS preflight response"})
		return
	case http.MethodPost:
	default:
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("Method not allowed", "Method "+r.Method+" not supported"))
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxIngestBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Bad request", "Failed to read request body"))
		return
	}

	var raw telemetry.RawRecord
	if err := json.Unmarshal(payload, &raw); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Bad request", "Request body must be a JSON object"))
		return
	}

	result := h.pipeline.Ingest(r.Context(), raw)
	stationID, _ := raw.StringField(telemetry.FieldStationID)
	response := interfaces.BuildIngestResponse(result, stationID, h.now())
	writeJSON(w, response.StatusCode, response.Body)
}
