package stationhttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"swapstation-cloud/internal/telemetry/application"
	telemetry "swapstation-cloud/internal/telemetry/domain"
	"swapstation-cloud/internal/telemetry/infrastructure/memory"
)

type downStateStore struct{}

func (downStateStore) Upsert(ctx context.Context, state telemetry.StationState) error {
	return errors.New("down")
}

func (downStateStore) Get(ctx context.Context, stationID string) (*telemetry.StationState, error) {
	return nil, errors.New("down")
}

func (downStateStore) List(ctx context.Context, pageToken string, limit int) ([]telemetry.StationState, string, error) {
	return nil, "", errors.New("down")
}

type downArchiveStore struct{}

func (downArchiveStore) Put(ctx context.Context, key string, body []byte, meta telemetry.ArchiveMetadata) error {
	return errors.New("down")
}

func newTestIngestHandler(t *testing.T, states telemetry.StateStore, archive telemetry.ArchiveStore) *IngestHandler {
	t.Helper()
	pipeline, err := application.NewPipeline(states, archive, nil)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	handler, err := NewIngestHandler(pipeline, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler
}

const ingestPayload = `{"station_id":"station-01","battery_available":12,"timestamp":"2024-01-15T14:23:45Z"}`

func TestIngestHandler_Success(t *testing.T) {
	store := memory.NewStateStore()
	handler := newTestIngestHandler(t, store, memory.NewArchiveStore())

	req := httptest.NewRequest(http.MethodPost, "/ingest/telemetry", strings.NewReader(ingestPayload))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var body struct {
		Message     string `json:"message"`
		StationID   string `json:"station_id"`
		FastStoreOK bool   `json:"fastStoreOk"`
		ArchiveOK   bool   `json:"archiveOk"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Message != "Telemetry processed successfully" || body.StationID != "station-01" {
		t.Fatalf("unexpected body %+v", body)
	}
	if !body.FastStoreOK || !body.ArchiveOK {
		t.Fatalf("expected both flags true, got %+v", body)
	}
	if store.Len() != 1 {
		t.Fatalf("expected stored state, got %d", store.Len())
	}
}

func TestIngestHandler_Partial(t *testing.T) {
	handler := newTestIngestHandler(t, downStateStore{}, memory.NewArchiveStore())

	req := httptest.NewRequest(http.MethodPost, "/ingest/telemetry", strings.NewReader(ingestPayload))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusMultiStatus {
		t.Fatalf("expected 207, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "Telemetry partially processed") {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestIngestHandler_TotalFailure(t *testing.T) {
	handler := newTestIngestHandler(t, downStateStore{}, downArchiveStore{})

	req := httptest.NewRequest(http.MethodPost, "/ingest/telemetry", strings.NewReader(ingestPayload))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "Failed to process telemetry") {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestIngestHandler_ValidationFailure(t *testing.T) {
	handler := newTestIngestHandler(t, memory.NewStateStore(), memory.NewArchiveStore())

	payload := `{"station_id":"station-01","battery_available":-2,"timestamp":"2024-01-15T14:23:45Z"}`
	req := httptest.NewRequest(http.MethodPost, "/ingest/telemetry", strings.NewReader(payload))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "Validation failed" {
		t.Fatalf("unexpected error %q", body["error"])
	}
	if body["message"] != "battery_available must be a non-negative number" {
		t.Fatalf("unexpected message %q", body["message"])
	}
}

func TestIngestHandler_MalformedJSON(t *testing.T) {
	handler := newTestIngestHandler(t, memory.NewStateStore(), memory.NewArchiveStore())

	req := httptest.NewRequest(http.MethodPost, "/ingest/telemetry", strings.NewReader("{not json"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestIngestHandler_MethodNotAllowed(t *testing.T) {
	handler := newTestIngestHandler(t, memory.NewStateStore(), memory.NewArchiveStore())

	req := httptest.NewRequest(http.MethodGet, "/ingest/telemetry", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
}
