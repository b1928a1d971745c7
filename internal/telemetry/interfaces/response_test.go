package interfaces

import (
	"net/http"
	"testing"
	"time"

	"swapstation-cloud/internal/telemetry/application"
	telemetry "swapstation-cloud/internal/telemetry/domain"
)

func TestBuildIngestResponse_Success(t *testing.T) {
	result := application.Result{
		Verdict: telemetry.Accept(),
		Outcome: application.Outcome{StateOK: true, ArchiveOK: true},
	}
	now := time.Date(2024, time.January, 15, 14, 24, 0, 0, time.UTC)

	resp := BuildIngestResponse(result, "station-01", now)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, ok := resp.Body.(IngestBody)
	if !ok {
		t.Fatalf("expected IngestBody, got %T", resp.Body)
	}
	if body.Message != "Telemetry processed successfully" {
		t.Fatalf("unexpected message %s", body.Message)
	}
	if !body.FastStoreOK || !body.ArchiveOK {
		t.Fatalf("expected both flags true, got %+v", body)
	}
	if body.Timestamp != "2024-01-15T14:24:00Z" {
		t.Fatalf("unexpected timestamp %s", body.Timestamp)
	}
}

func TestBuildIngestResponse_Partial(t *testing.T) {
	result := application.Result{
		Verdict: telemetry.Accept(),
		Outcome: application.Outcome{StateOK: true},
	}
	resp := BuildIngestResponse(result, "station-01", time.Now())
	if resp.StatusCode != http.StatusMultiStatus {
		t.Fatalf("expected 207, got %d", resp.StatusCode)
	}
	body := resp.Body.(IngestBody)
	if body.Message != "Telemetry partially processed" {
		t.Fatalf("unexpected message %s", body.Message)
	}
	if !body.FastStoreOK || body.ArchiveOK {
		t.Fatalf("expected fast-store-only flags, got %+v", body)
	}
}

func TestBuildIngestResponse_Failure(t *testing.T) {
	result := application.Result{Verdict: telemetry.Accept()}
	resp := BuildIngestResponse(result, "station-01", time.Now())
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	body := resp.Body.(IngestBody)
	if body.Message != "Failed to process telemetry" {
		t.Fatalf("unexpected message %s", body.Message)
	}
}

func TestBuildIngestResponse_Rejected(t *testing.T) {
	result := application.Result{
		Verdict: telemetry.Reject(telemetry.RejectMissingField, "timestamp", "Missing required field: timestamp"),
	}
	resp := BuildIngestResponse(result, "", time.Now())
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body, ok := resp.Body.(ErrorBody)
	if !ok {
		t.Fatalf("expected ErrorBody, got %T", resp.Body)
	}
	if body.Error != "Validation failed" {
		t.Fatalf("unexpected error %s", body.Error)
	}
	if body.Message != "Missing required field: timestamp" {
		t.Fatalf("unexpected message %s", body.Message)
	}
}
