package application

import (
	"context"
	"fmt"
	"testing"
	"time"

	telemetry "swapstation-cloud/internal/telemetry/domain"
	"swapstation-cloud/internal/telemetry/infrastructure/memory"
)

func seedStations(t *testing.T, store *memory.StateStore, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		state := telemetry.StationState{
			StationID:        fmt.Sprintf("station-%03d", i),
			BatteryAvailable: i,
			Timestamp:        time.Date(2024, time.January, 15, 14, 0, 0, 0, time.UTC),
			ProcessedAt:      time.Date(2024, time.January, 15, 14, 0, 1, 0, time.UTC),
		}
		if err := store.Upsert(context.Background(), state); err != nil {
			t.Fatalf("seed upsert: %v", err)
		}
	}
}

func TestListStations_Empty(t *testing.T) {
	store := memory.NewStateStore()
	queries, err := NewQueryService(store)
	if err != nil {
		t.Fatalf("new query service: %v", err)
	}

	stations, err := queries.ListStations(context.Background())
	if err != nil {
		t.Fatalf("list stations: %v", err)
	}
	if len(stations) != 0 {
		t.Fatalf("expected empty list, got %d", len(stations))
	}
}

func TestListStations_FollowsPagination(t *testing.T) {
	store := memory.NewStateStore()
	seedStations(t, store, 7)

	queries, err := NewQueryService(store, WithPageSize(3))
	if err != nil {
		t.Fatalf("new query service: %v", err)
	}

	stations, err := queries.ListStations(context.Background())
	if err != nil {
		t.Fatalf("list stations: %v", err)
	}
	if len(stations) != 7 {
		t.Fatalf("expected 7 stations across pages, got %d", len(stations))
	}
	for i, state := range stations {
		want := fmt.Sprintf("station-%03d", i+1)
		if state.StationID != want {
			t.Fatalf("expected %s at index %d, got %s", want, i, state.StationID)
		}
	}
}

func TestGetStation(t *testing.T) {
	store := memory.NewStateStore()
	seedStations(t, store, 2)

	queries, err := NewQueryService(store)
	if err != nil {
		t.Fatalf("new query service: %v", err)
	}

	state, err := queries.GetStation(context.Background(), "station-001")
	if err != nil {
		t.Fatalf("get station: %v", err)
	}
	if state == nil || state.BatteryAvailable != 1 {
		t.Fatalf("expected station-001, got %+v", state)
	}

	state, err = queries.GetStation(context.Background(), "station-999")
	if err != nil {
		t.Fatalf("get unknown station: %v", err)
	}
	if state != nil {
		t.Fatalf("expected nil for unknown station, got %+v", state)
	}

	if _, err := queries.GetStation(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for blank id")
	}
}
