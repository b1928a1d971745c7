package integration_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	telemetry "swapstation-cloud/internal/telemetry/domain"
	telemetrypostgres "swapstation-cloud/internal/telemetry/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(db *sql.DB, table string) bool {
	var exists bool
	err := db.QueryRow(`
SELECT EXISTS (
	SELECT 1
	FROM information_schema.tables
	WHERE table_schema = 'public' AND table_name = $1
)`, table).Scan(&exists)
	if err != nil {
		return false
	}
	return exists
}

func TestStateStore_Postgres(t *testing.T) {
	db := openTestDB(t)
	if !tableExists(db, "station_states") {
		t.Skip("station_states missing; run migrations")
	}

	ctx := context.Background()
	_, _ = db.ExecContext(ctx, "DELETE FROM station_states WHERE station_id LIKE 'station-it-%'")

	store := telemetrypostgres.NewStateStore(db)
	charging := 4
	temp := 24.6
	state := telemetry.StationState{
		StationID:        "station-it-001",
		BatteryAvailable: 12,
		BatteryCharging:  &charging,
		Temperature:      &temp,
		Status:           telemetry.StatusOperational,
		Timestamp:        time.Date(2026, time.January, 21, 9, 0, 0, 0, time.UTC),
		ProcessedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}

	if err := store.Upsert(ctx, state); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := store.Get(ctx, "station-it-001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.BatteryAvailable != 12 {
		t.Fatalf("unexpected state %+v", got)
	}
	if got.BatteryCharging == nil || *got.BatteryCharging != 4 {
		t.Fatalf("unexpected charging %v", got.BatteryCharging)
	}

	// Overwrite replaces the whole row, including clearing optionals.
	state.BatteryAvailable = 11
	state.BatteryCharging = nil
	if err := store.Upsert(ctx, state); err != nil {
		t.Fatalf("upsert overwrite: %v", err)
	}
	got, err = store.Get(ctx, "station-it-001")
	if err != nil {
		t.Fatalf("get after overwrite: %v", err)
	}
	if got.BatteryAvailable != 11 || got.BatteryCharging != nil {
		t.Fatalf("expected full overwrite, got %+v", got)
	}

	missing, err := store.Get(ctx, "station-it-missing")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing station, got %+v", missing)
	}
}

func TestStateStore_PostgresPagination(t *testing.T) {
	db := openTestDB(t)
	if !tableExists(db, "station_states") {
		t.Skip("station_states missing; run migrations")
	}

	ctx := context.Background()
	_, _ = db.ExecContext(ctx, "DELETE FROM station_states WHERE station_id LIKE 'station-pg-%'")

	store := telemetrypostgres.NewStateStore(db)
	for i := 1; i <= 5; i++ {
		state := telemetry.StationState{
			StationID:        fmt.Sprintf("station-pg-%03d", i),
			BatteryAvailable: i,
			Timestamp:        time.Now().UTC(),
			ProcessedAt:      time.Now().UTC(),
		}
		if err := store.Upsert(ctx, state); err != nil {
			t.Fatalf("seed upsert: %v", err)
		}
	}

	var all []telemetry.StationState
	token := ""
	for {
		page, next, err := store.List(ctx, token, 2)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		all = append(all, page...)
		if next == "" {
			break
		}
		token = next
	}

	seeded := 0
	prev := ""
	for _, state := range all {
		if state.StationID <= prev {
			t.Fatalf("list not ordered by station id: %s after %s", state.StationID, prev)
		}
		prev = state.StationID
		if len(state.StationID) >= 10 && state.StationID[:10] == "station-pg" {
			seeded++
		}
	}
	if seeded != 5 {
		t.Fatalf("expected 5 seeded stations across pages, got %d", seeded)
	}
}

func TestArchiveStore_Postgres(t *testing.T) {
	db := openTestDB(t)
	if !tableExists(db, "telemetry_archive") {
		t.Skip("telemetry_archive missing; run migrations")
	}

	ctx := context.Background()
	_, _ = db.ExecContext(ctx, "DELETE FROM telemetry_archive WHERE station_id = 'station-it-arch'")

	store := telemetrypostgres.NewArchiveStore(db)
	body, _ := json.Marshal(map[string]any{
		"station_id":        "station-it-arch",
		"battery_available": 9,
		"timestamp":         "2026-01-21T09:00:00Z",
	})
	key := telemetry.BuildArchiveKey("station-it-arch",
		time.Date(2026, time.January, 21, 9, 0, 0, 0, time.UTC), telemetry.NewArchiveDisambiguator())
	meta := telemetry.ArchiveMetadata{StationID: "station-it-arch", IngestedAt: time.Now().UTC()}

	if err := store.Put(ctx, key, body, meta); err != nil {
		t.Fatalf("put: %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM telemetry_archive WHERE object_key = $1", key).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 archived object, got %d", count)
	}
}
