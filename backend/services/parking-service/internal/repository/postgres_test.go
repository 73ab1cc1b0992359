package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	libdb "smartparking/backend/libs/db"
	"smartparking/backend/services/parking-service/internal/db"
	"smartparking/backend/services/parking-service/internal/models"
	"smartparking/backend/services/parking-service/internal/parking"
)

const testDSNEnv = "PARKING_TEST_POSTGRES_DSN"

// openTestDB connects to the database named by PARKING_TEST_POSTGRES_DSN and
// bootstraps the schema. The test is skipped when it is unset.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDSNEnv)
	}
	sqlDB, err := db.NewPostgres(context.Background(), dsn, libdb.PoolOptions{MaxOpenConns: 4})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return sqlDB
}

// testPlate returns a plate no other run uses and removes its rows afterwards.
func testPlate(t *testing.T, sqlDB *sql.DB) string {
	t.Helper()
	plate := "T" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
	t.Cleanup(func() {
		ctx := context.Background()
		_, _ = sqlDB.ExecContext(ctx, `DELETE FROM parking_history WHERE plate = $1`, plate)
		_, _ = sqlDB.ExecContext(ctx, `DELETE FROM parking_sessions WHERE plate = $1`, plate)
		_, _ = sqlDB.ExecContext(ctx, `DELETE FROM vehicles WHERE plate = $1`, plate)
	})
	return plate
}

func newSession(plate string, start time.Time, hours int) parking.Session {
	return parking.Session{
		ID:            uuid.NewString(),
		UserID:        7,
		Plate:         plate,
		Zone:          parking.ZoneCentar,
		StartTime:     start,
		DurationHours: hours,
		Price:         decimal.RequireFromString("1.50").Mul(decimal.NewFromInt(int64(hours))),
		Status:        parking.StatusActive,
		CreatedAt:     start,
		UpdatedAt:     start,
	}
}

func TestSessionRepositoryRoundTrip(t *testing.T) {
	sqlDB := openTestDB(t)
	if err := db.EnsureSchema(context.Background(), sqlDB); err != nil {
		t.Fatalf("schema must be re-runnable: %v", err)
	}
	repo := NewSessionRepository(sqlDB)
	ctx := context.Background()
	plate := testPlate(t, sqlDB)
	start := time.Date(1990, time.March, 12, 9, 0, 0, 0, time.UTC)

	s := newSession(plate, start, 2)
	if err := repo.Save(ctx, &s); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := repo.LoadActiveSession(ctx, plate)
	if err != nil || loaded == nil {
		t.Fatalf("load active: %v %+v", err, loaded)
	}
	if loaded.ID != s.ID || !loaded.StartTime.Equal(start) || !loaded.Price.Equal(s.Price) || loaded.Zone != parking.ZoneCentar {
		t.Fatalf("unexpected session %+v", loaded)
	}

	// Upsert updates the mutable fields in place.
	s.DurationHours = 5
	s.Price = decimal.RequireFromString("7.50")
	s.UpdatedAt = start.Add(150 * time.Minute)
	if err := repo.Save(ctx, &s); err != nil {
		t.Fatalf("save extended: %v", err)
	}
	got, err := repo.GetSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.DurationHours != 5 || !got.Price.Equal(decimal.RequireFromString("7.50")) || !got.EndTime().Equal(start.Add(5*time.Hour)) {
		t.Fatalf("upsert not applied: %+v", got)
	}

	second := newSession(plate, start.Add(time.Hour), 1)
	if err := repo.Save(ctx, &second); !errors.Is(err, ErrActiveSessionExists) {
		t.Fatalf("expected ErrActiveSessionExists, got %v", err)
	}

	s.Status = parking.StatusExpired
	if err := repo.Save(ctx, &s); err != nil {
		t.Fatalf("save expired: %v", err)
	}
	if active, err := repo.LoadActiveSession(ctx, plate); err != nil || active != nil {
		t.Fatalf("expected no active session, got %+v %v", active, err)
	}
	if _, err := repo.GetSession(ctx, uuid.NewString()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestListLapsedUsesEndTime(t *testing.T) {
	sqlDB := openTestDB(t)
	repo := NewSessionRepository(sqlDB)
	ctx := context.Background()
	plate := testPlate(t, sqlDB)
	start := time.Date(1990, time.March, 13, 9, 0, 0, 0, time.UTC)

	s := newSession(plate, start, 2)
	if err := repo.Save(ctx, &s); err != nil {
		t.Fatalf("save: %v", err)
	}

	contains := func(before time.Time) bool {
		t.Helper()
		lapsed, err := repo.ListLapsed(ctx, before, 1000)
		if err != nil {
			t.Fatalf("list lapsed: %v", err)
		}
		for _, l := range lapsed {
			if l.ID == s.ID {
				return true
			}
		}
		return false
	}
	if contains(start.Add(2*time.Hour - time.Second)) {
		t.Fatalf("session running until 11:00 must not be lapsed at 10:59:59")
	}
	if !contains(start.Add(2 * time.Hour)) {
		t.Fatalf("session must be lapsed at its end time")
	}
}

func TestHistoryAndVehicles(t *testing.T) {
	sqlDB := openTestDB(t)
	sessions := NewSessionRepository(sqlDB)
	vehicles := NewVehicleRepository(sqlDB)
	ctx := context.Background()
	plate := testPlate(t, sqlDB)
	const userID int64 = 424242

	v := &models.Vehicle{UserID: userID, Plate: plate}
	if err := vehicles.Create(ctx, v); err != nil {
		t.Fatalf("create vehicle: %v", err)
	}
	if err := vehicles.Create(ctx, &models.Vehicle{UserID: userID, Plate: plate}); !errors.Is(err, ErrVehicleExists) {
		t.Fatalf("expected ErrVehicleExists, got %v", err)
	}
	if ok, err := vehicles.Exists(ctx, userID, plate); err != nil || !ok {
		t.Fatalf("expected vehicle to exist: %v", err)
	}

	s := newSession(plate, time.Date(1990, time.March, 14, 9, 0, 0, 0, time.UTC), 2)
	s.UserID = userID
	started := models.NewHistoryEntry(s, models.EventStarted, s.Price, s.StartTime)
	if err := sessions.AppendHistory(ctx, started); err != nil {
		t.Fatalf("append history: %v", err)
	}
	if started.ID == 0 {
		t.Fatalf("expected generated history id")
	}
	extended := models.NewHistoryEntry(s, models.EventExtended, decimal.RequireFromString("1.50"), s.StartTime.Add(time.Hour))
	if err := sessions.AppendHistory(ctx, extended); err != nil {
		t.Fatalf("append history: %v", err)
	}

	entries, err := sessions.ListHistory(ctx, userID, models.HistoryFilter{Plate: plate, Zone: parking.ZoneCentar})
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(entries) != 2 || entries[0].Event != models.EventExtended {
		t.Fatalf("expected newest first, got %+v", entries)
	}
	none, err := sessions.ListHistory(ctx, userID, models.HistoryFilter{Plate: plate, Zone: parking.ZoneStanica})
	if err != nil || len(none) != 0 {
		t.Fatalf("zone filter should exclude entries, got %+v %v", none, err)
	}
}
