package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoadAppliesDefaultsAndEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PARKING_POSTGRES_DSN", "postgres://localhost/parking")
	t.Setenv("PARKING_PAYMENT_URL", "http://payments")
	t.Setenv("PARKING_REMINDER_LEAD", "10m")
	t.Setenv("PARKING_TIMEZONE", "UTC")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddress() != ":8082" {
		t.Fatalf("unexpected address %s", cfg.HTTPAddress())
	}
	if cfg.Parking.ReminderLead != 10*time.Minute {
		t.Fatalf("expected 10m lead, got %s", cfg.Parking.ReminderLead)
	}
	hours, err := cfg.OperatingHours()
	if err != nil {
		t.Fatalf("hours: %v", err)
	}
	if hours.String() != "07:00-18:00" {
		t.Fatalf("unexpected hours %s", hours)
	}
}

func TestLoadRequiresDSN(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PARKING_POSTGRES_DSN", "")
	t.Setenv("PARKING_PAYMENT_URL", "http://payments")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without dsn")
	}
}

func TestZonesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parking.yaml")
	data := []byte(`
database:
  dsn: postgres://localhost/parking
payment:
  url: http://payments
parking:
  timezone: UTC
  zones:
    - id: Zona A
      hourlyRate: "2.00"
    - id: Zona B
      hourlyRate: "0.80"
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	table, err := cfg.PricingTable()
	if err != nil {
		t.Fatalf("pricing: %v", err)
	}
	rate, err := table.RateFor("Zona B")
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("0.80")) {
		t.Fatalf("unexpected rate %s", rate)
	}
}

func TestValidateRejectsNonPositiveRate(t *testing.T) {
	cfg := Default()
	cfg.Database.DSN = "postgres://localhost/parking"
	cfg.Payment.URL = "http://payments"
	cfg.Parking.Timezone = "UTC"
	cfg.Parking.Zones = []ZoneConfig{{ID: "Zona A", HourlyRate: "0"}}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for zero rate")
	}
}
