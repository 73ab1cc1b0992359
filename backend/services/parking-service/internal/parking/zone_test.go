package parking

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDefaultZonesHavePositiveRates(t *testing.T) {
	table := DefaultPricingTable()
	zones := table.Zones()
	if len(zones) != 3 {
		t.Fatalf("expected 3 zones, got %d", len(zones))
	}
	for _, z := range zones {
		rate, err := table.RateFor(z.ID)
		if err != nil {
			t.Fatalf("rate for %s: %v", z.ID, err)
		}
		if !rate.IsPositive() {
			t.Fatalf("zone %s has non-positive rate %s", z.ID, rate)
		}
	}
	if zones[0].ID != ZoneCentar || zones[2].ID != ZoneStanica {
		t.Fatalf("unexpected zone order %v", zones)
	}
}

func TestNewPricingTableRejectsBadZones(t *testing.T) {
	cases := []struct {
		name  string
		zones []Zone
	}{
		{"empty", nil},
		{"zero rate", []Zone{{ID: "A", HourlyRate: decimal.Zero}}},
		{"negative rate", []Zone{{ID: "A", HourlyRate: decimal.NewFromInt(-1)}}},
		{"blank id", []Zone{{ID: "", HourlyRate: decimal.NewFromInt(1)}}},
		{"duplicate", []Zone{{ID: "A", HourlyRate: decimal.NewFromInt(1)}, {ID: "A", HourlyRate: decimal.NewFromInt(2)}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewPricingTable(tc.zones...); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestRateForUnknownZone(t *testing.T) {
	_, err := DefaultPricingTable().RateFor("Zona 4")
	if !errors.Is(err, ErrUnknownZone) {
		t.Fatalf("expected ErrUnknownZone, got %v", err)
	}
}
