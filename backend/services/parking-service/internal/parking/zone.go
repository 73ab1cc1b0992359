package parking

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ZoneID identifies a parking zone by its public name.
type ZoneID string

// Municipal zones.
const (
	ZoneCentar  ZoneID = "Zona 1 - Centar"
	ZoneTrznica ZoneID = "Zona 2 - Tržnica"
	ZoneStanica ZoneID = "Zona 3 - Stanica"
)

// Zone is a parking area with its own hourly rate.
type Zone struct {
	ID         ZoneID          `json:"id"`
	HourlyRate decimal.Decimal `json:"hourly_rate"`
}

// PricingTable maps zones to hourly rates. It is immutable once built.
type PricingTable struct {
	zones map[ZoneID]Zone
	order []ZoneID
}

// NewPricingTable validates zones and builds a table. Every rate must be positive.
func NewPricingTable(zones ...Zone) (*PricingTable, error) {
	if len(zones) == 0 {
		return nil, fmt.Errorf("parking: pricing table needs at least one zone")
	}
	t := &PricingTable{
		zones: make(map[ZoneID]Zone, len(zones)),
		order: make([]ZoneID, 0, len(zones)),
	}
	for _, z := range zones {
		if z.ID == "" {
			return nil, fmt.Errorf("parking: zone id is empty")
		}
		if !z.HourlyRate.IsPositive() {
			return nil, fmt.Errorf("parking: zone %q: hourly rate must be positive, got %s", z.ID, z.HourlyRate)
		}
		if _, dup := t.zones[z.ID]; dup {
			return nil, fmt.Errorf("parking: zone %q defined twice", z.ID)
		}
		t.zones[z.ID] = z
		t.order = append(t.order, z.ID)
	}
	return t, nil
}

// DefaultZones returns the city's zone tariffs in EUR per hour.
func DefaultZones() []Zone {
	return []Zone{
		{ID: ZoneCentar, HourlyRate: decimal.RequireFromString("1.50")},
		{ID: ZoneTrznica, HourlyRate: decimal.RequireFromString("1.00")},
		{ID: ZoneStanica, HourlyRate: decimal.RequireFromString("0.50")},
	}
}

// DefaultPricingTable returns the table built from DefaultZones.
func DefaultPricingTable() *PricingTable {
	t, err := NewPricingTable(DefaultZones()...)
	if err != nil {
		panic(err)
	}
	return t
}

// RateFor returns the hourly rate of zone id.
func (t *PricingTable) RateFor(id ZoneID) (decimal.Decimal, error) {
	z, ok := t.zones[id]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownZone, id)
	}
	return z.HourlyRate, nil
}

// Zones lists zones in the order they were defined.
func (t *PricingTable) Zones() []Zone {
	out := make([]Zone, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.zones[id])
	}
	return out
}

// ParseZone builds a zone from a decimal rate string such as "1.50".
func ParseZone(id, rate string) (Zone, error) {
	r, err := decimal.NewFromString(rate)
	if err != nil {
		return Zone{}, fmt.Errorf("parking: zone %q: invalid rate %q", id, rate)
	}
	return Zone{ID: ZoneID(id), HourlyRate: r}, nil
}
