package models

import (
	"time"

	"github.com/shopspring/decimal"

	"smartparking/backend/services/parking-service/internal/parking"
)

// HistoryEvent names a committed session transition.
type HistoryEvent string

const (
	EventStarted   HistoryEvent = "started"
	EventExtended  HistoryEvent = "extended"
	EventExpired   HistoryEvent = "expired"
	EventCancelled HistoryEvent = "cancelled"
)

// HistoryEntry is one append-only audit record.
type HistoryEntry struct {
	ID            int64           `db:"id" json:"id"`
	SessionID     string          `db:"session_id" json:"session_id"`
	UserID        int64           `db:"user_id" json:"user_id"`
	Plate         string          `db:"plate" json:"plate"`
	Zone          parking.ZoneID  `db:"zone" json:"zone"`
	Event         HistoryEvent    `db:"event" json:"event"`
	DurationHours int             `db:"duration_hours" json:"duration_hours"`
	Price         decimal.Decimal `db:"price" json:"price"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	StartTime     time.Time       `db:"start_time" json:"start_time"`
	RecordedAt    time.Time       `db:"recorded_at" json:"recorded_at"`
}

// NewHistoryEntry snapshots s for event. amount is what was charged for it.
func NewHistoryEntry(s parking.Session, event HistoryEvent, amount decimal.Decimal, at time.Time) *HistoryEntry {
	return &HistoryEntry{
		SessionID:     s.ID,
		UserID:        s.UserID,
		Plate:         s.Plate,
		Zone:          s.Zone,
		Event:         event,
		DurationHours: s.DurationHours,
		Price:         s.Price,
		Amount:        amount,
		StartTime:     s.StartTime,
		RecordedAt:    at,
	}
}

// HistoryFilter narrows a history listing.
type HistoryFilter struct {
	Plate string
	Zone  parking.ZoneID
	Limit int
}

// History is a user's filtered history with the amount spent across it.
type History struct {
	Entries    []HistoryEntry  `json:"entries"`
	TotalSpent decimal.Decimal `json:"total_spent"`
}
