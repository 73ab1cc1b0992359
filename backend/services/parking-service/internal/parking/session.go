package parking

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a parking session.
type Status string

const (
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusExpired || s == StatusCancelled
}

// Session is one parking event for one vehicle.
type Session struct {
	ID            string          `json:"id"`
	UserID        int64           `json:"user_id"`
	Plate         string          `json:"plate"`
	Zone          ZoneID          `json:"zone"`
	StartTime     time.Time       `json:"start_time"`
	DurationHours int             `json:"duration_hours"`
	Price         decimal.Decimal `json:"price"`
	Status        Status          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// EndTime is StartTime plus the paid duration.
func (s Session) EndTime() time.Time {
	return s.StartTime.Add(hours(s.DurationHours))
}

// Expiry is the result of CheckExpiry.
type Expiry struct {
	Status    Status        `json:"status"`
	EndTime   time.Time     `json:"end_time"`
	Remaining time.Duration `json:"remaining"`
}

// StartQuote prices a proposed session.
type StartQuote struct {
	Zone  ZoneID          `json:"zone"`
	Hours int             `json:"hours"`
	Rate  decimal.Decimal `json:"rate"`
	Price decimal.Decimal `json:"price"`
	// EndTime is set when the quote was made against a concrete start time.
	EndTime *time.Time `json:"end_time,omitempty"`
}

// ExtensionQuote prices a proposed extension. It is never persisted.
type ExtensionQuote struct {
	AddedHours       int             `json:"added_hours"`
	AddedPrice       decimal.Decimal `json:"added_price"`
	NewTotal         decimal.Decimal `json:"new_total"`
	NewDurationHours int             `json:"new_duration_hours"`
	NewEndTime       time.Time       `json:"new_end_time"`
}

func hours(n int) time.Duration {
	return time.Duration(n) * time.Hour
}
