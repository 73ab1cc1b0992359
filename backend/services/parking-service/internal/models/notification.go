package models

import (
	"time"

	"github.com/shopspring/decimal"

	"smartparking/backend/services/parking-service/internal/parking"
)

// ReminderKind distinguishes the two user notifications.
type ReminderKind string

const (
	ReminderStarted  ReminderKind = "started"
	ReminderExpiring ReminderKind = "expiring"
)

// Reminder is a notification scheduled for delivery at At.
// Scheduling a reminder with an existing ID replaces it.
type Reminder struct {
	ID        string         `json:"id"`
	Kind      ReminderKind   `json:"kind"`
	SessionID string         `json:"session_id"`
	UserID    int64          `json:"user_id"`
	Plate     string         `json:"plate"`
	Zone      parking.ZoneID `json:"zone"`
	Message   string         `json:"message"`
	At        time.Time      `json:"at"`
}

// ChargeRequest asks the payment provider to collect Amount.
type ChargeRequest struct {
	Reference   string          `json:"reference"`
	UserID      int64           `json:"user_id"`
	Plate       string          `json:"plate"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
}
