package models

import "time"

// Vehicle is a plate registered to a user.
type Vehicle struct {
	UserID    int64     `db:"user_id" json:"user_id"`
	Plate     string    `db:"plate" json:"plate"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
