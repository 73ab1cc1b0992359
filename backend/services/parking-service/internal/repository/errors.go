package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrSessionNotFound indicates a missing session id.
	ErrSessionNotFound = errors.New("repository: session not found")
	// ErrActiveSessionExists is returned when a second active row is written for a plate.
	ErrActiveSessionExists = errors.New("repository: plate already has an active session")
	// ErrVehicleExists indicates the user already registered the plate.
	ErrVehicleExists = errors.New("repository: vehicle already registered")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
