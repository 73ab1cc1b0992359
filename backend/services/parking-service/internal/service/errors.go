package service

import (
	"errors"

	"smartparking/backend/services/parking-service/internal/parking"
)

var (
	ErrInvalidPlate         = errors.New("service: invalid licence plate")
	ErrVehicleNotRegistered = errors.New("service: vehicle is not registered to user")
	ErrVehicleExists        = errors.New("service: vehicle already registered")
	ErrSessionNotFound      = errors.New("service: session not found")
)

// ErrorKind extends parking.Kind with the service-level errors.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidPlate):
		return "invalid_plate"
	case errors.Is(err, ErrVehicleNotRegistered):
		return "vehicle_not_registered"
	case errors.Is(err, ErrVehicleExists):
		return "vehicle_exists"
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	}
	return parking.Kind(err)
}
