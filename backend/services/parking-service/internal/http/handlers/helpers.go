package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"smartparking/backend/services/parking-service/internal/models"
	"smartparking/backend/services/parking-service/internal/parking"
	"smartparking/backend/services/parking-service/internal/service"
)

const userIDHeader = "X-User-ID"

// ParkingService is the session manager surface the handlers use.
type ParkingService interface {
	Zones() []parking.Zone
	OperatingHours() parking.OperatingHours
	QuoteStart(zone parking.ZoneID, hours int) (parking.StartQuote, error)
	QuoteExtend(ctx context.Context, userID int64, plate string, hours int) (parking.ExtensionQuote, error)
	RegisterVehicle(ctx context.Context, userID int64, plate string) (*models.Vehicle, error)
	ListVehicles(ctx context.Context, userID int64) ([]models.Vehicle, error)
	StartParking(ctx context.Context, in service.StartInput) (*parking.Session, error)
	ExtendParking(ctx context.Context, in service.ExtendInput) (*service.ExtendResult, error)
	ActiveSession(ctx context.Context, userID int64, plate string) (*service.ActiveView, error)
	History(ctx context.Context, userID int64, filter models.HistoryFilter) (*models.History, error)
	CancelSession(ctx context.Context, sessionID string) (*parking.Session, error)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps a session manager error to its HTTP status.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	kind := service.ErrorKind(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
		writeJSON(w, status, errorResponse{Error: "internal error", Code: kind})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Code: kind})
}

func statusFor(kind string) int {
	switch kind {
	case "unknown_zone", "invalid_duration", "invalid_plate":
		return http.StatusBadRequest
	case "outside_operating_hours", "duration_exceeds_operating_window", "max_duration_exceeded",
		"session_already_active", "vehicle_exists":
		return http.StatusConflict
	case "session_not_active", "vehicle_not_registered", "session_not_found":
		return http.StatusNotFound
	case "payment_failed":
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

var errMissingUser = errors.New("missing user id header")

func userIDFromRequest(r *http.Request) (int64, error) {
	raw := r.Header.Get(userIDHeader)
	if raw == "" {
		return 0, errMissingUser
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		return 0, errors.New("invalid user id")
	}
	return userID, nil
}

// requireUser writes the error response itself and reports whether to continue.
func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errMissingUser) {
			status = http.StatusUnauthorized
		}
		writeError(w, status, err.Error())
		return 0, false
	}
	return userID, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}
