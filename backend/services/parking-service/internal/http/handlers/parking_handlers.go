package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"smartparking/backend/services/parking-service/internal/models"
	"smartparking/backend/services/parking-service/internal/parking"
	"smartparking/backend/services/parking-service/internal/service"
)

// ParkingHandler exposes the session lifecycle to end users.
type ParkingHandler struct {
	svc    ParkingService
	logger *zap.Logger
}

// NewParkingHandler builds handler set.
func NewParkingHandler(svc ParkingService, logger *zap.Logger) *ParkingHandler {
	return &ParkingHandler{svc: svc, logger: logger}
}

type startParkingRequest struct {
	Plate string         `json:"plate"`
	Zone  parking.ZoneID `json:"zone"`
	Hours int            `json:"hours"`
}

type extendParkingRequest struct {
	Plate string `json:"plate"`
	Hours int    `json:"hours"`
}

type cancelRequest struct {
	SessionID string `json:"session_id"`
}

// HandleStart handles POST /parking/start.
func (h *ParkingHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req startParkingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := h.svc.StartParking(r.Context(), service.StartInput{
		UserID: userID,
		Plate:  req.Plate,
		Zone:   req.Zone,
		Hours:  req.Hours,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"session":  session,
		"end_time": session.EndTime(),
	})
}

// HandleExtend handles POST /parking/extend.
func (h *ParkingHandler) HandleExtend(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req extendParkingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.ExtendParking(r.Context(), service.ExtendInput{
		UserID:     userID,
		Plate:      req.Plate,
		AddedHours: req.Hours,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleActive handles GET /parking/active?plate=.
func (h *ParkingHandler) HandleActive(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	plate := r.URL.Query().Get("plate")
	if plate == "" {
		writeError(w, http.StatusBadRequest, "plate is required")
		return
	}
	view, err := h.svc.ActiveSession(r.Context(), userID, plate)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleHistory handles GET /parking/history.
func (h *ParkingHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := models.HistoryFilter{
		Plate: q.Get("plate"),
		Zone:  parking.ZoneID(q.Get("zone")),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = limit
	}
	history, err := h.svc.History(r.Context(), userID, filter)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// HandleCancel handles POST /internal/parking/cancel.
func (h *ParkingHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	session, err := h.svc.CancelSession(r.Context(), req.SessionID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	h.logger.Info("session cancelled by operator", zap.String("session_id", session.ID))
	writeJSON(w, http.StatusOK, session)
}
