package handlers

import (
	"net/http"

	"go.uber.org/zap"
)

// VehiclesHandler manages the user's registered vehicles.
type VehiclesHandler struct {
	svc    ParkingService
	logger *zap.Logger
}

// NewVehiclesHandler builds handler set.
func NewVehiclesHandler(svc ParkingService, logger *zap.Logger) *VehiclesHandler {
	return &VehiclesHandler{svc: svc, logger: logger}
}

type registerVehicleRequest struct {
	Plate string `json:"plate"`
}

// ServeHTTP dispatches GET and POST /vehicles.
func (h *VehiclesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.register(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *VehiclesHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	vehicles, err := h.svc.ListVehicles(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"vehicles": vehicles})
}

func (h *VehiclesHandler) register(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req registerVehicleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	vehicle, err := h.svc.RegisterVehicle(r.Context(), userID, req.Plate)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, vehicle)
}
