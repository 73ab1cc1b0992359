package handlers

import (
	"net/http"
)

// NewZonesHandler returns GET /zones handler.
func NewZonesHandler(svc ParkingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"zones":           svc.Zones(),
			"operating_hours": svc.OperatingHours().String(),
		})
	}
}
