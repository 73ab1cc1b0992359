package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"smartparking/backend/services/parking-service/internal/parking"
)

// QuotesHandler previews prices without committing anything.
type QuotesHandler struct {
	svc    ParkingService
	logger *zap.Logger
}

// NewQuotesHandler builds handler set.
func NewQuotesHandler(svc ParkingService, logger *zap.Logger) *QuotesHandler {
	return &QuotesHandler{svc: svc, logger: logger}
}

type startQuoteRequest struct {
	Zone  parking.ZoneID `json:"zone"`
	Hours int            `json:"hours"`
}

type extendQuoteRequest struct {
	Plate string `json:"plate"`
	Hours int    `json:"hours"`
}

// HandleStart handles POST /quotes/start.
func (h *QuotesHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req startQuoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	quote, err := h.svc.QuoteStart(req.Zone, req.Hours)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// HandleExtend handles POST /quotes/extend.
func (h *QuotesHandler) HandleExtend(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req extendQuoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	quote, err := h.svc.QuoteExtend(r.Context(), userID, req.Plate, req.Hours)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}
