package ws

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"smartparking/backend/services/parking-service/internal/parking"
	"smartparking/backend/services/parking-service/internal/service"
)

const userIDHeader = "X-User-ID"

// Server upgrades HTTP connections to countdown feeds.
type Server struct {
	ctx          context.Context
	manager      *Manager
	source       SessionSource
	tick         time.Duration
	writeTimeout time.Duration
	logger       *zap.Logger
	upgrader     websocket.Upgrader
	pongWait     time.Duration
}

// NewServer builds ws server. Feeds stop when ctx is cancelled.
func NewServer(ctx context.Context, manager *Manager, source SessionSource, tick, writeTimeout time.Duration, logger *zap.Logger) *Server {
	if tick <= 0 {
		tick = time.Second
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &Server{
		ctx:          ctx,
		manager:      manager,
		source:       source,
		tick:         tick,
		writeTimeout: writeTimeout,
		logger:       logger,
		pongWait:     defaultPongWait,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWS is HTTP handler for /parking/ws endpoint.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.Header.Get(userIDHeader), 10, 64)
	if err != nil {
		http.Error(w, "missing or invalid user id", http.StatusUnauthorized)
		return
	}
	plate := r.URL.Query().Get("plate")
	if plate == "" {
		http.Error(w, "plate is required", http.StatusBadRequest)
		return
	}

	view, err := s.source.ActiveSession(r.Context(), userID, plate)
	switch {
	case errors.Is(err, service.ErrInvalidPlate):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, parking.ErrSessionNotActive):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		s.logger.Error("countdown lookup failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	connection := NewConnection(userID, view.Session.Plate, conn, s.source, s.tick, s.writeTimeout, s.logger, s.manager.Remove)
	connection.pongWait = s.pongWait
	s.manager.Add(connection)

	go connection.Start(s.ctx)
	s.logger.Debug("countdown client connected", zap.String("plate", view.Session.Plate), zap.Int64("user_id", userID))
}
