package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"smartparking/backend/services/parking-service/internal/parking"
	"smartparking/backend/services/parking-service/internal/service"
)

const (
	readLimit       = 4096
	defaultPongWait = 60 * time.Second
)

// SessionSource reads the current state of a user's session.
type SessionSource interface {
	ActiveSession(ctx context.Context, userID int64, plate string) (*service.ActiveView, error)
}

// Snapshot is one countdown frame.
type Snapshot struct {
	SessionID        string         `json:"session_id"`
	Plate            string         `json:"plate"`
	Zone             parking.ZoneID `json:"zone"`
	Status           parking.Status `json:"status"`
	EndTime          time.Time      `json:"end_time"`
	RemainingSeconds int64          `json:"remaining_seconds"`
}

// Connection streams countdown snapshots for one plate to one client.
type Connection struct {
	userID       int64
	plate        string
	ws           *websocket.Conn
	source       SessionSource
	tick         time.Duration
	writeTimeout time.Duration
	logger       *zap.Logger
	onClose      func(*Connection)

	// pongWait bounds client silence; pings go out at 9/10 of it.
	pongWait time.Duration
}

// NewConnection builds connection wrapper.
func NewConnection(userID int64, plate string, ws *websocket.Conn, source SessionSource, tick, writeTimeout time.Duration, logger *zap.Logger, onClose func(*Connection)) *Connection {
	return &Connection{
		userID:       userID,
		plate:        plate,
		ws:           ws,
		source:       source,
		tick:         tick,
		writeTimeout: writeTimeout,
		logger:       logger,
		onClose:      onClose,
		pongWait:     defaultPongWait,
	}
}

// Plate returns the followed plate.
func (c *Connection) Plate() string {
	return c.plate
}

// Start runs the pumps until the session ends, the client leaves or ctx is cancelled.
func (c *Connection) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.cleanup()

	go func() {
		c.readPump()
		cancel()
	}()
	c.writePump(ctx)
}

// readPump only drains control frames; the feed is one-way.
func (c *Connection) readPump() {
	c.ws.SetReadLimit(readLimit)
	c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
		return nil
	})
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Connection) writePump(ctx context.Context) {
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()
	ping := time.NewTicker(c.pongWait * 9 / 10)
	defer ping.Stop()

	if done := c.push(ctx); done {
		return
	}
	for {
		select {
		case <-ctx.Done():
			_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
			return
		case <-ticker.C:
			if done := c.push(ctx); done {
				return
			}
		case <-ping.C:
			if err := c.write(websocket.PingMessage, []byte("ping")); err != nil {
				return
			}
		}
	}
}

// push sends one snapshot and reports whether the feed is finished.
func (c *Connection) push(ctx context.Context) bool {
	view, err := c.source.ActiveSession(ctx, c.userID, c.plate)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Info("countdown source ended", zap.String("plate", c.plate), zap.Error(err))
		}
		_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "no active session"))
		return true
	}

	snap := Snapshot{
		SessionID:        view.Session.ID,
		Plate:            view.Session.Plate,
		Zone:             view.Session.Zone,
		Status:           view.Expiry.Status,
		EndTime:          view.Expiry.EndTime,
		RemainingSeconds: int64(view.Expiry.Remaining / time.Second),
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return true
	}
	if err := c.write(websocket.TextMessage, data); err != nil {
		return true
	}
	if snap.Status != parking.StatusActive {
		_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(snap.Status)))
		return true
	}
	return false
}

func (c *Connection) write(messageType int, data []byte) error {
	c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteMessage(messageType, data)
}

func (c *Connection) cleanup() {
	_ = c.ws.Close()
	if c.onClose != nil {
		c.onClose(c)
	}
}
