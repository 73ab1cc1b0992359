package ws

import (
	"sync"

	"smartparking/backend/services/parking-service/internal/metrics"
)

// Manager tracks open countdown connections.
type Manager struct {
	mu          sync.RWMutex
	connections map[*Connection]struct{}
}

// NewManager builds connection manager.
func NewManager() *Manager {
	return &Manager{connections: make(map[*Connection]struct{})}
}

// Add registers new connection.
func (m *Manager) Add(conn *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections[conn] = struct{}{}
	metrics.CountdownConnections.Set(float64(len(m.connections)))
}

// Remove removes connection.
func (m *Manager) Remove(conn *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.connections, conn)
	metrics.CountdownConnections.Set(float64(len(m.connections)))
}

// Count returns the number of open connections.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}
