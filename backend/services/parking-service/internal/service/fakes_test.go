package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"smartparking/backend/services/parking-service/internal/models"
	"smartparking/backend/services/parking-service/internal/parking"
	"smartparking/backend/services/parking-service/internal/repository"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]parking.Session
	history  []models.HistoryEntry
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: make(map[string]parking.Session)}
}

func (m *memSessions) LoadActiveSession(_ context.Context, plate string) (*parking.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.Plate == plate && s.Status == parking.StatusActive {
			found := s
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memSessions) GetSession(_ context.Context, id string) (*parking.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	return &s, nil
}

func (m *memSessions) Save(_ context.Context, s *parking.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.Status == parking.StatusActive {
		for id, other := range m.sessions {
			if id != s.ID && other.Plate == s.Plate && other.Status == parking.StatusActive {
				return repository.ErrActiveSessionExists
			}
		}
	}
	m.sessions[s.ID] = *s
	return nil
}

func (m *memSessions) AppendHistory(_ context.Context, e *models.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = int64(len(m.history) + 1)
	m.history = append(m.history, *e)
	return nil
}

func (m *memSessions) ListHistory(_ context.Context, userID int64, filter models.HistoryFilter) ([]models.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.HistoryEntry
	for i := len(m.history) - 1; i >= 0; i-- {
		e := m.history[i]
		if e.UserID != userID {
			continue
		}
		if filter.Plate != "" && e.Plate != filter.Plate {
			continue
		}
		if filter.Zone != "" && e.Zone != filter.Zone {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *memSessions) ListLapsed(_ context.Context, before time.Time, limit int) ([]parking.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []parking.Session
	for _, s := range m.sessions {
		if s.Status == parking.StatusActive && !s.EndTime().After(before) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memSessions) get(id string) parking.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

func (m *memSessions) events() []models.HistoryEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.HistoryEvent, 0, len(m.history))
	for _, e := range m.history {
		out = append(out, e.Event)
	}
	return out
}

func (m *memSessions) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

type memVehicles struct {
	mu       sync.Mutex
	vehicles []models.Vehicle
}

func (m *memVehicles) Create(_ context.Context, v *models.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.vehicles {
		if existing.UserID == v.UserID && existing.Plate == v.Plate {
			return repository.ErrVehicleExists
		}
	}
	v.CreatedAt = time.Now()
	m.vehicles = append(m.vehicles, *v)
	return nil
}

func (m *memVehicles) Exists(_ context.Context, userID int64, plate string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.vehicles {
		if v.UserID == userID && v.Plate == plate {
			return true, nil
		}
	}
	return false, nil
}

func (m *memVehicles) ListByUser(_ context.Context, userID int64) ([]models.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Vehicle
	for _, v := range m.vehicles {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	return out, nil
}

type memCache struct {
	mu       sync.Mutex
	sessions map[string]parking.Session
}

func newMemCache() *memCache {
	return &memCache{sessions: make(map[string]parking.Session)}
}

func (c *memCache) Save(_ context.Context, s parking.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[s.Plate] = s
	return nil
}

func (c *memCache) Get(_ context.Context, plate string) (*parking.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[plate]
	if !ok {
		return nil, redis.Nil
	}
	return &s, nil
}

func (c *memCache) Delete(_ context.Context, plate string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, plate)
	return nil
}

func (c *memCache) has(plate string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.sessions[plate]
	return ok
}

type fakeNotifier struct {
	mu        sync.Mutex
	reminders map[string]models.Reminder
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{reminders: make(map[string]models.Reminder)}
}

func (n *fakeNotifier) Notify(_ context.Context, r models.Reminder) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reminders[r.ID] = r
	return nil
}

func (n *fakeNotifier) Cancel(_ context.Context, id string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.reminders, id)
	return nil
}

func (n *fakeNotifier) get(id string) (models.Reminder, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	r, ok := n.reminders[id]
	return r, ok
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.reminders)
}

type fakePayments struct {
	mu      sync.Mutex
	err     error
	charges []models.ChargeRequest
}

func (p *fakePayments) Charge(_ context.Context, req models.ChargeRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.charges = append(p.charges, req)
	return nil
}

func (p *fakePayments) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.charges)
}
