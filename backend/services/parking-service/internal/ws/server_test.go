package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"smartparking/backend/services/parking-service/internal/parking"
	"smartparking/backend/services/parking-service/internal/service"
)

type fakeSource struct {
	mu   sync.Mutex
	view *service.ActiveView
	err  error
}

func (f *fakeSource) ActiveSession(_ context.Context, userID int64, plate string) (*service.ActiveView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if userID != 7 {
		return nil, parking.ErrSessionNotActive
	}
	v := *f.view
	return &v, nil
}

func (f *fakeSource) setStatus(status parking.Status, remaining time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.view.Expiry.Status = status
	f.view.Expiry.Remaining = remaining
}

func newTestServer(t *testing.T, source SessionSource) (*httptest.Server, *Manager) {
	t.Helper()
	return newTestServerWithPongWait(t, source, defaultPongWait)
}

func newTestServerWithPongWait(t *testing.T, source SessionSource, pongWait time.Duration) (*httptest.Server, *Manager) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	manager := NewManager()
	srv := NewServer(ctx, manager, source, 10*time.Millisecond, time.Second, zap.NewNop())
	srv.pongWait = pongWait
	ts := httptest.NewServer(http.HandlerFunc(srv.HandleWS))
	t.Cleanup(ts.Close)
	return ts, manager
}

func dial(t *testing.T, ts *httptest.Server, userID string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/?plate=ZG123AB"
	header := http.Header{}
	header.Set("X-User-ID", userID)
	return websocket.DefaultDialer.Dial(url, header)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func TestCountdownStreamsUntilExpired(t *testing.T) {
	end := time.Date(2024, time.March, 12, 11, 0, 0, 0, time.UTC)
	source := &fakeSource{view: &service.ActiveView{
		Session: parking.Session{ID: "s-1", Plate: "ZG123AB", Zone: parking.ZoneCentar},
		Expiry:  parking.Expiry{Status: parking.StatusActive, EndTime: end, Remaining: 90 * time.Second},
	}}
	ts, manager := newTestServer(t, source)

	conn, _, err := dial(t, ts, "7")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var snap Snapshot
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("read first snapshot: %v", err)
	}
	if snap.Plate != "ZG123AB" || snap.Status != parking.StatusActive || snap.RemainingSeconds != 90 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	waitFor(t, time.Second, func() bool { return manager.Count() == 1 })

	source.setStatus(parking.StatusExpired, 0)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				t.Fatalf("expected normal closure, got %v", err)
			}
			break
		}
		if err := json.Unmarshal(data, &snap); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	if snap.Status != parking.StatusExpired {
		t.Fatalf("expected final expired snapshot, got %+v", snap)
	}
	waitFor(t, time.Second, func() bool { return manager.Count() == 0 })
}

func TestCountdownRejectsBeforeUpgrade(t *testing.T) {
	source := &fakeSource{view: &service.ActiveView{}}
	ts, _ := newTestServer(t, source)

	_, resp, err := dial(t, ts, "8")
	if err == nil {
		t.Fatalf("expected dial to fail for another user")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %+v", resp)
	}

	_, resp, err = dial(t, ts, "")
	if err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user id, got %v", err)
	}
}

func TestCountdownOutlivesPongWait(t *testing.T) {
	end := time.Date(2024, time.March, 12, 11, 0, 0, 0, time.UTC)
	source := &fakeSource{view: &service.ActiveView{
		Session: parking.Session{ID: "s-1", Plate: "ZG123AB", Zone: parking.ZoneCentar},
		Expiry:  parking.Expiry{Status: parking.StatusActive, EndTime: end, Remaining: 2 * time.Hour},
	}}
	const pongWait = 100 * time.Millisecond
	ts, manager := newTestServerWithPongWait(t, source, pongWait)

	conn, _, err := dial(t, ts, "7")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Reading lets the client answer pings; the feed must survive several pong windows.
	deadline := time.Now().Add(5 * pongWait)
	frames := 0
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		if _, _, err := conn.ReadMessage(); err != nil {
			t.Fatalf("feed closed after %d frames: %v", frames, err)
		}
		frames++
	}
	if manager.Count() != 1 {
		t.Fatalf("expected connection to stay registered, got %d", manager.Count())
	}
}
