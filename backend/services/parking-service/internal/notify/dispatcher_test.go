package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"smartparking/backend/services/parking-service/internal/models"
	"smartparking/backend/services/parking-service/internal/parking"
	redisstore "smartparking/backend/services/parking-service/internal/redis"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []ReminderEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, event ReminderEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func newQueue(t *testing.T) *redisstore.ReminderQueue {
	t.Helper()
	queue, _ := newQueueWithServer(t)
	return queue
}

func newQueueWithServer(t *testing.T) (*redisstore.ReminderQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return redisstore.NewReminderQueue(client), mr
}

type fakeLookup struct {
	sessions map[string]parking.Session
}

func (f fakeLookup) GetSession(_ context.Context, id string) (*parking.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &s, nil
}

func TestDispatchDuePublishesOnlyDueReminders(t *testing.T) {
	queue := newQueue(t)
	pub := &fakePublisher{}
	now := time.Date(2024, time.March, 12, 10, 55, 0, 0, time.UTC)
	clock := parking.ClockFunc(func() time.Time { return now })
	d := NewDispatcher(queue, pub, nil, clock, time.Second, zap.NewNop())
	ctx := context.Background()

	_ = queue.Notify(ctx, models.Reminder{ID: "reminder:s-1", Kind: models.ReminderExpiring, Plate: "ZG123AB", Zone: parking.ZoneCentar, At: now})
	_ = queue.Notify(ctx, models.Reminder{ID: "reminder:s-2", Kind: models.ReminderExpiring, Plate: "ST555CD", At: now.Add(time.Hour)})

	sent, err := d.DispatchDue(ctx)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if sent != 1 || pub.count() != 1 {
		t.Fatalf("expected one published reminder, got sent=%d published=%d", sent, pub.count())
	}
	ev := pub.events[0]
	if ev.ID != "reminder:s-1" || ev.Zone != string(parking.ZoneCentar) || !ev.SentAt.Equal(now) {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestDispatchDueReschedulesOnPublishFailure(t *testing.T) {
	queue := newQueue(t)
	pub := &fakePublisher{}
	pub.setErr(errors.New("broker down"))
	now := time.Date(2024, time.March, 12, 10, 55, 0, 0, time.UTC)
	clock := parking.ClockFunc(func() time.Time { return now })
	d := NewDispatcher(queue, pub, nil, clock, time.Second, zap.NewNop())
	ctx := context.Background()

	_ = queue.Notify(ctx, models.Reminder{ID: "reminder:s-1", Kind: models.ReminderExpiring, At: now})

	sent, err := d.DispatchDue(ctx)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if sent != 0 {
		t.Fatalf("expected nothing sent, got %d", sent)
	}
	if pending, _ := queue.Pending(ctx); pending != 1 {
		t.Fatalf("expected failed reminder to be rescheduled, pending=%d", pending)
	}

	pub.setErr(nil)
	now = now.Add(time.Minute)
	if sent, _ := d.DispatchDue(ctx); sent != 1 {
		t.Fatalf("expected retry to publish, got %d", sent)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	queue := newQueue(t)
	d := NewDispatcher(queue, &fakePublisher{}, nil, parking.SystemClock{}, 10*time.Millisecond, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("dispatcher did not stop")
	}
}

func TestDispatchDueKeepsReadableRemindersFromBatch(t *testing.T) {
	queue, mr := newQueueWithServer(t)
	pub := &fakePublisher{}
	now := time.Date(2024, time.March, 12, 10, 55, 0, 0, time.UTC)
	clock := parking.ClockFunc(func() time.Time { return now })
	d := NewDispatcher(queue, pub, nil, clock, time.Second, zap.NewNop())
	ctx := context.Background()

	_ = queue.Notify(ctx, models.Reminder{ID: "reminder:s-1", Kind: models.ReminderExpiring, Plate: "ZG123AB", At: now})
	mr.HSet("parking:reminders:payload", "reminder:broken", "{not json")
	if _, err := mr.ZAdd("parking:reminders:schedule", float64(now.UnixMilli()), "reminder:broken"); err != nil {
		t.Fatalf("seed broken reminder: %v", err)
	}

	sent, err := d.DispatchDue(ctx)
	if err == nil {
		t.Fatalf("expected the unreadable payload to be reported")
	}
	if sent != 1 || pub.count() != 1 || pub.events[0].ID != "reminder:s-1" {
		t.Fatalf("readable reminder must still be published, sent=%d events=%+v", sent, pub.events)
	}
	if pending, _ := queue.Pending(ctx); pending != 0 {
		t.Fatalf("expected empty schedule, pending=%d", pending)
	}
}

func TestDispatchDueDropsRetryForFinishedSession(t *testing.T) {
	queue := newQueue(t)
	pub := &fakePublisher{}
	pub.setErr(errors.New("broker down"))
	now := time.Date(2024, time.March, 12, 10, 55, 0, 0, time.UTC)
	clock := parking.ClockFunc(func() time.Time { return now })
	lookup := fakeLookup{sessions: map[string]parking.Session{
		"s-1": {ID: "s-1", Status: parking.StatusCancelled},
		"s-2": {ID: "s-2", Status: parking.StatusActive},
	}}
	d := NewDispatcher(queue, pub, lookup, clock, time.Second, zap.NewNop())
	ctx := context.Background()

	_ = queue.Notify(ctx, models.Reminder{ID: "reminder:s-1", SessionID: "s-1", Kind: models.ReminderExpiring, At: now})
	_ = queue.Notify(ctx, models.Reminder{ID: "reminder:s-2", SessionID: "s-2", Kind: models.ReminderExpiring, At: now})

	if _, err := d.DispatchDue(ctx); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if pending, _ := queue.Pending(ctx); pending != 1 {
		t.Fatalf("only the active session's reminder should be retried, pending=%d", pending)
	}

	pub.setErr(nil)
	now = now.Add(time.Minute)
	if sent, _ := d.DispatchDue(ctx); sent != 1 || pub.events[0].SessionID != "s-2" {
		t.Fatalf("expected retry for s-2 only, got %+v", pub.events)
	}
}
