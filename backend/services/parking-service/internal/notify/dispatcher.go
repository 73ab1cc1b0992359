package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"smartparking/backend/services/parking-service/internal/metrics"
	"smartparking/backend/services/parking-service/internal/models"
	"smartparking/backend/services/parking-service/internal/parking"
)

const dispatchBatch = 100

// Schedule is the reminder source drained by the dispatcher.
type Schedule interface {
	PopDue(ctx context.Context, now time.Time, limit int) ([]models.Reminder, error)
	Notify(ctx context.Context, r models.Reminder) error
}

// SessionLookup reads a session by id.
type SessionLookup interface {
	GetSession(ctx context.Context, id string) (*parking.Session, error)
}

// Publisher hands an event to the delivery bus.
type Publisher interface {
	Publish(ctx context.Context, event ReminderEvent) error
}

// Dispatcher moves due reminders from the schedule to the publisher.
type Dispatcher struct {
	schedule   Schedule
	publisher  Publisher
	sessions   SessionLookup
	clock      parking.Clock
	interval   time.Duration
	retryDelay time.Duration
	logger     *zap.Logger
}

// NewDispatcher builds dispatcher polling every interval. sessions may be nil,
// in which case failed reminders are always retried.
func NewDispatcher(schedule Schedule, publisher Publisher, sessions SessionLookup, clock parking.Clock, interval time.Duration, logger *zap.Logger) *Dispatcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Dispatcher{
		schedule:   schedule,
		publisher:  publisher,
		sessions:   sessions,
		clock:      clock,
		interval:   interval,
		retryDelay: 30 * time.Second,
		logger:     logger,
	}
}

// Run dispatches until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.DispatchDue(ctx); err != nil && ctx.Err() == nil {
				d.logger.Warn("reminder dispatch failed", zap.Error(err))
			}
		}
	}
}

// DispatchDue publishes every reminder due now and returns how many were sent.
// Reminders that fail to publish are put back on the schedule after retryDelay.
func (d *Dispatcher) DispatchDue(ctx context.Context) (int, error) {
	now := d.clock.Now()
	due, popErr := d.schedule.PopDue(ctx, now, dispatchBatch)
	if popErr != nil {
		if len(due) == 0 {
			return 0, popErr
		}
		d.logger.Warn("some due reminders were unreadable", zap.Error(popErr))
	}

	sent := 0
	for _, r := range due {
		event := ReminderEvent{
			ID:        r.ID,
			Kind:      r.Kind,
			SessionID: r.SessionID,
			UserID:    r.UserID,
			Plate:     r.Plate,
			Zone:      string(r.Zone),
			Message:   r.Message,
			DueAt:     r.At,
			SentAt:    now,
		}
		if err := d.publisher.Publish(ctx, event); err != nil {
			metrics.RemindersDispatched.WithLabelValues(string(r.Kind), "failed").Inc()
			d.logger.Warn("reminder publish failed, rescheduling",
				zap.String("reminder_id", r.ID),
				zap.String("plate", r.Plate),
				zap.Error(err),
			)
			if !d.stillActive(ctx, r) {
				d.logger.Info("dropping reminder for finished session",
					zap.String("reminder_id", r.ID),
					zap.String("session_id", r.SessionID),
				)
				continue
			}
			r.At = now.Add(d.retryDelay)
			if err := d.schedule.Notify(ctx, r); err != nil {
				d.logger.Error("reminder lost", zap.String("reminder_id", r.ID), zap.Error(err))
			}
			continue
		}
		metrics.RemindersDispatched.WithLabelValues(string(r.Kind), "sent").Inc()
		sent++
	}
	return sent, popErr
}

// stillActive reports whether r's session can still use the reminder. Lookup
// errors keep the reminder.
func (d *Dispatcher) stillActive(ctx context.Context, r models.Reminder) bool {
	if d.sessions == nil || r.SessionID == "" {
		return true
	}
	s, err := d.sessions.GetSession(ctx, r.SessionID)
	if err != nil {
		d.logger.Warn("reminder session lookup failed", zap.String("session_id", r.SessionID), zap.Error(err))
		return true
	}
	return s.Status == parking.StatusActive
}
