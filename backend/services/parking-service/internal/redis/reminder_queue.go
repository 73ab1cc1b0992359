package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"smartparking/backend/services/parking-service/internal/models"
)

const (
	scheduleKey = "parking:reminders:schedule"
	payloadKey  = "parking:reminders:payload"
)

// popDue atomically removes up to ARGV[2] reminders scored at or before ARGV[1]
// and returns their payloads.
var popDue = redis.NewScript(`
local ids = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1], "LIMIT", 0, tonumber(ARGV[2]))
local out = {}
for _, id in ipairs(ids) do
	local payload = redis.call("HGET", KEYS[2], id)
	redis.call("ZREM", KEYS[1], id)
	redis.call("HDEL", KEYS[2], id)
	if payload then
		table.insert(out, payload)
	end
end
return out
`)

// ReminderQueue is a time-ordered reminder schedule kept in a sorted set.
// Scheduling an existing ID replaces its payload and time.
type ReminderQueue struct {
	client *redis.Client
}

// NewReminderQueue returns redis-backed queue.
func NewReminderQueue(client *redis.Client) *ReminderQueue {
	return &ReminderQueue{client: client}
}

// Notify schedules r for delivery at r.At.
func (q *ReminderQueue) Notify(ctx context.Context, r models.Reminder) error {
	if r.ID == "" {
		return fmt.Errorf("redisstore: reminder id is empty")
	}
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, payloadKey, r.ID, data)
		pipe.ZAdd(ctx, scheduleKey, redis.Z{Score: score(r.At), Member: r.ID})
		return nil
	})
	return err
}

// Cancel drops a scheduled reminder. Unknown ids are ignored.
func (q *ReminderQueue) Cancel(ctx context.Context, id string) error {
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, scheduleKey, id)
		pipe.HDel(ctx, payloadKey, id)
		return nil
	})
	return err
}

// PopDue removes and returns up to limit reminders due at now, earliest first.
// Payloads that cannot be decoded are dropped and reported in the error; the
// decoded reminders are returned alongside it.
func (q *ReminderQueue) PopDue(ctx context.Context, now time.Time, limit int) ([]models.Reminder, error) {
	if limit <= 0 {
		limit = 100
	}
	raw, err := popDue.Run(ctx, q.client, []string{scheduleKey, payloadKey}, score(now), limit).StringSlice()
	if err != nil {
		return nil, err
	}
	reminders := make([]models.Reminder, 0, len(raw))
	var errs []error
	for _, item := range raw {
		var r models.Reminder
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			errs = append(errs, fmt.Errorf("redisstore: decode reminder: %w", err))
			continue
		}
		reminders = append(reminders, r)
	}
	return reminders, errors.Join(errs...)
}

// Pending returns how many reminders are scheduled.
func (q *ReminderQueue) Pending(ctx context.Context) (int64, error) {
	return q.client.ZCard(ctx, scheduleKey).Result()
}

func score(t time.Time) float64 {
	return float64(t.UnixMilli())
}
