package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"smartparking/backend/services/parking-service/internal/parking"
)

// Store caches the active session of each plate. Postgres stays the source of truth.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore returns redis-backed store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) key(plate string) string {
	return fmt.Sprintf("parking:active:%s", plate)
}

// Save caches session until its end time plus the store TTL.
func (s *Store) Save(ctx context.Context, session parking.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	ttl := s.ttl
	if remaining := time.Until(session.EndTime()); remaining > 0 {
		ttl += remaining
	}
	return s.client.Set(ctx, s.key(session.Plate), data, ttl).Err()
}

// Get returns cached session. A miss is reported as redis.Nil.
func (s *Store) Get(ctx context.Context, plate string) (*parking.Session, error) {
	result, err := s.client.Get(ctx, s.key(plate)).Result()
	if err != nil {
		return nil, err
	}
	var session parking.Session
	if err := json.Unmarshal([]byte(result), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Delete removes cached session.
func (s *Store) Delete(ctx context.Context, plate string) error {
	return s.client.Del(ctx, s.key(plate)).Err()
}
