package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	libdb "smartparking/backend/libs/db"
)

const migrateTimeout = 30 * time.Second

// NewPostgres opens the shared pool and makes sure the parking tables exist.
func NewPostgres(ctx context.Context, dsn string, opts libdb.PoolOptions) (*sql.DB, error) {
	sqlDB, err := libdb.NewPostgresDB(ctx, dsn, opts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, migrateTimeout)
	defer cancel()

	if err := EnsureSchema(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return sqlDB, nil
}

// EnsureSchema creates tables and indexes that are missing. It is safe to run on every start.
func EnsureSchema(ctx context.Context, sqlDB *sql.DB) error {
	for i, stmt := range schema {
		if _, err := sqlDB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("db: schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS vehicles (
		user_id    BIGINT      NOT NULL,
		plate      TEXT        NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, plate)
	)`,
	`CREATE TABLE IF NOT EXISTS parking_sessions (
		id             UUID          PRIMARY KEY,
		user_id        BIGINT        NOT NULL,
		plate          TEXT          NOT NULL,
		zone           TEXT          NOT NULL,
		start_time     TIMESTAMPTZ   NOT NULL,
		duration_hours INTEGER       NOT NULL CHECK (duration_hours > 0),
		price          NUMERIC(10,2) NOT NULL CHECK (price >= 0),
		status         TEXT          NOT NULL,
		created_at     TIMESTAMPTZ   NOT NULL,
		updated_at     TIMESTAMPTZ   NOT NULL
	)`,
	// One running session per vehicle.
	`CREATE UNIQUE INDEX IF NOT EXISTS parking_sessions_active_plate
		ON parking_sessions (plate) WHERE status = 'active'`,
	`CREATE INDEX IF NOT EXISTS parking_sessions_active_end
		ON parking_sessions (status, start_time)`,
	`CREATE TABLE IF NOT EXISTS parking_history (
		id             BIGSERIAL     PRIMARY KEY,
		session_id     UUID          NOT NULL,
		user_id        BIGINT        NOT NULL,
		plate          TEXT          NOT NULL,
		zone           TEXT          NOT NULL,
		event          TEXT          NOT NULL,
		duration_hours INTEGER       NOT NULL,
		price          NUMERIC(10,2) NOT NULL,
		amount         NUMERIC(10,2) NOT NULL,
		start_time     TIMESTAMPTZ   NOT NULL,
		recorded_at    TIMESTAMPTZ   NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS parking_history_user
		ON parking_history (user_id, recorded_at DESC)`,
}
