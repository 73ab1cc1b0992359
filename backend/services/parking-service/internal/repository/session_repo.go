package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"smartparking/backend/services/parking-service/internal/models"
	"smartparking/backend/services/parking-service/internal/parking"
)

const defaultHistoryLimit = 50

const sessionColumns = `id, user_id, plate, zone, start_time, duration_hours, price, status, created_at, updated_at`

// SessionRepository handles persistence of parking sessions and their history.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository returns repository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Save inserts the session or updates its mutable fields.
func (r *SessionRepository) Save(ctx context.Context, s *parking.Session) error {
	const query = `
		INSERT INTO parking_sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			duration_hours = EXCLUDED.duration_hours,
			price = EXCLUDED.price,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.UserID,
		s.Plate,
		s.Zone,
		s.StartTime,
		s.DurationHours,
		s.Price,
		s.Status,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrActiveSessionExists, s.Plate)
	}
	return err
}

// LoadActiveSession returns the plate's active session, or nil when there is none.
func (r *SessionRepository) LoadActiveSession(ctx context.Context, plate string) (*parking.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM parking_sessions WHERE plate = $1 AND status = 'active' LIMIT 1`
	s, err := scanSession(r.db.QueryRowContext(ctx, query, plate))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetSession returns a session by id.
func (r *SessionRepository) GetSession(ctx context.Context, id string) (*parking.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM parking_sessions WHERE id = $1`
	s, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListLapsed returns active sessions whose end time is not after before.
func (r *SessionRepository) ListLapsed(ctx context.Context, before time.Time, limit int) ([]parking.Session, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT ` + sessionColumns + `
		FROM parking_sessions
		WHERE status = 'active'
		  AND start_time + duration_hours * INTERVAL '1 hour' <= $1
		ORDER BY start_time
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []parking.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// AppendHistory records a committed transition.
func (r *SessionRepository) AppendHistory(ctx context.Context, e *models.HistoryEntry) error {
	const query = `
		INSERT INTO parking_history (session_id, user_id, plate, zone, event, duration_hours, price, amount, start_time, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		e.SessionID,
		e.UserID,
		e.Plate,
		e.Zone,
		e.Event,
		e.DurationHours,
		e.Price,
		e.Amount,
		e.StartTime,
		e.RecordedAt,
	).Scan(&e.ID)
}

// ListHistory returns the user's newest history entries matching filter.
func (r *SessionRepository) ListHistory(ctx context.Context, userID int64, filter models.HistoryFilter) ([]models.HistoryEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	var sb strings.Builder
	sb.WriteString(`
		SELECT id, session_id, user_id, plate, zone, event, duration_hours, price, amount, start_time, recorded_at
		FROM parking_history
		WHERE user_id = $1`)
	args := []interface{}{userID}
	if filter.Plate != "" {
		args = append(args, filter.Plate)
		fmt.Fprintf(&sb, " AND plate = $%d", len(args))
	}
	if filter.Zone != "" {
		args = append(args, filter.Zone)
		fmt.Fprintf(&sb, " AND zone = $%d", len(args))
	}
	args = append(args, limit)
	fmt.Fprintf(&sb, " ORDER BY recorded_at DESC, id DESC LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(
			&e.ID,
			&e.SessionID,
			&e.UserID,
			&e.Plate,
			&e.Zone,
			&e.Event,
			&e.DurationHours,
			&e.Price,
			&e.Amount,
			&e.StartTime,
			&e.RecordedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*parking.Session, error) {
	var s parking.Session
	if err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Plate,
		&s.Zone,
		&s.StartTime,
		&s.DurationHours,
		&s.Price,
		&s.Status,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}
