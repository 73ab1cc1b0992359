package repository

import (
	"context"
	"database/sql"
	"errors"

	"smartparking/backend/services/parking-service/internal/models"
)

// VehicleRepository stores user vehicles.
type VehicleRepository struct {
	db *sql.DB
}

// NewVehicleRepository returns repository.
func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// Create registers a plate for a user.
func (r *VehicleRepository) Create(ctx context.Context, v *models.Vehicle) error {
	const query = `
		INSERT INTO vehicles (user_id, plate, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, plate) DO NOTHING
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query, v.UserID, v.Plate).Scan(&v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrVehicleExists
	}
	return err
}

// Exists reports whether the user registered the plate.
func (r *VehicleRepository) Exists(ctx context.Context, userID int64, plate string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM vehicles WHERE user_id = $1 AND plate = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, plate).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ListByUser returns the user's vehicles, oldest first.
func (r *VehicleRepository) ListByUser(ctx context.Context, userID int64) ([]models.Vehicle, error) {
	const query = `SELECT user_id, plate, created_at FROM vehicles WHERE user_id = $1 ORDER BY created_at, plate`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []models.Vehicle
	for rows.Next() {
		var v models.Vehicle
		if err := rows.Scan(&v.UserID, &v.Plate, &v.CreatedAt); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return vehicles, nil
}
