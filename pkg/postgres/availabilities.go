package postgres

import (
	"context"
	"fmt"

	"github.com/jakechorley/escala/pkg/db"
)

// GetAvailabilities retrieves all availability records
func (d *DB) GetAvailabilities(ctx context.Context) ([]db.Availability, error) {
	rows, err := d.pool.Query(ctx, `SELECT user_id, dates, updated_at FROM availabilities`)
	if err != nil {
		return nil, fmt.Errorf("failed to query availabilities: %w", err)
	}
	defer rows.Close()

	var availabilities []db.Availability
	for rows.Next() {
		var a db.Availability
		if err := rows.Scan(&a.UserID, &a.Dates, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan availability: %w", err)
		}
		availabilities = append(availabilities, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating availabilities: %w", err)
	}

	return availabilities, nil
}

// UpsertAvailability replaces the user's declared dates wholesale. One
// record per user; there is no append path.
func (d *DB) UpsertAvailability(ctx context.Context, availability db.Availability) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO availabilities (user_id, dates, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET dates = EXCLUDED.dates,
		    updated_at = NOW()
	`, availability.UserID, availability.Dates)
	if err != nil {
		return fmt.Errorf("failed to upsert availability: %w", err)
	}
	return nil
}
