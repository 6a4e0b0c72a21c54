package postgres

import (
	"context"
	"fmt"

	"github.com/jakechorley/escala/pkg/db"
)

// GetMinistries retrieves all ministry records
func (d *DB) GetMinistries(ctx context.Context) ([]db.Ministry, error) {
	rows, err := d.pool.Query(ctx, `SELECT id, name, image_url, color FROM ministries`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ministries: %w", err)
	}
	defer rows.Close()

	var ministries []db.Ministry
	for rows.Next() {
		var m db.Ministry
		if err := rows.Scan(&m.ID, &m.Name, &m.ImageURL, &m.Color); err != nil {
			return nil, fmt.Errorf("failed to scan ministry: %w", err)
		}
		ministries = append(ministries, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ministries: %w", err)
	}

	return ministries, nil
}

// InsertMinistry inserts a new ministry record
func (d *DB) InsertMinistry(ctx context.Context, ministry db.Ministry) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO ministries (id, name, image_url, color)
		VALUES ($1, $2, $3, $4)
	`, ministry.ID, ministry.Name, ministry.ImageURL, ministry.Color)
	if err != nil {
		return fmt.Errorf("failed to insert ministry: %w", err)
	}
	return nil
}

// UpdateMinistryImage sets the ministry's cover image
func (d *DB) UpdateMinistryImage(ctx context.Context, id, imageURL string) error {
	tag, err := d.pool.Exec(ctx, `UPDATE ministries SET image_url = $2 WHERE id = $1`, id, imageURL)
	if err != nil {
		return fmt.Errorf("failed to update ministry image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}
