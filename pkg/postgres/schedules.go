package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jakechorley/escala/pkg/db"
)

// GetSchedules retrieves all schedule records
func (d *DB) GetSchedules(ctx context.Context) ([]db.Schedule, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, ministry_id, date, member_ids, member_details, created_at
		FROM schedules
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer rows.Close()

	var schedules []db.Schedule
	for rows.Next() {
		var s db.Schedule
		var date time.Time
		var detailsJSON []byte
		if err := rows.Scan(&s.ID, &s.MinistryID, &date, &s.MemberIDs, &detailsJSON, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		s.Date = date.Format("2006-01-02")
		if err := json.Unmarshal(detailsJSON, &s.MemberDetails); err != nil {
			return nil, fmt.Errorf("failed to decode member details for schedule %s: %w", s.ID, err)
		}
		schedules = append(schedules, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedules: %w", err)
	}

	return schedules, nil
}

// UpsertSchedule writes a schedule record, keyed physically by id but
// logically unique on (ministry_id, date). A conflicting insert on the
// composite key resolves to an update of the existing row, so two clients
// booking the same pair can never create two records.
func (d *DB) UpsertSchedule(ctx context.Context, schedule db.Schedule) error {
	detailsJSON, err := json.Marshal(schedule.MemberDetails)
	if err != nil {
		return fmt.Errorf("failed to encode member details: %w", err)
	}

	_, err = d.pool.Exec(ctx, `
		INSERT INTO schedules (id, ministry_id, date, member_ids, member_details)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (ministry_id, date) DO UPDATE
		SET member_ids = EXCLUDED.member_ids,
		    member_details = EXCLUDED.member_details
	`, schedule.ID, schedule.MinistryID, schedule.Date, schedule.MemberIDs, detailsJSON)
	if err != nil {
		return fmt.Errorf("failed to upsert schedule: %w", err)
	}
	return nil
}

// DeleteSchedule removes a schedule record entirely
func (d *DB) DeleteSchedule(ctx context.Context, id string) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}
