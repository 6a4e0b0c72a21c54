package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jakechorley/escala/pkg/db"
)

const profileColumns = `id, name, email, role, ministry_ids, password_hash, created_at`

// Postgres error class 23505, unique_violation
const uniqueViolationCode = "23505"

// GetProfiles retrieves all profile records
func (d *DB) GetProfiles(ctx context.Context) ([]db.Profile, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+profileColumns+` FROM profiles`)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []db.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}

	return profiles, nil
}

// GetProfile retrieves a single profile by id
func (d *DB) GetProfile(ctx context.Context, id string) (*db.Profile, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProfileByEmail retrieves a single profile by email
func (d *DB) GetProfileByEmail(ctx context.Context, email string) (*db.Profile, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE email = $1`, email)
	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// InsertProfile inserts a new profile record. A unique-constraint violation
// (two signups racing on the same email) surfaces as db.ErrDuplicate.
func (d *DB) InsertProfile(ctx context.Context, profile db.Profile) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO profiles (id, name, email, role, ministry_ids, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, profile.ID, profile.Name, profile.Email, profile.Role, profile.MinistryIDs, profile.PasswordHash)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return fmt.Errorf("%w: %s", db.ErrDuplicate, pgErr.ConstraintName)
	}
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

// UpdateProfile applies a partial update; nil fields keep their values
func (d *DB) UpdateProfile(ctx context.Context, id string, update db.ProfileUpdate) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE profiles
		SET name = COALESCE($2, name),
		    role = COALESCE($3, role),
		    ministry_ids = COALESCE($4, ministry_ids)
		WHERE id = $1
	`, id, update.Name, update.Role, update.MinistryIDs)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func scanProfile(row pgx.Row) (db.Profile, error) {
	var p db.Profile
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Role, &p.MinistryIDs, &p.PasswordHash, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.Profile{}, err
		}
		return db.Profile{}, fmt.Errorf("failed to scan profile: %w", err)
	}
	return p, nil
}
