package postgres

import (
	"context"

	"github.com/jakechorley/escala/pkg/auth"
)

// GetCredentialByEmail resolves the authentication record for an email.
// Credentials live on the profile row; the separate accessor keeps the auth
// bridge decoupled from the profile schema.
func (d *DB) GetCredentialByEmail(ctx context.Context, email string) (*auth.Credential, error) {
	profile, err := d.GetProfileByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return &auth.Credential{
		UserID:       profile.ID,
		Email:        profile.Email,
		PasswordHash: profile.PasswordHash,
	}, nil
}
