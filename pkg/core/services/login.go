package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/jakechorley/escala/pkg/auth"
	"github.com/jakechorley/escala/pkg/core/model"
)

// Authenticator is the slice of the auth bridge needed for sign-in/out
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*auth.Session, *model.User, error)
	SignOut()
}

// LoginResult carries the session and profile of a signed-in user
type LoginResult struct {
	Session *auth.Session
	User    *model.User
}

// Login authenticates the credentials and returns the session with the
// user's profile. Auth, provisioning and timeout errors pass through
// unwrapped so callers can present them distinctly.
func Login(
	ctx context.Context,
	authenticator Authenticator,
	logger *zap.Logger,
	email string,
	password string,
) (*LoginResult, error) {
	session, user, err := authenticator.SignIn(ctx, email, password)
	if err != nil {
		logger.Info("Login failed", zap.Error(err))
		return nil, err
	}

	return &LoginResult{Session: session, User: user}, nil
}

// Logout notifies auth-state listeners that the user signed out
func Logout(authenticator Authenticator, logger *zap.Logger) {
	authenticator.SignOut()
	logger.Info("User signed out")
}
