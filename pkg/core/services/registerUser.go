package services

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jakechorley/escala/pkg/core/model"
	"github.com/jakechorley/escala/pkg/core/scheduler"
)

var validate = validator.New()

// RegisterPayload carries the sign-up form fields
type RegisterPayload struct {
	Name        string   `json:"name" validate:"required,min=2"`
	Email       string   `json:"email" validate:"required,email"`
	Password    string   `json:"password" validate:"required,min=6"`
	MinistryIDs []string `json:"ministry_ids"`
}

// Registrar is the slice of the auth bridge needed for sign-up
type Registrar interface {
	SignUp(ctx context.Context, email, password string, profile model.User) (string, error)
}

// RegisterUser validates the payload and creates the account. New accounts
// always start as members; role promotion is a separate leader concern.
func RegisterUser(
	ctx context.Context,
	registrar Registrar,
	logger *zap.Logger,
	payload RegisterPayload,
) (string, error) {
	if err := validate.Struct(payload); err != nil {
		return "", &scheduler.ValidationError{Reason: fmt.Sprintf("invalid registration: %v", err)}
	}

	userID, err := registrar.SignUp(ctx, payload.Email, payload.Password, model.User{
		Name:        payload.Name,
		Role:        model.RoleMember,
		MinistryIDs: payload.MinistryIDs,
	})
	if err != nil {
		return "", err
	}

	logger.Info("User registered", zap.String("user_id", userID))
	return userID, nil
}
