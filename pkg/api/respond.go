package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/jakechorley/escala/pkg/auth"
	"github.com/jakechorley/escala/pkg/core/scheduler"
	"github.com/jakechorley/escala/pkg/core/services"
	"github.com/jakechorley/escala/pkg/sync"
)

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorBody{Error: message})
}

// writeServiceError maps the error taxonomy to HTTP statuses: capacity
// violations are 422, auth failures 401, leadership checks 403, missing
// entities 404, failed remote writes 502.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var (
		capErr    *scheduler.CapacityError
		valErr    *scheduler.ValidationError
		authErr   *auth.AuthError
		provErr   *auth.ProfileProvisioningError
		remoteErr *sync.RemoteWriteError
	)

	switch {
	case errors.As(err, &capErr):
		s.writeError(w, http.StatusUnprocessableEntity, capErr.Error())
	case errors.As(err, &valErr):
		s.writeError(w, http.StatusBadRequest, valErr.Error())
	case errors.As(err, &authErr):
		s.writeError(w, http.StatusUnauthorized, authErr.Error())
	case errors.Is(err, services.ErrNotPermitted):
		s.writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrScheduleNotFound),
		errors.Is(err, services.ErrMinistryNotFound),
		errors.Is(err, services.ErrUserNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, scheduler.ErrNotAMember):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrProfileTimeout):
		s.writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.As(err, &provErr):
		s.writeError(w, http.StatusBadGateway, provErr.Error())
	case errors.As(err, &remoteErr):
		s.writeError(w, http.StatusBadGateway, remoteErr.Error())
	default:
		s.logger.Error("Unhandled service error", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}
