package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jakechorley/escala/pkg/core/model"
	"github.com/jakechorley/escala/pkg/core/projection"
	"github.com/jakechorley/escala/pkg/core/services"
)

type memberDetailsPayload struct {
	SingerName string `json:"singer_name"`
	Phone      string `json:"phone"`
}

type userResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	MinistryIDs []string `json:"ministry_ids"`
}

type scheduleResponse struct {
	ID            string                          `json:"id"`
	MinistryID    string                          `json:"ministry_id"`
	Date          string                          `json:"date"`
	MemberIDs     []string                        `json:"member_ids"`
	MemberDetails map[string]memberDetailsPayload `json:"member_details,omitempty"`
}

func toUserResponse(u model.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        string(u.Role),
		MinistryIDs: u.MinistryIDs,
	}
}

func toScheduleResponse(s model.Schedule) scheduleResponse {
	resp := scheduleResponse{
		ID:         s.ID,
		MinistryID: s.MinistryID,
		Date:       s.Date,
		MemberIDs:  s.MemberIDs,
	}
	if len(s.MemberDetails) > 0 {
		resp.MemberDetails = make(map[string]memberDetailsPayload, len(s.MemberDetails))
		for id, d := range s.MemberDetails {
			resp.MemberDetails[id] = memberDetailsPayload{SingerName: d.SingerName, Phone: d.Phone}
		}
	}
	return resp
}

func toScheduleResponses(schedules []model.Schedule) []scheduleResponse {
	out := make([]scheduleResponse, 0, len(schedules))
	for _, s := range schedules {
		out = append(out, toScheduleResponse(s))
	}
	return out
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload services.RegisterPayload
	if !s.decode(w, r, &payload) {
		return
	}

	userID, err := services.RegisterUser(r.Context(), s.auth, s.logger, payload)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]string{"user_id": userID})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !s.decode(w, r, &payload) {
		return
	}

	result, err := services.Login(r.Context(), s.auth, s.logger, payload.Email, payload.Password)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":      result.Session.Token,
		"expires_at": result.Session.ExpiresAt.Format(time.RFC3339),
		"user":       toUserResponse(*result.User),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	services.Logout(s.auth, s.logger)
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())

	user := s.store.Snapshot().UserByID(session.UserID)
	if user == nil {
		s.writeError(w, http.StatusNotFound, "profile not found")
		return
	}

	s.writeJSON(w, http.StatusOK, toUserResponse(*user))
}

func (s *Server) handleMySchedules(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())
	snap := s.store.Snapshot()

	upcoming := projection.UpcomingSchedules(session.UserID, snap.Schedules, time.Now())
	s.writeJSON(w, http.StatusOK, toScheduleResponses(upcoming))
}

func (s *Server) handleMyCalendar(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())
	snap := s.store.Snapshot()

	mine := make([]model.Schedule, 0)
	for _, sch := range snap.Schedules {
		if sch.HasMember(session.UserID) {
			mine = append(mine, sch)
		}
	}

	metadata := projection.CalendarMetadata(mine, snap.Ministries)

	payload := make(map[string]map[string]interface{}, len(metadata))
	for date, entry := range metadata {
		payload[date] = map[string]interface{}{
			"colors":   entry.Colors,
			"selected": entry.Selected,
		}
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleSetAvailability(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())

	var payload struct {
		Dates []string `json:"dates"`
	}
	if !s.decode(w, r, &payload) {
		return
	}

	if err := services.SetAvailability(r.Context(), s.store, s.logger, session.UserID, payload.Dates); err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())

	var payload struct {
		MinistryID string                `json:"ministry_id"`
		Date       string                `json:"date"`
		Details    *memberDetailsPayload `json:"details,omitempty"`
	}
	if !s.decode(w, r, &payload) {
		return
	}

	var details *model.MemberDetails
	if payload.Details != nil {
		details = &model.MemberDetails{
			SingerName: payload.Details.SingerName,
			Phone:      payload.Details.Phone,
		}
	}

	result, err := services.BookDate(r.Context(), s.store, s.overrides, s.logger,
		session.UserID, payload.MinistryID, payload.Date, details)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"action":   string(result.Action),
		"created":  result.Created,
		"schedule": toScheduleResponse(result.Schedule),
	})
}

func (s *Server) handleToggleMember(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())

	var payload struct {
		MemberID   string `json:"member_id"`
		MinistryID string `json:"ministry_id"`
		Date       string `json:"date"`
	}
	if !s.decode(w, r, &payload) {
		return
	}

	result, err := services.ToggleScheduleMember(r.Context(), s.store, s.logger,
		session.UserID, payload.MemberID, payload.MinistryID, payload.Date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"action":   string(result.Action),
		"schedule": toScheduleResponse(result.Schedule),
	})
}

func (s *Server) handleSetDetails(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())
	scheduleID := chi.URLParam(r, "id")
	memberID := chi.URLParam(r, "memberID")

	var payload memberDetailsPayload
	if !s.decode(w, r, &payload) {
		return
	}

	err := services.SetScheduleMemberDetails(r.Context(), s.store, s.logger,
		session.UserID, scheduleID, memberID,
		model.MemberDetails{SingerName: payload.SingerName, Phone: payload.Phone})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())
	scheduleID := chi.URLParam(r, "id")

	if err := services.DeleteSchedule(r.Context(), s.store, s.logger, session.UserID, scheduleID); err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleUpdateMinistryImage(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())
	ministryID := chi.URLParam(r, "id")

	var payload struct {
		ImageURL string `json:"image_url"`
	}
	if !s.decode(w, r, &payload) {
		return
	}

	if err := services.UpdateMinistryImage(r.Context(), s.store, s.logger, session.UserID, ministryID, payload.ImageURL); err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleMonthlyOverview(w http.ResponseWriter, r *http.Request) {
	ministryID := chi.URLParam(r, "id")
	snap := s.store.Snapshot()

	if snap.MinistryByID(ministryID) == nil {
		s.writeError(w, http.StatusNotFound, "ministry not found")
		return
	}

	month := time.Now()
	if raw := r.URL.Query().Get("month"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01", raw, time.Local)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "month must be yyyy-MM")
			return
		}
		month = parsed
	}

	overview := projection.MonthlyOverview(snap.Schedules, ministryID, month)
	s.writeJSON(w, http.StatusOK, toScheduleResponses(overview))
}
