package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/escala/pkg/auth"
	"github.com/jakechorley/escala/pkg/core/model"
)

type fakeState struct {
	snapshot model.Snapshot

	upserted       []model.Schedule
	deleted        []string
	availabilities map[string][]string
	images         map[string]string
}

func newFakeState(snapshot model.Snapshot) *fakeState {
	return &fakeState{
		snapshot:       snapshot,
		availabilities: map[string][]string{},
		images:         map[string]string{},
	}
}

func (f *fakeState) Snapshot() model.Snapshot { return f.snapshot }

func (f *fakeState) UpsertSchedule(_ context.Context, schedule model.Schedule) error {
	f.upserted = append(f.upserted, schedule)
	return nil
}

func (f *fakeState) DeleteSchedule(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeState) UpsertAvailability(_ context.Context, userID string, dates []string) error {
	f.availabilities[userID] = dates
	return nil
}

func (f *fakeState) UpdateMinistryImage(_ context.Context, id, imageURL string) error {
	f.images[id] = imageURL
	return nil
}

type fakeAuth struct {
	sessions map[string]*auth.Session
	signedUp string
}

func (f *fakeAuth) SignUp(_ context.Context, email, _ string, _ model.User) (string, error) {
	f.signedUp = email
	return "user-new", nil
}

func (f *fakeAuth) SignIn(_ context.Context, email, password string) (*auth.Session, *model.User, error) {
	if email != "marcos@example.com" || password != "hunter22" {
		return nil, nil, &auth.AuthError{Reason: "invalid email or password"}
	}
	return &auth.Session{Token: "token-m1", UserID: "member-1", Email: email, ExpiresAt: time.Now().Add(time.Hour)},
		&model.User{ID: "member-1", Name: "Marcos", Email: email, Role: model.RoleMember}, nil
}

func (f *fakeAuth) SignOut() {}

func (f *fakeAuth) CurrentSession(token string) (*auth.Session, error) {
	session, ok := f.sessions[token]
	if !ok {
		return nil, &auth.AuthError{Reason: "invalid or expired session"}
	}
	return session, nil
}

func testSnapshot() model.Snapshot {
	return model.Snapshot{
		Users: []model.User{
			{ID: "leader-1", Name: "Lídia", Email: "lidia@example.com", Role: model.RoleLeader, MinistryIDs: []string{"min-som"}},
			{ID: "member-1", Name: "Marcos", Email: "marcos@example.com", Role: model.RoleMember, MinistryIDs: []string{"min-som"}},
		},
		Ministries: []model.Ministry{
			{ID: "min-som", Name: "Sonoplastia", Color: "#3B82F6"},
		},
		Schedules: []model.Schedule{
			{ID: "sched-full", MinistryID: "min-som", Date: "2024-06-10", MemberIDs: []string{"u1", "u2"},
				MemberDetails: map[string]model.MemberDetails{}},
		},
	}
}

func newTestServer(state *fakeState) (*Server, *fakeAuth) {
	authService := &fakeAuth{sessions: map[string]*auth.Session{
		"token-leader": {Token: "token-leader", UserID: "leader-1"},
		"token-member": {Token: "token-member", UserID: "member-1"},
	}}
	return NewServer(state, authService, nil, nil, zap.NewNop()), authService
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestAuthenticatedRoutesRejectMissingToken(t *testing.T) {
	srv, _ := newTestServer(newFakeState(testSnapshot()))

	rec := doJSON(t, srv, http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/me", "bogus", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin(t *testing.T) {
	srv, _ := newTestServer(newFakeState(testSnapshot()))

	rec := doJSON(t, srv, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "marcos@example.com", "password": "hunter22",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "token-m1", body["token"])

	rec = doJSON(t, srv, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "marcos@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	srv, authService := newTestServer(newFakeState(testSnapshot()))

	rec := doJSON(t, srv, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Joana", "email": "not-an-email", "password": "hunter22",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, authService.signedUp)

	rec = doJSON(t, srv, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Joana", "email": "joana@example.com", "password": "hunter22",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "joana@example.com", authService.signedUp)
}

func TestMe(t *testing.T) {
	srv, _ := newTestServer(newFakeState(testSnapshot()))

	rec := doJSON(t, srv, http.MethodGet, "/me", "token-member", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body userResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "member-1", body.ID)
	assert.Equal(t, "Marcos", body.Name)
}

func TestBookOverCapacityReturns422(t *testing.T) {
	state := newFakeState(testSnapshot())
	srv, _ := newTestServer(state)

	rec := doJSON(t, srv, http.MethodPost, "/schedules/book", "token-member", map[string]string{
		"ministry_id": "min-som", "date": "2024-06-10",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, state.upserted)
}

func TestBookNewDate(t *testing.T) {
	state := newFakeState(testSnapshot())
	srv, _ := newTestServer(state)

	rec := doJSON(t, srv, http.MethodPost, "/schedules/book", "token-member", map[string]string{
		"ministry_id": "min-som", "date": "2024-06-17",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "added", body["action"])
	require.Len(t, state.upserted, 1)
	assert.Equal(t, "2024-06-17", state.upserted[0].Date)
}

func TestToggleRequiresLeadership(t *testing.T) {
	state := newFakeState(testSnapshot())
	srv, _ := newTestServer(state)

	rec := doJSON(t, srv, http.MethodPost, "/schedules/toggle", "token-member", map[string]string{
		"member_id": "member-1", "ministry_id": "min-som", "date": "2024-06-17",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/schedules/toggle", "token-leader", map[string]string{
		"member_id": "member-1", "ministry_id": "min-som", "date": "2024-06-17",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDeleteScheduleNotFound(t *testing.T) {
	srv, _ := newTestServer(newFakeState(testSnapshot()))

	rec := doJSON(t, srv, http.MethodDelete, "/schedules/missing", "token-leader", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetAvailability(t *testing.T) {
	state := newFakeState(testSnapshot())
	srv, _ := newTestServer(state)

	rec := doJSON(t, srv, http.MethodPut, "/availability", "token-member", map[string][]string{
		"dates": {"2024-06-17", "2024-06-24"},
	})

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"2024-06-17", "2024-06-24"}, state.availabilities["member-1"])
}

func TestMonthlyOverview(t *testing.T) {
	srv, _ := newTestServer(newFakeState(testSnapshot()))

	rec := doJSON(t, srv, http.MethodGet, "/ministries/min-som/overview?month=2024-06", "token-member", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body []scheduleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "sched-full", body[0].ID)

	rec = doJSON(t, srv, http.MethodGet, "/ministries/min-missing/overview", "token-member", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateMinistryImageByLeader(t *testing.T) {
	state := newFakeState(testSnapshot())
	srv, _ := newTestServer(state)

	rec := doJSON(t, srv, http.MethodPut, "/ministries/min-som/image", "token-leader", map[string]string{
		"image_url": "https://example.com/cover.png",
	})

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://example.com/cover.png", state.images["min-som"])
}
