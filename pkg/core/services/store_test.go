package services

import (
	"context"
	"fmt"

	"github.com/jakechorley/escala/pkg/core/model"
)

// mockStore implements the per-service store interfaces over an in-memory
// snapshot and records every write.
type mockStore struct {
	snapshot model.Snapshot

	upserted       []model.Schedule
	deleted        []string
	availabilities map[string][]string
	imageUpdates   map[string]string

	writeErr error
}

func newMockStore(snapshot model.Snapshot) *mockStore {
	return &mockStore{
		snapshot:       snapshot,
		availabilities: map[string][]string{},
		imageUpdates:   map[string]string{},
	}
}

func (m *mockStore) Snapshot() model.Snapshot {
	return m.snapshot
}

func (m *mockStore) UpsertSchedule(_ context.Context, schedule model.Schedule) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.upserted = append(m.upserted, schedule)
	return nil
}

func (m *mockStore) DeleteSchedule(_ context.Context, id string) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockStore) UpsertAvailability(_ context.Context, userID string, dates []string) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.availabilities[userID] = dates
	return nil
}

func (m *mockStore) UpdateMinistryImage(_ context.Context, id, imageURL string) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.imageUpdates[id] = imageURL
	return nil
}

// fixtureSnapshot builds a snapshot with a leader, two members, and two
// ministries (one capacity-limited).
func fixtureSnapshot() model.Snapshot {
	return model.Snapshot{
		Users: []model.User{
			{ID: "leader-1", Name: "Lídia", Email: "lidia@example.com", Role: model.RoleLeader, MinistryIDs: []string{"min-louvor"}},
			{ID: "member-1", Name: "Marcos", Email: "marcos@example.com", Role: model.RoleMember, MinistryIDs: []string{"min-louvor"}},
			{ID: "member-2", Name: "Ana", Email: "ana@example.com", Role: model.RoleMember, MinistryIDs: []string{"min-louvor", "min-som"}},
			{ID: "admin-1", Name: "Otávio", Email: "otavio@example.com", Role: model.RoleAdmin},
		},
		Ministries: []model.Ministry{
			{ID: "min-louvor", Name: "Ministério de Louvor", Color: "#3B82F6"},
			{ID: "min-som", Name: "Sonoplastia", Color: "#10B981"},
		},
		Availabilities: []model.Availability{
			{UserID: "member-1", Dates: []string{"2024-06-10", "2024-06-15"}},
		},
	}
}

var errRemote = fmt.Errorf("connection reset")
