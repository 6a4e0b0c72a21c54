package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/escala/pkg/core/model"
)

type fakeMailer struct {
	sent    []string
	bodies  map[string]string
	failFor map[string]bool
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{bodies: map[string]string{}, failFor: map[string]bool{}}
}

func (f *fakeMailer) SendEmail(to, subject, body string) error {
	if f.failFor[to] {
		return errRemote
	}
	f.sent = append(f.sent, to)
	f.bodies[to] = body
	return nil
}

func notifyFixture() model.Snapshot {
	snap := fixtureSnapshot()
	snap.Schedules = []model.Schedule{
		{ID: "s1", MinistryID: "min-louvor", Date: "2024-06-12", MemberIDs: []string{"member-1"}},
		{ID: "s2", MinistryID: "min-som", Date: "2024-06-14", MemberIDs: []string{"member-1", "member-2"}},
		{ID: "s3", MinistryID: "min-louvor", Date: "2024-07-20", MemberIDs: []string{"member-2"}},
		{ID: "s4", MinistryID: "min-louvor", Date: "2024-06-01", MemberIDs: []string{"member-2"}},
	}
	return snap
}

func TestNotifyUpcomingSendsOneEmailPerMember(t *testing.T) {
	store := newMockStore(notifyFixture())
	mailer := newFakeMailer()

	sent, failed, err := NotifyUpcoming(context.Background(), store, mailer, zap.NewNop(), 7, "2024-06-10")

	require.NoError(t, err)
	assert.Empty(t, failed)
	require.Len(t, sent, 2)

	// member-1 serves twice in the window but gets a single email
	assert.Len(t, mailer.sent, 2)
	assert.Contains(t, mailer.bodies["marcos@example.com"], "2024-06-12")
	assert.Contains(t, mailer.bodies["marcos@example.com"], "2024-06-14")
	assert.Contains(t, mailer.bodies["marcos@example.com"], "Sonoplastia")

	// member-2's July and past assignments fall outside the window
	assert.Contains(t, mailer.bodies["ana@example.com"], "2024-06-14")
	assert.NotContains(t, mailer.bodies["ana@example.com"], "2024-07-20")
	assert.NotContains(t, mailer.bodies["ana@example.com"], "2024-06-01")
}

func TestNotifyUpcomingRecordsFailures(t *testing.T) {
	store := newMockStore(notifyFixture())
	mailer := newFakeMailer()
	mailer.failFor["ana@example.com"] = true

	sent, failed, err := NotifyUpcoming(context.Background(), store, mailer, zap.NewNop(), 7, "2024-06-10")

	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "member-2", failed[0].UserID)
	require.Len(t, sent, 1)
	assert.Equal(t, "member-1", sent[0].UserID)
}

func TestNotifyUpcomingAllFailuresIsError(t *testing.T) {
	store := newMockStore(notifyFixture())
	mailer := newFakeMailer()
	mailer.failFor["ana@example.com"] = true
	mailer.failFor["marcos@example.com"] = true

	_, _, err := NotifyUpcoming(context.Background(), store, mailer, zap.NewNop(), 7, "2024-06-10")

	assert.Error(t, err)
}

func TestNotifyUpcomingEmptyWindow(t *testing.T) {
	store := newMockStore(fixtureSnapshot())
	mailer := newFakeMailer()

	sent, failed, err := NotifyUpcoming(context.Background(), store, mailer, zap.NewNop(), 7, "2024-06-10")

	require.NoError(t, err)
	assert.Empty(t, sent)
	assert.Empty(t, failed)
	assert.Empty(t, mailer.sent)
}

func TestNotifyUpcomingRejectsBadInput(t *testing.T) {
	store := newMockStore(fixtureSnapshot())

	_, _, err := NotifyUpcoming(context.Background(), store, newFakeMailer(), zap.NewNop(), 0, "2024-06-10")
	assert.Error(t, err)

	_, _, err = NotifyUpcoming(context.Background(), store, newFakeMailer(), zap.NewNop(), 7, "june 10")
	assert.Error(t, err)
}
