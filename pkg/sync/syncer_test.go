package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/escala/pkg/core/model"
	"github.com/jakechorley/escala/pkg/db"
)

// fakeStore implements Store over in-memory data
type fakeStore struct {
	mu         stdsync.Mutex
	data       db.SnapshotData
	fetchCount int
	fetchErr   error
	writeErr   error
	upserted   []db.Schedule
	deleted    []string
}

func (f *fakeStore) FetchAll(ctx context.Context) (*db.SnapshotData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	f.fetchCount++
	data := f.data
	return &data, nil
}

func (f *fakeStore) UpsertSchedule(ctx context.Context, schedule db.Schedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.upserted = append(f.upserted, schedule)
	return nil
}

func (f *fakeStore) DeleteSchedule(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) UpsertAvailability(ctx context.Context, availability db.Availability) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writeErr
}

func (f *fakeStore) UpdateProfile(ctx context.Context, id string, update db.ProfileUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writeErr
}

func (f *fakeStore) UpdateMinistryImage(ctx context.Context, id, imageURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writeErr
}

// fakeNotifier hands the onChange callback to the test
type fakeNotifier struct {
	notify chan struct{}
}

func (f *fakeNotifier) SubscribeChanges(ctx context.Context, logger *zap.Logger, onChange func()) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-f.notify:
			onChange()
		}
	}
}

func newTestSyncer(t *testing.T, store *fakeStore) (*Syncer, *fakeNotifier) {
	t.Helper()
	notifier := &fakeNotifier{notify: make(chan struct{})}
	syncer := NewSyncer(store, notifier, zap.NewNop())
	require.NoError(t, syncer.Start(context.Background()))
	t.Cleanup(syncer.Close)
	return syncer, notifier
}

func TestStart_InitialFetchPopulatesSnapshot(t *testing.T) {
	store := &fakeStore{
		data: db.SnapshotData{
			Profiles:   []db.Profile{{ID: "u1", Name: "Ana", Email: "ana@example.com", Role: "member"}},
			Ministries: []db.Ministry{{ID: "m1", Name: "Música", Color: "#3B82F6"}},
			Schedules:  []db.Schedule{{ID: "s1", MinistryID: "m1", Date: "2024-06-15", MemberIDs: []string{"u1"}}},
		},
	}

	syncer, _ := newTestSyncer(t, store)

	snap := syncer.Snapshot()
	require.Len(t, snap.Users, 1)
	assert.Equal(t, model.RoleMember, snap.Users[0].Role)
	require.Len(t, snap.Ministries, 1)
	require.Len(t, snap.Schedules, 1)
	assert.Equal(t, []string{"u1"}, snap.Schedules[0].MemberIDs)
}

func TestStart_InitialFetchErrorPropagates(t *testing.T) {
	store := &fakeStore{fetchErr: errors.New("connection refused")}
	syncer := NewSyncer(store, &fakeNotifier{notify: make(chan struct{})}, zap.NewNop())

	err := syncer.Start(context.Background())
	assert.Error(t, err)
}

func TestNotification_TriggersFullRefetch(t *testing.T) {
	store := &fakeStore{}
	syncer, notifier := newTestSyncer(t, store)

	// A remote mutation lands, then a notification arrives
	store.mu.Lock()
	store.data.Ministries = []db.Ministry{{ID: "m1", Name: "Diáconos"}}
	store.mu.Unlock()

	notifier.notify <- struct{}{}

	require.Eventually(t, func() bool {
		return len(syncer.Snapshot().Ministries) == 1
	}, time.Second, 10*time.Millisecond)

	store.mu.Lock()
	fetches := store.fetchCount
	store.mu.Unlock()
	assert.Equal(t, 2, fetches, "one startup fetch plus one notification-triggered fetch")
}

func TestRefresh_ReplacesOptimisticState(t *testing.T) {
	store := &fakeStore{}
	syncer, _ := newTestSyncer(t, store)

	// Optimistic local write the remote fetch never saw
	err := syncer.UpsertSchedule(context.Background(), model.Schedule{
		ID: "local", MinistryID: "m1", Date: "2024-06-15",
		MemberIDs: []string{"u1"}, MemberDetails: map[string]model.MemberDetails{},
	})
	require.NoError(t, err)
	require.Len(t, syncer.Snapshot().Schedules, 1)

	// Last full fetch wins: the refresh discards the optimistic entry
	require.NoError(t, syncer.Refresh(context.Background()))
	assert.Empty(t, syncer.Snapshot().Schedules)
}

func TestUpsertSchedule_ResolvesByCompositeKey(t *testing.T) {
	store := &fakeStore{
		data: db.SnapshotData{
			Schedules: []db.Schedule{{ID: "remote-id", MinistryID: "m1", Date: "2024-06-15", MemberIDs: []string{"u1"}}},
		},
	}
	syncer, _ := newTestSyncer(t, store)

	// Locally generated id differs, but (ministry, date) matches the
	// existing entity; the snapshot must not grow a duplicate
	err := syncer.UpsertSchedule(context.Background(), model.Schedule{
		ID: "locally-generated", MinistryID: "m1", Date: "2024-06-15",
		MemberIDs: []string{"u1", "u2"}, MemberDetails: map[string]model.MemberDetails{},
	})
	require.NoError(t, err)

	snap := syncer.Snapshot()
	require.Len(t, snap.Schedules, 1)
	assert.Equal(t, "remote-id", snap.Schedules[0].ID)
	assert.Equal(t, []string{"u1", "u2"}, snap.Schedules[0].MemberIDs)
}

func TestUpsertSchedule_RemoteErrorPropagatesWithoutLocalChange(t *testing.T) {
	store := &fakeStore{writeErr: errors.New("boom")}
	syncer, _ := newTestSyncer(t, store)

	err := syncer.UpsertSchedule(context.Background(), model.Schedule{
		ID: "s1", MinistryID: "m1", Date: "2024-06-15",
	})
	require.Error(t, err)

	var rwe *RemoteWriteError
	assert.ErrorAs(t, err, &rwe)
	assert.Empty(t, syncer.Snapshot().Schedules, "failed write must not patch local state")
}

func TestDeleteSchedule_RemovesLocally(t *testing.T) {
	store := &fakeStore{
		data: db.SnapshotData{
			Schedules: []db.Schedule{
				{ID: "s1", MinistryID: "m1", Date: "2024-06-15"},
				{ID: "s2", MinistryID: "m2", Date: "2024-06-15"},
			},
		},
	}
	syncer, _ := newTestSyncer(t, store)

	require.NoError(t, syncer.DeleteSchedule(context.Background(), "s1"))

	snap := syncer.Snapshot()
	require.Len(t, snap.Schedules, 1)
	assert.Equal(t, "s2", snap.Schedules[0].ID)
	assert.Equal(t, []string{"s1"}, store.deleted)
}

func TestSnapshot_IsolatedFromLaterWrites(t *testing.T) {
	store := &fakeStore{
		data: db.SnapshotData{
			Profiles:   []db.Profile{{ID: "u1", Name: "Ana", Email: "ana@example.com", Role: "member"}},
			Ministries: []db.Ministry{{ID: "m1", Name: "Música", ImageURL: "https://img/old.png"}},
			Schedules: []db.Schedule{
				{ID: "s1", MinistryID: "m1", Date: "2024-06-15", MemberIDs: []string{"u1"}},
				{ID: "s2", MinistryID: "m2", Date: "2024-06-15", MemberIDs: []string{"u1"}},
			},
			Availabilities: []db.Availability{{UserID: "u1", Dates: []string{"2024-06-15"}}},
		},
	}
	syncer, _ := newTestSyncer(t, store)

	held := syncer.Snapshot()
	ctx := context.Background()

	require.NoError(t, syncer.UpsertSchedule(ctx, model.Schedule{
		ID: "s1", MinistryID: "m1", Date: "2024-06-15",
		MemberIDs: []string{"u1", "u2"}, MemberDetails: map[string]model.MemberDetails{},
	}))
	require.NoError(t, syncer.DeleteSchedule(ctx, "s2"))
	require.NoError(t, syncer.UpsertAvailability(ctx, "u1", []string{"2024-06-22"}))
	newName := "Beatriz"
	require.NoError(t, syncer.UpdateProfile(ctx, "u1", db.ProfileUpdate{Name: &newName}))
	require.NoError(t, syncer.UpdateMinistryImage(ctx, "m1", "https://img/new.png"))

	// The snapshot handed out before the writes must still read as it did
	require.Len(t, held.Schedules, 2)
	assert.Equal(t, []string{"u1"}, held.Schedules[0].MemberIDs)
	assert.Equal(t, "s2", held.Schedules[1].ID)
	assert.Equal(t, []string{"2024-06-15"}, held.Availabilities[0].Dates)
	assert.Equal(t, "Ana", held.Users[0].Name)
	assert.Equal(t, "https://img/old.png", held.Ministries[0].ImageURL)

	// The syncer itself sees every write
	snap := syncer.Snapshot()
	require.Len(t, snap.Schedules, 1)
	assert.Equal(t, []string{"u1", "u2"}, snap.Schedules[0].MemberIDs)
	assert.Equal(t, "Beatriz", snap.Users[0].Name)
	assert.Equal(t, "https://img/new.png", snap.Ministries[0].ImageURL)
}

func TestSnapshot_ConcurrentReadsDuringWrites(t *testing.T) {
	store := &fakeStore{
		data: db.SnapshotData{
			Schedules: []db.Schedule{{ID: "s1", MinistryID: "m1", Date: "2024-06-15", MemberIDs: []string{"u1"}}},
		},
	}
	syncer, _ := newTestSyncer(t, store)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			snap := syncer.Snapshot()
			for _, sch := range snap.Schedules {
				_ = len(sch.MemberIDs)
			}
		}
	}()

	ctx := context.Background()
	for i := 0; i < 200; i++ {
		require.NoError(t, syncer.UpsertSchedule(ctx, model.Schedule{
			MinistryID: "m1", Date: "2024-06-15",
			MemberIDs: []string{"u1", "u2"}, MemberDetails: map[string]model.MemberDetails{},
		}))
	}
	<-done
}

func TestUpsertAvailability_AppendsAndReplaces(t *testing.T) {
	store := &fakeStore{}
	syncer, _ := newTestSyncer(t, store)

	require.NoError(t, syncer.UpsertAvailability(context.Background(), "u1", []string{"2024-06-15"}))
	require.Len(t, syncer.Snapshot().Availabilities, 1)

	require.NoError(t, syncer.UpsertAvailability(context.Background(), "u1", []string{"2024-06-22"}))
	snap := syncer.Snapshot()
	require.Len(t, snap.Availabilities, 1, "availability is upserted, not appended")
	assert.Equal(t, []string{"2024-06-22"}, snap.Availabilities[0].Dates)
}
