// Package sync reconciles the in-memory entity snapshot with the remote
// store: fetch-all on startup, write-through mutations with optimistic
// local application, and a full refetch on every remote change
// notification. The snapshot is always replaced wholesale: the most recent
// full fetch wins, at the cost of discarding a not-yet-acknowledged
// optimistic change when a refresh lands first.
package sync

import (
	"context"
	"fmt"
	stdsync "sync"

	"go.uber.org/zap"

	"github.com/jakechorley/escala/pkg/core/model"
	"github.com/jakechorley/escala/pkg/db"
)

// Store defines the remote operations the syncer needs
type Store interface {
	FetchAll(ctx context.Context) (*db.SnapshotData, error)
	UpsertSchedule(ctx context.Context, schedule db.Schedule) error
	DeleteSchedule(ctx context.Context, id string) error
	UpsertAvailability(ctx context.Context, availability db.Availability) error
	UpdateProfile(ctx context.Context, id string, update db.ProfileUpdate) error
	UpdateMinistryImage(ctx context.Context, id, imageURL string) error
}

// Notifier delivers remote change notifications until ctx is cancelled
type Notifier interface {
	SubscribeChanges(ctx context.Context, logger *zap.Logger, onChange func()) error
}

// RemoteWriteError wraps a failed remote mutation. Writes are not retried
// automatically; the caller may re-invoke the same idempotent action.
type RemoteWriteError struct {
	Op  string
	Err error
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("remote write %s failed: %v", e.Op, e.Err)
}

func (e *RemoteWriteError) Unwrap() error {
	return e.Err
}

// Syncer owns the in-memory snapshot of the remote store
type Syncer struct {
	store    Store
	notifier Notifier
	logger   *zap.Logger

	mu   stdsync.RWMutex
	snap model.Snapshot

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSyncer creates a syncer over the given store and notifier
func NewSyncer(store Store, notifier Notifier, logger *zap.Logger) *Syncer {
	return &Syncer{
		store:    store,
		notifier: notifier,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start performs the initial fetch-all and subscribes to remote changes.
// The syncer is ready to serve snapshots once Start returns.
func (s *Syncer) Start(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		return fmt.Errorf("initial fetch failed: %w", err)
	}

	subCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go func() {
		defer close(s.done)
		err := s.notifier.SubscribeChanges(subCtx, s.logger, func() {
			if err := s.Refresh(subCtx); err != nil {
				s.logger.Warn("Refresh after change notification failed", zap.Error(err))
			}
		})
		if err != nil {
			s.logger.Error("Change subscription terminated", zap.Error(err))
		}
	}()

	return nil
}

// Close stops the change subscription
func (s *Syncer) Close() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

// Refresh fetches the full entity set and replaces the snapshot. A
// superseded fetch that arrives late still replaces state wholesale; the
// operation is idempotent because nothing is merged.
func (s *Syncer) Refresh(ctx context.Context) error {
	data, err := s.store.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("fetch all failed: %w", err)
	}

	snap := data.ToModel()

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	s.logger.Debug("Snapshot replaced",
		zap.Int("users", len(snap.Users)),
		zap.Int("ministries", len(snap.Ministries)),
		zap.Int("availabilities", len(snap.Availabilities)),
		zap.Int("schedules", len(snap.Schedules)))

	return nil
}

// Snapshot returns the current in-memory state. Callers must treat it as
// read-only; the assignment engine clones entities before mutating.
func (s *Syncer) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// UpsertSchedule writes the schedule remotely, then applies it locally.
// The local application resolves by id or by the (ministry, date) composite
// key, so a concurrently created remote row never duplicates locally.
//
// Mutations never touch the backing arrays of an already-returned snapshot:
// like Refresh, they build a fresh slice and swap the header under the lock.
func (s *Syncer) UpsertSchedule(ctx context.Context, schedule model.Schedule) error {
	if err := s.store.UpsertSchedule(ctx, db.ScheduleFromModel(schedule)); err != nil {
		return &RemoteWriteError{Op: "upsert schedule", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	schedules := make([]model.Schedule, len(s.snap.Schedules), len(s.snap.Schedules)+1)
	copy(schedules, s.snap.Schedules)
	for i := range schedules {
		if schedules[i].ID == schedule.ID ||
			(schedules[i].MinistryID == schedule.MinistryID && schedules[i].Date == schedule.Date) {
			schedule.ID = schedules[i].ID
			schedules[i] = schedule
			s.snap.Schedules = schedules
			return nil
		}
	}
	s.snap.Schedules = append(schedules, schedule)
	return nil
}

// DeleteSchedule removes the schedule remotely, then locally
func (s *Syncer) DeleteSchedule(ctx context.Context, id string) error {
	if err := s.store.DeleteSchedule(ctx, id); err != nil {
		return &RemoteWriteError{Op: "delete schedule", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	schedules := make([]model.Schedule, 0, len(s.snap.Schedules))
	for _, sch := range s.snap.Schedules {
		if sch.ID != id {
			schedules = append(schedules, sch)
		}
	}
	s.snap.Schedules = schedules
	return nil
}

// UpsertAvailability replaces the user's declared dates remotely and locally
func (s *Syncer) UpsertAvailability(ctx context.Context, userID string, dates []string) error {
	record := db.Availability{UserID: userID, Dates: dates}
	if err := s.store.UpsertAvailability(ctx, record); err != nil {
		return &RemoteWriteError{Op: "upsert availability", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	availabilities := make([]model.Availability, len(s.snap.Availabilities), len(s.snap.Availabilities)+1)
	copy(availabilities, s.snap.Availabilities)
	for i := range availabilities {
		if availabilities[i].UserID == userID {
			availabilities[i] = model.Availability{UserID: userID, Dates: dates}
			s.snap.Availabilities = availabilities
			return nil
		}
	}
	s.snap.Availabilities = append(availabilities, model.Availability{
		UserID: userID,
		Dates:  dates,
	})
	return nil
}

// UpdateProfile applies a partial profile update remotely and locally
func (s *Syncer) UpdateProfile(ctx context.Context, id string, update db.ProfileUpdate) error {
	if err := s.store.UpdateProfile(ctx, id, update); err != nil {
		return &RemoteWriteError{Op: "update profile", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]model.User, len(s.snap.Users))
	copy(users, s.snap.Users)
	for i := range users {
		if users[i].ID != id {
			continue
		}
		if update.Name != nil {
			users[i].Name = *update.Name
		}
		if update.Role != nil {
			users[i].Role = model.Role(*update.Role)
		}
		if update.MinistryIDs != nil {
			users[i].MinistryIDs = *update.MinistryIDs
		}
		s.snap.Users = users
		return nil
	}
	return nil
}

// UpdateMinistryImage sets the ministry's cover image remotely and locally
func (s *Syncer) UpdateMinistryImage(ctx context.Context, id, imageURL string) error {
	if err := s.store.UpdateMinistryImage(ctx, id, imageURL); err != nil {
		return &RemoteWriteError{Op: "update ministry image", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ministries := make([]model.Ministry, len(s.snap.Ministries))
	copy(ministries, s.snap.Ministries)
	for i := range ministries {
		if ministries[i].ID == id {
			ministries[i].ImageURL = imageURL
			s.snap.Ministries = ministries
			return nil
		}
	}
	return nil
}
