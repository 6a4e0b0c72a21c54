package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/escala/pkg/core/model"
	"github.com/jakechorley/escala/pkg/core/scheduler"
)

// DeleteScheduleStore defines the state operations needed for deletion
type DeleteScheduleStore interface {
	Snapshot() model.Snapshot
	DeleteSchedule(ctx context.Context, id string) error
}

// DeleteSchedule removes a schedule entirely: every member and every detail
// for that (ministry, date), atomically. Irreversible; the caller is
// expected to have confirmed with the user before invoking.
func DeleteSchedule(
	ctx context.Context,
	store DeleteScheduleStore,
	logger *zap.Logger,
	actorID string,
	scheduleID string,
) error {
	snap := store.Snapshot()

	schedule := scheduler.FindByID(snap.Schedules, scheduleID)
	if schedule == nil {
		return ErrScheduleNotFound
	}

	actor := snap.UserByID(actorID)
	if actor == nil {
		return ErrUserNotFound
	}
	if !actor.IsLeaderOf(schedule.MinistryID) {
		return ErrNotPermitted
	}

	if err := store.DeleteSchedule(ctx, scheduleID); err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}

	logger.Info("Schedule deleted",
		zap.String("actor_id", actorID),
		zap.String("schedule_id", scheduleID),
		zap.String("ministry_id", schedule.MinistryID),
		zap.String("date", schedule.Date),
		zap.Int("members_removed", len(schedule.MemberIDs)))

	return nil
}
