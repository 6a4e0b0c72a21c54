package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/escala/pkg/core/model"
	"github.com/jakechorley/escala/pkg/core/scheduler"
)

// SetDetailsStore defines the state operations needed for detail edits
type SetDetailsStore interface {
	Snapshot() model.Snapshot
	UpsertSchedule(ctx context.Context, schedule model.Schedule) error
}

// SetScheduleMemberDetails overwrites a member's details on a schedule
// without touching membership. Leader-privileged; fails when the member is
// not assigned to the schedule.
func SetScheduleMemberDetails(
	ctx context.Context,
	store SetDetailsStore,
	logger *zap.Logger,
	actorID string,
	scheduleID string,
	memberID string,
	details model.MemberDetails,
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

	updated, err := scheduler.SetMemberDetails(*schedule, memberID, details)
	if err != nil {
		return err
	}

	if err := store.UpsertSchedule(ctx, updated); err != nil {
		return fmt.Errorf("failed to persist schedule: %w", err)
	}

	logger.Info("Member details updated",
		zap.String("actor_id", actorID),
		zap.String("schedule_id", scheduleID),
		zap.String("member_id", memberID))

	return nil
}
