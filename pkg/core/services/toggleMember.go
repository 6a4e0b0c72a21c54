package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/escala/pkg/core/model"
	"github.com/jakechorley/escala/pkg/core/scheduler"
)

// ToggleMemberStore defines the state operations needed for leader toggles
type ToggleMemberStore interface {
	Snapshot() model.Snapshot
	UpsertSchedule(ctx context.Context, schedule model.Schedule) error
}

// ToggleScheduleMember adds or removes a member on the leader path. The
// capacity policy is not consulted and no details are collected. Leaders
// may schedule a member who declared themselves unavailable; the override
// is logged so it stays visible.
func ToggleScheduleMember(
	ctx context.Context,
	store ToggleMemberStore,
	logger *zap.Logger,
	actorID string,
	memberID string,
	ministryID string,
	date string,
) (*scheduler.Result, error) {
	snap := store.Snapshot()

	actor := snap.UserByID(actorID)
	if actor == nil {
		return nil, ErrUserNotFound
	}
	if !actor.IsLeaderOf(ministryID) {
		return nil, ErrNotPermitted
	}

	result, err := scheduler.Toggle(snap.Schedules, ministryID, memberID, date)
	if err != nil {
		return nil, err
	}

	if result.Action == scheduler.ActionAdded {
		availability := snap.AvailabilityFor(memberID)
		if availability == nil || !availability.Includes(date) {
			logger.Warn("Leader scheduled a member without declared availability",
				zap.String("actor_id", actorID),
				zap.String("member_id", memberID),
				zap.String("date", date))
		}
	}

	if err := store.UpsertSchedule(ctx, result.Schedule); err != nil {
		return nil, fmt.Errorf("failed to persist schedule: %w", err)
	}

	logger.Info("Schedule member toggled",
		zap.String("actor_id", actorID),
		zap.String("member_id", memberID),
		zap.String("ministry_id", ministryID),
		zap.String("date", date),
		zap.String("action", string(result.Action)))

	return result, nil
}
