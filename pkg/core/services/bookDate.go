package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/escala/pkg/core/model"
	"github.com/jakechorley/escala/pkg/core/policy"
	"github.com/jakechorley/escala/pkg/core/scheduler"
)

// BookDateStore defines the state operations needed for booking a date
type BookDateStore interface {
	Snapshot() model.Snapshot
	UpsertSchedule(ctx context.Context, schedule model.Schedule) error
}

// BookDate applies the member booking intent for (ministry, date).
//
// Toggle semantics: booking a date the user is already scheduled for, with
// no details payload, unbooks them; with a details payload it updates their
// details. A capacity rejection surfaces as scheduler.CapacityError before
// any remote call.
func BookDate(
	ctx context.Context,
	store BookDateStore,
	overrides []policy.Override,
	logger *zap.Logger,
	userID string,
	ministryID string,
	date string,
	details *model.MemberDetails,
) (*scheduler.Result, error) {
	snap := store.Snapshot()

	ministry := snap.MinistryByID(ministryID)
	if ministry == nil {
		return nil, ErrMinistryNotFound
	}

	result, err := scheduler.Book(snap.Schedules, *ministry, userID, date, details, overrides)
	if err != nil {
		if scheduler.IsCapacityExceeded(err) {
			logger.Info("Booking rejected by capacity policy",
				zap.String("user_id", userID),
				zap.String("ministry", ministry.Name),
				zap.String("date", date))
		}
		return nil, err
	}

	if err := store.UpsertSchedule(ctx, result.Schedule); err != nil {
		return nil, fmt.Errorf("failed to persist schedule: %w", err)
	}

	logger.Info("Booking applied",
		zap.String("user_id", userID),
		zap.String("ministry_id", ministryID),
		zap.String("date", date),
		zap.String("action", string(result.Action)),
		zap.Bool("created", result.Created))

	return result, nil
}

// UnbookDate removes the user from the schedule for (ministry, date).
// Unbooking a user who is not a member, or a pair with no schedule, is a
// no-op.
func UnbookDate(
	ctx context.Context,
	store BookDateStore,
	logger *zap.Logger,
	userID string,
	ministryID string,
	date string,
) error {
	snap := store.Snapshot()

	existing := scheduler.FindByMinistryDate(snap.Schedules, ministryID, date)
	if existing == nil || !existing.HasMember(userID) {
		return nil
	}

	updated := scheduler.Unbook(*existing, userID)
	if err := store.UpsertSchedule(ctx, updated); err != nil {
		return fmt.Errorf("failed to persist schedule: %w", err)
	}

	logger.Info("Member unbooked",
		zap.String("user_id", userID),
		zap.String("ministry_id", ministryID),
		zap.String("date", date))

	return nil
}
