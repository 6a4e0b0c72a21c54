package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/escala/pkg/core/scheduler"
	"github.com/jakechorley/escala/pkg/utils"
)

// SetAvailabilityStore defines the state operations needed for availability
type SetAvailabilityStore interface {
	UpsertAvailability(ctx context.Context, userID string, dates []string) error
}

// SetAvailability replaces the user's declared availability wholesale.
// Duplicate dates are collapsed; a malformed date rejects the whole intent
// before any remote call.
func SetAvailability(
	ctx context.Context,
	store SetAvailabilityStore,
	logger *zap.Logger,
	userID string,
	dates []string,
) error {
	seen := make(map[string]bool, len(dates))
	deduped := make([]string, 0, len(dates))
	for _, date := range dates {
		if !utils.IsValidDate(date) {
			return &scheduler.ValidationError{Reason: fmt.Sprintf("invalid date %q: must be yyyy-MM-dd", date)}
		}
		if seen[date] {
			continue
		}
		seen[date] = true
		deduped = append(deduped, date)
	}

	if err := store.UpsertAvailability(ctx, userID, deduped); err != nil {
		return fmt.Errorf("failed to persist availability: %w", err)
	}

	logger.Info("Availability saved",
		zap.String("user_id", userID),
		zap.Int("dates", len(deduped)))

	return nil
}
