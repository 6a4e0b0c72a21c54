package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jakechorley/escala/pkg/core/model"
	"github.com/jakechorley/escala/pkg/core/scheduler"
)

// MinistryImageStore defines the state operations needed for cover updates
type MinistryImageStore interface {
	Snapshot() model.Snapshot
	UpdateMinistryImage(ctx context.Context, id, imageURL string) error
}

// UpdateMinistryImage sets a ministry's cover image. Accepts https URLs and
// data URIs (the web client uploads covers as data URIs).
func UpdateMinistryImage(
	ctx context.Context,
	store MinistryImageStore,
	logger *zap.Logger,
	actorID string,
	ministryID string,
	imageURL string,
) error {
	snap := store.Snapshot()

	if snap.MinistryByID(ministryID) == nil {
		return ErrMinistryNotFound
	}

	actor := snap.UserByID(actorID)
	if actor == nil {
		return ErrUserNotFound
	}
	if !actor.IsLeaderOf(ministryID) {
		return ErrNotPermitted
	}

	if !strings.HasPrefix(imageURL, "https://") && !strings.HasPrefix(imageURL, "data:image/") {
		return &scheduler.ValidationError{Reason: "image must be an https URL or a data URI"}
	}

	if err := store.UpdateMinistryImage(ctx, ministryID, imageURL); err != nil {
		return fmt.Errorf("failed to update ministry image: %w", err)
	}

	logger.Info("Ministry image updated",
		zap.String("actor_id", actorID),
		zap.String("ministry_id", ministryID))

	return nil
}
