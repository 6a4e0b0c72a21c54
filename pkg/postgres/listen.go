package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	changeChannel    = "escala_changes"
	reconnectBackoff = 2 * time.Second
)

// SubscribeChanges listens on the change-notification channel and invokes
// onChange for every notification until ctx is cancelled. The payload is
// never parsed: any notification means "something changed, refetch
// everything". A dropped connection is re-established after a short
// backoff so listeners survive database restarts.
func (d *DB) SubscribeChanges(ctx context.Context, logger *zap.Logger, onChange func()) error {
	for {
		if err := d.listenLoop(ctx, logger, onChange); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn("Change listener disconnected, reconnecting",
				zap.Error(err),
				zap.Duration("backoff", reconnectBackoff))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectBackoff):
		}
	}
}

func (d *DB) listenLoop(ctx context.Context, logger *zap.Logger, onChange func()) error {
	conn, err := d.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire listener connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+changeChannel); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", changeChannel, err)
	}
	logger.Info("Listening for remote changes", zap.String("channel", changeChannel))

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("failed waiting for notification: %w", err)
		}

		logger.Debug("Remote change notification",
			zap.String("table", notification.Payload))
		onChange()
	}
}
