package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jakechorley/escala/pkg/core/model"
	"github.com/jakechorley/escala/pkg/utils"
)

// SnapshotStore defines read-only access to the synchronized state
type SnapshotStore interface {
	Snapshot() model.Snapshot
}

// EmailSender defines the operations needed to deliver reminder emails
type EmailSender interface {
	SendEmail(to, subject, body string) error
}

// ReminderSent represents a member who was successfully sent a reminder
type ReminderSent struct {
	UserID string
	Email  string
	Dates  []string
}

// FailedEmail represents a member whose reminder could not be delivered
type FailedEmail struct {
	UserID string
	Email  string
	Error  string
}

// NotifyUpcoming sends reminder emails to every member scheduled to serve
// within the next `days` days. Members with multiple assignments in the
// window get a single email listing all of them.
// Returns members who were sent reminders and those where sending failed.
func NotifyUpcoming(
	ctx context.Context,
	store SnapshotStore,
	mailer EmailSender,
	logger *zap.Logger,
	days int,
	today string,
) ([]ReminderSent, []FailedEmail, error) {
	if days <= 0 {
		return nil, nil, fmt.Errorf("reminder window must be positive, got %d", days)
	}
	if !utils.IsValidDate(today) {
		return nil, nil, fmt.Errorf("invalid reference date %q", today)
	}

	logger.Debug("Starting notifyUpcoming", zap.Int("days", days), zap.String("today", today))

	snap := store.Snapshot()
	anchor, err := utils.AnchorMidday(today)
	if err != nil {
		return nil, nil, err
	}
	windowStart := utils.StartOfDay(anchor)
	windowEnd := anchor.AddDate(0, 0, days)

	// Collect per-user assignment lines within the window
	type assignment struct {
		date     string
		ministry string
	}
	byUser := make(map[string][]assignment)
	for _, schedule := range snap.Schedules {
		when, err := utils.AnchorMidday(schedule.Date)
		if err != nil {
			logger.Warn("Skipping schedule with malformed date",
				zap.String("schedule_id", schedule.ID),
				zap.String("date", schedule.Date))
			continue
		}
		if when.Before(windowStart) || when.After(windowEnd) {
			continue
		}

		ministry := snap.MinistryByID(schedule.MinistryID)
		if ministry == nil {
			continue
		}

		for _, memberID := range schedule.MemberIDs {
			byUser[memberID] = append(byUser[memberID], assignment{
				date:     schedule.Date,
				ministry: ministry.Name,
			})
		}
	}

	logger.Debug("Found members with upcoming assignments", zap.Int("count", len(byUser)))

	if len(byUser) == 0 {
		logger.Info("No upcoming assignments in window")
		return []ReminderSent{}, []FailedEmail{}, nil
	}

	remindersSent := []ReminderSent{}
	failedEmails := []FailedEmail{}

	for userID, assignments := range byUser {
		user := snap.UserByID(userID)
		if user == nil {
			logger.Warn("Scheduled member has no profile", zap.String("user_id", userID))
			continue
		}

		lines := make([]string, 0, len(assignments))
		dates := make([]string, 0, len(assignments))
		for _, a := range assignments {
			lines = append(lines, fmt.Sprintf("- %s: %s", a.date, a.ministry))
			dates = append(dates, a.date)
		}

		subject := fmt.Sprintf("Lembrete: você está escalado nos próximos %d dias", days)
		body := fmt.Sprintf("Olá %s\n\nVocê está escalado para servir em breve:\n%s\n\nSe não puder comparecer, fale com o líder do seu ministério.\n\nEquipe Escala\n",
			user.Name, strings.Join(lines, "\n"))

		logger.Info("Sending reminder email",
			zap.String("user_id", userID),
			zap.String("email", user.Email))

		if err := mailer.SendEmail(user.Email, subject, body); err != nil {
			logger.Warn("Failed to send reminder email",
				zap.String("user_id", userID),
				zap.String("email", user.Email),
				zap.Error(err))

			failedEmails = append(failedEmails, FailedEmail{
				UserID: userID,
				Email:  user.Email,
				Error:  err.Error(),
			})
			continue
		}

		remindersSent = append(remindersSent, ReminderSent{
			UserID: userID,
			Email:  user.Email,
			Dates:  dates,
		})
	}

	if len(remindersSent) == 0 && len(failedEmails) > 0 {
		return nil, nil, fmt.Errorf("all %d reminder email send attempts failed", len(failedEmails))
	}

	logger.Debug("Notify upcoming completed",
		zap.Int("reminders_sent", len(remindersSent)),
		zap.Int("reminders_failed", len(failedEmails)))

	return remindersSent, failedEmails, nil
}
