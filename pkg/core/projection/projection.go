package projection

import (
	"sort"
	"time"

	"github.com/jakechorley/escala/pkg/core/model"
	"github.com/jakechorley/escala/pkg/utils"
)

// DateMetadata is the calendar-display payload for one date: the colors of
// every ministry the user serves that day, in schedule order, plus a
// selected marker.
type DateMetadata struct {
	Colors   []string
	Selected bool
}

// UpcomingSchedules returns the user's schedules on or after today, sorted
// ascending by date. Dates are compared through midday anchors so a
// timezone conversion can never shift a schedule across midnight.
func UpcomingSchedules(userID string, schedules []model.Schedule, today time.Time) []model.Schedule {
	cutoff := utils.StartOfDay(today)

	upcoming := make([]model.Schedule, 0)
	for _, s := range schedules {
		if !s.HasMember(userID) {
			continue
		}
		anchor, err := utils.AnchorMidday(s.Date)
		if err != nil {
			continue
		}
		if anchor.Before(cutoff) {
			continue
		}
		upcoming = append(upcoming, s)
	}

	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].Date < upcoming[j].Date
	})

	return upcoming
}

// CalendarMetadata derives the per-date marker map from a user's schedules.
// A date scheduled for multiple ministries accumulates one color per
// ministry, so the calendar can render multiple markers on one day.
func CalendarMetadata(mySchedules []model.Schedule, ministries []model.Ministry) map[string]DateMetadata {
	colorByMinistry := make(map[string]string, len(ministries))
	for _, m := range ministries {
		colorByMinistry[m.ID] = m.Color
	}

	metadata := make(map[string]DateMetadata)
	for _, s := range mySchedules {
		color, ok := colorByMinistry[s.MinistryID]
		if !ok {
			continue
		}
		entry := metadata[s.Date]
		entry.Colors = append(entry.Colors, color)
		entry.Selected = true
		metadata[s.Date] = entry
	}

	return metadata
}

// MonthlyOverview returns the ministry's schedules with dates inside the
// month containing the given time, inclusive of the first and last day,
// sorted ascending.
func MonthlyOverview(schedules []model.Schedule, ministryID string, month time.Time) []model.Schedule {
	first, last := utils.MonthBounds(month)

	overview := make([]model.Schedule, 0)
	for _, s := range schedules {
		if s.MinistryID != ministryID {
			continue
		}
		anchor, err := utils.AnchorMidday(s.Date)
		if err != nil {
			continue
		}
		if anchor.Before(first) || anchor.After(last) {
			continue
		}
		overview = append(overview, s)
	}

	sort.Slice(overview, func(i, j int) bool {
		return overview[i].Date < overview[j].Date
	})

	return overview
}
