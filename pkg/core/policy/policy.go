package policy

import (
	"fmt"
	"strings"
	"time"

	"github.com/jakechorley/escala/pkg/core/model"
)

// Unlimited is the limit reported for ministries with no capacity rule
const Unlimited = -1

// Verdict is the outcome of a capacity check
type Verdict struct {
	Allowed bool
	Limit   int
}

// Override raises or lowers a ministry's cap on dates matched by a
// recurrence rule. Overrides are configured per environment and checked
// before the built-in name rules.
type Override struct {
	MinistryID string
	AppliesTo  func(dateStr string) bool
	MaxMembers int
}

// CanBook decides whether one more member may be added to the ministry's
// schedule on the given date. currentCount is the member count before the
// add. Removal is never capacity-gated; callers only consult CanBook on the
// add path.
//
// Built-in rules match on the ministry display name, case-insensitive
// substring, first match wins:
//   - "sonoplastia" (sound/AV): max 2 per date
//   - "música" (music): max 2 on Saturdays, max 1 otherwise
//   - "diácono"/"diaconisa" (deacons/deaconesses): max 4 per date
//   - no match: unlimited
//
// Renaming a ministry changes which rule applies. That fragility is known;
// overrides are the supported way to adjust caps without renaming.
func CanBook(ministry model.Ministry, date string, currentCount int, overrides []Override) (Verdict, error) {
	for _, o := range overrides {
		if o.MinistryID != ministry.ID {
			continue
		}
		if o.AppliesTo != nil && o.AppliesTo(date) {
			return verdictForLimit(o.MaxMembers, currentCount), nil
		}
	}

	name := strings.ToLower(ministry.Name)

	switch {
	case strings.Contains(name, "sonoplastia"):
		return verdictForLimit(2, currentCount), nil

	case strings.Contains(name, "música"):
		weekday, err := weekdayOf(date)
		if err != nil {
			return Verdict{}, err
		}
		limit := 1
		if weekday == time.Saturday {
			limit = 2
		}
		return verdictForLimit(limit, currentCount), nil

	case strings.Contains(name, "diácono"), strings.Contains(name, "diaconisa"):
		return verdictForLimit(4, currentCount), nil
	}

	return Verdict{Allowed: true, Limit: Unlimited}, nil
}

// weekdayOf mirrors utils.Weekday without importing pkg/utils, which would
// close an import cycle through internal/config: the date is anchored to
// 12:00 local time so the weekday stays stable under timezone conversion.
func weekdayOf(dateStr string) (time.Weekday, error) {
	t, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", dateStr, err)
	}
	return t.Add(12 * time.Hour).Weekday(), nil
}

func verdictForLimit(limit, currentCount int) Verdict {
	return Verdict{
		Allowed: currentCount < limit,
		Limit:   limit,
	}
}
