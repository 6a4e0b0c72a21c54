package scheduler

import (
	"errors"
	"fmt"
)

// ErrNotAMember is returned when a detail edit targets a user who is not
// assigned to the schedule.
var ErrNotAMember = errors.New("user is not a member of the schedule")

// CapacityError signals that a booking was rejected because the ministry's
// cap for the date is already reached. It is raised locally before any
// remote call and carries no retry semantics.
type CapacityError struct {
	MinistryName string
	Date         string
	Limit        int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("ministry %q is full on %s (limit %d)", e.MinistryName, e.Date, e.Limit)
}

// ValidationError signals a malformed intent (bad date, unknown entity).
// Rejected locally, surfaced as a user-facing message.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// IsCapacityExceeded reports whether err is a capacity rejection
func IsCapacityExceeded(err error) bool {
	var ce *CapacityError
	return errors.As(err, &ce)
}
