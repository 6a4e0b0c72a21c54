package services

import "errors"

// ErrNotPermitted is returned when a user attempts a leader action on a
// ministry they do not lead.
var ErrNotPermitted = errors.New("user is not permitted to manage this ministry")

// ErrScheduleNotFound is returned when a schedule id resolves to nothing
var ErrScheduleNotFound = errors.New("schedule not found")

// ErrMinistryNotFound is returned when a ministry id resolves to nothing
var ErrMinistryNotFound = errors.New("ministry not found")

// ErrUserNotFound is returned when a user id resolves to nothing
var ErrUserNotFound = errors.New("user not found")
