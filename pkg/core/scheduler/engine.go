package scheduler

import (
	"github.com/google/uuid"

	"github.com/jakechorley/escala/pkg/core/model"
	"github.com/jakechorley/escala/pkg/core/policy"
	"github.com/jakechorley/escala/pkg/utils"
)

// Action describes what a booking intent resolved to
type Action string

const (
	ActionAdded          Action = "added"
	ActionRemoved        Action = "removed"
	ActionDetailsUpdated Action = "details_updated"
)

// Result carries the schedule produced by an intent. Created is true when
// no schedule existed for the (ministry, date) pair before the intent.
type Result struct {
	Schedule model.Schedule
	Action   Action
	Created  bool
}

// FindByMinistryDate resolves a schedule by its composite key. This is the
// authoritative lookup: at most one schedule exists per (ministry, date).
func FindByMinistryDate(schedules []model.Schedule, ministryID, date string) *model.Schedule {
	for i := range schedules {
		if schedules[i].MinistryID == ministryID && schedules[i].Date == date {
			return &schedules[i]
		}
	}
	return nil
}

// FindByID resolves a schedule by its id
func FindByID(schedules []model.Schedule, id string) *model.Schedule {
	for i := range schedules {
		if schedules[i].ID == id {
			return &schedules[i]
		}
	}
	return nil
}

// Book applies a member booking intent to the schedule for (ministry, date),
// creating the schedule if none exists.
//
// Toggle semantics: if the user is already a member and no details are
// supplied, the call means "unbook" and removes them. If details are
// supplied while already a member, the call is a detail update. Otherwise
// the capacity policy is consulted and the user is appended on success.
func Book(
	schedules []model.Schedule,
	ministry model.Ministry,
	userID string,
	date string,
	details *model.MemberDetails,
	overrides []policy.Override,
) (*Result, error) {
	if !utils.IsValidDate(date) {
		return nil, &ValidationError{Reason: "date must be in yyyy-MM-dd format"}
	}

	schedule, created := resolveSchedule(schedules, ministry.ID, date)

	if schedule.HasMember(userID) {
		if details == nil {
			removeMember(&schedule, userID)
			return &Result{Schedule: schedule, Action: ActionRemoved, Created: created}, nil
		}
		schedule.MemberDetails[userID] = *details
		return &Result{Schedule: schedule, Action: ActionDetailsUpdated, Created: created}, nil
	}

	verdict, err := policy.CanBook(ministry, date, len(schedule.MemberIDs), overrides)
	if err != nil {
		return nil, err
	}
	if !verdict.Allowed {
		return nil, &CapacityError{
			MinistryName: ministry.Name,
			Date:         date,
			Limit:        verdict.Limit,
		}
	}

	schedule.MemberIDs = append(schedule.MemberIDs, userID)
	if details != nil {
		schedule.MemberDetails[userID] = *details
	}

	return &Result{Schedule: schedule, Action: ActionAdded, Created: created}, nil
}

// Toggle applies a leader add/remove intent. Leaders bypass the capacity
// policy and detail collection; the caller is expected to confirm adding a
// member who declared themselves unavailable.
func Toggle(
	schedules []model.Schedule,
	ministryID string,
	userID string,
	date string,
) (*Result, error) {
	if !utils.IsValidDate(date) {
		return nil, &ValidationError{Reason: "date must be in yyyy-MM-dd format"}
	}

	schedule, created := resolveSchedule(schedules, ministryID, date)

	if schedule.HasMember(userID) {
		removeMember(&schedule, userID)
		return &Result{Schedule: schedule, Action: ActionRemoved, Created: created}, nil
	}

	schedule.MemberIDs = append(schedule.MemberIDs, userID)
	return &Result{Schedule: schedule, Action: ActionAdded, Created: created}, nil
}

// Unbook removes the user from the schedule along with their details.
// Removing a user who is not a member is a no-op.
func Unbook(schedule model.Schedule, userID string) model.Schedule {
	out := schedule.Clone()
	removeMember(&out, userID)
	return out
}

// SetMemberDetails overwrites the user's details without touching
// membership. Fails with ErrNotAMember when the user is not assigned.
func SetMemberDetails(schedule model.Schedule, userID string, details model.MemberDetails) (model.Schedule, error) {
	if !schedule.HasMember(userID) {
		return model.Schedule{}, ErrNotAMember
	}
	out := schedule.Clone()
	out.MemberDetails[userID] = details
	return out, nil
}

// resolveSchedule returns a mutable copy of the schedule for the composite
// key, or a fresh one with a store-compatible uuid when none exists.
func resolveSchedule(schedules []model.Schedule, ministryID, date string) (model.Schedule, bool) {
	if existing := FindByMinistryDate(schedules, ministryID, date); existing != nil {
		return existing.Clone(), false
	}
	return model.Schedule{
		ID:            uuid.New().String(),
		MinistryID:    ministryID,
		Date:          date,
		MemberIDs:     []string{},
		MemberDetails: map[string]model.MemberDetails{},
	}, true
}

func removeMember(schedule *model.Schedule, userID string) {
	members := schedule.MemberIDs[:0]
	for _, id := range schedule.MemberIDs {
		if id != userID {
			members = append(members, id)
		}
	}
	schedule.MemberIDs = members
	delete(schedule.MemberDetails, userID)
}
