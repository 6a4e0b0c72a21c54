package db

import (
	"errors"
	"time"

	"github.com/jakechorley/escala/pkg/core/model"
)

// ErrNotFound is returned when a lookup matches no record
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when an insert collides with an existing record
// on a unique column
var ErrDuplicate = errors.New("record already exists")

// Profile represents a database profile record. The profile table also
// carries the credential hash for the authentication bridge.
type Profile struct {
	ID           string
	Name         string
	Email        string
	Role         string
	MinistryIDs  []string
	PasswordHash string
	CreatedAt    time.Time
}

// ToModel converts the record to the core user entity
func (p Profile) ToModel() model.User {
	return model.User{
		ID:          p.ID,
		Name:        p.Name,
		Email:       p.Email,
		Role:        model.Role(p.Role),
		MinistryIDs: p.MinistryIDs,
	}
}

// ProfileUpdate is a partial profile mutation; nil fields are left untouched
type ProfileUpdate struct {
	Name        *string
	Role        *string
	MinistryIDs *[]string
}

// Ministry represents a database ministry record
type Ministry struct {
	ID       string
	Name     string
	ImageURL string
	Color    string
}

func (m Ministry) ToModel() model.Ministry {
	return model.Ministry{
		ID:       m.ID,
		Name:     m.Name,
		ImageURL: m.ImageURL,
		Color:    m.Color,
	}
}

// MemberDetail mirrors model.MemberDetails with the JSON shape stored in
// the schedules.member_details column.
type MemberDetail struct {
	SingerName string `json:"singer_name,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// Schedule represents a database schedule record. Uniqueness is enforced on
// (ministry_id, date) even though the physical key is id.
type Schedule struct {
	ID            string
	MinistryID    string
	Date          string
	MemberIDs     []string
	MemberDetails map[string]MemberDetail
	CreatedAt     time.Time
}

func (s Schedule) ToModel() model.Schedule {
	details := make(map[string]model.MemberDetails, len(s.MemberDetails))
	for userID, d := range s.MemberDetails {
		details[userID] = model.MemberDetails{SingerName: d.SingerName, Phone: d.Phone}
	}
	return model.Schedule{
		ID:            s.ID,
		MinistryID:    s.MinistryID,
		Date:          s.Date,
		MemberIDs:     s.MemberIDs,
		MemberDetails: details,
	}
}

// ScheduleFromModel converts a core schedule entity to its database record
func ScheduleFromModel(s model.Schedule) Schedule {
	details := make(map[string]MemberDetail, len(s.MemberDetails))
	for userID, d := range s.MemberDetails {
		details[userID] = MemberDetail{SingerName: d.SingerName, Phone: d.Phone}
	}
	return Schedule{
		ID:            s.ID,
		MinistryID:    s.MinistryID,
		Date:          s.Date,
		MemberIDs:     s.MemberIDs,
		MemberDetails: details,
	}
}

// Availability represents a database availability record, one per user
type Availability struct {
	UserID    string
	Dates     []string
	UpdatedAt time.Time
}

func (a Availability) ToModel() model.Availability {
	return model.Availability{UserID: a.UserID, Dates: a.Dates}
}

// SnapshotData is the full entity set returned by a fetch-all
type SnapshotData struct {
	Profiles       []Profile
	Ministries     []Ministry
	Availabilities []Availability
	Schedules      []Schedule
}

// ToModel converts the full fetch into a core snapshot
func (d SnapshotData) ToModel() model.Snapshot {
	snap := model.Snapshot{
		Users:          make([]model.User, 0, len(d.Profiles)),
		Ministries:     make([]model.Ministry, 0, len(d.Ministries)),
		Availabilities: make([]model.Availability, 0, len(d.Availabilities)),
		Schedules:      make([]model.Schedule, 0, len(d.Schedules)),
	}
	for _, p := range d.Profiles {
		snap.Users = append(snap.Users, p.ToModel())
	}
	for _, m := range d.Ministries {
		snap.Ministries = append(snap.Ministries, m.ToModel())
	}
	for _, a := range d.Availabilities {
		snap.Availabilities = append(snap.Availabilities, a.ToModel())
	}
	for _, s := range d.Schedules {
		snap.Schedules = append(snap.Schedules, s.ToModel())
	}
	return snap
}
