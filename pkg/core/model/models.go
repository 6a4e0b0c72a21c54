package model

type Role string

const (
	RoleMember Role = "member"
	RoleLeader Role = "leader"
	RoleAdmin  Role = "admin"
)

func (r Role) IsValid() bool {
	return r == RoleMember || r == RoleLeader || r == RoleAdmin
}

// User represents a registered member of the organization
type User struct {
	ID          string
	Name        string
	Email       string
	Role        Role
	MinistryIDs []string
}

// IsLeaderOf reports whether the user may manage schedules for the given
// ministry. Admins manage every ministry; leaders only those they belong to.
func (u User) IsLeaderOf(ministryID string) bool {
	if u.Role == RoleAdmin {
		return true
	}
	if u.Role != RoleLeader {
		return false
	}
	return u.BelongsTo(ministryID)
}

// BelongsTo reports whether the user is a member of the given ministry
func (u User) BelongsTo(ministryID string) bool {
	for _, id := range u.MinistryIDs {
		if id == ministryID {
			return true
		}
	}
	return false
}

// Ministry represents a named volunteer role/team. Color is a display tag;
// Name also selects the capacity rules (see pkg/core/policy).
type Ministry struct {
	ID       string
	Name     string
	ImageURL string
	Color    string
}

// Availability stores the set of dates a user declared themselves able to
// serve. One record per user, upserted whole. No record means unavailable
// for every date.
type Availability struct {
	UserID string
	Dates  []string // ISO yyyy-MM-dd
}

// Includes reports whether the user declared availability for the date
func (a Availability) Includes(date string) bool {
	for _, d := range a.Dates {
		if d == date {
			return true
		}
	}
	return false
}

// MemberDetails is optional per-member metadata relevant only to specific
// ministries (e.g. a music ministry's performer name and contact).
type MemberDetails struct {
	SingerName string
	Phone      string
}

// Schedule is the set of members assigned to a ministry on a date.
// Exactly one schedule may exist per (MinistryID, Date) pair; lookups must
// resolve by that composite key before falling back to ID.
type Schedule struct {
	ID            string
	MinistryID    string
	Date          string // ISO yyyy-MM-dd
	MemberIDs     []string
	MemberDetails map[string]MemberDetails
}

// HasMember reports whether the user is currently assigned to the schedule
func (s Schedule) HasMember(userID string) bool {
	for _, id := range s.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so engine mutations never alias snapshot state
func (s Schedule) Clone() Schedule {
	out := s
	out.MemberIDs = make([]string, len(s.MemberIDs))
	copy(out.MemberIDs, s.MemberIDs)
	out.MemberDetails = make(map[string]MemberDetails, len(s.MemberDetails))
	for k, v := range s.MemberDetails {
		out.MemberDetails[k] = v
	}
	return out
}

// Snapshot is the in-memory copy of the remote store's entities. It is a
// cache: the synchronization layer fully replaces it on every refresh.
type Snapshot struct {
	Users          []User
	Ministries     []Ministry
	Availabilities []Availability
	Schedules      []Schedule
}

// MinistryByID returns the ministry with the given id, or nil
func (s Snapshot) MinistryByID(id string) *Ministry {
	for i := range s.Ministries {
		if s.Ministries[i].ID == id {
			return &s.Ministries[i]
		}
	}
	return nil
}

// UserByID returns the user with the given id, or nil
func (s Snapshot) UserByID(id string) *User {
	for i := range s.Users {
		if s.Users[i].ID == id {
			return &s.Users[i]
		}
	}
	return nil
}

// UserByEmail returns the user with the given email, or nil
func (s Snapshot) UserByEmail(email string) *User {
	for i := range s.Users {
		if s.Users[i].Email == email {
			return &s.Users[i]
		}
	}
	return nil
}

// AvailabilityFor returns the availability record for the user, or nil
func (s Snapshot) AvailabilityFor(userID string) *Availability {
	for i := range s.Availabilities {
		if s.Availabilities[i].UserID == userID {
			return &s.Availabilities[i]
		}
	}
	return nil
}
