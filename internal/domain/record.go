package domain

import "time"

type Kind string

const (
	KindMeeting Kind = "meeting"
	KindPodcast Kind = "podcast"
)

func (k Kind) Valid() bool {
	switch k {
	case KindMeeting, KindPodcast:
		return true
	default:
		return false
	}
}

// Kinds lists every record domain the service manages.
func Kinds() []Kind {
	return []Kind{KindMeeting, KindPodcast}
}

type Status string

const (
	StatusUpcoming  Status = "Upcoming"
	StatusOngoing   Status = "Ongoing"
	StatusEnded     Status = "Ended"
	StatusCompleted Status = "Completed"
)

// StatusAll is the filter sentinel that disables status matching.
const StatusAll = "All"

func (s Status) Valid() bool {
	switch s {
	case StatusUpcoming, StatusOngoing, StatusEnded, StatusCompleted:
		return true
	default:
		return false
	}
}

// Record is one meeting or podcast-booking entity. ID is immutable once
// assigned and unique within a collection; zero means "not yet allocated",
// which is only valid transiently during import.
type Record struct {
	ID                 int64
	Kind               Kind
	Title              string
	Organization       string
	Client             string
	Stakeholder        string
	Purpose            string
	Agenda             string
	MeetingDate        *time.Time
	StartTime          string
	TimeZone           string
	MeetingType        string
	MeetingLink        string
	Location           string
	Status             Status
	Priority           string
	Attendees          string
	Guests             string
	Notes              string
	NextAction         string
	FollowUpDate       *time.Time
	ReminderSent       string
	CalendarSync       string
	CalendarEventTitle string

	// ManualStatus records that a human chose the status explicitly.
	// Persisted alongside the record so overrides survive restarts.
	ManualStatus bool
}

// Collection is the full ordered record set for one kind. Insertion order
// is preserved for display and carries no other meaning.
type Collection []Record

func (c Collection) IndexByID(id int64) int {
	for i := range c {
		if c[i].ID == id {
			return i
		}
	}
	return -1
}

func (c Collection) Identities() map[int64]struct{} {
	ids := make(map[int64]struct{}, len(c))
	for i := range c {
		if c[i].ID > 0 {
			ids[c[i].ID] = struct{}{}
		}
	}
	return ids
}

// MaxIdentity returns the highest positive identity in the collection,
// or zero when there is none.
func (c Collection) MaxIdentity() int64 {
	var max int64
	for i := range c {
		if c[i].ID > max {
			max = c[i].ID
		}
	}
	return max
}

// Clone returns a copy whose backing array is independent of c.
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	copy(out, c)
	return out
}

// OverrideTable maps identity to a manually chosen status that must not
// be recomputed automatically. Entries are removed only when the record
// itself is deleted.
type OverrideTable map[int64]Status

func (t OverrideTable) Clone() OverrideTable {
	out := make(OverrideTable, len(t))
	for id, s := range t {
		out[id] = s
	}
	return out
}
