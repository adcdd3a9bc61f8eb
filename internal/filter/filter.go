package filter

import (
	"strings"
	"time"

	"service-meetings/internal/domain"
)

// DefaultSearchFields are the text columns substring search covers when a
// query does not name its own set.
var DefaultSearchFields = []domain.Field{
	domain.FieldTitle,
	domain.FieldOrganization,
	domain.FieldClient,
	domain.FieldStakeholder,
	domain.FieldPurpose,
	domain.FieldAttendees,
	domain.FieldGuests,
	domain.FieldNotes,
}

// Query describes a selection over a collection. Zero-valued members
// disable their predicate; active predicates AND together.
type Query struct {
	// Status matches the lifecycle state exactly. Empty or "All" disables.
	Status string
	// DateStart/DateEnd bound the meeting date inclusively. DateEnd is
	// extended to the end of its calendar day before comparison.
	DateStart *time.Time
	DateEnd   *time.Time
	// Search is matched case-insensitively as a substring, OR-combined
	// across SearchFields. Whitespace-only text disables the predicate.
	Search       string
	SearchFields []domain.Field
}

// Apply returns the records matching q. It never mutates c.
func Apply(c domain.Collection, q Query) domain.Collection {
	out := make(domain.Collection, 0, len(c))
	for _, rec := range c {
		if matches(rec, q) {
			out = append(out, rec)
		}
	}
	return out
}

func matches(rec domain.Record, q Query) bool {
	if q.Status != "" && q.Status != domain.StatusAll && string(rec.Status) != q.Status {
		return false
	}

	if q.DateStart != nil || q.DateEnd != nil {
		if rec.MeetingDate == nil {
			return false
		}
		date := *rec.MeetingDate
		if q.DateStart != nil && date.Before(dayStart(*q.DateStart)) {
			return false
		}
		if q.DateEnd != nil && date.After(dayEnd(*q.DateEnd)) {
			return false
		}
	}

	search := strings.TrimSpace(q.Search)
	if search != "" {
		needle := strings.ToLower(search)
		fields := q.SearchFields
		if len(fields) == 0 {
			fields = DefaultSearchFields
		}
		hit := false
		for _, f := range fields {
			if strings.Contains(strings.ToLower(rec.Value(f)), needle) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}

	return true
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// dayEnd extends the bound to 23:59:59 so a same-day start==end filter
// still matches records timestamped later that day.
func dayEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
