package lifecycle

import (
	"time"

	"service-meetings/internal/domain"
	"service-meetings/internal/timeparse"
)

// DefaultDuration is assumed for every meeting: the record template carries
// no end time, so a fixed one-hour window decides Ongoing versus Ended.
const DefaultDuration = time.Hour

// Engine derives lifecycle states from a record's scheduled instant.
type Engine struct {
	Duration time.Duration
}

func NewEngine() *Engine {
	return &Engine{Duration: DefaultDuration}
}

// Derive computes the automatic lifecycle state for a scheduled date and
// start-time text at the given instant. It is a pure function of its
// inputs, never returns Completed (that state is reachable only through a
// manual override), and never fails: missing or unparseable temporal data
// yields Upcoming.
func (e *Engine) Derive(date *time.Time, startTime string, now time.Time) domain.Status {
	if date == nil || date.IsZero() {
		return domain.StatusUpcoming
	}
	tod := timeparse.ParseTime(startTime)
	if tod == nil {
		return domain.StatusUpcoming
	}

	start := timeparse.Combine(*date, *tod)
	end := start.Add(e.duration())

	switch {
	case now.Before(start):
		return domain.StatusUpcoming
	case now.Before(end):
		return domain.StatusOngoing
	default:
		return domain.StatusEnded
	}
}

// DeriveRecord is Derive over a record's own scheduling fields.
func (e *Engine) DeriveRecord(r domain.Record, now time.Time) domain.Status {
	return e.Derive(r.MeetingDate, r.StartTime, now)
}

// Refresh recomputes lifecycle states in place for every record whose
// stored state is blank or whose identity has no override entry.
// Overridden states are left untouched. Returns how many records changed.
func (e *Engine) Refresh(c domain.Collection, overrides domain.OverrideTable, now time.Time) int {
	changed := 0
	for i := range c {
		if _, overridden := overrides[c[i].ID]; overridden && !domain.IsBlank(string(c[i].Status)) {
			continue
		}
		derived := e.DeriveRecord(c[i], now)
		if derived != c[i].Status {
			c[i].Status = derived
			changed++
		}
	}
	return changed
}

func (e *Engine) duration() time.Duration {
	if e.Duration <= 0 {
		return DefaultDuration
	}
	return e.Duration
}
