package timeparse

import (
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time with no date attached.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

func (t TimeOfDay) String() string {
	return time.Date(0, 1, 1, t.Hour, t.Minute, t.Second, 0, time.UTC).Format("15:04:05")
}

// timeLayouts are tried in order. 24-hour forms first, then 12-hour with
// an AM/PM marker. The list is fixed; anything else is treated as unknown.
var timeLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04 PM",
	"3:04:05 PM",
}

// ParseTime parses a time-of-day string against the fixed layout list.
// It returns nil for blank input or when no layout matches. Callers must
// treat nil as "unknown", never as a failure: upstream spreadsheet data
// is routinely partial and missing times default to an Upcoming status.
func ParseTime(text string) *TimeOfDay {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		parsed, err := time.Parse(layout, strings.ToUpper(trimmed))
		if err != nil {
			continue
		}
		return &TimeOfDay{Hour: parsed.Hour(), Minute: parsed.Minute(), Second: parsed.Second()}
	}
	return nil
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"01/02/2006",
	"2006/01/02",
}

// ParseDate parses a calendar date from an already-typed time.Time or a
// string in one of the recognized layouts. It returns nil for anything it
// cannot interpret; parse problems never propagate as errors.
func ParseDate(value any) *time.Time {
	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			return nil
		}
		d := v
		return &d
	case *time.Time:
		if v == nil || v.IsZero() {
			return nil
		}
		d := *v
		return &d
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil
		}
		for _, layout := range dateLayouts {
			parsed, err := time.ParseInLocation(layout, trimmed, time.Local)
			if err != nil {
				continue
			}
			return &parsed
		}
		return nil
	default:
		return nil
	}
}

// Combine joins a calendar date with a time-of-day in the date's location.
func Combine(date time.Time, tod TimeOfDay) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), tod.Hour, tod.Minute, tod.Second, 0, date.Location())
}
