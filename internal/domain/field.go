package domain

import (
	"strconv"
	"strings"
	"time"

	"service-meetings/internal/timeparse"
)

// Field is the canonical key for one record column. Imported headers are
// matched case-insensitively and legacy header spellings from older flat
// files map onto the same keys, so schema evolution happens once at parse
// time instead of branching on column names at runtime.
type Field string

const (
	FieldID                 Field = "meeting_id"
	FieldTitle              Field = "title"
	FieldOrganization       Field = "organization"
	FieldClient             Field = "client"
	FieldStakeholder        Field = "stakeholder"
	FieldPurpose            Field = "purpose"
	FieldAgenda             Field = "agenda"
	FieldMeetingDate        Field = "meeting_date"
	FieldStartTime          Field = "start_time"
	FieldTimeZone           Field = "time_zone"
	FieldMeetingType        Field = "meeting_type"
	FieldMeetingLink        Field = "meeting_link"
	FieldLocation           Field = "location"
	FieldStatus             Field = "status"
	FieldPriority           Field = "priority"
	FieldAttendees          Field = "attendees"
	FieldGuests             Field = "guests"
	FieldNotes              Field = "notes"
	FieldNextAction         Field = "next_action"
	FieldFollowUpDate       Field = "follow_up_date"
	FieldReminderSent       Field = "reminder_sent"
	FieldCalendarSync       Field = "calendar_sync"
	FieldCalendarEventTitle Field = "calendar_event_title"
	FieldManualStatus       Field = "manual_status"
)

// AllFields is the canonical column order for snapshots and exports.
var AllFields = []Field{
	FieldID, FieldTitle, FieldOrganization, FieldClient, FieldStakeholder,
	FieldPurpose, FieldAgenda, FieldMeetingDate, FieldStartTime, FieldTimeZone,
	FieldMeetingType, FieldMeetingLink, FieldLocation, FieldStatus, FieldPriority,
	FieldAttendees, FieldGuests, FieldNotes, FieldNextAction, FieldFollowUpDate,
	FieldReminderSent, FieldCalendarSync, FieldCalendarEventTitle, FieldManualStatus,
}

// Header returns the display column name written to flat files. These match
// the spreadsheet template so hand-edited exports round-trip.
func (f Field) Header() string {
	switch f {
	case FieldID:
		return "Meeting ID"
	case FieldTitle:
		return "Meeting Title"
	case FieldOrganization:
		return "Organization"
	case FieldClient:
		return "Client"
	case FieldStakeholder:
		return "Stakeholder Name"
	case FieldPurpose:
		return "Purpose"
	case FieldAgenda:
		return "Agenda"
	case FieldMeetingDate:
		return "Meeting Date"
	case FieldStartTime:
		return "Start Time"
	case FieldTimeZone:
		return "Time Zone"
	case FieldMeetingType:
		return "Meeting Type"
	case FieldMeetingLink:
		return "Meeting Link"
	case FieldLocation:
		return "Location"
	case FieldStatus:
		return "Status"
	case FieldPriority:
		return "Priority"
	case FieldAttendees:
		return "Attendees"
	case FieldGuests:
		return "Internal External Guests"
	case FieldNotes:
		return "Notes"
	case FieldNextAction:
		return "Next Action"
	case FieldFollowUpDate:
		return "Follow up Date"
	case FieldReminderSent:
		return "Reminder Sent"
	case FieldCalendarSync:
		return "Calendar Sync"
	case FieldCalendarEventTitle:
		return "Calendar Event Title"
	case FieldManualStatus:
		return "Manual Status"
	default:
		return string(f)
	}
}

// fieldAliases maps normalized header text to fields. Includes the legacy
// column spellings used by earlier flat-file releases.
var fieldAliases = map[string]Field{
	"id":           FieldID,
	"podcast id":   FieldID,
	"record id":    FieldID,
	"title":        FieldTitle,
	"name":         FieldTitle,
	"org":          FieldOrganization,
	"company":      FieldOrganization,
	"stakeholder":  FieldStakeholder,
	"contact name": FieldStakeholder,
	"date":         FieldMeetingDate,
	"podcast date": FieldMeetingDate,
	"time":         FieldStartTime,
	"timezone":     FieldTimeZone,
	"link":         FieldMeetingLink,
	"guests":       FieldGuests,
	"next steps":   FieldNextAction,
	"follow-up date": FieldFollowUpDate,
}

// FieldForHeader resolves a raw header cell to its canonical field.
// Matching is case-insensitive and tolerant of underscores and extra
// whitespace.
func FieldForHeader(header string) (Field, bool) {
	normalized := normalizeHeader(header)
	if normalized == "" {
		return "", false
	}
	for _, f := range AllFields {
		if normalizeHeader(f.Header()) == normalized || normalizeHeader(string(f)) == normalized {
			return f, true
		}
	}
	if f, ok := fieldAliases[normalized]; ok {
		return f, true
	}
	return "", false
}

func normalizeHeader(header string) string {
	lowered := strings.ToLower(strings.TrimSpace(header))
	lowered = strings.ReplaceAll(lowered, "_", " ")
	return strings.Join(strings.Fields(lowered), " ")
}

const dateLayout = "2006-01-02"

// Value returns the record's cell text for a field, in the shape written
// to flat files.
func (r Record) Value(f Field) string {
	switch f {
	case FieldID:
		if r.ID <= 0 {
			return ""
		}
		return strconv.FormatInt(r.ID, 10)
	case FieldTitle:
		return r.Title
	case FieldOrganization:
		return r.Organization
	case FieldClient:
		return r.Client
	case FieldStakeholder:
		return r.Stakeholder
	case FieldPurpose:
		return r.Purpose
	case FieldAgenda:
		return r.Agenda
	case FieldMeetingDate:
		return formatDate(r.MeetingDate)
	case FieldStartTime:
		return r.StartTime
	case FieldTimeZone:
		return r.TimeZone
	case FieldMeetingType:
		return r.MeetingType
	case FieldMeetingLink:
		return r.MeetingLink
	case FieldLocation:
		return r.Location
	case FieldStatus:
		return string(r.Status)
	case FieldPriority:
		return r.Priority
	case FieldAttendees:
		return r.Attendees
	case FieldGuests:
		return r.Guests
	case FieldNotes:
		return r.Notes
	case FieldNextAction:
		return r.NextAction
	case FieldFollowUpDate:
		return formatDate(r.FollowUpDate)
	case FieldReminderSent:
		return r.ReminderSent
	case FieldCalendarSync:
		return r.CalendarSync
	case FieldCalendarEventTitle:
		return r.CalendarEventTitle
	case FieldManualStatus:
		if r.ManualStatus {
			return "Yes"
		}
		return "No"
	default:
		return ""
	}
}

// Apply writes a raw cell value into the record. Identity and status are
// skipped here: both have dedicated handling in the reconciliation flow.
func (r *Record) Apply(f Field, value string) {
	trimmed := strings.TrimSpace(value)
	if IsBlank(trimmed) {
		trimmed = ""
	}
	switch f {
	case FieldID, FieldStatus:
		// resolved by the caller
	case FieldTitle:
		r.Title = trimmed
	case FieldOrganization:
		r.Organization = trimmed
	case FieldClient:
		r.Client = trimmed
	case FieldStakeholder:
		r.Stakeholder = trimmed
	case FieldPurpose:
		r.Purpose = trimmed
	case FieldAgenda:
		r.Agenda = trimmed
	case FieldMeetingDate:
		r.MeetingDate = timeparse.ParseDate(trimmed)
	case FieldStartTime:
		// Kept verbatim even when unparseable; derivation treats an
		// unknown time as Upcoming and the user's text survives edits.
		r.StartTime = trimmed
	case FieldTimeZone:
		r.TimeZone = trimmed
	case FieldMeetingType:
		r.MeetingType = trimmed
	case FieldMeetingLink:
		r.MeetingLink = trimmed
	case FieldLocation:
		r.Location = trimmed
	case FieldPriority:
		r.Priority = trimmed
	case FieldAttendees:
		r.Attendees = trimmed
	case FieldGuests:
		r.Guests = trimmed
	case FieldNotes:
		r.Notes = trimmed
	case FieldNextAction:
		r.NextAction = trimmed
	case FieldFollowUpDate:
		r.FollowUpDate = timeparse.ParseDate(trimmed)
	case FieldReminderSent:
		r.ReminderSent = trimmed
	case FieldCalendarSync:
		r.CalendarSync = trimmed
	case FieldCalendarEventTitle:
		r.CalendarEventTitle = trimmed
	case FieldManualStatus:
		r.ManualStatus = strings.EqualFold(trimmed, "yes") || strings.EqualFold(trimmed, "true")
	}
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

