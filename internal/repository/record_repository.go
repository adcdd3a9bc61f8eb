package repository

import (
	"context"
	"database/sql"
	"time"

	"service-meetings/internal/domain"
)

type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type RecordRepository interface {
	ListByKind(ctx context.Context, kind domain.Kind) (domain.Collection, error)
	Upsert(ctx context.Context, rec domain.Record) error
	Delete(ctx context.Context, kind domain.Kind, id int64) error
	AllIdentities(ctx context.Context, kind domain.Kind) (map[int64]struct{}, error)
	NextIdentity(ctx context.Context) (int64, error)
}

type RecordPostgresRepository struct {
	execer Execer
}

func NewRecordPostgresRepository(execer Execer) *RecordPostgresRepository {
	return &RecordPostgresRepository{execer: execer}
}

const recordColumns = `
record_id, kind, title, organization, client, stakeholder, purpose, agenda,
meeting_date, start_time, time_zone, meeting_type, meeting_link, location,
status, priority, attendees, guests, notes, next_action, follow_up_date,
reminder_sent, calendar_sync, calendar_event_title, manual_status
`

func (r *RecordPostgresRepository) ListByKind(ctx context.Context, kind domain.Kind) (domain.Collection, error) {
	query := `
SELECT ` + recordColumns + `
FROM meetings.records
WHERE kind = $1
ORDER BY record_id
`

	rows, err := r.execer.QueryContext(ctx, query, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records domain.Collection
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (r *RecordPostgresRepository) Upsert(ctx context.Context, rec domain.Record) error {
	const query = `
INSERT INTO meetings.records (
	record_id,
	kind,
	title,
	organization,
	client,
	stakeholder,
	purpose,
	agenda,
	meeting_date,
	start_time,
	time_zone,
	meeting_type,
	meeting_link,
	location,
	status,
	priority,
	attendees,
	guests,
	notes,
	next_action,
	follow_up_date,
	reminder_sent,
	calendar_sync,
	calendar_event_title,
	manual_status,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, now(), now())
ON CONFLICT (kind, record_id)
DO UPDATE SET
	title = EXCLUDED.title,
	organization = EXCLUDED.organization,
	client = EXCLUDED.client,
	stakeholder = EXCLUDED.stakeholder,
	purpose = EXCLUDED.purpose,
	agenda = EXCLUDED.agenda,
	meeting_date = EXCLUDED.meeting_date,
	start_time = EXCLUDED.start_time,
	time_zone = EXCLUDED.time_zone,
	meeting_type = EXCLUDED.meeting_type,
	meeting_link = EXCLUDED.meeting_link,
	location = EXCLUDED.location,
	status = EXCLUDED.status,
	priority = EXCLUDED.priority,
	attendees = EXCLUDED.attendees,
	guests = EXCLUDED.guests,
	notes = EXCLUDED.notes,
	next_action = EXCLUDED.next_action,
	follow_up_date = EXCLUDED.follow_up_date,
	reminder_sent = EXCLUDED.reminder_sent,
	calendar_sync = EXCLUDED.calendar_sync,
	calendar_event_title = EXCLUDED.calendar_event_title,
	manual_status = EXCLUDED.manual_status,
	updated_at = now()
`

	_, err := r.execer.ExecContext(
		ctx,
		query,
		rec.ID,
		rec.Kind,
		rec.Title,
		rec.Organization,
		rec.Client,
		rec.Stakeholder,
		rec.Purpose,
		rec.Agenda,
		nullTime(rec.MeetingDate),
		rec.StartTime,
		rec.TimeZone,
		rec.MeetingType,
		rec.MeetingLink,
		rec.Location,
		string(rec.Status),
		rec.Priority,
		rec.Attendees,
		rec.Guests,
		rec.Notes,
		rec.NextAction,
		nullTime(rec.FollowUpDate),
		rec.ReminderSent,
		rec.CalendarSync,
		rec.CalendarEventTitle,
		rec.ManualStatus,
	)
	return err
}

func (r *RecordPostgresRepository) Delete(ctx context.Context, kind domain.Kind, id int64) error {
	const query = `
DELETE FROM meetings.records
WHERE kind = $1 AND record_id = $2
`

	_, err := r.execer.ExecContext(ctx, query, kind, id)
	return err
}

func (r *RecordPostgresRepository) AllIdentities(ctx context.Context, kind domain.Kind) (map[int64]struct{}, error) {
	const query = `
SELECT record_id
FROM meetings.records
WHERE kind = $1
`

	rows, err := r.execer.QueryContext(ctx, query, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

// NextIdentity draws from the shared sequence so concurrent allocation
// sources cannot race.
func (r *RecordPostgresRepository) NextIdentity(ctx context.Context) (int64, error) {
	var id int64
	if err := r.execer.QueryRowContext(ctx, `SELECT nextval('meetings.record_id_seq')`).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func scanRecord(rows *sql.Rows) (domain.Record, error) {
	var rec domain.Record
	var meetingDate sql.NullTime
	var followUpDate sql.NullTime
	var status string
	if err := rows.Scan(
		&rec.ID,
		&rec.Kind,
		&rec.Title,
		&rec.Organization,
		&rec.Client,
		&rec.Stakeholder,
		&rec.Purpose,
		&rec.Agenda,
		&meetingDate,
		&rec.StartTime,
		&rec.TimeZone,
		&rec.MeetingType,
		&rec.MeetingLink,
		&rec.Location,
		&status,
		&rec.Priority,
		&rec.Attendees,
		&rec.Guests,
		&rec.Notes,
		&rec.NextAction,
		&followUpDate,
		&rec.ReminderSent,
		&rec.CalendarSync,
		&rec.CalendarEventTitle,
		&rec.ManualStatus,
	); err != nil {
		return domain.Record{}, err
	}
	if meetingDate.Valid {
		rec.MeetingDate = &meetingDate.Time
	}
	if followUpDate.Valid {
		rec.FollowUpDate = &followUpDate.Time
	}
	rec.Status = domain.Status(status)
	return rec, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
