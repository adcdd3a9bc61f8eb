package repository

import (
	"context"

	"github.com/google/uuid"

	"service-meetings/internal/domain"
)

type AuditLogRepository interface {
	Insert(ctx context.Context, entry domain.AuditEntry) error
	// DeleteByRecord removes every audit row referencing a record. Must
	// run before the record itself is deleted: the log table holds an
	// enforced foreign key to records.
	DeleteByRecord(ctx context.Context, kind domain.Kind, recordID int64) error
}

type AuditLogPostgresRepository struct {
	execer Execer
}

func NewAuditLogPostgresRepository(execer Execer) *AuditLogPostgresRepository {
	return &AuditLogPostgresRepository{execer: execer}
}

func (r *AuditLogPostgresRepository) Insert(ctx context.Context, entry domain.AuditEntry) error {
	id := entry.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	const query = `
INSERT INTO meetings.audit_log (
	id,
	kind,
	record_id,
	action,
	detail,
	created_at
) VALUES ($1, $2, $3, $4, $5, now())
`

	_, err := r.execer.ExecContext(ctx, query, id, entry.Kind, entry.RecordID, entry.Action, entry.Detail)
	return err
}

func (r *AuditLogPostgresRepository) DeleteByRecord(ctx context.Context, kind domain.Kind, recordID int64) error {
	const query = `
DELETE FROM meetings.audit_log
WHERE kind = $1 AND record_id = $2
`

	_, err := r.execer.ExecContext(ctx, query, kind, recordID)
	return err
}
