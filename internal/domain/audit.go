package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditEntry is one row of the dependent audit log. Entries reference a
// record by (kind, identity) under an enforced foreign key, which is why
// deletes must remove them before the parent record.
type AuditEntry struct {
	ID        uuid.UUID
	Kind      Kind
	RecordID  int64
	Action    string
	Detail    string
	CreatedAt time.Time
}

const (
	AuditActionCreated = "created"
	AuditActionUpdated = "updated"
	AuditActionImport  = "imported"
)
