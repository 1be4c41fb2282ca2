package model

import "time"

// AuditEventType identifies what kind of lifecycle event was recorded.
type AuditEventType string

// Audit event types.
const (
	AuditSubmitted    AuditEventType = "submitted"
	AuditTransitioned AuditEventType = "transitioned"
)

// AuditEvent is one row in the local audit log. Audit events are
// supplementary observability; the ledger remains the source of truth
// for transaction state.
type AuditEvent struct {
	CreatedAt     time.Time
	RunID         string
	TransactionID string
	Event         AuditEventType
	FromStatus    Status
	ToStatus      Status
	Detail        string
	ID            int64
}
