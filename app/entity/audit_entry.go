package entity

import "time"

const AuditEntityRefund = "REFUND"

type AuditAction string

const (
	AuditActionRequested AuditAction = "REQUESTED"
	AuditActionProcessed AuditAction = "PROCESSED"
	AuditActionRejected  AuditAction = "REJECTED"
)

// AuditEntry is an immutable fact about a refund lifecycle event. Entries are
// append-only and never updated by this service.
type AuditEntry struct {
	ID uint64

	EntityType string
	EntityID   uint64

	Action      AuditAction
	Description string
	Metadata    map[string]string

	Timestamp time.Time
}
