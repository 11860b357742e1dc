package entity

import "time"

type RefundStatus string

const (
	RefundStatusPending    RefundStatus = "PENDING"
	RefundStatusProcessing RefundStatus = "PROCESSING"
	RefundStatusCompleted  RefundStatus = "COMPLETED"
	RefundStatusFailed     RefundStatus = "FAILED"
	RefundStatusRejected   RefundStatus = "REJECTED"
)

type RefundType string

const (
	RefundTypeFull    RefundType = "FULL"
	RefundTypePartial RefundType = "PARTIAL"
)

// SystemProcessor is recorded as processed_by when an auto-approved refund is
// processed without a human decision.
const SystemProcessor = "SYSTEM"

// Refund is one refund attempt against exactly one payment. Rows are never
// deleted; terminal statuses accept no further transition.
type Refund struct {
	ID uint64

	// Reference is the caller-facing opaque id, also forwarded to the
	// gateway as the idempotency reference.
	Reference string

	PaymentID uint64

	AmountCents int64
	Currency    string

	Status RefundStatus
	Type   RefundType

	Reason      string
	RequestedBy string
	ProcessedBy *string

	GatewayTransactionID *string
	FailureReason        *string

	Evidence []string
	Metadata map[string]string

	CreatedAt   time.Time
	ProcessedAt *time.Time
	UpdatedAt   time.Time
}

// Terminal reports whether the refund status accepts no further transition.
func (s RefundStatus) Terminal() bool {
	switch s {
	case RefundStatusCompleted, RefundStatusFailed, RefundStatusRejected:
		return true
	default:
		return false
	}
}
