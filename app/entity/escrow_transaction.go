package entity

import "time"

type EscrowStatus string

const (
	EscrowStatusHeld     EscrowStatus = "HELD"
	EscrowStatusReleased EscrowStatus = "RELEASED"
	EscrowStatusRefunded EscrowStatus = "REFUNDED"
)

// EscrowTransaction holds funds pending release to the payee. A refund from
// escrow returns the funds to the payer instead; the transition to REFUNDED
// happens exactly once, in lock-step with the owning refund completing.
type EscrowTransaction struct {
	ID uint64

	PaymentID uint64

	Status EscrowStatus

	HeldAt       time.Time
	RefundDate   *time.Time
	RefundReason *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
