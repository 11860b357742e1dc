package entity

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusEscrow    PaymentStatus = "ESCROW"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// Payment is owned by the payment-collection subsystem. The refund engine
// reads it and performs exactly one write: status to REFUNDED, inside the
// settlement transaction.
type Payment struct {
	ID uint64

	AmountCents int64
	Currency    string

	Status PaymentStatus

	Gateway              string
	GatewayTransactionID string

	EscrowTransactionID *uint64

	ServiceType string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Refundable reports whether the payment is in a state money can be
// returned from.
func (p *Payment) Refundable() bool {
	return p.Status == PaymentStatusCompleted || p.Status == PaymentStatusEscrow
}
