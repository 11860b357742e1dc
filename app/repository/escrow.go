package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/carenest-platform/ms-go-refunds/app/entity"
)

var ErrEscrowNotFound = errors.New("escrow transaction not found")

// EscrowRepository is the read-side view of escrow transactions. The single
// write the refund engine performs on escrow, the HELD to REFUNDED move, is
// part of the settlement transaction.
type EscrowRepository struct {
	db DBTX
}

func NewEscrowRepository(db DBTX) *EscrowRepository {
	return &EscrowRepository{db: db}
}

func (r *EscrowRepository) FindByID(ctx context.Context, id uint64) (*entity.EscrowTransaction, error) {
	query := `
		SELECT id, payment_id, status, held_at, refund_date, refund_reason, created_at, updated_at
		FROM escrow_transactions
		WHERE id = ?
	`

	escrow := &entity.EscrowTransaction{}
	var status string
	var refundDate sql.NullTime
	var refundReason sql.NullString

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&escrow.ID,
		&escrow.PaymentID,
		&status,
		&escrow.HeldAt,
		&refundDate,
		&refundReason,
		&escrow.CreatedAt,
		&escrow.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	escrow.Status = entity.EscrowStatus(status)
	escrow.RefundDate = timePtrFromNull(refundDate)
	escrow.RefundReason = stringPtrFromNull(refundReason)

	return escrow, nil
}
