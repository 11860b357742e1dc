package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/carenest-platform/ms-go-refunds/app/entity"
)

// SettlementRepository applies the success effects of a refund: refund to
// COMPLETED, payment to REFUNDED, and the linked escrow transaction (if any)
// to REFUNDED. The three writes share one database transaction so no reader
// ever observes a refunded payment next to a still-processing refund, or an
// escrow row left HELD after its payment was refunded.
type SettlementRepository struct {
	db *sql.DB
}

func NewSettlementRepository(db *sql.DB) *SettlementRepository {
	return &SettlementRepository{db: db}
}

type ApplySuccessInput struct {
	RefundID             uint64
	PaymentID            uint64
	EscrowTransactionID  *uint64
	GatewayTransactionID string
	RefundReason         string
	ProcessedAt          time.Time
}

// ApplyRefundSuccess is idempotent: every write is conditional on the state
// it moves from, and a refund found already COMPLETED short-circuits to
// success, so reapplying after a crash between commit and acknowledgement is
// a no-op.
func (r *SettlementRepository) ApplyRefundSuccess(ctx context.Context, in ApplySuccessInput) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	applied, err := settleRefund(ctx, tx, in)
	if err != nil {
		return err
	}
	if !applied {
		// Already settled by a previous run.
		return tx.Commit()
	}

	if err := settlePayment(ctx, tx, in); err != nil {
		return err
	}

	if in.EscrowTransactionID != nil {
		if err := settleEscrow(ctx, tx, in); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func settleRefund(ctx context.Context, tx *sql.Tx, in ApplySuccessInput) (bool, error) {
	query := `
		UPDATE refunds
		SET status = ?, gateway_transaction_id = ?, processed_at = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`
	result, err := tx.ExecContext(ctx, query,
		string(entity.RefundStatusCompleted),
		in.GatewayTransactionID,
		in.ProcessedAt,
		in.ProcessedAt,
		in.RefundID,
		string(entity.RefundStatusProcessing),
	)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected > 0 {
		return true, nil
	}

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM refunds WHERE id = ?`, in.RefundID).Scan(&current)
	if err == sql.ErrNoRows {
		return false, ErrRefundNotFound
	}
	if err != nil {
		return false, err
	}
	if entity.RefundStatus(current) == entity.RefundStatusCompleted {
		return false, nil
	}
	return false, fmt.Errorf("%w: refund %d is %s", ErrRefundStatusConflict, in.RefundID, current)
}

func settlePayment(ctx context.Context, tx *sql.Tx, in ApplySuccessInput) error {
	query := `
		UPDATE payments
		SET status = ?, updated_at = ?
		WHERE id = ? AND status IN (?, ?)
	`
	result, err := tx.ExecContext(ctx, query,
		string(entity.PaymentStatusRefunded),
		in.ProcessedAt,
		in.PaymentID,
		string(entity.PaymentStatusCompleted),
		string(entity.PaymentStatusEscrow),
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM payments WHERE id = ?`, in.PaymentID).Scan(&current)
	if err == sql.ErrNoRows {
		return ErrPaymentNotFound
	}
	if err != nil {
		return err
	}
	if entity.PaymentStatus(current) == entity.PaymentStatusRefunded {
		return nil
	}
	return fmt.Errorf("payment %d cannot be refunded from status %s", in.PaymentID, current)
}

func settleEscrow(ctx context.Context, tx *sql.Tx, in ApplySuccessInput) error {
	query := `
		UPDATE escrow_transactions
		SET status = ?, refund_date = ?, refund_reason = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`
	result, err := tx.ExecContext(ctx, query,
		string(entity.EscrowStatusRefunded),
		in.ProcessedAt,
		in.RefundReason,
		in.ProcessedAt,
		*in.EscrowTransactionID,
		string(entity.EscrowStatusHeld),
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM escrow_transactions WHERE id = ?`, *in.EscrowTransactionID).Scan(&current)
	if err == sql.ErrNoRows {
		return ErrEscrowNotFound
	}
	if err != nil {
		return err
	}
	if entity.EscrowStatus(current) == entity.EscrowStatusRefunded {
		return nil
	}
	return fmt.Errorf("escrow transaction %d cannot be refunded from status %s", *in.EscrowTransactionID, current)
}
