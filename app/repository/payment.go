package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/carenest-platform/ms-go-refunds/app/entity"
)

var ErrPaymentNotFound = errors.New("payment not found")

// PaymentRepository is a read-side view of the payments table, which belongs
// to the payment-collection subsystem. The engine's one permitted write, the
// transition to REFUNDED, lives in the settlement repository so it cannot be
// issued outside the settlement transaction.
type PaymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, amount_cents, currency, status, gateway, gateway_transaction_id,
	escrow_transaction_id, service_type, created_at, updated_at`

func (r *PaymentRepository) FindByID(ctx context.Context, id uint64) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = ?`

	payment := &entity.Payment{}
	if err := scanPayment(r.db.QueryRowContext(ctx, query, id), payment); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return payment, nil
}

func scanPayment(scan rowScanner, payment *entity.Payment) error {
	var status string
	var escrowTransactionID sql.NullInt64

	err := scan.Scan(
		&payment.ID,
		&payment.AmountCents,
		&payment.Currency,
		&status,
		&payment.Gateway,
		&payment.GatewayTransactionID,
		&escrowTransactionID,
		&payment.ServiceType,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return err
	}

	payment.Status = entity.PaymentStatus(status)
	payment.EscrowTransactionID = uint64PtrFromNull(escrowTransactionID)

	return nil
}
