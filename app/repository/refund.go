package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/carenest-platform/ms-go-refunds/app/entity"
)

var (
	ErrRefundNotFound = errors.New("refund not found")

	// ErrRefundInProgress means a non-terminal refund already references the
	// payment; the guarded insert refused to create a second one.
	ErrRefundInProgress = errors.New("refund already in progress")

	// ErrRefundStatusConflict means a conditional transition matched no row:
	// either the refund is gone or another writer moved it first.
	ErrRefundStatusConflict = errors.New("refund status conflict")
)

type RefundFilter struct {
	PaymentID   uint64
	RequestedBy string
	HasStatus   bool
	Status      entity.RefundStatus
	StartDate   *time.Time
	EndDate     *time.Time
	Limit       int32
	Offset      int32
}

type StatisticsFilter struct {
	RequestedBy string
	StartDate   *time.Time
	EndDate     *time.Time
}

type RefundStatistics struct {
	TotalRefunds      int64
	TotalAmountCents  int64
	SuccessfulRefunds int64
	FailedRefunds     int64
	PendingRefunds    int64

	// AvgProcessingSeconds is the mean of processed_at - created_at over rows
	// that have a processed_at; zero when none do.
	AvgProcessingSeconds float64
}

type RefundRepository struct {
	db DBTX
}

func NewRefundRepository(db DBTX) *RefundRepository {
	return &RefundRepository{db: db}
}

const refundColumns = `id, reference, payment_id, amount_cents, currency, status, type, reason,
	requested_by, processed_by, gateway_transaction_id, failure_reason,
	evidence_json, metadata_json, created_at, processed_at, updated_at`

// Create inserts the refund in a single statement that checks for an open
// refund on the same payment as part of the insert itself. Running the check
// and the insert separately would open a race window between two concurrent
// requests; here the second writer simply affects zero rows. A unique index
// on the open-refund marker backs this up at the schema level.
func (r *RefundRepository) Create(ctx context.Context, refund *entity.Refund) error {
	evidenceJSON, err := serializeStringList(refund.Evidence)
	if err != nil {
		return err
	}
	metadataJSON, err := serializeMetadata(refund.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO refunds (
			reference, payment_id, amount_cents, currency, status, type, reason,
			requested_by, processed_by, gateway_transaction_id, failure_reason,
			evidence_json, metadata_json, created_at, processed_at, updated_at
		)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?, NULL, NULL, NULL, ?, ?, ?, NULL, ?
		FROM DUAL
		WHERE NOT EXISTS (
			SELECT 1 FROM refunds
			WHERE payment_id = ? AND status IN (?, ?)
		)
	`

	result, err := r.db.ExecContext(ctx, query,
		refund.Reference,
		refund.PaymentID,
		refund.AmountCents,
		refund.Currency,
		string(refund.Status),
		string(refund.Type),
		refund.Reason,
		refund.RequestedBy,
		evidenceJSON,
		metadataJSON,
		refund.CreatedAt,
		refund.UpdatedAt,
		refund.PaymentID,
		string(entity.RefundStatusPending),
		string(entity.RefundStatusProcessing),
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrRefundInProgress
		}
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrRefundInProgress
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	refund.ID = uint64(id)
	return nil
}

func (r *RefundRepository) FindByID(ctx context.Context, id uint64) (*entity.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE id = ?`

	refund := &entity.Refund{}
	if err := scanRefund(r.db.QueryRowContext(ctx, query, id), refund); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return refund, nil
}

// HasOpenRefund reports whether a non-terminal refund references the payment.
// This is the advisory pre-check; Create remains the authoritative guard.
func (r *RefundRepository) HasOpenRefund(ctx context.Context, paymentID uint64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM refunds
			WHERE payment_id = ? AND status IN (?, ?)
		)
	`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, paymentID,
		string(entity.RefundStatusPending),
		string(entity.RefundStatusProcessing),
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// MarkProcessing transitions PENDING to PROCESSING. The write is durable
// before any gateway call so a crash mid-call leaves a recoverable PROCESSING
// row, never a lost PENDING one.
func (r *RefundRepository) MarkProcessing(ctx context.Context, id uint64, processedBy string, now time.Time) error {
	query := `
		UPDATE refunds
		SET status = ?, processed_by = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`
	return r.conditionalTransition(ctx, query,
		string(entity.RefundStatusProcessing), processedBy, now, id, string(entity.RefundStatusPending))
}

// MarkFailed terminalizes a PROCESSING refund.
func (r *RefundRepository) MarkFailed(ctx context.Context, id uint64, failureReason string, now time.Time) error {
	query := `
		UPDATE refunds
		SET status = ?, failure_reason = ?, processed_at = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`
	return r.conditionalTransition(ctx, query,
		string(entity.RefundStatusFailed), failureReason, now, now, id, string(entity.RefundStatusProcessing))
}

// MarkRejected terminalizes a PENDING refund without any gateway involvement.
func (r *RefundRepository) MarkRejected(ctx context.Context, id uint64, reason, rejectedBy string, now time.Time) error {
	query := `
		UPDATE refunds
		SET status = ?, failure_reason = ?, processed_by = ?, processed_at = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`
	return r.conditionalTransition(ctx, query,
		string(entity.RefundStatusRejected), reason, rejectedBy, now, now, id, string(entity.RefundStatusPending))
}

func (r *RefundRepository) conditionalTransition(ctx context.Context, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrRefundStatusConflict
	}
	return nil
}

func (r *RefundRepository) List(ctx context.Context, filter RefundFilter) ([]*entity.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds`

	conditions := make([]string, 0, 5)
	args := make([]interface{}, 0, 7)

	if filter.PaymentID > 0 {
		conditions = append(conditions, "payment_id = ?")
		args = append(args, filter.PaymentID)
	}
	if strings.TrimSpace(filter.RequestedBy) != "" {
		conditions = append(conditions, "requested_by = ?")
		args = append(args, filter.RequestedBy)
	}
	if filter.HasStatus {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.StartDate != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, *filter.EndDate)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refunds := make([]*entity.Refund, 0)
	for rows.Next() {
		item := &entity.Refund{}
		if err := scanRefund(rows, item); err != nil {
			return nil, err
		}
		refunds = append(refunds, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return refunds, nil
}

// ListStuckProcessing returns refunds left in PROCESSING since before the
// cutoff, i.e. rows abandoned by a crash mid-gateway-call.
func (r *RefundRepository) ListStuckProcessing(ctx context.Context, cutoff time.Time, limit int32) ([]*entity.Refund, error) {
	query := `
		SELECT ` + refundColumns + `
		FROM refunds
		WHERE status = ? AND updated_at <= ?
		ORDER BY updated_at ASC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, string(entity.RefundStatusProcessing), cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refunds := make([]*entity.Refund, 0)
	for rows.Next() {
		item := &entity.Refund{}
		if err := scanRefund(rows, item); err != nil {
			return nil, err
		}
		refunds = append(refunds, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return refunds, nil
}

func (r *RefundRepository) Statistics(ctx context.Context, filter StatisticsFilter) (*RefundStatistics, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(amount_cents), 0),
			COALESCE(SUM(status = ?), 0),
			COALESCE(SUM(status = ?), 0),
			COALESCE(SUM(status = ?), 0),
			COALESCE(AVG(CASE WHEN processed_at IS NOT NULL
				THEN TIMESTAMPDIFF(SECOND, created_at, processed_at) END), 0)
		FROM refunds
	`

	conditions := make([]string, 0, 3)
	args := []interface{}{
		string(entity.RefundStatusCompleted),
		string(entity.RefundStatusFailed),
		string(entity.RefundStatusPending),
	}

	if strings.TrimSpace(filter.RequestedBy) != "" {
		conditions = append(conditions, "requested_by = ?")
		args = append(args, filter.RequestedBy)
	}
	if filter.StartDate != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, *filter.EndDate)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	stats := &RefundStatistics{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.TotalRefunds,
		&stats.TotalAmountCents,
		&stats.SuccessfulRefunds,
		&stats.FailedRefunds,
		&stats.PendingRefunds,
		&stats.AvgProcessingSeconds,
	)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRefund(scan rowScanner, refund *entity.Refund) error {
	var status, refundType string
	var processedBy sql.NullString
	var gatewayTransactionID sql.NullString
	var failureReason sql.NullString
	var evidenceJSON string
	var metadataJSON string
	var processedAt sql.NullTime

	err := scan.Scan(
		&refund.ID,
		&refund.Reference,
		&refund.PaymentID,
		&refund.AmountCents,
		&refund.Currency,
		&status,
		&refundType,
		&refund.Reason,
		&refund.RequestedBy,
		&processedBy,
		&gatewayTransactionID,
		&failureReason,
		&evidenceJSON,
		&metadataJSON,
		&refund.CreatedAt,
		&processedAt,
		&refund.UpdatedAt,
	)
	if err != nil {
		return err
	}

	refund.Status = entity.RefundStatus(status)
	refund.Type = entity.RefundType(refundType)
	refund.ProcessedBy = stringPtrFromNull(processedBy)
	refund.GatewayTransactionID = stringPtrFromNull(gatewayTransactionID)
	refund.FailureReason = stringPtrFromNull(failureReason)
	refund.ProcessedAt = timePtrFromNull(processedAt)

	evidence, err := parseStringList(evidenceJSON)
	if err != nil {
		return err
	}
	refund.Evidence = evidence

	metadata, err := parseMetadata(metadataJSON)
	if err != nil {
		return err
	}
	refund.Metadata = metadata

	return nil
}
