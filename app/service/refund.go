package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/carenest-platform/ms-go-refunds/app/entity"
	"github.com/carenest-platform/ms-go-refunds/app/factory"
	"github.com/carenest-platform/ms-go-refunds/app/gateway"
	"github.com/carenest-platform/ms-go-refunds/app/repository"
	"github.com/carenest-platform/ms-go-refunds/app/types"
	"github.com/carenest-platform/ms-go-refunds/config"
)

const (
	defaultListLimit      = int32(100)
	defaultBatchSize      = int32(100)
	defaultGatewayTimeout = 30 * time.Second

	maxFailureReasonLen = 1024
)

type refundRepository interface {
	Create(ctx context.Context, refund *entity.Refund) error
	FindByID(ctx context.Context, id uint64) (*entity.Refund, error)
	HasOpenRefund(ctx context.Context, paymentID uint64) (bool, error)
	MarkProcessing(ctx context.Context, id uint64, processedBy string, now time.Time) error
	MarkFailed(ctx context.Context, id uint64, failureReason string, now time.Time) error
	MarkRejected(ctx context.Context, id uint64, reason, rejectedBy string, now time.Time) error
	List(ctx context.Context, filter repository.RefundFilter) ([]*entity.Refund, error)
	ListStuckProcessing(ctx context.Context, cutoff time.Time, limit int32) ([]*entity.Refund, error)
	Statistics(ctx context.Context, filter repository.StatisticsFilter) (*repository.RefundStatistics, error)
}

type paymentRepository interface {
	FindByID(ctx context.Context, id uint64) (*entity.Payment, error)
}

type policyRepository interface {
	FindActive(ctx context.Context) (*entity.RefundPolicy, error)
}

type escrowRepository interface {
	FindByID(ctx context.Context, id uint64) (*entity.EscrowTransaction, error)
}

type settlementRepository interface {
	ApplyRefundSuccess(ctx context.Context, in repository.ApplySuccessInput) error
}

type auditSink interface {
	Create(ctx context.Context, entry *entity.AuditEntry) error
}

type RefundService struct {
	refundRepo  refundRepository
	paymentRepo paymentRepository
	policyRepo  policyRepository
	escrowRepo  escrowRepository
	settlement  settlementRepository
	audit       auditSink
	gateways    *gateway.Registry
	refundsCfg  config.RefundsConfig
	logger      logrus.FieldLogger
}

func NewRefundService(
	refundRepo refundRepository,
	paymentRepo paymentRepository,
	policyRepo policyRepository,
	escrowRepo escrowRepository,
	settlement settlementRepository,
	audit auditSink,
	gateways *gateway.Registry,
	refundsCfg config.RefundsConfig,
) *RefundService {
	return &RefundService{
		refundRepo:  refundRepo,
		paymentRepo: paymentRepo,
		policyRepo:  policyRepo,
		escrowRepo:  escrowRepo,
		settlement:  settlement,
		audit:       audit,
		gateways:    gateways,
		refundsCfg:  refundsCfg,
		logger:      factory.NewModuleLogger("refunds-service"),
	}
}

// CreateRefundRequest re-evaluates eligibility (a cached decision is never
// trusted), creates the PENDING refund through the race-free guarded insert,
// and immediately processes it as SYSTEM when auto-approval holds.
func (s *RefundService) CreateRefundRequest(ctx context.Context, req *types.CreateRefundRequest) (*entity.Refund, error) {
	payment, err := s.paymentRepo.FindByID(ctx, req.PaymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}

	policy, err := s.policyRepo.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	hasOpen, err := s.refundRepo.HasOpenRefund(ctx, payment.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	eligibility := CheckEligibility(EligibilityInput{
		Payment:        payment,
		RequestedCents: req.AmountCents,
		Now:            now,
		Policy:         policy,
		HasOpenRefund:  hasOpen,
		HasEvidence:    len(req.Evidence) > 0,
	})
	if !eligibility.Eligible {
		if eligibility.Reason == ReasonRefundInProgress {
			return nil, ErrRefundInProgress
		}
		return nil, fmt.Errorf("%w: %s", ErrNotEligible, eligibility.Reason)
	}

	amount := req.AmountCents
	if amount <= 0 {
		amount = payment.AmountCents
	}

	refund := &entity.Refund{
		Reference:   uuid.NewString(),
		PaymentID:   payment.ID,
		AmountCents: amount,
		Currency:    payment.Currency,
		Status:      entity.RefundStatusPending,
		Type:        entity.RefundType(req.Type),
		Reason:      req.Reason,
		RequestedBy: req.RequestedBy,
		Evidence:    req.Evidence,
		Metadata:    cloneMetadata(req.Metadata),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.refundRepo.Create(ctx, refund); err != nil {
		if errors.Is(err, repository.ErrRefundInProgress) {
			return nil, ErrRefundInProgress
		}
		return nil, err
	}

	s.logRefundAction(ctx, refund.ID, entity.AuditActionRequested, req.Reason, map[string]string{
		"requested_by": req.RequestedBy,
		"amount_cents": strconv.FormatInt(amount, 10),
	})

	if eligibility.AutoApprove {
		return s.ProcessRefund(ctx, refund.ID, entity.SystemProcessor)
	}

	return refund, nil
}

// ProcessRefund drives a PENDING refund to a terminal state. PROCESSING is
// durably written before the gateway call; a gateway failure, a timeout, or
// any error while persisting the outcome resolves to FAILED with the error
// message as the failure reason. A failed gateway outcome is not an error to
// the caller: it is the returned refund in FAILED.
func (s *RefundService) ProcessRefund(ctx context.Context, refundID uint64, processedBy string) (*entity.Refund, error) {
	refund, err := s.refundRepo.FindByID(ctx, refundID)
	if err != nil {
		return nil, err
	}
	if refund == nil {
		return nil, ErrRefundNotFound
	}
	if refund.Status != entity.RefundStatusPending {
		return nil, fmt.Errorf("%w: refund is %s", ErrInvalidTransition, refund.Status)
	}

	payment, err := s.paymentRepo.FindByID(ctx, refund.PaymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}

	now := time.Now().UTC()
	if err := s.refundRepo.MarkProcessing(ctx, refund.ID, processedBy, now); err != nil {
		if errors.Is(err, repository.ErrRefundStatusConflict) {
			return nil, fmt.Errorf("%w: refund was moved by a concurrent writer", ErrInvalidTransition)
		}
		return nil, err
	}

	var output *gateway.RefundOutput
	outcomeErr := s.checkEscrowRefundable(ctx, payment)
	if outcomeErr == nil {
		output, outcomeErr = s.callGateway(ctx, payment, refund)
	}

	processedAt := time.Now().UTC()
	if outcomeErr == nil {
		outcomeErr = s.settlement.ApplyRefundSuccess(ctx, repository.ApplySuccessInput{
			RefundID:             refund.ID,
			PaymentID:            payment.ID,
			EscrowTransactionID:  payment.EscrowTransactionID,
			GatewayTransactionID: output.TransactionID,
			RefundReason:         refund.Reason,
			ProcessedAt:          processedAt,
		})
	}

	if outcomeErr != nil {
		if err := s.refundRepo.MarkFailed(ctx, refund.ID, truncate(outcomeErr.Error(), maxFailureReasonLen), processedAt); err != nil {
			s.logger.WithError(err).WithField("refund_id", refund.ID).Error("Failed to record refund failure")
		}
	}

	auditMetadata := map[string]string{
		"processed_by": processedBy,
		"success":      strconv.FormatBool(outcomeErr == nil),
	}
	if output != nil {
		auditMetadata["transaction_id"] = output.TransactionID
	}
	if outcomeErr != nil {
		auditMetadata["error"] = truncate(outcomeErr.Error(), maxFailureReasonLen)
	}
	s.logRefundAction(ctx, refund.ID, entity.AuditActionProcessed, refund.Reason, auditMetadata)

	updated, err := s.refundRepo.FindByID(ctx, refund.ID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrRefundNotFound
	}
	return updated, nil
}

// RejectRefund is the human decision path out of PENDING. No gateway call,
// no payment mutation.
func (s *RefundService) RejectRefund(ctx context.Context, refundID uint64, reason, rejectedBy string) (*entity.Refund, error) {
	refund, err := s.refundRepo.FindByID(ctx, refundID)
	if err != nil {
		return nil, err
	}
	if refund == nil {
		return nil, ErrRefundNotFound
	}
	if refund.Status != entity.RefundStatusPending {
		return nil, fmt.Errorf("%w: refund is %s", ErrInvalidTransition, refund.Status)
	}

	now := time.Now().UTC()
	if err := s.refundRepo.MarkRejected(ctx, refund.ID, reason, rejectedBy, now); err != nil {
		if errors.Is(err, repository.ErrRefundStatusConflict) {
			return nil, fmt.Errorf("%w: refund was moved by a concurrent writer", ErrInvalidTransition)
		}
		return nil, err
	}

	s.logRefundAction(ctx, refund.ID, entity.AuditActionRejected, reason, map[string]string{
		"rejected_by": rejectedBy,
	})

	updated, err := s.refundRepo.FindByID(ctx, refund.ID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrRefundNotFound
	}
	return updated, nil
}

func (s *RefundService) GetRefund(ctx context.Context, id uint64) (*entity.Refund, error) {
	refund, err := s.refundRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if refund == nil {
		return nil, ErrRefundNotFound
	}
	return refund, nil
}

func (s *RefundService) ListRefunds(ctx context.Context, req *types.ListRefundsRequest) ([]*entity.Refund, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	filter := repository.RefundFilter{
		PaymentID:   req.PaymentID,
		RequestedBy: req.RequestedBy,
		HasStatus:   req.Status != "",
		Status:      entity.RefundStatus(req.Status),
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Limit:       limit,
		Offset:      req.Offset,
	}

	return s.refundRepo.List(ctx, filter)
}

// CheckEligibilityForPayment is the read-only eligibility probe exposed on
// the API; its result is advisory and is always re-evaluated on create.
func (s *RefundService) CheckEligibilityForPayment(ctx context.Context, paymentID uint64, amountCents int64) (*Eligibility, error) {
	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	var policy *entity.RefundPolicy
	var hasOpen bool
	if payment != nil {
		if policy, err = s.policyRepo.FindActive(ctx); err != nil {
			return nil, err
		}
		if hasOpen, err = s.refundRepo.HasOpenRefund(ctx, payment.ID); err != nil {
			return nil, err
		}
	}

	eligibility := CheckEligibility(EligibilityInput{
		Payment:        payment,
		RequestedCents: amountCents,
		Now:            time.Now().UTC(),
		Policy:         policy,
		HasOpenRefund:  hasOpen,
	})
	return &eligibility, nil
}

// checkEscrowRefundable blocks the gateway call when the payment's escrow was
// already released to the caregiver: at that point the money is gone and a
// gateway refund would pay the guardian out of nothing.
func (s *RefundService) checkEscrowRefundable(ctx context.Context, payment *entity.Payment) error {
	if payment.EscrowTransactionID == nil {
		return nil
	}
	escrow, err := s.escrowRepo.FindByID(ctx, *payment.EscrowTransactionID)
	if err != nil {
		return err
	}
	if escrow == nil {
		return fmt.Errorf("escrow transaction %d not found", *payment.EscrowTransactionID)
	}
	if escrow.Status == entity.EscrowStatusReleased {
		return fmt.Errorf("escrow transaction %d already released", escrow.ID)
	}
	return nil
}

func (s *RefundService) callGateway(ctx context.Context, payment *entity.Payment, refund *entity.Refund) (*gateway.RefundOutput, error) {
	timeout := s.refundsCfg.GatewayTimeout
	if timeout <= 0 {
		timeout = defaultGatewayTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	g := s.gateways.Get(payment.Gateway)
	return g.ProcessRefund(callCtx, &gateway.RefundInput{
		GatewayTransactionID: payment.GatewayTransactionID,
		AmountCents:          refund.AmountCents,
		Currency:             refund.Currency,
		Reason:               refund.Reason,
		Reference:            refund.Reference,
	})
}

// logRefundAction appends to the audit trail. Audit failures are logged and
// swallowed; they never block or roll back a financial transition.
func (s *RefundService) logRefundAction(ctx context.Context, refundID uint64, action entity.AuditAction, description string, metadata map[string]string) {
	entry := &entity.AuditEntry{
		EntityType:  entity.AuditEntityRefund,
		EntityID:    refundID,
		Action:      action,
		Description: description,
		Metadata:    metadata,
		Timestamp:   time.Now().UTC(),
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"refund_id": refundID,
			"action":    string(action),
		}).Error("Audit write failed")
	}
}

func (s *RefundService) batchSize() int32 {
	if s.refundsCfg.JobBatchSize > 0 {
		return s.refundsCfg.JobBatchSize
	}
	return defaultBatchSize
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max]
}

func cloneMetadata(src map[string]string) map[string]string {
	if len(src) == 0 {
		return map[string]string{}
	}
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
