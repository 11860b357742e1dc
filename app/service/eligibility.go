package service

import (
	"time"

	"github.com/carenest-platform/ms-go-refunds/app/entity"
)

// Built-in policy defaults. An active RefundPolicy can tighten or relax the
// window and the cap; the auto-approval thresholds encode the platform's risk
// posture: small, prompt refunds skip manual review, late or large ones
// always require a human decision.
const (
	DefaultRefundWindowHours = 48
	AutoApproveWindowHours   = 24
	AutoApproveMaxPercent    = 50
)

const (
	ReasonPaymentNotFound     = "Payment not found"
	ReasonAlreadyRefunded     = "Payment already refunded"
	ReasonPaymentNotCompleted = "Payment not completed"
	ReasonServiceNotCovered   = "Service not covered by refund policy"
	ReasonTimeLimitExceeded   = "Refund time limit exceeded"
	ReasonAmountExceedsLimit  = "Refund amount exceeds payment amount"
	ReasonAmountExceedsPolicy = "Refund amount exceeds policy limit"
	ReasonRefundInProgress    = "Refund already in progress"
)

type EligibilityInput struct {
	Payment *entity.Payment

	// RequestedCents defaults to the full payment amount when zero.
	RequestedCents int64

	Now time.Time

	// Policy is the active refund policy, nil for the built-in defaults.
	Policy *entity.RefundPolicy

	// HasOpenRefund mirrors the storage-level single-flight guard for the
	// advisory pre-check; the guarded insert remains authoritative.
	HasOpenRefund bool

	HasEvidence bool
}

type Eligibility struct {
	Eligible    bool
	Reason      string
	AutoApprove bool
}

// CheckEligibility evaluates the refund rules in order; the first failing
// rule wins. It is a pure function: all inputs are explicit, including time.
func CheckEligibility(in EligibilityInput) Eligibility {
	payment := in.Payment
	if payment == nil {
		return ineligible(ReasonPaymentNotFound)
	}

	if payment.Status == entity.PaymentStatusRefunded {
		return ineligible(ReasonAlreadyRefunded)
	}

	if !payment.Refundable() {
		return ineligible(ReasonPaymentNotCompleted)
	}

	if !policyCoversService(in.Policy, payment.ServiceType) {
		return ineligible(ReasonServiceNotCovered)
	}

	elapsed := in.Now.Sub(payment.CreatedAt)
	window := time.Duration(DefaultRefundWindowHours) * time.Hour
	if in.Policy != nil && in.Policy.TimeLimitHours > 0 {
		window = time.Duration(in.Policy.TimeLimitHours) * time.Hour
	}
	if elapsed > window {
		return ineligible(ReasonTimeLimitExceeded)
	}

	requested := in.RequestedCents
	if requested <= 0 {
		requested = payment.AmountCents
	}
	if requested > payment.AmountCents {
		return ineligible(ReasonAmountExceedsLimit)
	}
	if in.Policy != nil && in.Policy.MaxRefundPercent > 0 {
		if requested*100 > payment.AmountCents*int64(in.Policy.MaxRefundPercent) {
			return ineligible(ReasonAmountExceedsPolicy)
		}
	}

	if in.HasOpenRefund {
		return ineligible(ReasonRefundInProgress)
	}

	return Eligibility{
		Eligible:    true,
		AutoApprove: autoApprove(in, elapsed, requested),
	}
}

func autoApprove(in EligibilityInput, elapsed time.Duration, requested int64) bool {
	if in.Policy != nil && !in.Policy.AutoApproval {
		return false
	}
	if in.Policy != nil && in.Policy.RequiresEvidence && !in.HasEvidence {
		return false
	}
	if elapsed > time.Duration(AutoApproveWindowHours)*time.Hour {
		return false
	}
	// requested*2 keeps "exactly 50%" exact in integer cents.
	return requested*2 <= in.Payment.AmountCents
}

func policyCoversService(policy *entity.RefundPolicy, serviceType string) bool {
	if policy == nil || serviceType == "" {
		return true
	}
	for _, excluded := range policy.ExcludedServices {
		if excluded == serviceType {
			return false
		}
	}
	if len(policy.ApplicableServices) == 0 {
		return true
	}
	for _, applicable := range policy.ApplicableServices {
		if applicable == serviceType {
			return true
		}
	}
	return false
}

func ineligible(reason string) Eligibility {
	return Eligibility{Eligible: false, Reason: reason}
}
