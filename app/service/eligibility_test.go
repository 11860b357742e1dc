package service

import (
	"testing"
	"time"

	"github.com/carenest-platform/ms-go-refunds/app/entity"
)

func eligiblePayment(amountCents int64, age time.Duration, now time.Time) *entity.Payment {
	return &entity.Payment{
		ID:          1,
		AmountCents: amountCents,
		Currency:    "BDT",
		Status:      entity.PaymentStatusCompleted,
		ServiceType: "babysitting",
		CreatedAt:   now.Add(-age),
	}
}

func TestCheckEligibilityRuleOrder(t *testing.T) {
	now := time.Now().UTC()

	cases := []struct {
		name   string
		input  EligibilityInput
		reason string
	}{
		{
			name:   "nil payment",
			input:  EligibilityInput{Payment: nil, Now: now},
			reason: ReasonPaymentNotFound,
		},
		{
			name: "already refunded wins over status",
			input: EligibilityInput{
				Payment: &entity.Payment{Status: entity.PaymentStatusRefunded, CreatedAt: now},
				Now:     now,
			},
			reason: ReasonAlreadyRefunded,
		},
		{
			name: "not completed",
			input: EligibilityInput{
				Payment: &entity.Payment{Status: entity.PaymentStatusPending, CreatedAt: now},
				Now:     now,
			},
			reason: ReasonPaymentNotCompleted,
		},
		{
			name: "time limit wins over amount",
			input: EligibilityInput{
				Payment:        eligiblePayment(10000, 49*time.Hour, now),
				RequestedCents: 20000,
				Now:            now,
			},
			reason: ReasonTimeLimitExceeded,
		},
		{
			name: "amount over payment",
			input: EligibilityInput{
				Payment:        eligiblePayment(10000, time.Hour, now),
				RequestedCents: 20000,
				Now:            now,
			},
			reason: ReasonAmountExceedsLimit,
		},
		{
			name: "open refund last",
			input: EligibilityInput{
				Payment:        eligiblePayment(10000, time.Hour, now),
				RequestedCents: 1000,
				Now:            now,
				HasOpenRefund:  true,
			},
			reason: ReasonRefundInProgress,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := CheckEligibility(tc.input)
			if result.Eligible {
				t.Fatal("expected ineligible")
			}
			if result.Reason != tc.reason {
				t.Fatalf("expected reason %q, got %q", tc.reason, result.Reason)
			}
		})
	}
}

func TestCheckEligibilityWindowBoundary(t *testing.T) {
	now := time.Now().UTC()

	within := CheckEligibility(EligibilityInput{
		Payment: eligiblePayment(10000, 48*time.Hour, now),
		Now:     now,
	})
	if !within.Eligible {
		t.Fatalf("expected eligible exactly at the window edge, got %q", within.Reason)
	}

	past := CheckEligibility(EligibilityInput{
		Payment: eligiblePayment(10000, 48*time.Hour+time.Second, now),
		Now:     now,
	})
	if past.Eligible {
		t.Fatal("expected ineligible one second past the window")
	}
	if past.Reason != ReasonTimeLimitExceeded {
		t.Fatalf("expected time limit reason, got %q", past.Reason)
	}
}

func TestCheckEligibilityEscrowIsRefundable(t *testing.T) {
	now := time.Now().UTC()
	payment := eligiblePayment(10000, time.Hour, now)
	payment.Status = entity.PaymentStatusEscrow

	result := CheckEligibility(EligibilityInput{Payment: payment, Now: now})
	if !result.Eligible {
		t.Fatalf("expected escrow payment eligible, got %q", result.Reason)
	}
}

func TestAutoApproveHalfAmountBoundary(t *testing.T) {
	now := time.Now().UTC()
	payment := eligiblePayment(9999, time.Hour, now)

	// 4999*2 = 9998 <= 9999, 5000*2 = 10000 > 9999. Integer cents keep the
	// 50% comparison exact.
	atHalf := CheckEligibility(EligibilityInput{Payment: payment, RequestedCents: 4999, Now: now})
	if !atHalf.Eligible || !atHalf.AutoApprove {
		t.Fatalf("expected auto-approval at half, got %+v", atHalf)
	}

	overHalf := CheckEligibility(EligibilityInput{Payment: payment, RequestedCents: 5000, Now: now})
	if !overHalf.Eligible {
		t.Fatalf("expected eligible just over half, got %q", overHalf.Reason)
	}
	if overHalf.AutoApprove {
		t.Fatal("expected no auto-approval just over half")
	}
}

func TestAutoApproveWindowBoundary(t *testing.T) {
	now := time.Now().UTC()

	within := CheckEligibility(EligibilityInput{
		Payment:        eligiblePayment(10000, 24*time.Hour, now),
		RequestedCents: 5000,
		Now:            now,
	})
	if !within.AutoApprove {
		t.Fatal("expected auto-approval exactly at 24h")
	}

	past := CheckEligibility(EligibilityInput{
		Payment:        eligiblePayment(10000, 24*time.Hour+time.Second, now),
		RequestedCents: 5000,
		Now:            now,
	})
	if !past.Eligible {
		t.Fatalf("expected still eligible past 24h, got %q", past.Reason)
	}
	if past.AutoApprove {
		t.Fatal("expected no auto-approval past 24h")
	}
}

func TestPolicyOverridesWindowAndCap(t *testing.T) {
	now := time.Now().UTC()
	policy := &entity.RefundPolicy{
		TimeLimitHours:   72,
		MaxRefundPercent: 30,
		AutoApproval:     true,
		IsActive:         true,
	}

	extended := CheckEligibility(EligibilityInput{
		Payment: eligiblePayment(10000, 60*time.Hour, now),
		Now:     now,
		Policy:  policy,
	})
	// Full refund exceeds the 30% cap even though the extended window allows it.
	if extended.Eligible {
		t.Fatal("expected full refund over policy cap to be ineligible")
	}
	if extended.Reason != ReasonAmountExceedsPolicy {
		t.Fatalf("expected policy cap reason, got %q", extended.Reason)
	}

	capped := CheckEligibility(EligibilityInput{
		Payment:        eligiblePayment(10000, 60*time.Hour, now),
		RequestedCents: 3000,
		Now:            now,
		Policy:         policy,
	})
	if !capped.Eligible {
		t.Fatalf("expected capped refund in extended window eligible, got %q", capped.Reason)
	}
}

func TestPolicyDisablesAutoApproval(t *testing.T) {
	now := time.Now().UTC()
	policy := &entity.RefundPolicy{AutoApproval: false, IsActive: true}

	result := CheckEligibility(EligibilityInput{
		Payment:        eligiblePayment(10000, time.Hour, now),
		RequestedCents: 1000,
		Now:            now,
		Policy:         policy,
	})
	if !result.Eligible {
		t.Fatalf("expected eligible, got %q", result.Reason)
	}
	if result.AutoApprove {
		t.Fatal("expected no auto-approval when the policy disables it")
	}
}

func TestPolicyRequiresEvidenceForAutoApproval(t *testing.T) {
	now := time.Now().UTC()
	policy := &entity.RefundPolicy{AutoApproval: true, RequiresEvidence: true, IsActive: true}

	without := CheckEligibility(EligibilityInput{
		Payment:        eligiblePayment(10000, time.Hour, now),
		RequestedCents: 1000,
		Now:            now,
		Policy:         policy,
	})
	if without.AutoApprove {
		t.Fatal("expected no auto-approval without evidence")
	}

	with := CheckEligibility(EligibilityInput{
		Payment:        eligiblePayment(10000, time.Hour, now),
		RequestedCents: 1000,
		Now:            now,
		Policy:         policy,
		HasEvidence:    true,
	})
	if !with.AutoApprove {
		t.Fatal("expected auto-approval with evidence")
	}
}

func TestPolicyServiceCoverage(t *testing.T) {
	now := time.Now().UTC()
	policy := &entity.RefundPolicy{
		ApplicableServices: []string{"babysitting"},
		ExcludedServices:   []string{"housekeeping"},
		AutoApproval:       true,
		IsActive:           true,
	}

	covered := CheckEligibility(EligibilityInput{
		Payment:        eligiblePayment(10000, time.Hour, now),
		RequestedCents: 1000,
		Now:            now,
		Policy:         policy,
	})
	if !covered.Eligible {
		t.Fatalf("expected covered service eligible, got %q", covered.Reason)
	}

	excludedPayment := eligiblePayment(10000, time.Hour, now)
	excludedPayment.ServiceType = "housekeeping"
	excluded := CheckEligibility(EligibilityInput{
		Payment:        excludedPayment,
		RequestedCents: 1000,
		Now:            now,
		Policy:         policy,
	})
	if excluded.Eligible {
		t.Fatal("expected excluded service ineligible")
	}
	if excluded.Reason != ReasonServiceNotCovered {
		t.Fatalf("expected service coverage reason, got %q", excluded.Reason)
	}

	otherPayment := eligiblePayment(10000, time.Hour, now)
	otherPayment.ServiceType = "tutoring"
	other := CheckEligibility(EligibilityInput{
		Payment:        otherPayment,
		RequestedCents: 1000,
		Now:            now,
		Policy:         policy,
	})
	if other.Eligible {
		t.Fatal("expected service outside applicable list ineligible")
	}
}

func TestFullRefundDefaultsToPaymentAmount(t *testing.T) {
	now := time.Now().UTC()

	result := CheckEligibility(EligibilityInput{
		Payment: eligiblePayment(10000, time.Hour, now),
		Now:     now,
	})
	if !result.Eligible {
		t.Fatalf("expected eligible, got %q", result.Reason)
	}
	// A zero requested amount means the full payment, which is over the 50%
	// auto-approval cap.
	if result.AutoApprove {
		t.Fatal("expected no auto-approval for a full refund")
	}
}
