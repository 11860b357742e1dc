package entity

import "time"

// RefundPolicy is a named rule set evaluated by the eligibility engine. Zero
// values mean "no override": the built-in defaults (48h window, 50% cap on
// auto-approval within 24h) apply.
type RefundPolicy struct {
	ID uint64

	Name        string
	Description string

	TimeLimitHours   int32
	MaxRefundPercent int32

	ApplicableServices []string
	ExcludedServices   []string

	AutoApproval     bool
	RequiresEvidence bool

	IsActive  bool
	CreatedAt time.Time
}
