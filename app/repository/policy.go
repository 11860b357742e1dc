package repository

import (
	"context"
	"database/sql"

	"github.com/carenest-platform/ms-go-refunds/app/entity"
)

type PolicyRepository struct {
	db DBTX
}

func NewPolicyRepository(db DBTX) *PolicyRepository {
	return &PolicyRepository{db: db}
}

// FindActive returns the active refund policy, or nil when none is
// configured and the built-in defaults apply. Policies are administered by
// the platform's CRUD surface; at most one is active at a time.
func (r *PolicyRepository) FindActive(ctx context.Context) (*entity.RefundPolicy, error) {
	query := `
		SELECT id, name, description, time_limit_hours, max_refund_percent,
			applicable_services_json, excluded_services_json,
			auto_approval, requires_evidence, is_active, created_at
		FROM refund_policies
		WHERE is_active = 1
		ORDER BY id DESC
		LIMIT 1
	`

	policy := &entity.RefundPolicy{}
	var applicableJSON, excludedJSON string

	err := r.db.QueryRowContext(ctx, query).Scan(
		&policy.ID,
		&policy.Name,
		&policy.Description,
		&policy.TimeLimitHours,
		&policy.MaxRefundPercent,
		&applicableJSON,
		&excludedJSON,
		&policy.AutoApproval,
		&policy.RequiresEvidence,
		&policy.IsActive,
		&policy.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	applicable, err := parseStringList(applicableJSON)
	if err != nil {
		return nil, err
	}
	policy.ApplicableServices = applicable

	excluded, err := parseStringList(excludedJSON)
	if err != nil {
		return nil, err
	}
	policy.ExcludedServices = excluded

	return policy, nil
}
