package mapper

import (
	"time"

	"github.com/carenest-platform/ms-go-refunds/app/entity"
	"github.com/carenest-platform/ms-go-refunds/app/types"
)

func RefundToResponse(item *entity.Refund) *types.Refund {
	if item == nil {
		return nil
	}

	return &types.Refund{
		ID:                   item.ID,
		Reference:            item.Reference,
		PaymentID:            item.PaymentID,
		AmountCents:          item.AmountCents,
		Currency:             item.Currency,
		Status:               string(item.Status),
		Type:                 string(item.Type),
		Reason:               item.Reason,
		RequestedBy:          item.RequestedBy,
		ProcessedBy:          derefString(item.ProcessedBy),
		GatewayTransactionID: derefString(item.GatewayTransactionID),
		FailureReason:        derefString(item.FailureReason),
		Evidence:             cloneEvidence(item.Evidence),
		Metadata:             cloneMetadata(item.Metadata),
		CreatedAt:            item.CreatedAt.UTC().Format(time.RFC3339),
		ProcessedAt:          formatOptionalTime(item.ProcessedAt),
		UpdatedAt:            item.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func RefundsToResponse(items []*entity.Refund) []*types.Refund {
	result := make([]*types.Refund, 0, len(items))
	for _, item := range items {
		result = append(result, RefundToResponse(item))
	}
	return result
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func formatOptionalTime(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}

func cloneEvidence(src []string) []string {
	if len(src) == 0 {
		return []string{}
	}
	dst := make([]string, len(src))
	copy(dst, src)
	return dst
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
