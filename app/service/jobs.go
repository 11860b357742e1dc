package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/carenest-platform/ms-go-refunds/app/entity"
)

const defaultProcessingStuckAfter = 30 * time.Minute

// RunSweepProcessingBatch terminalizes refunds abandoned in PROCESSING by a
// crash mid-gateway-call. Neither supported gateway exposes a refund-status
// query, so the sweep cannot re-interrogate the gateway; past the threshold
// the refund is settled to FAILED so the record stops pretending work is in
// flight. Retrying is a new refund request.
func (s *RefundService) RunSweepProcessingBatch(ctx context.Context) error {
	now := time.Now().UTC()
	stuckAfter := s.refundsCfg.ProcessingStuckAfter
	if stuckAfter <= 0 {
		stuckAfter = defaultProcessingStuckAfter
	}
	cutoff := now.Add(-stuckAfter)

	items, err := s.refundRepo.ListStuckProcessing(ctx, cutoff, s.batchSize())
	if err != nil {
		return err
	}

	var firstErr error
	for _, refund := range items {
		if refund == nil {
			continue
		}

		reason := fmt.Sprintf("refund stuck in processing for more than %s", stuckAfter)
		if err := s.refundRepo.MarkFailed(ctx, refund.ID, reason, now); err != nil {
			firstErr = keepFirstErr(firstErr, err)
			continue
		}

		s.logRefundAction(ctx, refund.ID, entity.AuditActionProcessed, refund.Reason, map[string]string{
			"processed_by": entity.SystemProcessor,
			"success":      "false",
			"error":        reason,
			"swept":        "true",
			"stuck_since":  refund.UpdatedAt.UTC().Format(time.RFC3339),
		})

		s.logger.WithField("refund_id", strconv.FormatUint(refund.ID, 10)).Warn("Swept stuck processing refund to failed")
	}

	return firstErr
}

func keepFirstErr(current error, candidate error) error {
	if current != nil {
		return current
	}
	return candidate
}
