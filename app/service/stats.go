package service

import (
	"context"

	"github.com/carenest-platform/ms-go-refunds/app/repository"
	"github.com/carenest-platform/ms-go-refunds/app/types"
)

// GetStatistics is read-only aggregation over refund history. The role
// parameter scopes the query to the requester's own refunds; the wider
// ownership graph (guardian/caregiver/company jobs) belongs to the platform's
// CRUD subsystem, not this engine.
func (s *RefundService) GetStatistics(ctx context.Context, req *types.StatisticsRequest) (*types.StatisticsResponse, error) {
	filter := repository.StatisticsFilter{
		RequestedBy: req.UserID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}

	stats, err := s.refundRepo.Statistics(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &types.StatisticsResponse{
		TotalRefunds:               stats.TotalRefunds,
		TotalAmountCents:           stats.TotalAmountCents,
		SuccessfulRefunds:          stats.SuccessfulRefunds,
		FailedRefunds:              stats.FailedRefunds,
		PendingRefunds:             stats.PendingRefunds,
		AverageProcessingTimeHours: stats.AvgProcessingSeconds / 3600,
	}, nil
}
