package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/carenest-platform/ms-go-refunds/app/factory"
	"github.com/carenest-platform/ms-go-refunds/app/mapper"
	"github.com/carenest-platform/ms-go-refunds/app/service"
	"github.com/carenest-platform/ms-go-refunds/app/types"
)

type RefundController struct {
	refundService *service.RefundService
	logger        logrus.FieldLogger
}

func NewRefundController(refundService *service.RefundService) *RefundController {
	return &RefundController{
		refundService: refundService,
		logger:        factory.NewModuleLogger("refunds-controller"),
	}
}

func (c *RefundController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok"})
}

func (c *RefundController) CreateRefund(ctx echo.Context) error {
	req, err := types.NewCreateRefundRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.refundService.CreateRefundRequest(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotFound):
			return c.writeError(ctx, http.StatusNotFound, "payment not found")
		case errors.Is(err, service.ErrNotEligible), errors.Is(err, service.ErrInvalidRequest):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrRefundInProgress):
			return c.writeError(ctx, http.StatusConflict, err.Error())
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Create refund failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusCreated, &types.RefundEnvelopeResponse{Refund: mapper.RefundToResponse(item)})
}

func (c *RefundController) GetRefund(ctx echo.Context) error {
	req, err := types.NewGetRefundRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.refundService.GetRefund(ctx.Request().Context(), req.ID)
	if err != nil {
		if errors.Is(err, service.ErrRefundNotFound) {
			return c.writeError(ctx, http.StatusNotFound, "refund not found")
		}
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Get refund failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.RefundEnvelopeResponse{Refund: mapper.RefundToResponse(item)})
}

func (c *RefundController) ListRefunds(ctx echo.Context) error {
	req, err := types.NewListRefundsRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	items, err := c.refundService.ListRefunds(ctx.Request().Context(), req)
	if err != nil {
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("List refunds failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.ListRefundsResponse{Refunds: mapper.RefundsToResponse(items)})
}

// ProcessRefund resolves to 200 even when the gateway declined: a failed
// refund is a terminal outcome carried in the returned record's status, not
// a transport error.
func (c *RefundController) ProcessRefund(ctx echo.Context) error {
	req, err := types.NewProcessRefundRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.refundService.ProcessRefund(ctx.Request().Context(), req.ID, req.ProcessedBy)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRefundNotFound):
			return c.writeError(ctx, http.StatusNotFound, "refund not found")
		case errors.Is(err, service.ErrPaymentNotFound):
			return c.writeError(ctx, http.StatusNotFound, "payment not found")
		case errors.Is(err, service.ErrInvalidTransition):
			return c.writeError(ctx, http.StatusConflict, err.Error())
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Process refund failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusOK, &types.RefundEnvelopeResponse{Refund: mapper.RefundToResponse(item)})
}

func (c *RefundController) RejectRefund(ctx echo.Context) error {
	req, err := types.NewRejectRefundRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.refundService.RejectRefund(ctx.Request().Context(), req.ID, req.Reason, req.RejectedBy)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRefundNotFound):
			return c.writeError(ctx, http.StatusNotFound, "refund not found")
		case errors.Is(err, service.ErrInvalidTransition):
			return c.writeError(ctx, http.StatusConflict, err.Error())
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Reject refund failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusOK, &types.RefundEnvelopeResponse{Refund: mapper.RefundToResponse(item)})
}

func (c *RefundController) CheckEligibility(ctx echo.Context) error {
	req, err := types.NewCheckEligibilityRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	eligibility, err := c.refundService.CheckEligibilityForPayment(ctx.Request().Context(), req.PaymentID, req.AmountCents)
	if err != nil {
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Check eligibility failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.EligibilityResponse{
		Eligible:    eligibility.Eligible,
		Reason:      eligibility.Reason,
		AutoApprove: eligibility.AutoApprove,
	})
}

func (c *RefundController) GetStatistics(ctx echo.Context) error {
	req, err := types.NewStatisticsRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	stats, err := c.refundService.GetStatistics(ctx.Request().Context(), req)
	if err != nil {
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Get statistics failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, stats)
}

func (c *RefundController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
