package types

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	RefundTypeFull    = "FULL"
	RefundTypePartial = "PARTIAL"
)

type CreateRefundRequest struct {
	PaymentID   uint64            `json:"paymentId"`
	AmountCents int64             `json:"amount"`
	Reason      string            `json:"reason"`
	Type        string            `json:"type"`
	RequestedBy string            `json:"requestedBy"`
	Evidence    []string          `json:"evidence"`
	Metadata    map[string]string `json:"metadata"`
}

func NewCreateRefundRequestFromContext(ctx echo.Context) (*CreateRefundRequest, error) {
	var body CreateRefundRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.Reason = strings.TrimSpace(body.Reason)
	body.Type = strings.ToUpper(strings.TrimSpace(body.Type))
	body.RequestedBy = strings.TrimSpace(body.RequestedBy)

	return &body, nil
}

func (r *CreateRefundRequest) Validate() error {
	if r.PaymentID == 0 {
		return errors.New("paymentId is required")
	}
	if r.AmountCents < 0 {
		return errors.New("amount must be >= 0")
	}
	if strings.TrimSpace(r.Reason) == "" {
		return errors.New("reason is required")
	}
	if r.Type != RefundTypeFull && r.Type != RefundTypePartial {
		return errors.New("type must be FULL or PARTIAL")
	}
	if r.Type == RefundTypeFull && r.AmountCents > 0 {
		return errors.New("amount must be omitted for a FULL refund")
	}
	if r.Type == RefundTypePartial && r.AmountCents == 0 {
		return errors.New("amount is required for a PARTIAL refund")
	}
	if strings.TrimSpace(r.RequestedBy) == "" {
		return errors.New("requestedBy is required")
	}
	return nil
}

type ProcessRefundRequest struct {
	ID          uint64 `json:"-"`
	ProcessedBy string `json:"processedBy"`
}

func NewProcessRefundRequestFromContext(ctx echo.Context) (*ProcessRefundRequest, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return nil, err
	}

	var body ProcessRefundRequest
	if err = ctx.Bind(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	body.ID = id
	body.ProcessedBy = strings.TrimSpace(body.ProcessedBy)

	return &body, nil
}

func (r *ProcessRefundRequest) Validate() error {
	if r.ID == 0 {
		return errors.New("invalid refund id")
	}
	if strings.TrimSpace(r.ProcessedBy) == "" {
		return errors.New("processedBy is required")
	}
	return nil
}

type RejectRefundRequest struct {
	ID         uint64 `json:"-"`
	Reason     string `json:"reason"`
	RejectedBy string `json:"rejectedBy"`
}

func NewRejectRefundRequestFromContext(ctx echo.Context) (*RejectRefundRequest, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return nil, err
	}

	var body RejectRefundRequest
	if err = ctx.Bind(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	body.ID = id
	body.Reason = strings.TrimSpace(body.Reason)
	body.RejectedBy = strings.TrimSpace(body.RejectedBy)

	return &body, nil
}

func (r *RejectRefundRequest) Validate() error {
	if r.ID == 0 {
		return errors.New("invalid refund id")
	}
	if strings.TrimSpace(r.Reason) == "" {
		return errors.New("reason is required")
	}
	if strings.TrimSpace(r.RejectedBy) == "" {
		return errors.New("rejectedBy is required")
	}
	return nil
}

type GetRefundRequest struct {
	ID uint64
}

func NewGetRefundRequestFromContext(ctx echo.Context) (*GetRefundRequest, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return nil, err
	}
	return &GetRefundRequest{ID: id}, nil
}

func (r *GetRefundRequest) Validate() error {
	if r.ID == 0 {
		return errors.New("invalid refund id")
	}
	return nil
}

type ListRefundsRequest struct {
	PaymentID   uint64
	RequestedBy string
	Status      string
	StartDate   *time.Time
	EndDate     *time.Time
	Limit       int32
	Offset      int32
}

func NewListRefundsRequestFromContext(ctx echo.Context) (*ListRefundsRequest, error) {
	req := &ListRefundsRequest{
		RequestedBy: strings.TrimSpace(ctx.QueryParam("requestedBy")),
		Status:      strings.ToUpper(strings.TrimSpace(ctx.QueryParam("status"))),
		Limit:       100,
		Offset:      0,
	}

	if raw := strings.TrimSpace(ctx.QueryParam("paymentId")); raw != "" {
		paymentID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		req.PaymentID = paymentID
	}

	startDate, err := parseDateParam(ctx.QueryParam("startDate"))
	if err != nil {
		return nil, err
	}
	req.StartDate = startDate

	endDate, err := parseDateParam(ctx.QueryParam("endDate"))
	if err != nil {
		return nil, err
	}
	req.EndDate = endDate

	if raw := strings.TrimSpace(ctx.QueryParam("limit")); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.Limit = int32(limit)
	}

	if raw := strings.TrimSpace(ctx.QueryParam("offset")); raw != "" {
		offset, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.Offset = int32(offset)
	}

	return req, nil
}

func (r *ListRefundsRequest) Validate() error {
	if r.Limit == 0 {
		r.Limit = 100
	}
	if r.Limit <= 0 || r.Limit > 500 {
		return errors.New("limit must be between 1 and 500")
	}
	if r.Offset < 0 {
		return errors.New("offset must be >= 0")
	}
	if r.Status != "" && !isValidRefundStatus(r.Status) {
		return errors.New("invalid status")
	}
	return nil
}

type CheckEligibilityRequest struct {
	PaymentID   uint64 `json:"paymentId"`
	AmountCents int64  `json:"amount"`
}

func NewCheckEligibilityRequestFromContext(ctx echo.Context) (*CheckEligibilityRequest, error) {
	var body CheckEligibilityRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	return &body, nil
}

func (r *CheckEligibilityRequest) Validate() error {
	if r.PaymentID == 0 {
		return errors.New("paymentId is required")
	}
	if r.AmountCents < 0 {
		return errors.New("amount must be >= 0")
	}
	return nil
}

type StatisticsRequest struct {
	UserID    string
	UserRole  string
	StartDate *time.Time
	EndDate   *time.Time
}

func NewStatisticsRequestFromContext(ctx echo.Context) (*StatisticsRequest, error) {
	req := &StatisticsRequest{
		UserID:   strings.TrimSpace(ctx.QueryParam("userId")),
		UserRole: strings.ToUpper(strings.TrimSpace(ctx.QueryParam("userRole"))),
	}

	startDate, err := parseDateParam(ctx.QueryParam("startDate"))
	if err != nil {
		return nil, err
	}
	req.StartDate = startDate

	endDate, err := parseDateParam(ctx.QueryParam("endDate"))
	if err != nil {
		return nil, err
	}
	req.EndDate = endDate

	return req, nil
}

func (r *StatisticsRequest) Validate() error {
	if r.StartDate != nil && r.EndDate != nil && r.EndDate.Before(*r.StartDate) {
		return errors.New("endDate must not be before startDate")
	}
	return nil
}

func parseDateParam(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, errors.New("invalid date, expected RFC3339 or YYYY-MM-DD")
	}
	return &t, nil
}

func isValidRefundStatus(status string) bool {
	switch status {
	case "PENDING", "PROCESSING", "COMPLETED", "FAILED", "REJECTED":
		return true
	default:
		return false
	}
}
