package service

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid request")

	ErrPaymentNotFound = errors.New("payment not found")
	ErrRefundNotFound  = errors.New("refund not found")

	// ErrNotEligible is always wrapped with the specific rule's reason.
	ErrNotEligible = errors.New("refund not eligible")

	ErrRefundInProgress = errors.New("refund already in progress")

	ErrInvalidTransition = errors.New("invalid refund transition")
)
