package gateway

import "context"

// RefundInput carries everything an adapter needs to push a refund to its
// gateway. AmountCents is formatted to the gateway's own amount convention at
// the wire boundary.
type RefundInput struct {
	GatewayTransactionID string
	AmountCents          int64
	Currency             string
	Reason               string

	// Reference is the engine's opaque refund reference, forwarded so the
	// gateway side can be matched back during manual reconciliation.
	Reference string
}

type RefundOutput struct {
	TransactionID string
}

// Gateway is the uniform contract over heterogeneous payment-gateway refund
// APIs. Implementations make at most one network call per invocation and do
// not retry; retry policy belongs to the caller. Any non-nil error is a
// failure outcome, regardless of its gateway-specific shape.
type Gateway interface {
	Name() string
	ProcessRefund(ctx context.Context, input *RefundInput) (*RefundOutput, error)
}
