package types

type Refund struct {
	ID                   uint64            `json:"id"`
	Reference            string            `json:"reference"`
	PaymentID            uint64            `json:"paymentId"`
	AmountCents          int64             `json:"amount"`
	Currency             string            `json:"currency"`
	Status               string            `json:"status"`
	Type                 string            `json:"type"`
	Reason               string            `json:"reason"`
	RequestedBy          string            `json:"requestedBy"`
	ProcessedBy          string            `json:"processedBy,omitempty"`
	GatewayTransactionID string            `json:"gatewayTransactionId,omitempty"`
	FailureReason        string            `json:"failureReason,omitempty"`
	Evidence             []string          `json:"evidence"`
	Metadata             map[string]string `json:"metadata"`
	CreatedAt            string            `json:"createdAt"`
	ProcessedAt          string            `json:"processedAt,omitempty"`
	UpdatedAt            string            `json:"updatedAt"`
}

type RefundEnvelopeResponse struct {
	Refund *Refund `json:"refund"`
}

type ListRefundsResponse struct {
	Refunds []*Refund `json:"refunds"`
}

type EligibilityResponse struct {
	Eligible    bool   `json:"eligible"`
	Reason      string `json:"reason,omitempty"`
	AutoApprove bool   `json:"autoApprove"`
}

type StatisticsResponse struct {
	TotalRefunds               int64   `json:"totalRefunds"`
	TotalAmountCents           int64   `json:"totalAmount"`
	SuccessfulRefunds          int64   `json:"successfulRefunds"`
	FailedRefunds              int64   `json:"failedRefunds"`
	PendingRefunds             int64   `json:"pendingRefunds"`
	AverageProcessingTimeHours float64 `json:"averageProcessingTimeHours"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
