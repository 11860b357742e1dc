package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const BkashGatewayName = "BKASH"

type BkashConfig struct {
	BaseURL     string
	Username    string
	Password    string
	AppKey      string
	HTTPTimeout time.Duration
}

// BkashGateway refunds payments through the bKash checkout refund API.
type BkashGateway struct {
	cfg    BkashConfig
	client *http.Client
}

func NewBkashGateway(cfg BkashConfig) *BkashGateway {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &BkashGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (g *BkashGateway) Name() string {
	return BkashGatewayName
}

func (g *BkashGateway) ProcessRefund(ctx context.Context, input *RefundInput) (*RefundOutput, error) {
	if strings.TrimSpace(g.cfg.BaseURL) == "" {
		return nil, errors.New("bkash base url is not configured")
	}
	if strings.TrimSpace(input.GatewayTransactionID) == "" {
		return nil, errors.New("bkash payment id is missing")
	}

	payload := map[string]interface{}{
		"paymentID": input.GatewayTransactionID,
		"amount":    formatAmount(input.AmountCents),
		"reason":    input.Reason,
		"mode":      "0011",
	}
	if strings.TrimSpace(input.Reference) != "" {
		payload["merchantInvoiceNumber"] = input.Reference
	}

	body, err := g.postJSON(ctx, "/checkout/payment/refund", payload)
	if err != nil {
		return nil, err
	}

	var result struct {
		TransactionID string `json:"transactionID"`
		StatusCode    string `json:"statusCode"`
		StatusMessage string `json:"statusMessage"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}
	if strings.TrimSpace(result.TransactionID) == "" {
		return nil, fmt.Errorf("bkash refund response missing transaction id: status=%s message=%s", result.StatusCode, result.StatusMessage)
	}

	return &RefundOutput{TransactionID: strings.TrimSpace(result.TransactionID)}, nil
}

func (g *BkashGateway) postJSON(ctx context.Context, path string, payload map[string]interface{}) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(g.cfg.BaseURL, "/")+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-APP-Key", g.cfg.AppKey)
	req.SetBasicAuth(g.cfg.Username, g.cfg.Password)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("bkash refund failed: %s", gatewayErrorMessage(body, resp.StatusCode))
	}

	return body, nil
}

// formatAmount renders integer cents as the two-decimal major-unit string the
// mobile-money APIs expect.
func formatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + strconv.FormatInt(cents/100, 10) + "." + fmt.Sprintf("%02d", cents%100)
}

func gatewayErrorMessage(body []byte, statusCode int) string {
	var payload struct {
		ErrorMessage string `json:"errorMessage"`
	}
	if json.Unmarshal(body, &payload) == nil && strings.TrimSpace(payload.ErrorMessage) != "" {
		return strings.TrimSpace(payload.ErrorMessage)
	}
	return "status=" + strconv.Itoa(statusCode)
}
