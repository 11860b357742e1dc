package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const NagadGatewayName = "NAGAD"

type NagadConfig struct {
	BaseURL     string
	Username    string
	Password    string
	AppKey      string
	HTTPTimeout time.Duration
}

// NagadGateway refunds payments through the Nagad checkout refund API.
type NagadGateway struct {
	cfg    NagadConfig
	client *http.Client
}

func NewNagadGateway(cfg NagadConfig) *NagadGateway {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NagadGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (g *NagadGateway) Name() string {
	return NagadGatewayName
}

func (g *NagadGateway) ProcessRefund(ctx context.Context, input *RefundInput) (*RefundOutput, error) {
	if strings.TrimSpace(g.cfg.BaseURL) == "" {
		return nil, errors.New("nagad base url is not configured")
	}
	if strings.TrimSpace(input.GatewayTransactionID) == "" {
		return nil, errors.New("nagad payment id is missing")
	}

	payload := map[string]interface{}{
		"originalPaymentID": input.GatewayTransactionID,
		"amount":            formatAmount(input.AmountCents),
		"reason":            input.Reason,
		"additionalData": map[string]string{
			"challenge":     "Nagad",
			"challengeType": "0000",
			"reference":     input.Reference,
		},
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(g.cfg.BaseURL, "/")+"/checkout/payment/refund", bytes.NewReader(encoded))
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
		return nil, fmt.Errorf("nagad refund failed: %s", gatewayErrorMessage(body, resp.StatusCode))
	}

	var result struct {
		TransactionID string `json:"transactionID"`
		Status        string `json:"status"`
		Message       string `json:"message"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}
	if strings.TrimSpace(result.TransactionID) == "" {
		return nil, fmt.Errorf("nagad refund response missing transaction id: status=%s message=%s", result.Status, result.Message)
	}

	return &RefundOutput{TransactionID: strings.TrimSpace(result.TransactionID)}, nil
}
