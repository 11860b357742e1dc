package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNagadProcessRefundSuccess(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/checkout/payment/refund" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request failed: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"transactionID": "NAG-REF-7",
			"status":        "Success",
		})
	}))
	defer server.Close()

	g := NewNagadGateway(NagadConfig{
		BaseURL:     server.URL,
		Username:    "merchant",
		Password:    "secret",
		AppKey:      "app-key-2",
		HTTPTimeout: time.Second,
	})

	output, err := g.ProcessRefund(context.Background(), &RefundInput{
		GatewayTransactionID: "NAG-PAY-1",
		AmountCents:          2500,
		Currency:             "BDT",
		Reason:               "overcharge",
		Reference:            "ref-uuid-2",
	})
	if err != nil {
		t.Fatalf("process refund failed: %v", err)
	}
	if output.TransactionID != "NAG-REF-7" {
		t.Fatalf("unexpected transaction id %q", output.TransactionID)
	}

	if captured["originalPaymentID"] != "NAG-PAY-1" {
		t.Fatalf("unexpected originalPaymentID %v", captured["originalPaymentID"])
	}
	if captured["amount"] != "25.00" {
		t.Fatalf("unexpected amount %v", captured["amount"])
	}
	additional, ok := captured["additionalData"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected additionalData object, got %v", captured["additionalData"])
	}
	if additional["reference"] != "ref-uuid-2" {
		t.Fatalf("unexpected reference %v", additional["reference"])
	}
	if additional["challengeType"] != "0000" {
		t.Fatalf("unexpected challengeType %v", additional["challengeType"])
	}
}

func TestNagadProcessRefundErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"errorMessage": "Original transaction not found"})
	}))
	defer server.Close()

	g := NewNagadGateway(NagadConfig{BaseURL: server.URL, HTTPTimeout: time.Second})

	_, err := g.ProcessRefund(context.Background(), &RefundInput{
		GatewayTransactionID: "NAG-PAY-1",
		AmountCents:          1000,
	})
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if !strings.Contains(err.Error(), "Original transaction not found") {
		t.Fatalf("expected provider error message, got %v", err)
	}
}

func TestNagadProcessRefundMissingTransactionID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "Failed", "message": "Refund window closed"})
	}))
	defer server.Close()

	g := NewNagadGateway(NagadConfig{BaseURL: server.URL, HTTPTimeout: time.Second})

	_, err := g.ProcessRefund(context.Background(), &RefundInput{
		GatewayTransactionID: "NAG-PAY-1",
		AmountCents:          1000,
	})
	if err == nil {
		t.Fatal("expected error for response without transaction id")
	}
	if !strings.Contains(err.Error(), "Refund window closed") {
		t.Fatalf("expected provider message in error, got %v", err)
	}
}
