//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/carenest-platform/ms-go-refunds/app/types"
)

const defaultRefundsHTTPBase = "http://localhost:48080"

func refundsHTTPBase() string {
	if v := os.Getenv("E2E_REFUNDS_HTTP_BASE"); v != "" {
		return v
	}
	return defaultRefundsHTTPBase
}

func refundsAPIKey() string {
	return os.Getenv("E2E_REFUNDS_API_KEY")
}

type httpClient struct {
	baseURL string
	client  *http.Client
}

func newHTTPClient(baseURL string) *httpClient {
	return &httpClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *httpClient) doJSON(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal failed: %v", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		t.Fatalf("new request failed: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", fmt.Sprintf("e2e-http-%d", time.Now().UnixNano()))
	if key := refundsAPIKey(); key != "" {
		req.Header.Set("X-API-Key", key)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("http request failed: %v", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response failed: %v", err)
	}

	return resp, bodyBytes
}

func waitForHTTP(baseURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 2 * time.Second}
	for time.Now().Before(deadline) {
		req, _ := http.NewRequest(http.MethodGet, baseURL+"/health", nil)
		req.Header.Set("X-Request-ID", fmt.Sprintf("wait-http-%d", time.Now().UnixNano()))
		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("http service not ready at %s", baseURL)
}

func TestMain(m *testing.M) {
	if err := waitForHTTP(refundsHTTPBase(), 30*time.Second); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func TestHealth(t *testing.T) {
	client := newHTTPClient(refundsHTTPBase())
	resp, body := client.doJSON(t, http.MethodGet, "/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", resp.StatusCode, body)
	}
}

func TestRequestIDRequired(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, refundsHTTPBase()+"/refunds", nil)
	if err != nil {
		t.Fatalf("new request failed: %v", err)
	}
	if key := refundsAPIKey(); key != "" {
		req.Header.Set("X-API-Key", key)
	}

	resp, err := (&http.Client{Timeout: 5 * time.Second}).Do(req)
	if err != nil {
		t.Fatalf("http request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without x-request-id, got %d", resp.StatusCode)
	}
}

func TestEligibilityUnknownPayment(t *testing.T) {
	client := newHTTPClient(refundsHTTPBase())
	resp, body := client.doJSON(t, http.MethodPost, "/refunds/eligibility", map[string]any{
		"paymentId": 999999999,
		"amount":    100,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", resp.StatusCode, body)
	}

	var payload types.EligibilityResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if payload.Eligible {
		t.Fatal("expected unknown payment to be ineligible")
	}
}

func TestCreateRefundValidation(t *testing.T) {
	client := newHTTPClient(refundsHTTPBase())
	resp, body := client.doJSON(t, http.MethodPost, "/refunds", map[string]any{
		"paymentId":   1,
		"amount":      100,
		"reason":      "e2e validation",
		"type":        "FULL",
		"requestedBy": "e2e-user",
	})
	// A FULL refund must omit the amount.
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", resp.StatusCode, body)
	}
}

func TestListRefundsPagingValidation(t *testing.T) {
	client := newHTTPClient(refundsHTTPBase())
	resp, body := client.doJSON(t, http.MethodGet, "/refunds?limit=1000", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for limit over 500, got %d body=%s", resp.StatusCode, body)
	}
}
