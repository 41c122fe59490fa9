package khalti

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config holds Khalti API configuration
type Config struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

// Client represents Khalti payment gateway client.
// Amounts are in paisa (1 NPR = 100 paisa), as required by the gateway.
type Client struct {
	httpClient *http.Client
	config     Config
}

// VerifyRequest represents a payment verification request
type VerifyRequest struct {
	Token  string `json:"token"`
	Amount int64  `json:"amount"`
}

// VerifyResponse represents a payment verification response
type VerifyResponse struct {
	IDX    string `json:"idx"`
	Amount int64  `json:"amount"`
	State  struct {
		Name string `json:"name"`
	} `json:"state"`
}

// VerifyResult is the outcome of a verification call
type VerifyResult struct {
	Success     bool
	ReferenceID string // gateway transaction idx, used for refunds
	Amount      int64
}

type refundRequest struct {
	Amount int64 `json:"amount"`
}

type refundResponse struct {
	Refunded bool   `json:"refunded"`
	Detail   string `json:"detail"`
}

// NewClient creates new Khalti API client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		config:     cfg,
	}
}

// VerifyPayment verifies a client-side payment token against the gateway.
// The gateway rejects the verification when the token is unknown or the
// amount does not match what the payer authorized.
func (c *Client) VerifyPayment(ctx context.Context, token string, amount int64) (*VerifyResult, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("validation error: token must be non-empty")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("validation error: amount must be > 0")
	}

	var out VerifyResponse
	err := c.post(ctx, "/api/v2/payment/verify/", VerifyRequest{Token: token, Amount: amount}, &out)
	if err != nil {
		return nil, err
	}

	return &VerifyResult{
		Success:     out.IDX != "",
		ReferenceID: out.IDX,
		Amount:      out.Amount,
	}, nil
}

// Refund requests a refund of a previously verified transaction
func (c *Client) Refund(ctx context.Context, referenceID string, amount int64) error {
	if strings.TrimSpace(referenceID) == "" {
		return fmt.Errorf("validation error: reference id must be non-empty")
	}
	if amount <= 0 {
		return fmt.Errorf("validation error: amount must be > 0")
	}

	var out refundResponse
	path := "/api/merchant-transaction/" + referenceID + "/refund/"
	if err := c.post(ctx, path, refundRequest{Amount: amount}, &out); err != nil {
		return err
	}
	if !out.Refunded {
		return fmt.Errorf("khalti refund rejected: %s", out.Detail)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	if c == nil || c.httpClient == nil {
		return fmt.Errorf("khalti client is not initialized")
	}
	if strings.TrimSpace(c.config.BaseURL) == "" {
		return fmt.Errorf("khalti config error: base_url is empty")
	}
	if strings.TrimSpace(c.config.SecretKey) == "" {
		return fmt.Errorf("khalti config error: secret_key is empty")
	}

	jsonData, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode khalti request: %w", err)
	}

	base := strings.TrimRight(c.config.BaseURL, "/")
	url := base + path

	timeout := c.config.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("khalti api call failed: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Key "+c.config.SecretKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("khalti api call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("khalti api call failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("khalti api returned non-2xx status: %d, body: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse khalti response: %w", err)
	}

	return nil
}
