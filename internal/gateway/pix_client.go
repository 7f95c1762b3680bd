package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// PixClient talks to the PIX provider's REST API
type PixClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewPixClient creates a new PixClient
func NewPixClient(baseURL, apiKey string) *PixClient {
	return &PixClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type chargePayload struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	PixCopyPaste string `json:"pix_copy_paste"`
	QRCodeBase64 string `json:"qr_code_base64"`
}

type payoutPayload struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CreateCharge creates a PIX charge for a deposit
func (c *PixClient) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	body := map[string]interface{}{
		"reference":     req.Reference,
		"amount":        req.Amount,
		"customer_name": req.CustomerName,
	}

	var out chargePayload
	if err := c.do(ctx, http.MethodPost, "/v1/charges", body, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("gateway returned empty charge id")
	}

	return &Charge{
		ExternalID:   out.ID,
		PixCopyPaste: out.PixCopyPaste,
		QRCodeBase64: out.QRCodeBase64,
		Status:       normalizeStatus(out.Status),
	}, nil
}

// GetCharge fetches the current state of a charge
func (c *PixClient) GetCharge(ctx context.Context, externalID string) (*Charge, error) {
	var out chargePayload
	if err := c.do(ctx, http.MethodGet, "/v1/charges/"+externalID, nil, &out); err != nil {
		return nil, err
	}
	return &Charge{
		ExternalID:   out.ID,
		PixCopyPaste: out.PixCopyPaste,
		QRCodeBase64: out.QRCodeBase64,
		Status:       normalizeStatus(out.Status),
	}, nil
}

// CreatePayout sends a withdrawal to the user's PIX key
func (c *PixClient) CreatePayout(ctx context.Context, req PayoutRequest) (*Payout, error) {
	body := map[string]interface{}{
		"reference": req.Reference,
		"amount":    req.Amount,
		"pix_key":   req.PixKey,
	}

	var out payoutPayload
	if err := c.do(ctx, http.MethodPost, "/v1/payouts", body, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("gateway returned empty payout id")
	}
	return &Payout{ExternalID: out.ID, Status: normalizeStatus(out.Status)}, nil
}

// GetPayout fetches the current state of a payout
func (c *PixClient) GetPayout(ctx context.Context, externalID string) (*Payout, error) {
	var out payoutPayload
	if err := c.do(ctx, http.MethodGet, "/v1/payouts/"+externalID, nil, &out); err != nil {
		return nil, err
	}
	return &Payout{ExternalID: out.ID, Status: normalizeStatus(out.Status)}, nil
}

// AvailableBalance returns the withdrawable balance held at the gateway
func (c *PixClient) AvailableBalance(ctx context.Context) (decimal.Decimal, error) {
	var out struct {
		Available decimal.Decimal `json:"available"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/balance", nil, &out); err != nil {
		return decimal.Zero, err
	}
	return out.Available, nil
}

func (c *PixClient) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode gateway request: %w", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("gateway %s %s returned %s", method, path, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return nil
}

// normalizeStatus maps the provider's status vocabulary onto ours
func normalizeStatus(status string) string {
	switch status {
	case "PAID", "paid", "CONFIRMED", "confirmed":
		return StatusPaid
	case "EXPIRED", "expired":
		return StatusExpired
	case "FAILED", "failed", "REFUSED", "refused":
		return StatusFailed
	default:
		return StatusPending
	}
}
