package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"stockai-backend/internal/common/logger"
)

const defaultBaseURL = "https://api.razorpay.com"

// Client talks to the Razorpay REST API using HTTP Basic auth built from the
// key id/secret pair. A client without both credentials is unconfigured:
// lookups are then indeterminate, not failed.
type Client struct {
	httpClient *http.Client
	keyID      string
	keySecret  string

	// BaseURL can be overridden in tests.
	BaseURL string
}

func NewClient(keyID, keySecret string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		keyID:     keyID,
		keySecret: keySecret,
		BaseURL:   defaultBaseURL,
	}
}

// Configured reports whether both halves of the key pair are present.
func (c *Client) Configured() bool {
	return c.keyID != "" && c.keySecret != ""
}

// Payment is the gateway's view of a payment. Raw carries the decoded
// response body; RawBody the verbatim text when the body was not JSON.
// Downstream debug payloads need both.
type Payment struct {
	Status  string                 `json:"status"`
	Amount  int64                  `json:"amount"`
	OK      bool                   `json:"-"`
	Raw     map[string]interface{} `json:"-"`
	RawBody string                 `json:"-"`
}

// Captured reports whether the payment is verified by the gateway: status is
// exactly "captured" and the amount covers the required minor-unit amount.
// No partial credit for close-but-insufficient amounts.
func (p *Payment) Captured(requiredAmount int64) bool {
	return p != nil && p.OK && p.Status == "captured" && p.Amount >= requiredAmount
}

// LookupPayment fetches a payment by id.
func (c *Client) LookupPayment(ctx context.Context, paymentID string) (*Payment, error) {
	endpoint := fmt.Sprintf("%s/v1/payments/%s", c.BaseURL, url.PathEscape(paymentID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	payment := &Payment{OK: resp.StatusCode >= 200 && resp.StatusCode < 300}

	// An empty body means the gateway said nothing about this payment;
	// leave Raw nil so callers do not mistake it for a real answer.
	if len(bytes.TrimSpace(body)) == 0 {
		return payment, nil
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		// Keep the verbatim body around for debugging instead of dropping it.
		payment.RawBody = string(body)
		payment.Raw = map[string]interface{}{"raw": string(body)}
		return payment, nil
	}
	payment.Raw = decoded

	if s, ok := decoded["status"].(string); ok {
		payment.Status = s
	}
	if a, ok := decoded["amount"].(float64); ok {
		payment.Amount = int64(a)
	}

	if !payment.OK {
		logger.Warn().
			Str("payment_id", paymentID).
			Int("http_status", resp.StatusCode).
			Msg("Razorpay payment lookup returned non-2xx")
	}

	return payment, nil
}

// PaymentLink is a hosted checkout link created through the Payment Links API.
type PaymentLink struct {
	ID       string `json:"id"`
	ShortURL string `json:"short_url"`
	LongURL  string `json:"long_url"`
}

// URL returns the best link to hand to the client.
func (l *PaymentLink) URL() string {
	if l.ShortURL != "" {
		return l.ShortURL
	}
	return l.LongURL
}

// CreateLinkRequest describes the payment link to create.
type CreateLinkRequest struct {
	AmountPaise   int64
	Description   string
	CustomerName  string
	CustomerEmail string
	CallbackURL   string
}

// CreatePaymentLink creates a hosted payment link.
func (c *Client) CreatePaymentLink(ctx context.Context, req CreateLinkRequest) (*PaymentLink, error) {
	payload := map[string]interface{}{
		"amount":          req.AmountPaise,
		"currency":        "INR",
		"accept_partial":  false,
		"description":     req.Description,
		"customer":        map[string]string{"name": req.CustomerName, "email": req.CustomerEmail},
		"notify":          map[string]bool{"sms": false, "email": true},
		"reminder_enable": false,
	}
	if req.CallbackURL != "" {
		payload["callback_url"] = req.CallbackURL
		payload["callback_method"] = "post"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	endpoint := c.BaseURL + "/v1/payment_links"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.SetBasicAuth(c.keyID, c.keySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("razorpay API error: status %d: %s", resp.StatusCode, string(respBody))
	}

	var link PaymentLink
	if err := json.Unmarshal(respBody, &link); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if link.ID == "" {
		return nil, fmt.Errorf("razorpay API returned no link id")
	}

	return &link, nil
}
