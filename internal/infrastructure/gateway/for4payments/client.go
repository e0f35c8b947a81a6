// Package for4payments is the HTTP client for the For4Payments PIX gateway.
package for4payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
)

const (
	purchasePath     = "/transaction.purchase"
	statusPath       = "/transaction.getPayment"
	statusMaxRetries = 3
	statusRetryDelay = 500 * time.Millisecond
	maxErrorBody     = 512
)

// ChargeRequest is one PIX charge to create.
type ChargeRequest struct {
	Customer    checkout.Customer
	AmountCents int64
	Description string
	ExternalID  string
}

// Charge is the gateway's answer to a created charge.
type Charge struct {
	GatewayID   string
	PixCode     string
	QRCodeImage string
	Status      checkout.PaymentStatus
	ExpiresAt   time.Time
}

// APIError is a non-2xx gateway response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway error (%d): %s", e.StatusCode, e.Message)
}

// Retryable reports whether the call may succeed if repeated.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type purchaseItem struct {
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
	Tangible  bool   `json:"tangible"`
}

type purchaseRequest struct {
	Name          string         `json:"name"`
	Email         string         `json:"email"`
	CPF           string         `json:"cpf"`
	Phone         string         `json:"phone,omitempty"`
	PaymentMethod string         `json:"paymentMethod"`
	Amount        int64          `json:"amount"`
	ExternalID    string         `json:"externalId,omitempty"`
	Items         []purchaseItem `json:"items"`
}

type purchaseResponse struct {
	ID        string `json:"id"`
	PixCode   string `json:"pixCode"`
	PixQRCode string `json:"pixQrCode"`
	ExpiresAt string `json:"expiresAt"`
	Status    string `json:"status"`
}

type statusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	SecretKey  string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logging.ChanneledLogger
}

// Client talks to the gateway. Credentials can be swapped at runtime when the
// settings change.
type Client struct {
	mu        sync.RWMutex
	baseURL   string
	secretKey string
	http      *http.Client
	logger    *logging.ChanneledLogger
}

// NewClient creates a gateway client.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	return &Client{
		baseURL:   strings.TrimSuffix(opts.BaseURL, "/"),
		secretKey: opts.SecretKey,
		http:      httpClient,
		logger:    logger,
	}
}

// Configure replaces the endpoint and secret key. Empty values keep the
// current ones.
func (c *Client) Configure(baseURL, secretKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if baseURL != "" {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
	if secretKey != "" {
		c.secretKey = secretKey
	}
}

// Configured reports whether a secret key is available.
func (c *Client) Configured() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.secretKey != ""
}

func (c *Client) credentials() (string, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL, c.secretKey
}

// CreateCharge creates a PIX charge. It is never retried: a repeated
// purchase would bill twice.
func (c *Client) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	baseURL, key := c.credentials()
	if key == "" {
		return nil, checkout.ErrGatewayNotConfigured
	}

	title := req.Description
	if title == "" {
		title = "Pagamento PIX"
	}
	body, err := json.Marshal(purchaseRequest{
		Name:          req.Customer.Name,
		Email:         req.Customer.Email,
		CPF:           req.Customer.TaxID,
		Phone:         req.Customer.Phone,
		PaymentMethod: "PIX",
		Amount:        req.AmountCents,
		ExternalID:    req.ExternalID,
		Items: []purchaseItem{{
			Title:     title,
			Quantity:  1,
			UnitPrice: req.AmountCents,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal purchase request: %w", err)
	}

	start := time.Now()
	c.logger.Gateway().Debug("Creating PIX charge", "amountCents", req.AmountCents, "taxId", logging.MaskTaxID(req.Customer.TaxID))

	respBody, err := c.do(ctx, http.MethodPost, baseURL+purchasePath, key, body)
	if err != nil {
		c.logger.Gateway().Error("PIX charge creation failed", "error", err.Error(), "duration", time.Since(start))
		return nil, err
	}

	var resp purchaseResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode purchase response: %w", err)
	}
	if resp.ID == "" || resp.PixCode == "" {
		return nil, fmt.Errorf("gateway response missing id or pix code")
	}

	charge := &Charge{
		GatewayID:   resp.ID,
		PixCode:     resp.PixCode,
		QRCodeImage: normalizeQRCode(resp.PixQRCode),
		Status:      NormalizeStatus(resp.Status),
		ExpiresAt:   parseExpiry(resp.ExpiresAt),
	}

	c.logger.Gateway().Info("PIX charge created", "gatewayId", charge.GatewayID, "status", charge.Status, "duration", time.Since(start))
	return charge, nil
}

// ChargeStatus fetches the current status of a charge, retrying on rate
// limits and server errors.
func (c *Client) ChargeStatus(ctx context.Context, gatewayID string) (checkout.PaymentStatus, error) {
	baseURL, key := c.credentials()
	if key == "" {
		return "", checkout.ErrGatewayNotConfigured
	}

	endpoint := baseURL + statusPath + "?id=" + url.QueryEscape(gatewayID)

	var lastErr error
	for attempt := 0; attempt < statusMaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(1<<uint(attempt-1)) * statusRetryDelay
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		respBody, err := c.do(ctx, http.MethodGet, endpoint, key, nil)
		if err != nil {
			lastErr = err
			var apiErr *APIError
			if errors.As(err, &apiErr) && !apiErr.Retryable() {
				return "", err
			}
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			continue
		}

		var resp statusResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return "", fmt.Errorf("failed to decode status response: %w", err)
		}
		status := NormalizeStatus(resp.Status)
		c.logger.Gateway().Debug("Charge status fetched", "gatewayId", gatewayID, "raw", resp.Status, "status", status)
		return status, nil
	}

	c.logger.Gateway().Warn("Charge status retries exhausted", "gatewayId", gatewayID, "error", lastErr)
	return "", fmt.Errorf("max retries (%d) exceeded: %w", statusMaxRetries, lastErr)
}

func (c *Client) do(ctx context.Context, method, endpoint, key string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", key)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
	}
	return respBody, nil
}

func errorMessage(body []byte) string {
	var e errorResponse
	if json.Unmarshal(body, &e) == nil {
		if e.Message != "" {
			return e.Message
		}
		if e.Error != "" {
			return e.Error
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	return msg
}

// NormalizeStatus maps the gateway's status vocabulary onto PaymentStatus.
// Unknown values are treated as still pending.
func NormalizeStatus(raw string) checkout.PaymentStatus {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "APPROVED", "PAID", "COMPLETED", "CONFIRMED":
		return checkout.StatusPaid
	case "EXPIRED":
		return checkout.StatusExpired
	case "CANCELLED", "CANCELED", "REFUNDED", "CHARGEBACK":
		return checkout.StatusCancelled
	case "FAILED", "REFUSED", "DECLINED", "REJECTED":
		return checkout.StatusFailed
	default:
		return checkout.StatusPending
	}
}

// normalizeQRCode keeps URLs and data URIs, and wraps bare base64 PNG data.
func normalizeQRCode(raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return ""
	case strings.HasPrefix(raw, "data:"), strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		return raw
	default:
		return "data:image/png;base64," + raw
	}
}

func parseExpiry(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
