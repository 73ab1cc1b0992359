package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"smartparking/backend/services/parking-service/internal/models"
)

// PaymentClient charges users through the external payment provider.
type PaymentClient struct {
	baseURL  string
	apiKey   string
	currency string
	client   *http.Client
	logger   *zap.Logger
}

// NewPaymentClient returns HTTP client wrapper.
func NewPaymentClient(baseURL, apiKey, currency string, timeout time.Duration, logger *zap.Logger) *PaymentClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PaymentClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		currency: currency,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Charge collects req.Amount. Any non-2xx answer is a failed charge.
func (c *PaymentClient) Charge(ctx context.Context, req models.ChargeRequest) error {
	if req.Currency == "" {
		req.Currency = c.currency
	}
	return c.post(ctx, "/charges", req)
}

func (c *PaymentClient) post(ctx context.Context, path string, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s%s", c.baseURL, path), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("payment request failed", zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("payment provider declined", zap.Int("status", resp.StatusCode))
		return fmt.Errorf("clients: payment provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
