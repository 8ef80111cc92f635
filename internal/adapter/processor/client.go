package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"payment-webhook-gateway/config"
	"payment-webhook-gateway/internal/core/domain"
)

// errorBodyLimit caps how much of a failed response is kept in the error.
const errorBodyLimit = 512

// HTTPStatusClient implements ports.StatusClient against the processor's
// payment status API.
type HTTPStatusClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewStatusClient returns nil when no base URL is configured; the checkout
// service then falls back to the status recorded by webhooks.
func NewStatusClient(cfg config.ProcessorConfig) (*HTTPStatusClient, error) {
	if cfg.BaseURL == "" {
		return nil, nil
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid processor base url: %w", err)
	}
	return &HTTPStatusClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

// GetPayment fetches GET {base}/payments/{id}.
func (c *HTTPStatusClient) GetPayment(ctx context.Context, paymentID string) (*domain.PaymentPayload, error) {
	if paymentID == "" {
		return nil, errors.New("payment id is required")
	}

	fullURL := c.baseURL + "/payments/" + url.PathEscape(paymentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, fmt.Errorf("processor returned status %d: %s", resp.StatusCode, string(body))
	}

	var p domain.PaymentPayload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("error decoding json response: %w", err)
	}
	return &p, nil
}
