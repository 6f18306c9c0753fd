// Package gateway is the shared HTTP client for payment and transfer
// providers. It owns timeouts, bounded retries with per-provider backoff and
// credential refresh, so provider adapters only describe endpoints and
// payload shapes.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
)

var defaultRetryDelays = []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}

// Config holds the per-provider client settings.
type Config struct {
	BaseURL string
	Auth    Authenticator
	// Timeout bounds each attempt, not the whole call.
	Timeout time.Duration
	// MaxRetries counts retries after the first attempt. Only transient
	// failures (5xx, network errors) consume retries.
	MaxRetries int
	// RetryDelays is the backoff schedule; the last entry repeats if there
	// are more retries than delays.
	RetryDelays []time.Duration
}

// Client calls one provider's REST API.
type Client struct {
	baseURL     string
	auth        Authenticator
	httpClient  *http.Client
	maxRetries  int
	retryDelays []time.Duration
}

// NewClient creates a provider client. Zero config fields fall back to
// defaults.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	delays := cfg.RetryDelays
	if len(delays) == 0 {
		delays = defaultRetryDelays
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		auth:        cfg.Auth,
		httpClient:  &http.Client{Timeout: timeout},
		maxRetries:  maxRetries,
		retryDelays: delays,
	}
}

// Do issues an authenticated request and decodes the response body into out.
// Transient failures are retried on the backoff schedule. A 401/403 triggers
// at most one credential refresh and re-send. Client errors other than auth
// return immediately as non-retryable. An error with Unknown set means the
// provider may or may not have processed the request.
func (c *Client) Do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	reauthed := false
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.wait(ctx, attempt-1); err != nil {
				return err
			}
		}

		status, respBody, err := c.send(ctx, method, path, payload)
		if err != nil {
			lastErr = err
			if !IsRetryable(err) {
				return err
			}
			continue
		}

		switch {
		case status >= 200 && status < 300:
			if out == nil || len(respBody) == 0 {
				return nil
			}
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("failed to decode provider response: %w", err)
			}
			return nil

		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			refresher, ok := c.auth.(Refresher)
			if !ok || reauthed {
				return &Error{Status: status, Message: providerMessage(respBody)}
			}
			if err := refresher.ForceRefresh(ctx); err != nil {
				return fmt.Errorf("failed to refresh credentials: %w", err)
			}
			reauthed = true
			// The re-send does not consume a retry.
			attempt--

		case status >= 500:
			lastErr = &Error{Status: status, Message: providerMessage(respBody), Retryable: true}

		default:
			return &Error{Status: status, Message: providerMessage(respBody)}
		}
	}
	return lastErr
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.auth != nil {
		if err := c.auth.Apply(ctx, req); err != nil {
			return 0, nil, fmt.Errorf("failed to authenticate request: %w", err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &Error{Message: "failed to read response body", Retryable: true, Unknown: true, Err: err}
	}
	return resp.StatusCode, respBody, nil
}

// classifyTransportError maps network failures onto gateway errors. Timeouts
// and connection drops are marked outcome-unknown: the request may have
// reached the provider.
func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Message: "request aborted", Unknown: true, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Message: "request timed out", Retryable: true, Unknown: true, Err: err}
	}
	return &Error{Message: "request failed", Retryable: true, Unknown: true, Err: err}
}

func (c *Client) wait(ctx context.Context, step int) error {
	if step >= len(c.retryDelays) {
		step = len(c.retryDelays) - 1
	}
	select {
	case <-ctx.Done():
		return &Error{Message: "retry aborted", Unknown: true, Err: ctx.Err()}
	case <-time.After(c.retryDelays[step]):
		return nil
	}
}
