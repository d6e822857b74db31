// Package mistral implements port.DocumentOCR against a Mistral Document
// AI endpoint (Azure-hosted or native).
package mistral

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/marlinspike/mistral-doc-ai/internal/config"
	"github.com/marlinspike/mistral-doc-ai/internal/domain"
	"github.com/marlinspike/mistral-doc-ai/internal/extract"
	"github.com/marlinspike/mistral-doc-ai/internal/ocr"
	"github.com/marlinspike/mistral-doc-ai/internal/port"
)

// Backoff schedule: base*2^(attempt-1) + jitter, capped. The provider's
// Retry-After, when present, acts as a floor on the computed delay.
const (
	backoffBase   = 700 * time.Millisecond
	backoffJitter = 400 * time.Millisecond
	backoffCap    = 6 * time.Second
)

var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Client calls the OCR provider with per-attempt retry. It implements
// port.DocumentOCR.
type Client struct {
	endpoint    string
	apiKey      string
	model       string
	authStyle   domain.AuthHeaderStyle
	maxAttempts int
	client      *http.Client

	// sleep is swapped out in tests to observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates an OCR client from provider config.
func NewClient(cfg *config.OCRConfig) *Client {
	return newClient(cfg, cfg.Endpoint)
}

// NewClientWithEndpoint creates a client pointing at a custom endpoint (for testing).
func NewClientWithEndpoint(cfg *config.OCRConfig, endpoint string) *Client {
	return newClient(cfg, endpoint)
}

func newClient(cfg *config.OCRConfig, endpoint string) *Client {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 4
	}
	authStyle := cfg.AuthHeaderStyle
	if authStyle == "" {
		authStyle = domain.AuthStyleBoth
	}
	return &Client{
		endpoint:    endpoint,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		authStyle:   authStyle,
		maxAttempts: maxAttempts,
		client:      &http.Client{Timeout: timeout},
		sleep:       sleepContext,
	}
}

// ocrRequest is the provider request body.
type ocrRequest struct {
	Model              string       `json:"model"`
	Document           ocr.Document `json:"document"`
	IncludeImageBase64 bool         `json:"include_image_base64"`
}

// Process sends one document for OCR, retrying rate-limit and transient
// failures with exponential backoff, and normalizes the response into
// extracted content. Auth failures and other client errors are returned
// immediately without retrying.
func (c *Client) Process(ctx context.Context, input port.OCRInput) (*port.OCROutput, error) {
	body, err := json.Marshal(ocrRequest{
		Model:              c.model,
		Document:           ocr.EncodeDocument(input.MimeType, input.Bytes),
		IncludeImageBase64: false,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		out, err := c.attempt(ctx, body)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}
		if attempt == c.maxAttempts {
			break
		}

		delay := backoffDelay(attempt)
		var rlErr *ocr.RateLimitError
		if errors.As(err, &rlErr) && rlErr.RetryAfter > delay {
			delay = rlErr.RetryAfter
		}
		log.Printf("mistral.Process: %s attempt %d/%d failed, retrying in %s: %v",
			input.Filename, attempt, c.maxAttempts, delay, err)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("retries exhausted after %d attempts: %w", c.maxAttempts, lastErr)
}

func (c *Client) attempt(ctx context.Context, body []byte) (*port.OCROutput, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuthHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("calling OCR endpoint: %v: %w", err, domain.ErrUpstreamUnavailable)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %v: %w", err, domain.ErrUpstreamUnavailable)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		baseErr := fmt.Errorf("OCR request failed with status %d: %s", resp.StatusCode, truncate(string(respBody), 300))
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			retryAfter := ocr.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return nil, ocr.NewRateLimitError(baseErr, retryAfter)
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, fmt.Errorf("%v: %w", baseErr, domain.ErrAuthFailed)
		case retryableStatus[resp.StatusCode]:
			return nil, fmt.Errorf("%v: %w", baseErr, domain.ErrUpstreamUnavailable)
		default:
			return nil, baseErr
		}
	}

	content, err := extract.Normalize(respBody)
	if err != nil {
		return nil, err
	}
	return &port.OCROutput{Markdown: content.Markdown, Text: content.Text}, nil
}

// setAuthHeaders attaches credentials per the configured style. Both
// headers are sent by default so either gateway flavor accepts the call.
func (c *Client) setAuthHeaders(req *http.Request) {
	switch c.authStyle {
	case domain.AuthStyleBearer:
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	case domain.AuthStyleAPIKey:
		req.Header.Set("api-key", c.apiKey)
	default:
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("api-key", c.apiKey)
	}
}

func isRetryable(err error) bool {
	return errors.Is(err, domain.ErrRateLimited) || errors.Is(err, domain.ErrUpstreamUnavailable)
}

func backoffDelay(attempt int) time.Duration {
	delay := backoffBase * time.Duration(1<<(attempt-1))
	delay += time.Duration(rand.Int63n(int64(backoffJitter)))
	if delay > backoffCap {
		delay = backoffCap
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
