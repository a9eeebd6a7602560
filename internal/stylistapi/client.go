package stylistapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultBaseURL = "http://127.0.0.1:8000"
	defaultTimeout = 30 * time.Second

	requestIDHeader = "X-Request-ID"
)

// HTTPDoer describes the HTTP client used to reach the stylist service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures the stylist service client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is a thin REST client for the wardrobe analysis and storage service.
// Every operation performs exactly one HTTP exchange and never retries.
type Client struct {
	baseURL string
	client  HTTPDoer
	logger  *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.client = doer
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewClient(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	c := &Client{
		baseURL: base,
		client:  &http.Client{Timeout: timeout},
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalized service root.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) getJSON(ctx context.Context, op operation, path string, query url.Values, out any) error {
	return c.send(ctx, op, http.MethodGet, c.endpoint(path, query), nil, "", out)
}

func (c *Client) postJSON(ctx context.Context, op operation, path string, query url.Values, body any, out any) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return invalidInput(op, fmt.Sprintf("encode request: %v", err))
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.send(ctx, op, http.MethodPost, c.endpoint(path, query), reader, contentType, out)
}

// send performs the exchange and decodes a 2xx body into out. out may be a
// *[]byte to receive the raw payload.
func (c *Client) send(ctx context.Context, op operation, method, target string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return networkFailure(op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("stylist request failed",
			"op", op.name, "method", method, "url", target,
			"request_id", requestID, "duration", time.Since(start), "error", err)
		return networkFailure(op, err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	c.logger.Debug("stylist request",
		"op", op.name, "method", method, "url", target, "status", resp.StatusCode,
		"request_id", requestID, "duration", time.Since(start), "bytes", len(payload))
	if err != nil {
		return networkFailure(op, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f := rejection(op, resp.StatusCode, payload)
		c.logger.Warn("stylist request rejected",
			"op", op.name, "status", resp.StatusCode, "request_id", requestID, "detail", f.Message)
		return f
	}
	if out == nil {
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		*raw = payload
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &Failure{
			Op:      op.name,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("%s: malformed response: %v", op.fallback, err),
			Detail:  snippet(payload),
			Err:     err,
		}
	}
	return nil
}
