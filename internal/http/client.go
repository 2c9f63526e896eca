// Package http provides the default network transport for the japi client,
// built on retryable HTTP semantics for transient failures.
package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/japi/internal/constants"
	"github.com/fivetwenty-io/japi/pkg/japi"
)

// MediaType is the JSON:API media type sent on every request.
const MediaType = "application/vnd.api+json"

// Client implements japi.NetworkClient. Transport-level retries for 5xx,
// 429, and connection errors live here; the operation layer above never
// retries. Non-2xx responses are returned, not errors.
type Client struct {
	retryClient *retryablehttp.Client
	authToken   string
	userAgent   string
	logger      japi.Logger
	debug       bool
}

// Option configures the client.
type Option func(*Client)

// WithLogger sets a logger for debug output.
func WithLogger(logger japi.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging through the configured logger.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the default User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithAuthToken sets a static Bearer token sent on every request.
func WithAuthToken(token string) Option {
	return func(c *Client) {
		c.authToken = token
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.retryClient.HTTPClient.Timeout = timeout
	}
}

// WithRetryConfig enables transport-level retries with the given bounds.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.retryClient.RetryMax = retryMax
		c.retryClient.RetryWaitMin = waitMin
		c.retryClient.RetryWaitMax = waitMax
	}
}

// NewClient creates a transport client. Without WithRetryConfig, requests
// are attempted exactly once.
func NewClient(opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.Logger = nil
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout

	// When retries are exhausted on a retryable status (429, 5xx), hand the
	// final response back instead of an error so the caller still sees the
	// status code and body. Transport errors keep failing as errors.
	retryClient.ErrorHandler = func(resp *stdhttp.Response, err error, _ int) (*stdhttp.Response, error) {
		if resp != nil {
			return resp, nil
		}

		return nil, err
	}

	client := &Client{
		retryClient: retryClient,
		userAgent:   "japi-client/" + constants.Version,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Request implements japi.NetworkClient.
func (c *Client) Request(ctx context.Context, method, requestURL string, payload []byte) (*japi.NetworkResponse, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", MediaType)
	req.Header.Set("User-Agent", c.userAgent)

	if payload != nil {
		req.Header.Set("Content-Type", MediaType)
	}

	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": method,
			"url":    requestURL,
			"size":   len(payload),
		})
	}

	resp, err := c.retryClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && c.logger != nil {
			c.logger.Warn("failed to close response body", map[string]interface{}{
				"error": closeErr.Error(),
			})
		}
	}()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method": method,
			"url":    requestURL,
			"status": resp.StatusCode,
			"size":   len(responseBody),
		})
	}

	return &japi.NetworkResponse{
		StatusCode: resp.StatusCode,
		Body:       responseBody,
	}, nil
}

var _ japi.NetworkClient = (*Client)(nil)
