// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package authapi is the client for the rkids Authentication Service.
//
// It covers the three calls the session manager depends on (login,
// second-factor verification, logout) plus password setup for invited
// accounts, and exposes Do for any other authenticated request.
//
// SECURITY: Credentials travel only in the Authorization header and are
// never logged. Response bodies are size-limited.
package authapi

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jeranaias/rkids-tui/internal/identity"
)

// Configuration constants.
const (
	// DefaultBaseURL is the development backend.
	DefaultBaseURL = "http://localhost:5000/api"

	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second

	// DefaultRequestsPerSecond and DefaultBurst shape client-side
	// request pacing so a stuck key cannot hammer the login endpoint.
	DefaultRequestsPerSecond = 5.0
	DefaultBurst             = 10

	// MaxResponseSize is the largest body the client will read.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 1 << 20

	// RequestIDHeader carries a per-request correlation id.
	RequestIDHeader = "X-Request-ID"
)

// Client talks to the Authentication Service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	userAgent  string

	// credential supplies the bearer token for Do.
	credential func() identity.Credential

	// onUnauthorized is told which credential the service rejected.
	onUnauthorized func(rejected identity.Credential)
}

// New creates a client for baseURL. An empty baseURL selects
// DefaultBaseURL.
func New(baseURL string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: newHTTPClient(DefaultTimeout),
		limiter:    rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), DefaultBurst),
		logger:     slog.New(slog.DiscardHandler),
		userAgent:  "rkids-tui",
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}

// WithTimeout sets the per-request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// WithRateLimit sets client-side pacing. A non-positive rps disables it.
func (c *Client) WithRateLimit(rps float64, burst int) *Client {
	if rps <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
		return c
	}
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return c
}

// WithLogger sets the logger for request diagnostics.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// WithUserAgent sets the User-Agent header.
func (c *Client) WithUserAgent(ua string) *Client {
	c.userAgent = ua
	return c
}

// WithCredentialSource sets where Do obtains the bearer token.
func (c *Client) WithCredentialSource(fn func() identity.Credential) *Client {
	c.credential = fn
	return c
}

// OnUnauthorized registers fn to run when the service answers 401 to a
// request made through Do. fn receives the credential that was sent.
func (c *Client) OnUnauthorized(fn func(rejected identity.Credential)) *Client {
	c.onUnauthorized = fn
	return c
}

// BaseURL returns the service base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// REQUESTS
// =============================================================================

// envelope is the service's success wrapper.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// Do performs an authenticated request using the configured credential
// source, decoding the response's data field into out (which may be
// nil). A 401 invokes the OnUnauthorized hook.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	var cred identity.Credential
	if c.credential != nil {
		cred = c.credential()
	}
	if cred.IsZero() {
		return ErrNoCredential
	}

	err := c.send(ctx, method, path, in, out, cred)
	if errors.Is(err, ErrUnauthorized) && c.onUnauthorized != nil {
		c.onUnauthorized(cred)
	}
	return err
}

// send performs one request. An empty cred sends no Authorization header.
func (c *Client) send(ctx context.Context, method, path string, in, out any, cred identity.Credential) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !cred.IsZero() {
		req.Header.Set("Authorization", "Bearer "+cred.Reveal())
	}

	c.logRequest(req, requestID)
	start := time.Now()
	resp, err := c.httpClient.Do(req)

	// SECURITY: Clear Authorization header immediately after request to prevent logging
	req.Header.Del("Authorization")

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w", ErrUnavailable, ctxErr)
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	c.logResponse(req, resp, requestID, time.Since(start))

	raw, err := readResponse(resp)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.handleErrorResponse(resp.StatusCode, raw, requestID)
	}

	if out == nil {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%w: missing data", ErrMalformedResponse)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// readResponse reads a response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	// SECURITY: Limit response size to prevent memory exhaustion
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// logRequest logs method and path only.
// SECURITY: Headers carry the credential and bodies carry passwords.
func (c *Client) logRequest(req *http.Request, requestID string) {
	c.logger.Debug("auth api request",
		"method", req.Method,
		"path", req.URL.Path,
		"request_id", requestID)
}

// logResponse logs status and duration, never the body.
func (c *Client) logResponse(req *http.Request, resp *http.Response, requestID string, d time.Duration) {
	c.logger.Debug("auth api response",
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", d)
}
