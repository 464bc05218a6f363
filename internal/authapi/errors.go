// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package authapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Machine-readable error codes returned in the "code" field of an error
// response.
const (
	CodePasswordNotSet     = "password_not_set"
	CodeInvalidCredentials = "invalid_credentials"
	CodeInvalidCode        = "invalid_code"
	CodeCodeExpired        = "code_expired"
	CodeAccountSuspended   = "account_suspended"
)

var (
	// ErrPasswordNotSet indicates an invited account that has not chosen
	// a password yet. Matched by error code, never by message text.
	ErrPasswordNotSet = errors.New("password not set")

	// ErrUnauthorized indicates a 401: bad credentials, bad code, or an
	// invalid bearer token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRejected indicates any other 4xx response.
	ErrRejected = errors.New("request rejected")

	// ErrRateLimited indicates a 429 response.
	ErrRateLimited = errors.New("rate limited")

	// ErrUnavailable indicates a transport failure or a 5xx response.
	ErrUnavailable = errors.New("authentication service unavailable")

	// ErrMalformedResponse indicates a 2xx body that does not match the
	// contract.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrNoCredential is returned by Do when no credential is held.
	ErrNoCredential = errors.New("no credential")
)

// APIError is a non-2xx response from the service.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("auth service error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("auth service error (HTTP %d): %s", e.Status, e.Message)
}

// Is maps the response onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrPasswordNotSet:
		return e.Code == CodePasswordNotSet
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	case ErrUnavailable:
		return e.Status >= 500
	case ErrRejected:
		return e.Status >= 400 && e.Status < 500
	}
	return false
}

// UserMessage returns text suitable for an inline form error.
func (e *APIError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Status)
}

// apiErrorResponse is the service's error body. Older handlers use
// "message" instead of "error".
type apiErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// handleErrorResponse converts a non-2xx response into an *APIError.
func (c *Client) handleErrorResponse(status int, body []byte, requestID string) error {
	apiErr := &APIError{Status: status, RequestID: requestID}

	var parsed apiErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil {
		apiErr.Code = strings.TrimSpace(parsed.Code)
		apiErr.Message = parsed.Error
		if apiErr.Message == "" {
			apiErr.Message = parsed.Message
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}

	c.logger.Debug("auth api error",
		"status", status,
		"error_code", apiErr.Code,
		"request_id", requestID)
	return apiErr
}

// Message extracts a user-facing message from any client error.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	if errors.Is(err, ErrUnavailable) {
		return "Cannot reach the server. Check your connection and try again."
	}
	if errors.Is(err, ErrMalformedResponse) {
		return "The server sent an unexpected response."
	}
	return err.Error()
}
