// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types, display, and exit codes for rkids commands.
//
// Handlers always return errors and let main decide how to show them.

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/jeranaias/rkids-tui/internal/authapi"
	"github.com/jeranaias/rkids-tui/internal/config"
	"github.com/jeranaias/rkids-tui/internal/session"
)

// =============================================================================
// EXIT CODES - Specific codes for different error categories
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitAuthError indicates the service refused the credentials or code
	ExitAuthError = 4
	// ExitNetworkError indicates the authentication service could not be reached
	ExitNetworkError = 5
	// ExitNotSignedIn indicates a command needed a session and none was stored
	ExitNotSignedIn = 6
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// =============================================================================
// ERROR TYPES FOR STRUCTURED ERROR HANDLING
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "login", "config")
	Action  string // Action being performed (e.g., "verify code")
	Reason  string // Human-readable reason for failure
	Err     error  // Underlying error (if any)
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: failed to %s: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: failed to %s: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents input validation errors.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   string // Invalid value
	Reason  string // Why it's invalid
	Example string // Example of valid input (optional)
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s", e.Field)
	if e.Value != "" {
		msg += fmt.Sprintf(" %q", e.Value)
	}
	msg += ": " + e.Reason
	if e.Example != "" {
		msg += fmt.Sprintf(" (example: %s)", e.Example)
	}
	return msg
}

// UsageError reports an unknown command or subcommand.
type UsageError struct {
	Command string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("unknown command %q", e.Command)
}

// ErrNotSignedIn is returned by commands that need a stored session.
var ErrNotSignedIn = errors.New("not signed in")

// NewCommandError creates a new command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{
		Command: command,
		Action:  action,
		Reason:  reason,
		Err:     err,
	}
}

// NewValidationErrorWithExample creates a validation error with an example.
func NewValidationErrorWithExample(field, value, reason, example string) error {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Reason:  reason,
		Example: example,
	}
}

// ErrMissingArgument creates an error for missing required arguments.
func ErrMissingArgument(argName, usage string) error {
	return NewValidationErrorWithExample(argName, "", "required argument missing", usage)
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError shows an error in the requested format.
func DisplayError(command string, err error, jsonMode bool) {
	if err == nil {
		return
	}

	if jsonMode {
		DisplayErrorJSON(command, err)
		return
	}

	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("[ERROR]"), userMessage(err))
}

// DisplayErrorJSON outputs an error as JSON on stdout.
func DisplayErrorJSON(command string, err error) {
	resp := NewJSONErrorResponseStr(command, userMessage(err))
	output := map[string]interface{}{
		"success":    false,
		"error":      resp.Error,
		"error_type": errorType(err),
		"timestamp":  resp.Timestamp,
		"command":    command,
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		output["field"] = ve.Field
		if ve.Example != "" {
			output["example"] = ve.Example
		}
	}
	var apiErr *authapi.APIError
	if errors.As(err, &apiErr) && apiErr.Code != "" {
		output["code"] = apiErr.Code
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	encoder.Encode(output)
}

// userMessage prefers the service's safe message for API failures.
func userMessage(err error) string {
	var apiErr *authapi.APIError
	if errors.As(err, &apiErr) {
		return authapi.Message(err)
	}
	return err.Error()
}

func errorType(err error) string {
	switch GetExitCode(err) {
	case ExitUsageError:
		return "usage_error"
	case ExitConfigError:
		return "config_error"
	case ExitAuthError:
		return "auth_error"
	case ExitNetworkError:
		return "network_error"
	case ExitNotSignedIn:
		return "not_signed_in"
	case ExitTimeoutError:
		return "timeout"
	}
	return "generic_error"
}

// GetExitCode determines the appropriate exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		usageErr      *UsageError
		validationErr *ValidationError
		configErrs    config.ValidateErrors
		configErr     config.ValidationError
	)
	switch {
	case errors.As(err, &usageErr), errors.As(err, &validationErr):
		return ExitUsageError
	case errors.As(err, &configErrs), errors.As(err, &configErr):
		return ExitConfigError
	case errors.Is(err, ErrNotSignedIn), errors.Is(err, session.ErrNotAuthenticated):
		return ExitNotSignedIn
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeoutError
	case errors.Is(err, authapi.ErrUnavailable):
		return ExitNetworkError
	case errors.Is(err, authapi.ErrUnauthorized),
		errors.Is(err, authapi.ErrRejected),
		errors.Is(err, authapi.ErrPasswordNotSet),
		errors.Is(err, authapi.ErrRateLimited),
		errors.Is(err, session.ErrNoPendingSecondFactor),
		errors.Is(err, session.ErrPasswordTooShort):
		return ExitAuthError
	}
	return ExitGeneralError
}

// HandleErrorAndExit displays err and exits with its code.
func HandleErrorAndExit(command string, err error, jsonMode bool) {
	if err == nil {
		return
	}
	DisplayError(command, err, jsonMode)
	os.Exit(GetExitCode(err))
}
