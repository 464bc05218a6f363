// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - JSON output for scripted use of rkids commands.
package cli

import (
	"encoding/json"
	"io"
	"os"
	"time"
)

// JSONResponse is the envelope every --json command prints.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is the RFC3339 time the response was generated
	Timestamp string `json:"timestamp"`

	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponseStr creates a new error JSON response from a string.
func NewJSONErrorResponseStr(command string, errMsg string) *JSONResponse {
	return &JSONResponse{
		Success:   false,
		Error:     &errMsg,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print outputs the JSON response to stdout.
// Human-readable messages go to stderr when JSON mode is enabled.
func (r *JSONResponse) Print() error {
	return r.Write(os.Stdout)
}

// Write encodes the response to w with indentation.
func (r *JSONResponse) Write(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// StatusData is returned by status and whoami.
type StatusData struct {
	SignedIn bool         `json:"signed_in"`
	User     *StatusUser  `json:"user,omitempty"`
	Session  StatusPolicy `json:"session"`
	Storage  StatusStore  `json:"storage"`

	// Verified is set when --verify asked the service about the credential.
	Verified *bool `json:"verified,omitempty"`
}

// StatusUser describes the signed-in identity without the credential.
type StatusUser struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Name           string `json:"name,omitempty"`
	Role           string `json:"role"`
	HomeRoute      string `json:"home_route"`
	ProfileUpdated bool   `json:"profile_updated"`

	// CredentialExpires is empty when the credential carries no expiry.
	CredentialExpires string `json:"credential_expires,omitempty"`
}

// StatusPolicy is the idle policy in effect.
type StatusPolicy struct {
	IdleTimeout string `json:"idle_timeout"`
	WarningLead string `json:"warning_lead"`
	TestMode    bool   `json:"test_mode"`
}

// StatusStore describes where the session lives.
type StatusStore struct {
	Backend string `json:"backend"`
	Path    string `json:"path,omitempty"`
}

// LoginData is returned by login.
type LoginData struct {
	User      StatusUser `json:"user"`
	HomeRoute string     `json:"home_route"`
}

// ConfigPathData is returned by config path.
type ConfigPathData struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

// ConfigValueData is returned by config get and config set.
type ConfigValueData struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// VersionData represents the data returned by the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version,omitempty"`
}
