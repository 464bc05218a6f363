// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Redacted replaces any value the log must not carry.
const Redacted = "[REDACTED]"

// =============================================================================
// REDACTOR INTERFACE
// =============================================================================

// Redactor scrubs sensitive data from a string.
type Redactor interface {
	Redact(input string) string
	Name() string
}

// PatternRedactor redacts text matching a regex pattern.
type PatternRedactor struct {
	name    string
	pattern *regexp.Regexp
	replace string
}

// NewPatternRedactor creates a new pattern-based redactor.
func NewPatternRedactor(name string, pattern *regexp.Regexp, replace string) *PatternRedactor {
	return &PatternRedactor{name: name, pattern: pattern, replace: replace}
}

// Redact replaces matches with the replacement string.
func (r *PatternRedactor) Redact(input string) string {
	return r.pattern.ReplaceAllString(input, r.replace)
}

// Name returns the redactor name.
func (r *PatternRedactor) Name() string {
	return r.name
}

// =============================================================================
// BUILT-IN SECRET PATTERNS
// =============================================================================

var secretPatterns = []struct {
	name    string
	pattern *regexp.Regexp
	replace string
}{
	{"Bearer", regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-_.~+/]+=*`), "Bearer " + Redacted},
	{"JWT", regexp.MustCompile(`eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`), Redacted},
	{"Password", regexp.MustCompile(`(?i)("?(?:password|passwd|pwd)"?\s*[=:]\s*)("[^"]*"|\S+)`), "${1}" + Redacted},
	{"Token", regexp.MustCompile(`(?i)("?(?:token|auth_token|invitation_token)"?\s*[=:]\s*)("[^"]*"|\S+)`), "${1}" + Redacted},
}

// DefaultRedactors returns the built-in redactors.
func DefaultRedactors() []Redactor {
	redactors := make([]Redactor, 0, len(secretPatterns))
	for _, sp := range secretPatterns {
		redactors = append(redactors, NewPatternRedactor(sp.name, sp.pattern, sp.replace))
	}
	return redactors
}

// sensitiveKeys are attribute keys whose values are always dropped.
var sensitiveKeys = map[string]bool{
	"password":         true,
	"token":            true,
	"auth_token":       true,
	"credential":       true,
	"authorization":    true,
	"secret":           true,
	"code":             true,
	"otp":              true,
	"invitation":       true,
	"invitation_token": true,
}

// IsSensitiveKey reports whether values under key are always redacted.
func IsSensitiveKey(key string) bool {
	return sensitiveKeys[strings.ToLower(key)]
}

// Redact applies the built-in redactors to s.
func Redact(s string) string {
	for _, r := range builtin {
		s = r.Redact(s)
	}
	return s
}

var builtin = DefaultRedactors()

// ReplaceAttr returns a slog.HandlerOptions.ReplaceAttr hook using
// redactors, or the built-in set when none are given.
func ReplaceAttr(redactors ...Redactor) func(groups []string, a slog.Attr) slog.Attr {
	if len(redactors) == 0 {
		redactors = builtin
	}
	return func(_ []string, a slog.Attr) slog.Attr {
		if IsSensitiveKey(a.Key) {
			return slog.String(a.Key, Redacted)
		}
		switch a.Value.Kind() {
		case slog.KindString:
			s := a.Value.String()
			for _, r := range redactors {
				s = r.Redact(s)
			}
			return slog.String(a.Key, s)
		case slog.KindAny:
			if err, ok := a.Value.Any().(error); ok {
				s := err.Error()
				for _, r := range redactors {
					s = r.Redact(s)
				}
				return slog.String(a.Key, s)
			}
		}
		return a
	}
}
