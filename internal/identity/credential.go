// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package identity

import (
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const redacted = "[REDACTED]"

// Credential is an opaque bearer token. Every formatting path (fmt
// verbs, slog, JSON) renders it redacted; use Reveal to get the raw
// value for an Authorization header or durable storage.
type Credential string

// Reveal returns the raw token.
func (c Credential) Reveal() string {
	return string(c)
}

// IsZero reports whether no token is held.
func (c Credential) IsZero() bool {
	return c == ""
}

func (c Credential) String() string {
	if c == "" {
		return ""
	}
	return redacted
}

func (c Credential) GoString() string {
	return c.String()
}

// LogValue implements slog.LogValuer.
func (c Credential) LogValue() slog.Value {
	return slog.StringValue(c.String())
}

func (c Credential) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// ExpiresAt returns the "exp" claim when the credential happens to be
// a JWT. The signature is not verified; this only lets a restored
// session fail fast on a token the service would reject anyway.
func (c Credential) ExpiresAt() (time.Time, bool) {
	if c == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(string(c), &claims)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether the credential carries an expiry at or
// before now. Opaque tokens never report expired.
func (c Credential) Expired(now time.Time) bool {
	exp, ok := c.ExpiresAt()
	return ok && !now.Before(exp)
}
