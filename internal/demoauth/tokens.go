// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package demoauth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/jeranaias/rkids-tui/internal/identity"
)

// Claims is the payload of an issued credential.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (s *Server) issueCredential(id identity.Identity) (string, error) {
	now := s.clock.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.ID,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
		Email: id.Email,
		Role:  string(id.Role),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign credential: %w", err)
	}
	return signed, nil
}

var errRevoked = errors.New("credential revoked")

func (s *Server) verifyCredential(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.cfg.Secret, nil
	},
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	_, revoked := s.revoked[claims.ID]
	s.mu.Unlock()
	if revoked {
		return nil, errRevoked
	}
	return claims, nil
}

// =============================================================================
// ONE-TIME CODES
// =============================================================================

// pendingLogin is a first factor awaiting its one-time code.
type pendingLogin struct {
	email    string
	secret   string
	code     string
	issuedAt time.Time
	expires  time.Time
}

// codeOpts derives a six-digit TOTP whose step equals the code's
// lifetime, so one code is valid for the whole window.
func (s *Server) codeOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    uint(s.cfg.CodeTTL / time.Second),
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

func (s *Server) newPendingLogin(email string) (*pendingLogin, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.cfg.Issuer,
		AccountName: email,
		Period:      uint(s.cfg.CodeTTL / time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate code secret: %w", err)
	}
	now := s.clock.Now()
	code, err := totp.GenerateCodeCustom(key.Secret(), now, s.codeOpts())
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}
	return &pendingLogin{
		email:    email,
		secret:   key.Secret(),
		code:     code,
		issuedAt: now,
		expires:  now.Add(s.cfg.CodeTTL),
	}, nil
}

// check validates code against the step the code was issued in.
func (p *pendingLogin) check(s *Server, code string) bool {
	if len(code) != len(p.code) || subtle.ConstantTimeCompare([]byte(code), []byte(p.code)) != 1 {
		return false
	}
	ok, err := totp.ValidateCustom(code, p.secret, p.issuedAt, s.codeOpts())
	return err == nil && ok
}
