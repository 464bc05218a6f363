// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package demoauth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jeranaias/rkids-tui/internal/identity"
)

// Error codes on the wire.
const (
	codePasswordNotSet     = "password_not_set"
	codeInvalidCredentials = "invalid_credentials"
	codeInvalidCode        = "invalid_code"
	codeCodeExpired        = "code_expired"
	codeAccountSuspended   = "account_suspended"
)

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authData struct {
	Token       string             `json:"token"`
	RequiresMFA bool               `json:"requiresMFA"`
	OTPCode     string             `json:"otpCode,omitempty"`
	User        *identity.Identity `json:"user,omitempty"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if err := decodeJSON(w, r, &body); err != nil || strings.TrimSpace(body.Email) == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required", "")
		return
	}

	s.mu.Lock()
	acct, ok := s.accounts[normalizeEmail(body.Email)]
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid credentials", codeInvalidCredentials)
		return
	}
	switch {
	case acct.identity.Status == identity.StatusSuspended || acct.identity.Status == identity.StatusInactive:
		writeError(w, http.StatusForbidden, "This account is not active. Contact your administrator.", codeAccountSuspended)
		return
	case !acct.hasPassword():
		writeError(w, http.StatusForbidden, "Please set your password using the link in your invitation email.", codePasswordNotSet)
		return
	case !acct.checkPassword(body.Password):
		writeError(w, http.StatusUnauthorized, "Invalid credentials", codeInvalidCredentials)
		return
	}

	s.completeFirstFactor(w, acct, false)
}

// completeFirstFactor answers a successful login or password setup:
// either a pre-auth token for the code step, or a final credential.
func (s *Server) completeFirstFactor(w http.ResponseWriter, acct *account, includeUser bool) {
	user := acct.identity

	if !s.cfg.RequireMFA {
		token, err := s.issueCredential(user)
		if err != nil {
			s.logger.Error("credential issue failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Login failed", "")
			return
		}
		writeData(w, authData{Token: token, User: &user})
		return
	}

	pending, err := s.newPendingLogin(user.Email)
	if err != nil {
		s.logger.Error("one-time code generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Login failed", "")
		return
	}
	preAuth := uuid.NewString()

	s.mu.Lock()
	s.prunePendingLocked()
	s.pending[preAuth] = pending
	s.mu.Unlock()

	s.logger.Info("one-time code issued", "email", user.Email, "expires", pending.expires)

	data := authData{Token: preAuth, RequiresMFA: true}
	if s.cfg.ExposeCode {
		data.OTPCode = pending.code
	}
	if includeUser {
		data.User = &user
	}
	writeData(w, data)
}

type verifyBody struct {
	Code  string `json:"code"`
	Token string `json:"token"`
}

func (s *Server) handleVerifyMFA(w http.ResponseWriter, r *http.Request) {
	var body verifyBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}
	preAuth := strings.TrimSpace(body.Token)
	if preAuth == "" {
		preAuth, _ = bearerToken(r)
	}
	code := strings.TrimSpace(body.Code)

	s.mu.Lock()
	pending, ok := s.pending[preAuth]
	if ok && !s.clock.Now().Before(pending.expires) {
		delete(s.pending, preAuth)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusUnauthorized, "MFA code expired. Please login again.", codeCodeExpired)
		return
	}
	if !pending.check(s, code) {
		writeError(w, http.StatusUnauthorized, "Invalid verification code", codeInvalidCode)
		return
	}

	s.mu.Lock()
	delete(s.pending, preAuth)
	acct, ok := s.accounts[pending.email]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusUnauthorized, "User session expired. Please login again.", "")
		return
	}

	user := acct.identity
	token, err := s.issueCredential(user)
	if err != nil {
		s.logger.Error("credential issue failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Verification failed", "")
		return
	}
	writeData(w, authData{Token: token, User: &user})
}

type setPasswordBody struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	InvitationToken string `json:"invitation_token"`
}

func (s *Server) handleSetPassword(w http.ResponseWriter, r *http.Request) {
	var body setPasswordBody
	if err := decodeJSON(w, r, &body); err != nil || strings.TrimSpace(body.Email) == "" {
		writeError(w, http.StatusBadRequest, "Email is required", "")
		return
	}
	if len(body.Password) < MinPasswordLength {
		writeError(w, http.StatusBadRequest, "Password must be at least 8 characters", "")
		return
	}

	s.mu.Lock()
	acct, ok := s.accounts[normalizeEmail(body.Email)]
	s.mu.Unlock()
	if !ok || acct.hasPassword() {
		writeError(w, http.StatusBadRequest, "Invalid invitation link. Please contact your administrator.", "")
		return
	}
	if acct.invitation != "" &&
		subtle.ConstantTimeCompare([]byte(acct.invitation), []byte(body.InvitationToken)) != 1 {
		writeError(w, http.StatusUnauthorized, "Invalid invitation link. Please contact your administrator.", "")
		return
	}

	updated, err := newAccount(AccountSpec{
		ID:             acct.identity.ID,
		Email:          acct.identity.Email,
		Password:       body.Password,
		Role:           string(acct.identity.Role),
		Name:           acct.identity.Name,
		ProfileUpdated: acct.identity.ProfileUpdated,
		Status:         string(identity.StatusActive),
	})
	if err != nil {
		s.logger.Error("set password failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to set password", "")
		return
	}

	s.mu.Lock()
	s.accounts[updated.identity.Email] = updated
	s.mu.Unlock()

	s.logger.Info("password set", "email", updated.identity.Email)
	s.completeFirstFactor(w, updated, true)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(claimsKey{}).(*Claims)

	s.mu.Lock()
	s.revoked[claims.ID] = claims.ExpiresAt.Time
	s.mu.Unlock()

	writeData(w, map[string]bool{"success": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(claimsKey{}).(*Claims)

	s.mu.Lock()
	acct, ok := s.accounts[normalizeEmail(claims.Email)]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found", "")
		return
	}
	user := acct.identity
	writeData(w, map[string]any{"user": user})
}

// prunePendingLocked drops expired one-time codes. Caller holds s.mu.
func (s *Server) prunePendingLocked() {
	now := s.clock.Now()
	for token, p := range s.pending {
		if !now.Before(p.expires) {
			delete(s.pending, token)
		}
	}
	for jti, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, jti)
		}
	}
}
