// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package authapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jeranaias/rkids-tui/internal/identity"
)

// Endpoint paths relative to the base URL.
const (
	PathLogin       = "/auth/login"
	PathVerifyMFA   = "/auth/verify-mfa"
	PathLogout      = "/auth/logout"
	PathSetPassword = "/auth/set-password"
	PathMe          = "/auth/me"
)

// LoginResult is the first-factor outcome.
//
// When RequiresSecondFactor is true, PreAuthToken must accompany the
// second-factor call and DemoCode may carry the one-time code in
// demo deployments. Otherwise Credential is final and Identity is set.
type LoginResult struct {
	RequiresSecondFactor bool
	PreAuthToken         identity.Credential
	DemoCode             string
	Credential           identity.Credential
	Identity             *identity.Identity
}

// VerifyResult is a completed authentication.
type VerifyResult struct {
	Credential identity.Credential
	Identity   identity.Identity
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token       identity.Credential `json:"token"`
	RequiresMFA bool                `json:"requiresMFA"`
	OTPCode     string              `json:"otpCode,omitempty"`
	User        *identity.Identity  `json:"user,omitempty"`
}

type verifyRequest struct {
	Code  string `json:"code"`
	Token string `json:"token,omitempty"`
}

type verifyResponse struct {
	Token identity.Credential `json:"token"`
	User  *identity.Identity  `json:"user"`
}

type setPasswordRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	InvitationToken string `json:"invitation_token,omitempty"`
}

// Login submits the first factor.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	req := loginRequest{Email: strings.TrimSpace(email), Password: password}
	var resp loginResponse
	if err := c.send(ctx, http.MethodPost, PathLogin, req, &resp, ""); err != nil {
		return nil, err
	}
	return resp.result()
}

// SetPassword chooses a password for an invited account. It completes
// like Login: either a second factor is required or the session is
// final.
func (c *Client) SetPassword(ctx context.Context, email, password, invitationToken string) (*LoginResult, error) {
	req := setPasswordRequest{
		Email:           strings.TrimSpace(email),
		Password:        password,
		InvitationToken: invitationToken,
	}
	var resp loginResponse
	if err := c.send(ctx, http.MethodPost, PathSetPassword, req, &resp, ""); err != nil {
		return nil, err
	}
	return resp.result()
}

func (r *loginResponse) result() (*LoginResult, error) {
	if r.Token.IsZero() {
		return nil, fmt.Errorf("%w: no token", ErrMalformedResponse)
	}
	if r.RequiresMFA {
		return &LoginResult{
			RequiresSecondFactor: true,
			PreAuthToken:         r.Token,
			DemoCode:             strings.TrimSpace(r.OTPCode),
		}, nil
	}
	res := &LoginResult{Credential: r.Token}
	if r.User != nil {
		if err := r.User.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		u := *r.User
		res.Identity = &u
	}
	return res, nil
}

// VerifySecondFactor submits the one-time code. The pre-auth token is
// sent both as the bearer credential and in the body, as the service
// accepts either.
func (c *Client) VerifySecondFactor(ctx context.Context, code string, preAuth identity.Credential) (*VerifyResult, error) {
	req := verifyRequest{Code: strings.TrimSpace(code), Token: preAuth.Reveal()}
	var resp verifyResponse
	if err := c.send(ctx, http.MethodPost, PathVerifyMFA, req, &resp, preAuth); err != nil {
		return nil, err
	}
	if resp.Token.IsZero() || resp.User == nil {
		return nil, fmt.Errorf("%w: token and user required", ErrMalformedResponse)
	}
	if err := resp.User.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &VerifyResult{Credential: resp.Token, Identity: *resp.User}, nil
}

// Logout tells the service to revoke cred. The acknowledgement body is
// ignored. A 401 here does not fire the OnUnauthorized hook: the
// credential being rejected is the one being discarded.
func (c *Client) Logout(ctx context.Context, cred identity.Credential) error {
	if cred.IsZero() {
		return ErrNoCredential
	}
	return c.send(ctx, http.MethodPost, PathLogout, struct{}{}, nil, cred)
}

type meResponse struct {
	User *identity.Identity `json:"user"`
}

// Me fetches the identity behind the current credential through Do, so
// a revoked or expired credential triggers the OnUnauthorized hook.
func (c *Client) Me(ctx context.Context) (identity.Identity, error) {
	var resp meResponse
	if err := c.Do(ctx, http.MethodGet, PathMe, nil, &resp); err != nil {
		return identity.Identity{}, err
	}
	if resp.User == nil {
		return identity.Identity{}, fmt.Errorf("%w: no user", ErrMalformedResponse)
	}
	if err := resp.User.Validate(); err != nil {
		return identity.Identity{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return *resp.User, nil
}
