// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package demoauth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rkids-tui/internal/clock"
	"github.com/jeranaias/rkids-tui/internal/identity"
)

type harness struct {
	srv   *Server
	http  *httptest.Server
	clock *clock.Fake
}

func newHarness(t *testing.T, mutate func(*Config)) *harness {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Secret = []byte("test-secret")
	if mutate != nil {
		mutate(&cfg)
	}
	fake := clock.NewFake(time.Now())
	srv, err := New(cfg, fake, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &harness{srv: srv, http: ts, clock: fake}
}

type reply struct {
	Status int
	Data   authData
	Error  string
	Code   string
}

func (h *harness) post(t *testing.T, path string, body any, bearer string) reply {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, h.http.URL+"/api"+path, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded struct {
		Data  authData `json:"data"`
		Error string   `json:"error"`
		Code  string   `json:"code"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return reply{Status: resp.StatusCode, Data: decoded.Data, Error: decoded.Error, Code: decoded.Code}
}

func (h *harness) me(t *testing.T, bearer string) int {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, h.http.URL+"/api/auth/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+bearer)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestLogin_RequiresSecondFactor(t *testing.T) {
	h := newHarness(t, nil)

	r := h.post(t, "/auth/login", loginBody{Email: "Teacher@rkids.church", Password: DemoPassword}, "")
	require.Equal(t, http.StatusOK, r.Status)
	assert.True(t, r.Data.RequiresMFA)
	assert.NotEmpty(t, r.Data.Token)
	assert.Len(t, r.Data.OTPCode, 6)
	assert.Nil(t, r.Data.User)

	code, ok := h.srv.PendingCode(r.Data.Token)
	require.True(t, ok)
	assert.Equal(t, r.Data.OTPCode, code)
}

func TestLogin_Failures(t *testing.T) {
	h := newHarness(t, nil)

	r := h.post(t, "/auth/login", loginBody{Email: "teacher@rkids.church", Password: "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, r.Status)
	assert.Equal(t, codeInvalidCredentials, r.Code)

	r = h.post(t, "/auth/login", loginBody{Email: "nobody@rkids.church", Password: "x"}, "")
	assert.Equal(t, http.StatusUnauthorized, r.Status)

	r = h.post(t, "/auth/login", loginBody{Email: "", Password: ""}, "")
	assert.Equal(t, http.StatusBadRequest, r.Status)

	r = h.post(t, "/auth/login", loginBody{Email: "new.parent@rkids.church", Password: "anything"}, "")
	assert.Equal(t, http.StatusForbidden, r.Status)
	assert.Equal(t, codePasswordNotSet, r.Code)

	r = h.post(t, "/auth/login", loginBody{Email: "former@rkids.church", Password: DemoPassword}, "")
	assert.Equal(t, http.StatusForbidden, r.Status)
	assert.Equal(t, codeAccountSuspended, r.Code)
}

func TestVerifyMFA_Flow(t *testing.T) {
	h := newHarness(t, nil)
	login := h.post(t, "/auth/login", loginBody{Email: "parent@rkids.church", Password: DemoPassword}, "")
	require.True(t, login.Data.RequiresMFA)

	bad := h.post(t, "/auth/verify-mfa", verifyBody{Code: "000000x", Token: login.Data.Token}, "")
	assert.Equal(t, http.StatusUnauthorized, bad.Status)
	assert.Equal(t, codeInvalidCode, bad.Code)

	// A wrong code keeps the pending login alive.
	ok := h.post(t, "/auth/verify-mfa", verifyBody{Code: login.Data.OTPCode}, login.Data.Token)
	require.Equal(t, http.StatusOK, ok.Status)
	require.NotNil(t, ok.Data.User)
	assert.Equal(t, identity.RoleParent, ok.Data.User.Role)
	assert.NotEmpty(t, ok.Data.Token)

	again := h.post(t, "/auth/verify-mfa", verifyBody{Code: login.Data.OTPCode, Token: login.Data.Token}, "")
	assert.Equal(t, http.StatusUnauthorized, again.Status, "codes are single use")
	assert.Equal(t, codeCodeExpired, again.Code)

	assert.Equal(t, http.StatusOK, h.me(t, ok.Data.Token))
}

func TestVerifyMFA_CodeExpires(t *testing.T) {
	h := newHarness(t, nil)
	login := h.post(t, "/auth/login", loginBody{Email: "teen@rkids.church", Password: DemoPassword}, "")

	h.clock.Advance(DefaultCodeTTL)

	r := h.post(t, "/auth/verify-mfa", verifyBody{Code: login.Data.OTPCode, Token: login.Data.Token}, "")
	assert.Equal(t, http.StatusUnauthorized, r.Status)
	assert.Equal(t, "MFA code expired. Please login again.", r.Error)
}

func TestLogin_WithoutMFA(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.RequireMFA = false })

	r := h.post(t, "/auth/login", loginBody{Email: "super@rkids.church", Password: DemoPassword}, "")
	require.Equal(t, http.StatusOK, r.Status)
	assert.False(t, r.Data.RequiresMFA)
	require.NotNil(t, r.Data.User)
	assert.Equal(t, identity.RoleSuperAdmin, r.Data.User.Role)
	assert.Equal(t, http.StatusOK, h.me(t, r.Data.Token))
}

func TestHiddenCode(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.ExposeCode = false })
	r := h.post(t, "/auth/login", loginBody{Email: "admin@rkids.church", Password: DemoPassword}, "")
	assert.True(t, r.Data.RequiresMFA)
	assert.Empty(t, r.Data.OTPCode)
}

func TestLogout_RevokesCredential(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.RequireMFA = false })
	login := h.post(t, "/auth/login", loginBody{Email: "admin@rkids.church", Password: DemoPassword}, "")

	out := h.post(t, "/auth/logout", struct{}{}, login.Data.Token)
	assert.Equal(t, http.StatusOK, out.Status)

	assert.Equal(t, http.StatusUnauthorized, h.me(t, login.Data.Token))

	again := h.post(t, "/auth/logout", struct{}{}, login.Data.Token)
	assert.Equal(t, http.StatusUnauthorized, again.Status)

	none := h.post(t, "/auth/logout", struct{}{}, "")
	assert.Equal(t, http.StatusUnauthorized, none.Status)
}

func TestCredential_Expiry(t *testing.T) {
	h := newHarness(t, func(c *Config) {
		c.RequireMFA = false
		c.TokenTTL = time.Hour
	})
	login := h.post(t, "/auth/login", loginBody{Email: "admin@rkids.church", Password: DemoPassword}, "")
	h.clock.Advance(2 * time.Hour)
	assert.Equal(t, http.StatusUnauthorized, h.me(t, login.Data.Token))
}

func TestSetPassword(t *testing.T) {
	h := newHarness(t, nil)

	short := h.post(t, "/auth/set-password", setPasswordBody{Email: "new.parent@rkids.church", Password: "short", InvitationToken: "welcome-6"}, "")
	assert.Equal(t, http.StatusBadRequest, short.Status)

	wrongInvite := h.post(t, "/auth/set-password", setPasswordBody{Email: "new.parent@rkids.church", Password: "longenough", InvitationToken: "nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, wrongInvite.Status)

	ok := h.post(t, "/auth/set-password", setPasswordBody{Email: "new.parent@rkids.church", Password: "longenough", InvitationToken: "welcome-6"}, "")
	require.Equal(t, http.StatusOK, ok.Status)
	assert.True(t, ok.Data.RequiresMFA)
	require.NotNil(t, ok.Data.User)
	assert.Equal(t, identity.StatusActive, ok.Data.User.Status)

	already := h.post(t, "/auth/set-password", setPasswordBody{Email: "new.parent@rkids.church", Password: "longenough2", InvitationToken: "welcome-6"}, "")
	assert.Equal(t, http.StatusBadRequest, already.Status)

	login := h.post(t, "/auth/login", loginBody{Email: "new.parent@rkids.church", Password: "longenough"}, "")
	assert.Equal(t, http.StatusOK, login.Status)
}

func TestNew_RejectsBadAccounts(t *testing.T) {
	_, err := New(Config{Accounts: []AccountSpec{{Email: "x@y.z", Role: "janitor"}}}, nil, nil)
	assert.ErrorIs(t, err, identity.ErrUnknownRole)

	_, err = New(Config{Accounts: []AccountSpec{
		{Email: "a@b.c", Role: "teen", Password: "p"},
		{Email: "A@b.c", Role: "teen", Password: "p"},
	}}, nil, nil)
	assert.Error(t, err)
}
