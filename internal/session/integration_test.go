// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rkids-tui/internal/authapi"
	"github.com/jeranaias/rkids-tui/internal/clock"
	"github.com/jeranaias/rkids-tui/internal/demoauth"
	"github.com/jeranaias/rkids-tui/internal/identity"
	"github.com/jeranaias/rkids-tui/internal/session"
	"github.com/jeranaias/rkids-tui/internal/storage"
)

type routes struct {
	navs []session.Navigation
}

func (r *routes) Navigate(n session.Navigation) { r.navs = append(r.navs, n) }

func (r *routes) last() session.Navigation {
	if len(r.navs) == 0 {
		return session.Navigation{}
	}
	return r.navs[len(r.navs)-1]
}

func startDemo(t *testing.T) *authapi.Client {
	t.Helper()
	srv, err := demoauth.New(demoauth.DefaultConfig(), nil, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return authapi.New(ts.URL+"/api").WithRateLimit(0, 0)
}

func newManager(t *testing.T, client *authapi.Client, kv storage.KV, nav session.Navigator, clk clock.Clock) *session.Manager {
	t.Helper()
	m, err := session.New(session.DefaultConfig(), session.Deps{
		Auth:      client,
		Store:     storage.NewSessionStore(kv, nil),
		Navigator: nav,
		Clock:     clk,
	})
	require.NoError(t, err)
	t.Cleanup(m.Close)
	client.WithCredentialSource(m.Credential).OnUnauthorized(m.RejectCredential)
	return m
}

func TestDemoServiceSignInAndReload(t *testing.T) {
	client := startDemo(t)
	kv, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	nav := &routes{}
	clk := clock.NewFake(time.Now())
	m := newManager(t, client, kv, nav, clk)
	ctx := context.Background()

	outcome, err := m.Login(ctx, "teacher@rkids.church", demoauth.DemoPassword)
	require.NoError(t, err)
	require.Equal(t, session.LoginSecondFactorRequired, outcome)

	err = m.VerifySecondFactor(ctx, "not-it")
	require.ErrorIs(t, err, authapi.ErrUnauthorized)
	require.Equal(t, session.AwaitingSecondFactor, m.State())

	require.NoError(t, m.VerifySecondFactor(ctx, m.DemoCode()))
	assert.Equal(t, session.Authenticated, m.State())
	assert.Equal(t, "/teacher", nav.last().Route)

	me, err := client.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, identity.RoleTeacher, me.Role)

	m.Close()
	reloaded := newManager(t, client, kv, nav, clk)
	assert.Equal(t, session.Authenticated, reloaded.State())

	reloaded.Logout(ctx)
	reloaded.Wait()
	assert.Equal(t, session.Anonymous, reloaded.State())

	_, _, err = storage.NewSessionStore(kv, nil).Load()
	assert.ErrorIs(t, err, storage.ErrNoSession)
}

func TestDemoServicePasswordSetup(t *testing.T) {
	client := startDemo(t)
	nav := &routes{}
	m := newManager(t, client, storage.NewMemoryStore(), nav, clock.NewFake(time.Now()))
	ctx := context.Background()

	outcome, err := m.Login(ctx, "new.parent@rkids.church", "anything")
	require.NoError(t, err)
	assert.Equal(t, session.LoginPasswordSetupRequired, outcome)
	assert.Equal(t, "/set-password?email=new.parent%40rkids.church", nav.last().String())

	outcome, err = m.CompletePasswordSetup(ctx, "new.parent@rkids.church", "a-new-password", "welcome-6")
	require.NoError(t, err)
	require.Equal(t, session.LoginSecondFactorRequired, outcome)

	require.NoError(t, m.VerifySecondFactor(ctx, m.DemoCode()))
	id, ok := m.Identity()
	require.True(t, ok)
	assert.True(t, id.NeedsProfileSetup())
	assert.Equal(t, "/update-profile", nav.last().Route)
}

func TestDemoServiceRevokedCredentialInvalidates(t *testing.T) {
	client := startDemo(t)
	m := newManager(t, client, storage.NewMemoryStore(), &routes{}, clock.NewFake(time.Now()))
	ctx := context.Background()

	_, err := m.Login(ctx, "parent@rkids.church", demoauth.DemoPassword)
	require.NoError(t, err)
	require.NoError(t, m.VerifySecondFactor(ctx, m.DemoCode()))

	require.NoError(t, client.Logout(ctx, m.Credential()))
	_, err = client.Me(ctx)
	assert.ErrorIs(t, err, authapi.ErrUnauthorized)
	assert.Equal(t, session.Anonymous, m.State())
}
