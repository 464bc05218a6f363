// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rkids-tui/internal/activity"
	"github.com/jeranaias/rkids-tui/internal/authapi"
	"github.com/jeranaias/rkids-tui/internal/clock"
	"github.com/jeranaias/rkids-tui/internal/demoauth"
	"github.com/jeranaias/rkids-tui/internal/identity"
	"github.com/jeranaias/rkids-tui/internal/session"
	"github.com/jeranaias/rkids-tui/internal/storage"
	"github.com/jeranaias/rkids-tui/internal/ui/styles"
)

// harness drives a Model against a real manager and the demo service.
// Session calls are queued instead of run, and manager side effects
// are fed back in order, so every step is deterministic.
type harness struct {
	t   *testing.T
	m   Model
	mgr *session.Manager
	clk *clock.Fake
	hub *activity.Hub
	log bytes.Buffer

	mu    sync.Mutex
	navs  []session.Navigation
	snaps []session.Snapshot
	calls []func() tea.Msg
}

func newHarness(t *testing.T, cfg session.Config) *harness {
	t.Helper()

	srv, err := demoauth.New(demoauth.DefaultConfig(), nil, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	h := &harness{
		t:   t,
		clk: clock.NewFake(time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)),
		hub: activity.NewHub(),
	}
	client := authapi.New(ts.URL+"/api").WithRateLimit(0, 0)
	h.mgr, err = session.New(cfg, session.Deps{
		Auth:      client,
		Store:     storage.NewSessionStore(storage.NewMemoryStore(), nil),
		Navigator: session.NavigatorFunc(h.pushNav),
		Clock:     h.clk,
		Activity:  h.hub,
		Logger:    slog.New(slog.NewTextHandler(&h.log, nil)),
	})
	require.NoError(t, err)
	t.Cleanup(h.mgr.Close)
	client.WithCredentialSource(h.mgr.Credential).OnUnauthorized(h.mgr.RejectCredential)
	h.mgr.Subscribe(h.pushSnap)

	theme := styles.NewPlainTheme()
	h.m = New(Options{
		Session:  h.mgr,
		Activity: h.hub,
		Theme:    theme,
		Clock:    h.clk,
	})
	h.m.env.run = func(fn func() tea.Msg) tea.Cmd {
		h.calls = append(h.calls, fn)
		return nil
	}
	h.send(tea.WindowSizeMsg{Width: 100, Height: 40})
	return h
}

func (h *harness) pushNav(n session.Navigation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.navs = append(h.navs, n)
}

func (h *harness) pushSnap(s session.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snaps = append(h.snaps, s)
}

// update feeds one message without draining side effects.
func (h *harness) update(msg tea.Msg) tea.Cmd {
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	return cmd
}

// send feeds msg and then every queued snapshot and navigation.
func (h *harness) send(msg tea.Msg) tea.Cmd {
	cmd := h.update(msg)
	h.drain()
	return cmd
}

func (h *harness) drain() {
	for {
		h.mu.Lock()
		snaps, navs := h.snaps, h.navs
		h.snaps, h.navs = nil, nil
		h.mu.Unlock()
		if len(snaps) == 0 && len(navs) == 0 {
			return
		}
		for _, s := range snaps {
			h.update(session.ChangedMsg{Snapshot: s})
		}
		for _, n := range navs {
			h.update(session.NavigateMsg{Navigation: n})
		}
	}
}

// flush runs every queued session call and feeds back its result.
func (h *harness) flush() {
	h.t.Helper()
	require.NotEmpty(h.t, h.calls, "no session call was issued")
	for len(h.calls) > 0 {
		fn := h.calls[0]
		h.calls = h.calls[1:]
		h.send(fn())
	}
}

func (h *harness) typeText(s string) {
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (h *harness) press(k tea.KeyType) tea.Cmd {
	return h.send(tea.KeyMsg{Type: k})
}

func (h *harness) signIn(email string) {
	h.t.Helper()
	require.Equal(h.t, RouteLogin, h.m.Route())
	h.typeText(email)
	h.press(tea.KeyTab)
	h.typeText(demoauth.DemoPassword)
	h.press(tea.KeyEnter)
	h.flush()
	require.Equal(h.t, RouteVerify, h.m.Route())

	h.typeText(h.mgr.DemoCode())
	h.press(tea.KeyEnter)
	h.flush()
	require.True(h.t, h.mgr.IsAuthenticated())
}

func TestStartsOnLogin(t *testing.T) {
	h := newHarness(t, session.DefaultConfig())
	assert.Equal(t, RouteLogin, h.m.Route())
	view := h.m.View()
	assert.Contains(t, view, "Sign in")
	assert.Contains(t, view, "rkids check-in")
}

func TestLoginFlowReachesDashboard(t *testing.T) {
	h := newHarness(t, session.DefaultConfig())

	h.typeText("teacher@rkids.church")
	h.press(tea.KeyTab)
	h.typeText(demoauth.DemoPassword)
	h.press(tea.KeyEnter)
	assert.True(t, h.m.screen.Busy())
	assert.Contains(t, h.m.View(), "Working")

	h.flush()
	require.Equal(t, RouteVerify, h.m.Route())
	assert.Contains(t, h.m.View(), "Demo code: "+h.mgr.DemoCode())

	h.typeText(h.mgr.DemoCode())
	h.press(tea.KeyEnter)
	h.flush()

	assert.Equal(t, RouteTeacher, h.m.Route())
	view := h.m.View()
	assert.Contains(t, view, "Teacher dashboard")
	assert.Contains(t, view, "Sarah Teacher")
	assert.Contains(t, view, "15m without activity")
}

func TestEnterOnEmailMovesToPassword(t *testing.T) {
	h := newHarness(t, session.DefaultConfig())
	h.typeText("teacher@rkids.church")
	h.press(tea.KeyEnter)
	assert.Empty(t, h.calls)
	assert.Equal(t, 1, h.m.screen.(*loginScreen).form.Focused())
}

func TestLoginErrorsStayInline(t *testing.T) {
	h := newHarness(t, session.DefaultConfig())

	h.press(tea.KeyTab)
	h.press(tea.KeyEnter)
	assert.Empty(t, h.calls, "empty form is rejected locally")
	login := h.m.screen.(*loginScreen)
	assert.Equal(t, "Email and password are required.", login.form.Error())

	h.press(tea.KeyShiftTab)
	h.typeText("teacher@rkids.church")
	h.press(tea.KeyTab)
	h.typeText("wrong-password")
	h.press(tea.KeyEnter)
	h.flush()

	assert.Equal(t, RouteLogin, h.m.Route())
	login = h.m.screen.(*loginScreen)
	assert.Equal(t, "Invalid credentials", login.form.Error())
	assert.Empty(t, login.form.Value("password"), "password is cleared after a failure")
	assert.Contains(t, h.m.View(), "Invalid credentials")
}

func TestVerifyFailureKeepsPendingState(t *testing.T) {
	h := newHarness(t, session.DefaultConfig())
	h.typeText("parent@rkids.church")
	h.press(tea.KeyTab)
	h.typeText(demoauth.DemoPassword)
	h.press(tea.KeyEnter)
	h.flush()

	h.typeText("000000")
	h.press(tea.KeyEnter)
	h.flush()

	assert.Equal(t, RouteVerify, h.m.Route())
	assert.Equal(t, session.AwaitingSecondFactor, h.mgr.State())
	assert.NotEmpty(t, h.m.screen.(*verifyScreen).form.Error())

	h.press(tea.KeyEsc)
	assert.Equal(t, RouteLogin, h.m.Route(), "esc returns to sign in")
}

func TestPasswordSetupFlow(t *testing.T) {
	h := newHarness(t, session.DefaultConfig())

	h.typeText("new.parent@rkids.church")
	h.press(tea.KeyTab)
	h.typeText("whatever")
	h.press(tea.KeyEnter)
	h.flush()

	require.Equal(t, RouteSetPassword, h.m.Route())
	setPw := h.m.screen.(*setPasswordScreen)
	assert.Equal(t, "new.parent@rkids.church", setPw.form.Value("email"))
	assert.Equal(t, 1, setPw.form.Focused(), "invitation field is focused")

	h.typeText("welcome-6")
	h.press(tea.KeyEnter)
	h.typeText("short")
	h.press(tea.KeyEnter)
	h.typeText("short")
	h.press(tea.KeyEnter)
	assert.Empty(t, h.calls)
	assert.Equal(t, "Password must be at least 8 characters.", setPw.form.Error())

	setPw.form.SetValue("password", "a-new-password")
	setPw.form.SetValue("confirm", "a-different-one")
	h.press(tea.KeyEnter)
	assert.Equal(t, "Passwords do not match.", setPw.form.Error())

	setPw.form.SetValue("confirm", "a-new-password")
	h.press(tea.KeyEnter)
	h.flush()
	require.Equal(t, RouteVerify, h.m.Route())

	h.typeText(h.mgr.DemoCode())
	h.press(tea.KeyEnter)
	h.flush()
	require.Equal(t, RouteUpdateProfile, h.m.Route())
	assert.Contains(t, h.m.View(), "Complete your profile")

	// The guard holds the user on the profile screen.
	h.send(session.NavigateMsg{Navigation: session.Navigation{Route: RouteParent}})
	require.Equal(t, RouteUpdateProfile, h.m.Route())

	h.press(tea.KeyEnter)
	h.press(tea.KeyEnter)
	h.press(tea.KeyEnter)
	h.press(tea.KeyEnter)
	assert.Equal(t, "First name is required.", h.m.screen.(*profileScreen).form.Error())

	profile := h.m.screen.(*profileScreen)
	profile.form.SetValue("first", "Nina")
	profile.form.SetValue("last", "Parent")
	profile.form.SetValue("phone", "555-0100")
	h.press(tea.KeyEnter)

	assert.Equal(t, RouteParent, h.m.Route())
	id, ok := h.mgr.Identity()
	require.True(t, ok)
	assert.Equal(t, "Nina Parent", id.Name)
	assert.Equal(t, "555-0100", id.Phone)
	assert.True(t, id.ProfileUpdated)
}

func TestIdleWarningBannerAndExpiry(t *testing.T) {
	h := newHarness(t, session.DefaultConfig())
	h.signIn("teacher@rkids.church")
	assert.NotContains(t, h.m.View(), "signed out in")

	h.clk.Advance(14 * time.Minute)
	h.drain()
	require.True(t, h.m.banner.IsVisible())
	assert.Contains(t, h.m.View(), "You will be signed out in 1:00")

	h.clk.Advance(20 * time.Second)
	h.send(session.TickMsg(h.clk.Now()))
	assert.Contains(t, h.m.View(), "0:40")

	// Any key keeps the session.
	h.typeText("x")
	assert.False(t, h.m.banner.IsVisible())
	assert.Equal(t, RouteTeacher, h.m.Route())

	h.clk.Advance(15 * time.Minute)
	h.drain()
	assert.Equal(t, session.Anonymous, h.mgr.State())
	assert.Equal(t, RouteLogin, h.m.Route())
	assert.False(t, h.m.banner.IsVisible())
	assert.Contains(t, h.m.View(), "inactivity")
}

func TestTickStopsWithoutWarning(t *testing.T) {
	h := newHarness(t, session.DefaultConfig())
	h.m.ticking = true
	cmd := h.send(session.TickMsg(h.clk.Now()))
	assert.Nil(t, cmd)
	assert.False(t, h.m.ticking)
}

func TestSignOutKey(t *testing.T) {
	h := newHarness(t, session.DefaultConfig())
	h.signIn("parent@rkids.church")
	require.Equal(t, RouteParent, h.m.Route())

	h.press(tea.KeyCtrlL)
	h.flush()
	h.mgr.Wait()

	assert.Equal(t, session.Anonymous, h.mgr.State())
	assert.Equal(t, RouteLogin, h.m.Route())
	assert.Contains(t, h.m.View(), "You have been signed out.")
}

func TestSignOutKeyIgnoredWhenAnonymous(t *testing.T) {
	h := newHarness(t, session.DefaultConfig())
	h.press(tea.KeyCtrlL)
	assert.Empty(t, h.calls)
}

func TestDashboardMenu(t *testing.T) {
	h := newHarness(t, session.DefaultConfig())
	h.signIn("teen@rkids.church")

	dash := h.m.screen.(*dashboardScreen)
	require.Len(t, dash.items, 2, "no role switcher outside test mode")

	h.press(tea.KeyEnter)
	assert.Equal(t, RouteUpdateProfile, h.m.Route())
	assert.Contains(t, h.m.View(), "Edit profile")

	h.press(tea.KeyEsc)
	assert.Equal(t, RouteTeen, h.m.Route())

	h.press(tea.KeyDown)
	h.press(tea.KeyEnter)
	h.flush()
	h.mgr.Wait()
	assert.Equal(t, RouteLogin, h.m.Route())
}

func TestTestModeRoleSwitch(t *testing.T) {
	cfg := session.DefaultConfig()
	cfg.TestMode = true
	h := newHarness(t, cfg)
	h.signIn("teacher@rkids.church")
	assert.Contains(t, h.m.View(), "TEST")

	h.press(tea.KeyDown)
	assert.Contains(t, h.m.View(), "< Teacher >")
	h.press(tea.KeyLeft)
	h.press(tea.KeyLeft)
	assert.Contains(t, h.m.View(), "< Admin >")
	h.press(tea.KeyEnter)

	assert.Equal(t, RouteAdmin, h.m.Route())
	id, _ := h.mgr.Identity()
	assert.Equal(t, identity.RoleAdmin, id.Role)
	assert.Contains(t, h.m.View(), "Admin dashboard")
}

func TestWrongDashboardRedirects(t *testing.T) {
	h := newHarness(t, session.DefaultConfig())
	h.signIn("teacher@rkids.church")
	h.send(session.NavigateMsg{Navigation: session.Navigation{Route: RouteAdmin}})
	assert.Equal(t, RouteTeacher, h.m.Route())
}

func TestStaleSnapshotIgnored(t *testing.T) {
	h := newHarness(t, session.DefaultConfig())
	h.signIn("teacher@rkids.church")
	current := h.m.Snapshot()
	require.NotZero(t, current.Seq)

	h.send(session.ChangedMsg{Snapshot: session.Snapshot{Seq: current.Seq - 1, State: session.Anonymous}})
	assert.Equal(t, current.Seq, h.m.Snapshot().Seq)
	assert.Equal(t, RouteTeacher, h.m.Route())
}

func TestResetNavigationRebuildsScreen(t *testing.T) {
	h := newHarness(t, session.DefaultConfig())
	h.typeText("someone@rkids.church")
	before := h.m.screen

	h.send(session.NavigateMsg{Navigation: session.Navigation{Route: RouteLogin}})
	assert.Same(t, before, h.m.screen, "same route keeps form state")

	h.send(session.NavigateMsg{Navigation: session.Navigation{Route: RouteRoot, Reset: true}})
	assert.NotSame(t, before, h.m.screen)
	assert.Empty(t, h.m.screen.(*loginScreen).form.Value("email"))
}

func TestInputCountsAsActivity(t *testing.T) {
	h := newHarness(t, session.DefaultConfig())
	h.signIn("teacher@rkids.church")
	start := h.mgr.LastActivity()

	h.clk.Advance(5 * time.Minute)
	h.send(tea.MouseMsg{Type: tea.MouseWheelDown})
	assert.Equal(t, start.Add(5*time.Minute), h.mgr.LastActivity())

	h.clk.Advance(time.Minute)
	h.send(tea.WindowSizeMsg{Width: 80, Height: 30})
	assert.Equal(t, start.Add(5*time.Minute), h.mgr.LastActivity(), "resizes are not activity")
}

func TestHelpAndQuit(t *testing.T) {
	h := newHarness(t, session.DefaultConfig())
	h.press(tea.KeyF1)
	assert.True(t, h.m.showHelp)
	assert.Contains(t, h.m.View(), "sign out")

	cmd := h.press(tea.KeyCtrlC)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestLoginWithCanceledContext(t *testing.T) {
	h := newHarness(t, session.DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.m.env.ctx = ctx

	h.typeText("teacher@rkids.church")
	h.press(tea.KeyTab)
	h.typeText(demoauth.DemoPassword)
	h.press(tea.KeyEnter)
	h.flush()

	assert.Equal(t, RouteLogin, h.m.Route())
	assert.NotEmpty(t, h.m.screen.(*loginScreen).form.Error())
	assert.False(t, h.m.screen.Busy())
}
