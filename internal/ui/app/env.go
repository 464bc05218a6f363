// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"net/url"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rkids-tui/internal/identity"
	"github.com/jeranaias/rkids-tui/internal/session"
	"github.com/jeranaias/rkids-tui/internal/ui/styles"
)

// Session is the part of *session.Manager the console drives.
type Session interface {
	session.View
	Login(ctx context.Context, email, password string) (session.LoginOutcome, error)
	VerifySecondFactor(ctx context.Context, code string) error
	CompletePasswordSetup(ctx context.Context, email, password, invitation string) (session.LoginOutcome, error)
	Logout(ctx context.Context)
	UpdateProfile(p identity.Patch) (identity.Identity, bool)
	SetRole(r identity.Role) error
	Config() session.Config
}

// env is shared by the root model and its screens. The root model is
// copied on every Update; env is not.
type env struct {
	sess  Session
	ctx   context.Context
	theme *styles.Theme
	keys  KeyMap

	// snap is the newest snapshot the model has adopted.
	snap session.Snapshot

	// flash is a one-off notice for the sign-in screen, such as the
	// reason the last session ended. Cleared on the next sign-in attempt.
	flash string

	// run turns a blocking session call into a command.
	run func(fn func() tea.Msg) tea.Cmd

	nav *session.Navigation
}

// navigate asks the root model to change route once the current
// message has been handled.
func (e *env) navigate(route string, query url.Values) {
	e.nav = &session.Navigation{Route: route, Query: query}
}

// takeNav returns and clears the pending navigation.
func (e *env) takeNav() *session.Navigation {
	n := e.nav
	e.nav = nil
	return n
}

// identity returns the signed-in identity, if any.
func (e *env) identity() (identity.Identity, bool) {
	if e.snap.Identity == nil || !e.snap.IsAuthenticated() {
		return identity.Identity{}, false
	}
	return *e.snap.Identity, true
}

func runCmd(fn func() tea.Msg) tea.Cmd {
	return fn
}
