// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"errors"
	"net/url"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/rkids-tui/internal/authapi"
	"github.com/jeranaias/rkids-tui/internal/session"
)

// screen is one routed view.
type screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View() string
	SetWidth(width int)

	// Busy reports whether a session call is in flight.
	Busy() bool

	// Hints is the key summary for the status line.
	Hints() string
}

// newScreen builds the screen for an already-resolved route.
func newScreen(e *env, route string, query url.Values) screen {
	switch route {
	case RouteLogin:
		return newLoginScreen(e)
	case RouteVerify:
		return newVerifyScreen(e)
	case RouteSetPassword:
		return newSetPasswordScreen(e, query)
	case RouteUpdateProfile:
		return newProfileScreen(e)
	}
	if role, ok := dashboards[route]; ok {
		return newDashboardScreen(e, role)
	}
	return newLoginScreen(e)
}

// card wraps a screen body with its title.
func card(e *env, width int, title, subtitle, body string) string {
	parts := []string{e.theme.Title.Render(title)}
	if subtitle != "" {
		parts = append(parts, e.theme.Subtitle.Render(subtitle))
	}
	parts = append(parts, "", body)
	return e.theme.Card.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// errorText maps a session or client error to an inline message.
func errorText(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, session.ErrStale):
		return "Sign-in was interrupted. Please try again."
	case errors.Is(err, session.ErrAlreadyAuthenticated):
		return "You are already signed in."
	case errors.Is(err, session.ErrNoPendingSecondFactor):
		return "Your verification has expired. Please sign in again."
	case errors.Is(err, session.ErrIncompleteResponse):
		return "The server sent an incomplete response. Please try again."
	case errors.Is(err, session.ErrPasswordTooShort):
		return "Password must be at least 8 characters."
	case errors.Is(err, authapi.ErrRateLimited):
		return "Too many attempts. Please wait a moment and try again."
	}
	return authapi.Message(err)
}

// hints joins key hints for the status line.
func hints(parts ...string) string {
	return strings.Join(parts, "  ")
}
