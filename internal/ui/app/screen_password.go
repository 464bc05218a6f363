// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"net/url"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rkids-tui/internal/session"
	"github.com/jeranaias/rkids-tui/internal/ui/components"
)

// setPasswordScreen lets an invited user choose a password.
type setPasswordScreen struct {
	env   *env
	form  *components.Form
	busy  bool
	width int
}

func newSetPasswordScreen(e *env, query url.Values) *setPasswordScreen {
	s := &setPasswordScreen{
		env: e,
		form: components.NewForm(e.theme,
			components.Field{Key: "email", Label: "Email", Value: query.Get("email")},
			components.Field{Key: "invitation", Label: "Invitation code", Placeholder: "from your invitation email", Value: query.Get("token")},
			components.Field{Key: "password", Label: "New password", Placeholder: "at least 8 characters", Secret: true},
			components.Field{Key: "confirm", Label: "Confirm password", Secret: true},
		),
		width: 52,
	}
	switch {
	case query.Get("email") == "":
		s.form.SetError("Invalid invitation link. Please contact your administrator.")
	case query.Get("token") == "":
		s.form.FocusIndex(1)
		s.form.SetNotice("Your account needs a password before you can sign in.")
	default:
		s.form.FocusIndex(2)
	}
	return s
}

func (s *setPasswordScreen) Init() tea.Cmd { return s.form.Init() }

func (s *setPasswordScreen) Busy() bool { return s.busy }

func (s *setPasswordScreen) Hints() string {
	return hints("Enter next/save", "Esc back to sign in")
}

func (s *setPasswordScreen) SetWidth(width int) {
	s.width = width
	s.form.SetWidth(width - 8)
}

func (s *setPasswordScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case setPasswordResultMsg:
		s.busy = false
		if msg.err != nil {
			s.form.SetError(errorText(msg.err))
			return nil
		}
		switch msg.outcome {
		case session.LoginSecondFactorRequired:
			s.env.navigate(RouteVerify, nil)
		case session.LoginPasswordSetupRequired:
			s.form.SetError("Failed to set password. Please try again.")
		}
		return nil

	case tea.KeyMsg:
		if s.busy {
			return nil
		}
		switch {
		case key.Matches(msg, s.env.keys.Back):
			s.env.navigate(RouteLogin, nil)
			return nil
		case key.Matches(msg, s.env.keys.Submit):
			if !s.form.OnLast() {
				return s.form.Next()
			}
			return s.submit()
		}
	}
	return s.form.Update(msg)
}

// validate checks the form the way the service would, so obvious
// mistakes never leave the console.
func (s *setPasswordScreen) validate() string {
	v := s.form.Values()
	switch {
	case v["email"] == "":
		return "Invalid invitation link. Please contact your administrator."
	case v["password"] == "":
		return "Password is required."
	case len([]rune(v["password"])) < session.MinPasswordLength:
		return "Password must be at least 8 characters."
	case v["confirm"] == "":
		return "Please confirm your password."
	case v["password"] != v["confirm"]:
		return "Passwords do not match."
	}
	return ""
}

func (s *setPasswordScreen) submit() tea.Cmd {
	if msg := s.validate(); msg != "" {
		s.form.SetError(msg)
		return nil
	}
	s.form.SetError("")
	s.env.flash = ""
	s.busy = true

	v := s.form.Values()
	sess, ctx := s.env.sess, s.env.ctx
	return s.env.run(func() tea.Msg {
		outcome, err := sess.CompletePasswordSetup(ctx, v["email"], v["password"], v["invitation"])
		return setPasswordResultMsg{outcome: outcome, err: err}
	})
}

func (s *setPasswordScreen) View() string {
	return card(s.env, s.width, "Set your password", "Welcome! Choose a password to finish setting up your account.", s.form.View())
}
