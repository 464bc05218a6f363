// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rkids-tui/internal/session"
	"github.com/jeranaias/rkids-tui/internal/ui/components"
)

// loginScreen collects email and password.
type loginScreen struct {
	env   *env
	form  *components.Form
	busy  bool
	width int
}

func newLoginScreen(e *env) *loginScreen {
	return &loginScreen{
		env: e,
		form: components.NewForm(e.theme,
			components.Field{Key: "email", Label: "Email", Placeholder: "you@example.org"},
			components.Field{Key: "password", Label: "Password", Secret: true},
		),
		width: 52,
	}
}

func (s *loginScreen) Init() tea.Cmd { return s.form.Init() }

func (s *loginScreen) Busy() bool { return s.busy }

func (s *loginScreen) Hints() string {
	return hints("Enter sign in", "Tab next field", "C-c quit")
}

func (s *loginScreen) SetWidth(width int) {
	s.width = width
	s.form.SetWidth(width - 8)
}

func (s *loginScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loginResultMsg:
		s.busy = false
		if msg.err != nil {
			s.form.SetError(errorText(msg.err))
			s.form.SetValue("password", "")
			return nil
		}
		if msg.outcome == session.LoginSecondFactorRequired {
			s.env.navigate(RouteVerify, nil)
		}
		// The other outcomes navigate through the session manager.
		return nil

	case tea.KeyMsg:
		if s.busy {
			return nil
		}
		if key.Matches(msg, s.env.keys.Submit) {
			if !s.form.OnLast() && s.form.Value("password") == "" {
				return s.form.Next()
			}
			return s.submit()
		}
	}
	return s.form.Update(msg)
}

func (s *loginScreen) submit() tea.Cmd {
	email := s.form.Value("email")
	password := s.form.Value("password")
	if email == "" || password == "" {
		s.form.SetError("Email and password are required.")
		return nil
	}
	s.form.SetError("")
	s.env.flash = ""
	s.busy = true

	sess, ctx := s.env.sess, s.env.ctx
	return s.env.run(func() tea.Msg {
		outcome, err := sess.Login(ctx, email, password)
		return loginResultMsg{outcome: outcome, err: err}
	})
}

func (s *loginScreen) View() string {
	body := s.form.View()
	if s.env.flash != "" && s.form.Error() == "" {
		body = s.env.theme.Hint.Render(s.env.flash) + "\n\n" + body
	}
	return card(s.env, s.width, "Sign in", "Children's ministry check-in", body)
}
