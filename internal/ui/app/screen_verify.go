// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rkids-tui/internal/session"
	"github.com/jeranaias/rkids-tui/internal/ui/components"
)

// verifyScreen collects the one-time code.
type verifyScreen struct {
	env   *env
	form  *components.Form
	busy  bool
	width int
}

func newVerifyScreen(e *env) *verifyScreen {
	return &verifyScreen{
		env: e,
		form: components.NewForm(e.theme,
			components.Field{Key: "code", Label: "Verification code", Placeholder: "6-digit code", CharLimit: 8},
		),
		width: 52,
	}
}

func (s *verifyScreen) Init() tea.Cmd { return s.form.Init() }

func (s *verifyScreen) Busy() bool { return s.busy }

func (s *verifyScreen) Hints() string {
	return hints("Enter verify", "Esc back to sign in")
}

func (s *verifyScreen) SetWidth(width int) {
	s.width = width
	s.form.SetWidth(width - 8)
}

func (s *verifyScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case verifyResultMsg:
		s.busy = false
		s.form.SetValue("code", "")
		if msg.err != nil {
			if errors.Is(msg.err, session.ErrNoPendingSecondFactor) {
				s.env.flash = errorText(msg.err)
				s.env.navigate(RouteLogin, nil)
				return nil
			}
			s.form.SetError(errorText(msg.err))
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
			return s.submit()
		}
	}
	return s.form.Update(msg)
}

func (s *verifyScreen) submit() tea.Cmd {
	code := s.form.Value("code")
	if code == "" {
		s.form.SetError("Enter the code we sent you.")
		return nil
	}
	s.form.SetError("")
	s.busy = true

	sess, ctx := s.env.sess, s.env.ctx
	return s.env.run(func() tea.Msg {
		return verifyResultMsg{err: sess.VerifySecondFactor(ctx, code)}
	})
}

func (s *verifyScreen) View() string {
	body := s.form.View()
	if code := s.env.snap.DemoCode; code != "" {
		body += "\n" + s.env.theme.Hint.Render("Demo code: ") + s.env.theme.DemoCode.Render(code)
	}
	return card(s.env, s.width, "Two-step verification", "Enter the code sent to your email", body)
}
