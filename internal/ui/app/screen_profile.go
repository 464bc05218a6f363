// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rkids-tui/internal/identity"
	"github.com/jeranaias/rkids-tui/internal/ui/components"
)

// profileScreen completes or edits the user's profile.
type profileScreen struct {
	env       *env
	form      *components.Form
	mandatory bool
	width     int
}

func newProfileScreen(e *env) *profileScreen {
	id, _ := e.identity()
	first, last := splitName(id.Name)
	return &profileScreen{
		env: e,
		form: components.NewForm(e.theme,
			components.Field{Key: "first", Label: "First name *", Value: first},
			components.Field{Key: "last", Label: "Last name *", Value: last},
			components.Field{Key: "phone", Label: "Phone", Value: id.Phone, CharLimit: 32},
			components.Field{Key: "address", Label: "Address", Value: id.Address},
		),
		mandatory: id.NeedsProfileSetup(),
		width:     52,
	}
}

// splitName splits "Mary Ann Smith" into "Mary Ann" and "Smith".
func splitName(name string) (first, last string) {
	fields := strings.Fields(name)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	}
	return strings.Join(fields[:len(fields)-1], " "), fields[len(fields)-1]
}

func (s *profileScreen) Init() tea.Cmd { return s.form.Init() }

func (s *profileScreen) Busy() bool { return false }

func (s *profileScreen) Hints() string {
	if s.mandatory {
		return hints("Enter next/save", "C-l sign out")
	}
	return hints("Enter next/save", "Esc cancel")
}

func (s *profileScreen) SetWidth(width int) {
	s.width = width
	s.form.SetWidth(width - 8)
}

func (s *profileScreen) Update(msg tea.Msg) tea.Cmd {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, s.env.keys.Back) && !s.mandatory:
			if id, ok := s.env.identity(); ok {
				s.env.navigate(id.HomeRoute(), nil)
			}
			return nil
		case key.Matches(km, s.env.keys.Submit):
			if !s.form.OnLast() {
				return s.form.Next()
			}
			s.save()
			return nil
		}
	}
	return s.form.Update(msg)
}

func (s *profileScreen) save() {
	v := s.form.Values()
	switch {
	case v["first"] == "":
		s.form.SetError("First name is required.")
		return
	case v["last"] == "":
		s.form.SetError("Last name is required.")
		return
	}

	name := v["first"] + " " + v["last"]
	done := true
	patch := identity.Patch{
		Name:           &name,
		Phone:          optional(v["phone"]),
		Address:        optional(v["address"]),
		ProfileUpdated: &done,
	}

	updated, ok := s.env.sess.UpdateProfile(patch)
	if !ok {
		s.env.navigate(RouteLogin, nil)
		return
	}
	s.form.SetError("")
	s.env.navigate(updated.HomeRoute(), nil)
}

// optional returns a pointer for a non-empty value. An empty field
// leaves the stored value alone.
func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func (s *profileScreen) View() string {
	title := "Edit profile"
	subtitle := ""
	if s.mandatory {
		title = "Complete your profile"
		subtitle = "We need a few details before you continue."
	}
	return card(s.env, s.width, title, subtitle, s.form.View())
}
