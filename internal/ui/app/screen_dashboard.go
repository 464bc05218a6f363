// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rkids-tui/internal/identity"
	"github.com/jeranaias/rkids-tui/internal/session"
)

// dashboard menu actions
const (
	actionProfile = iota
	actionSwitchRole
	actionSignOut
)

type menuItem struct {
	label  string
	action int
}

var roleBlurbs = map[identity.Role]string{
	identity.RoleAdmin:   "Manage families, groups, check-ins and reports.",
	identity.RoleTeacher: "Check children in and out of your group.",
	identity.RoleParent:  "See your children, book sessions and pre-check-out.",
	identity.RoleTeen:    "Follow your attendance and upcoming sessions.",
}

// dashboardScreen is the landing page for a role.
type dashboardScreen struct {
	env      *env
	role     identity.Role
	items    []menuItem
	selected int

	// roleChoice indexes identity.Roles for the test-mode switcher.
	roleChoice int
	err        string
	busy       bool
	width      int
}

func newDashboardScreen(e *env, role identity.Role) *dashboardScreen {
	s := &dashboardScreen{env: e, role: role, width: 52}
	s.items = append(s.items, menuItem{label: "Edit profile", action: actionProfile})
	if e.sess.Config().TestMode {
		s.items = append(s.items, menuItem{label: "Switch role", action: actionSwitchRole})
	}
	s.items = append(s.items, menuItem{label: "Sign out", action: actionSignOut})

	if id, ok := e.identity(); ok {
		for i, r := range identity.Roles {
			if r == id.Role {
				s.roleChoice = i
			}
		}
	}
	return s
}

func (s *dashboardScreen) Init() tea.Cmd { return nil }

func (s *dashboardScreen) Busy() bool { return s.busy }

func (s *dashboardScreen) Hints() string {
	if s.current().action == actionSwitchRole {
		return hints("left/right pick role", "Enter apply", "C-l sign out")
	}
	return hints("up/down select", "Enter open", "C-l sign out")
}

func (s *dashboardScreen) SetWidth(width int) { s.width = width }

func (s *dashboardScreen) current() menuItem {
	return s.items[s.selected]
}

func (s *dashboardScreen) Update(msg tea.Msg) tea.Cmd {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		if _, done := msg.(logoutDoneMsg); done {
			s.busy = false
		}
		return nil
	}
	if s.busy {
		return nil
	}

	keys := s.env.keys
	switch {
	case key.Matches(km, keys.Next):
		s.selected = (s.selected + 1) % len(s.items)
	case key.Matches(km, keys.Prev):
		s.selected = (s.selected + len(s.items) - 1) % len(s.items)
	case key.Matches(km, keys.Left) && s.current().action == actionSwitchRole:
		s.roleChoice = (s.roleChoice + len(identity.Roles) - 1) % len(identity.Roles)
	case key.Matches(km, keys.Right) && s.current().action == actionSwitchRole:
		s.roleChoice = (s.roleChoice + 1) % len(identity.Roles)
	case key.Matches(km, keys.Submit):
		return s.activate()
	}
	return nil
}

func (s *dashboardScreen) activate() tea.Cmd {
	s.err = ""
	switch s.current().action {
	case actionProfile:
		s.env.navigate(RouteUpdateProfile, nil)
	case actionSwitchRole:
		if err := s.env.sess.SetRole(identity.Roles[s.roleChoice]); err != nil {
			s.err = err.Error()
			return nil
		}
		// The route guard picks the new role's dashboard.
		s.env.navigate(RouteRoot, nil)
	case actionSignOut:
		s.busy = true
		return signOut(s.env)
	}
	return nil
}

func (s *dashboardScreen) View() string {
	t := s.env.theme
	id, _ := s.env.identity()

	var b strings.Builder
	b.WriteString(t.Body.Render("Welcome, " + id.DisplayName()))
	b.WriteString("\n")
	b.WriteString(t.Hint.Render(roleBlurbs[s.role]))
	b.WriteString("\n\n")

	b.WriteString(t.Label.Render("Signed in as ") + t.Body.Render(id.Email))
	b.WriteString("\n")
	idle := session.FormatDuration(s.env.sess.Config().IdleTimeout)
	b.WriteString(t.Hint.Render(fmt.Sprintf("You will be signed out after %s without activity.", idle)))
	b.WriteString("\n\n")

	for i, item := range s.items {
		label := item.label
		if item.action == actionSwitchRole {
			label = fmt.Sprintf("Switch role  < %s >", identity.Roles[s.roleChoice].Label())
		}
		if i == s.selected {
			b.WriteString(t.MenuItemSelected.Render(label))
		} else {
			b.WriteString(t.MenuItem.Render(label))
		}
		b.WriteString("\n")
	}
	if s.err != "" {
		b.WriteString("\n" + t.Error.Render(s.err))
	}

	return card(s.env, s.width, s.role.Label()+" dashboard", "", b.String())
}
