// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"net/url"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/rkids-tui/internal/activity"
	"github.com/jeranaias/rkids-tui/internal/clock"
	"github.com/jeranaias/rkids-tui/internal/session"
	"github.com/jeranaias/rkids-tui/internal/ui/components"
	"github.com/jeranaias/rkids-tui/internal/ui/styles"
)

// countdownInterval is how often the idle banner redraws.
const countdownInterval = time.Second

// Options configures a Model.
type Options struct {
	Session Session

	// Activity receives every key and mouse message. Usually the hub the
	// session manager subscribes to.
	Activity *activity.Hub

	Theme   *styles.Theme
	Clock   clock.Clock
	Context context.Context

	// Route is the first route requested; the guard decides what is shown.
	Route string
}

// Model is the Bubble Tea root model.
type Model struct {
	env   *env
	hub   *activity.Hub
	clock clock.Clock

	route  string
	query  url.Values
	screen screen

	header  *components.Header
	banner  *components.IdleBanner
	status  *components.StatusLine
	spinner spinner.Model
	help    help.Model

	spinning bool
	ticking  bool
	showHelp bool

	width  int
	height int
}

// New creates the root model.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	e := &env{
		sess:  opts.Session,
		ctx:   ctx,
		theme: theme,
		keys:  DefaultKeyMap(),
		snap:  opts.Session.Snapshot(),
		run:   runCmd,
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Sky)

	m := Model{
		env:     e,
		hub:     opts.Activity,
		clock:   clk,
		header:  components.NewHeader(theme),
		banner:  components.NewIdleBanner(theme),
		status:  components.NewStatusLine(theme),
		spinner: sp,
		help:    help.New(),
	}
	m.header.TestMode = opts.Session.Config().TestMode

	route := opts.Route
	if route == "" {
		route = RouteRoot
	}
	m.route = Resolve(route, e.snap)
	m.screen = newScreen(e, m.route, nil)
	if e.snap.IdleWarning {
		m.banner.Show(e.snap.Remaining(clk.Now()))
		m.ticking = true
	}
	m.syncChrome()
	return m
}

// Route returns the route currently shown.
func (m Model) Route() string {
	return m.route
}

// Snapshot returns the newest session snapshot the model has seen.
func (m Model) Snapshot() session.Snapshot {
	return m.env.snap
}

// Init starts the first screen and, if a warning is already up, the
// countdown.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.screen.Init()}
	if m.ticking {
		cmds = append(cmds, session.TickCmd(countdownInterval))
	}
	return tea.Batch(cmds...)
}

// Update handles every message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.hub != nil {
		m.hub.Observe(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.env.theme.SetSize(msg.Width, msg.Height)
		m.layout()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.env.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.env.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil
		case key.Matches(msg, m.env.keys.SignOut) && m.env.snap.IsAuthenticated():
			return m, signOut(m.env)
		}

	case session.ChangedMsg:
		if msg.Snapshot.Seq < m.env.snap.Seq {
			return m, nil
		}
		cmd := m.adopt(msg.Snapshot)
		return m, tea.Batch(cmd, m.reconcile())

	case session.NavigateMsg:
		cmd := m.adopt(m.env.sess.Snapshot())
		return m, tea.Batch(cmd, m.show(msg.Navigation))

	case session.TickMsg:
		if !m.env.snap.IdleWarning {
			m.ticking = false
			m.banner.Hide()
			return m, nil
		}
		m.banner.UpdateTime(m.env.snap.Remaining(m.clock.Now()))
		return m, session.TickCmd(countdownInterval)

	case spinner.TickMsg:
		if !m.screen.Busy() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case logoutDoneMsg:
		m.env.flash = "You have been signed out."
	}

	var cmds []tea.Cmd
	if isCallResult(msg) {
		cmds = append(cmds, m.adopt(m.env.sess.Snapshot()))
	}
	cmds = append(cmds, m.screen.Update(msg))

	if nav := m.env.takeNav(); nav != nil {
		cmds = append(cmds, m.adopt(m.env.sess.Snapshot()), m.show(*nav))
	} else if isCallResult(msg) {
		cmds = append(cmds, m.reconcile())
	}

	if m.screen.Busy() && !m.spinning {
		m.spinning = true
		cmds = append(cmds, m.spinner.Tick)
	}
	m.syncChrome()
	return m, tea.Batch(cmds...)
}

// adopt makes snap the current snapshot and updates the chrome.
func (m *Model) adopt(snap session.Snapshot) tea.Cmd {
	if snap.Seq < m.env.snap.Seq {
		return nil
	}
	prev := m.env.snap
	m.env.snap = snap

	if prev.IdleWarning && !snap.IsAuthenticated() {
		m.env.flash = "You were signed out after a period of inactivity."
	}

	var cmd tea.Cmd
	if snap.IdleWarning {
		remaining := snap.Remaining(m.clock.Now())
		if m.banner.IsVisible() {
			m.banner.UpdateTime(remaining)
		} else {
			m.banner.Show(remaining)
		}
		if !m.ticking {
			m.ticking = true
			cmd = session.TickCmd(countdownInterval)
		}
	} else {
		m.banner.Hide()
	}
	m.syncChrome()
	return cmd
}

// reconcile re-applies the guard to the current route.
func (m *Model) reconcile() tea.Cmd {
	target := Resolve(m.route, m.env.snap)
	if target == m.route {
		return nil
	}
	return m.show(session.Navigation{Route: target})
}

// show routes to nav. A reset navigation discards every screen, like a
// full page load; otherwise the current screen is kept when the route
// and query are unchanged.
func (m *Model) show(nav session.Navigation) tea.Cmd {
	target := Resolve(nav.Route, m.env.snap)
	query := nav.Query
	if target != normalizeRoute(nav.Route) {
		query = nil
	}

	if !nav.Reset && target == m.route && query.Encode() == m.query.Encode() {
		return nil
	}
	if nav.Reset {
		m.showHelp = false
		m.status.Message = ""
	}

	m.route = target
	m.query = query
	m.screen = newScreen(m.env, target, query)
	m.layout()
	m.syncChrome()
	return m.screen.Init()
}

// signOut runs Session.Logout as a command.
func signOut(e *env) tea.Cmd {
	sess, ctx := e.sess, e.ctx
	return e.run(func() tea.Msg {
		sess.Logout(ctx)
		return logoutDoneMsg{}
	})
}

// layout pushes the terminal width into every component.
func (m *Model) layout() {
	if m.width == 0 {
		return
	}
	m.header.SetWidth(m.width)
	m.banner.SetWidth(m.width)
	m.status.SetWidth(m.width)
	m.help.Width = m.width
	m.screen.SetWidth(m.env.theme.CardWidth())
}

// syncChrome copies session and screen state into the header and
// status line.
func (m *Model) syncChrome() {
	if id, ok := m.env.identity(); ok {
		m.header.SetIdentity(&id)
	} else {
		m.header.SetIdentity(nil)
	}
	m.status.Route = m.route
	m.status.Hints = m.screen.Hints()
	if m.screen.Busy() {
		m.status.Status = components.StatusWorking
	} else {
		m.status.Status = components.StatusReady
	}
}

// View renders the console.
func (m Model) View() string {
	top := []string{m.header.View()}
	if m.banner.IsVisible() {
		top = append(top, m.banner.View())
	}

	bottom := []string{m.statusView()}
	if m.showHelp {
		bottom = append([]string{m.help.FullHelpView(m.env.keys.FullHelp())}, bottom...)
	}

	body := m.screen.View()
	if m.width > 0 && m.height > 0 {
		used := 0
		for _, s := range top {
			used += lipgloss.Height(s)
		}
		for _, s := range bottom {
			used += lipgloss.Height(s)
		}
		if h := m.height - used; h > 0 {
			body = lipgloss.Place(m.width, h, lipgloss.Center, lipgloss.Center, body)
		}
	}

	parts := make([]string, 0, len(top)+len(bottom)+1)
	parts = append(parts, top...)
	parts = append(parts, body)
	parts = append(parts, bottom...)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) statusView() string {
	if m.screen.Busy() {
		s := *m.status
		s.Message = m.spinner.View()
		return s.View()
	}
	return m.status.View()
}
