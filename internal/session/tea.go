// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ChangedMsg carries a snapshot into a Bubble Tea program.
type ChangedMsg struct {
	Snapshot Snapshot
}

// NavigateMsg carries a navigation request into a Bubble Tea program.
type NavigateMsg struct {
	Navigation Navigation
}

// TickMsg drives the countdown display while a warning is shown.
type TickMsg time.Time

// Bridge subscribes send to v. Delivery happens on a new goroutine so
// the manager's lock is never held while the program's queue is full.
func Bridge(v View, send func(tea.Msg)) (cancel func()) {
	return v.Subscribe(func(s Snapshot) {
		go send(ChangedMsg{Snapshot: s})
	})
}

// ProgramNavigator forwards navigation into a Bubble Tea program.
func ProgramNavigator(send func(tea.Msg)) Navigator {
	return NavigatorFunc(func(n Navigation) {
		go send(NavigateMsg{Navigation: n})
	})
}

// TickCmd schedules the next countdown tick.
func TickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
