// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package activity delivers user-interaction signals to the session
// manager. The terminal UI publishes into a Hub; tests publish
// synthetic events directly.
package activity

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Kind identifies a qualifying user interaction.
type Kind int

const (
	PointerPress Kind = iota
	PointerMove
	KeyPress
	Scroll
	TouchStart
	Click
)

func (k Kind) String() string {
	switch k {
	case PointerPress:
		return "pointer_press"
	case PointerMove:
		return "pointer_move"
	case KeyPress:
		return "key_press"
	case Scroll:
		return "scroll"
	case TouchStart:
		return "touch_start"
	case Click:
		return "click"
	}
	return "unknown"
}

// Source is anything that can deliver activity events.
type Source interface {
	// Subscribe registers fn and returns a function that removes it.
	Subscribe(fn func(Kind)) (unsubscribe func())
}

// Hub is a Source that fans published events out to subscribers.
// The zero value is ready to use.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Kind)
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{}
}

// Subscribe registers fn. Calling the returned function more than once
// is harmless.
func (h *Hub) Subscribe(fn func(Kind)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs == nil {
		h.subs = make(map[int]func(Kind))
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, id)
	}
}

// Publish delivers k to every subscriber. Subscribers run on the
// caller's goroutine, outside the hub lock.
func (h *Hub) Publish(k Kind) {
	h.mu.Lock()
	fns := make([]func(Kind), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(k)
	}
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// =============================================================================
// BUBBLE TEA INTEGRATION
// =============================================================================

// FromTeaMsg classifies a Bubble Tea message. Only key and mouse input
// counts; window resizes, ticks and command results do not.
func FromTeaMsg(msg tea.Msg) (Kind, bool) {
	switch m := msg.(type) {
	case tea.KeyMsg:
		return KeyPress, true
	case tea.MouseMsg:
		switch m.Type {
		case tea.MouseWheelUp, tea.MouseWheelDown:
			return Scroll, true
		case tea.MouseMotion:
			return PointerMove, true
		case tea.MouseRelease:
			return Click, true
		case tea.MouseLeft, tea.MouseRight, tea.MouseMiddle:
			return PointerPress, true
		}
		return PointerPress, true
	}
	return 0, false
}

// Observe publishes msg to h if it is qualifying input and reports
// whether it was.
func (h *Hub) Observe(msg tea.Msg) bool {
	k, ok := FromTeaMsg(msg)
	if ok {
		h.Publish(k)
	}
	return ok
}
