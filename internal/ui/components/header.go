// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/rkids-tui/internal/identity"
	"github.com/jeranaias/rkids-tui/internal/ui/styles"
	"github.com/jeranaias/rkids-tui/internal/util"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Header is the title bar: brand on the left, signed-in user on the right.
type Header struct {
	Title    string
	Width    int
	Identity *identity.Identity
	TestMode bool
	theme    *styles.Theme
}

// NewHeader creates a header with default values.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title: "rkids check-in",
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetIdentity sets the signed-in user; nil clears it.
func (h *Header) SetIdentity(id *identity.Identity) {
	h.Identity = id
}

// View renders the header on one line.
func (h *Header) View() string {
	width := h.Width
	if width < 30 {
		width = 30
	}
	inner := width - 2

	left := h.theme.HeaderBrand.Render(h.Title)
	if h.TestMode {
		left += " " + h.theme.TestMode.Render("TEST")
	}

	right := ""
	if h.Identity != nil {
		badge := h.theme.RoleBadge(h.Identity.Role)
		room := inner - lipgloss.Width(left) - lipgloss.Width(badge) - 2
		if room > 3 {
			name := util.TruncateWidth(h.Identity.DisplayName(), room)
			right = h.theme.HeaderUser.Render(name) + " " + badge
		} else {
			right = badge
		}
	}

	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	line := left + lipgloss.NewStyle().Width(gap).Render("") + right

	return h.theme.Header.Width(width).Render(line)
}
