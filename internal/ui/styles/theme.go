// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/rkids-tui/internal/identity"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	App lipgloss.Style

	// Header
	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderUser  lipgloss.Style

	// Screens
	Card     lipgloss.Style
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Body     lipgloss.Style
	Hint     lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style

	// Forms
	Label        lipgloss.Style
	LabelFocused lipgloss.Style
	InputPrompt  lipgloss.Style
	InputText    lipgloss.Style
	Placeholder  lipgloss.Style
	DemoCode     lipgloss.Style

	// Menus
	MenuItem         lipgloss.Style
	MenuItemSelected lipgloss.Style

	// Idle warning
	Banner     lipgloss.Style
	BannerTime lipgloss.Style

	// Test mode marker
	TestMode lipgloss.Style
}

// NewTheme creates a new theme with all styles configured.
func NewTheme() *Theme {
	colorProfile := termenv.ColorProfile()
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

// NewPlainTheme creates a theme without terminal detection, for tests
// and non-interactive output.
func NewPlainTheme() *Theme {
	t := &Theme{ColorProfile: termenv.Ascii}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.App = lipgloss.NewStyle()

	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Sky)
	t.HeaderUser = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.Card = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(1, 3)
	t.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Sky)
	t.Subtitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)
	t.Body = lipgloss.NewStyle().
		Foreground(TextPrimary)
	t.Hint = lipgloss.NewStyle().
		Foreground(TextMuted)
	t.Error = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)
	t.Success = lipgloss.NewStyle().
		Foreground(Emerald)

	t.Label = lipgloss.NewStyle().
		Foreground(TextSecondary)
	t.LabelFocused = lipgloss.NewStyle().
		Foreground(Sky).
		Bold(true)
	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Sky).
		Bold(true)
	t.InputText = lipgloss.NewStyle().
		Foreground(TextPrimary)
	t.Placeholder = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)
	t.DemoCode = lipgloss.NewStyle().
		Foreground(Sunshine).
		Bold(true)

	t.MenuItem = lipgloss.NewStyle().
		Foreground(TextPrimary).
		PaddingLeft(2)
	t.MenuItemSelected = lipgloss.NewStyle().
		Foreground(Sky).
		Bold(true).
		PaddingLeft(1).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Sky)

	t.Banner = lipgloss.NewStyle().
		Foreground(Amber).
		Background(AmberDeep).
		Bold(true).
		Padding(0, 1)
	t.BannerTime = lipgloss.NewStyle().
		Foreground(Rose).
		Background(AmberDeep).
		Bold(true)

	t.TestMode = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Rose).
		Bold(true).
		Padding(0, 1)
}

// RoleBadge renders a role label in the role's color.
func (t *Theme) RoleBadge(r identity.Role) string {
	return lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(RoleColor(r)).
		Padding(0, 1).
		Render(r.Label())
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)

// CardWidth returns the form card width for the current layout.
func (t *Theme) CardWidth() int {
	switch t.GetLayoutMode() {
	case LayoutNarrow:
		if t.Width > 4 {
			return t.Width - 4
		}
		return 40
	case LayoutMedium:
		return 52
	default:
		return 60
	}
}
