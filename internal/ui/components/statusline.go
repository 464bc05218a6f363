// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/rkids-tui/internal/ui/styles"
	"github.com/jeranaias/rkids-tui/internal/util"
)

// =============================================================================
// STATUS LINE COMPONENT
// =============================================================================

// Status is what the app is doing right now.
type Status int

const (
	StatusReady Status = iota
	StatusWorking
	StatusError
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusWorking:
		return "Working..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Icon returns a shape that does not rely on color alone.
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success
	case StatusWorking:
		return "~"
	case StatusError:
		return styles.StatusIndicators.Error
	default:
		return "?"
	}
}

// StatusLine is the bottom line: status on the left, key hints on the
// right.
type StatusLine struct {
	Status  Status
	Message string
	Hints   string
	Route   string
	Width   int
	theme   *styles.Theme
}

// NewStatusLine creates a status line.
func NewStatusLine(theme *styles.Theme) *StatusLine {
	return &StatusLine{Width: 80, theme: theme}
}

// SetWidth updates the width.
func (s *StatusLine) SetWidth(width int) {
	s.Width = width
}

// View renders the status line.
func (s *StatusLine) View() string {
	width := s.Width
	if width < 20 {
		width = 20
	}

	var statusStyle lipgloss.Style
	switch s.Status {
	case StatusError:
		statusStyle = s.theme.Error
	case StatusWorking:
		statusStyle = s.theme.Hint
	default:
		statusStyle = s.theme.Success
	}

	leftParts := []string{statusStyle.Render(s.Status.Icon() + " " + s.Status.String())}
	if s.Route != "" && s.theme.GetLayoutMode() != styles.LayoutNarrow {
		leftParts = append(leftParts, s.theme.Hint.Render(s.Route))
	}
	if s.Message != "" {
		leftParts = append(leftParts, s.theme.Body.Render(util.TruncateWidth(s.Message, width/2)))
	}
	left := strings.Join(leftParts, s.theme.Hint.Render(" | "))

	right := s.theme.Hint.Render(s.Hints)
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		// Hints go first when space is short.
		return lipgloss.NewStyle().MaxWidth(width).Render(left)
	}
	return left + strings.Repeat(" ", gap) + right
}
