// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/rkids-tui/internal/ui/styles"
)

// =============================================================================
// IDLE WARNING BANNER
// =============================================================================

// IdleBanner tells the user they are about to be signed out for
// inactivity. It is a single line so it can sit above any screen without
// disturbing the layout beneath it.
type IdleBanner struct {
	visible   bool
	remaining time.Duration
	width     int
	theme     *styles.Theme
}

// NewIdleBanner creates a hidden banner.
func NewIdleBanner(theme *styles.Theme) *IdleBanner {
	return &IdleBanner{theme: theme, width: 80}
}

// SetWidth sets the render width.
func (b *IdleBanner) SetWidth(width int) {
	b.width = width
}

// Show displays the banner with the given time remaining.
func (b *IdleBanner) Show(remaining time.Duration) {
	b.visible = true
	b.remaining = remaining
}

// Hide hides the banner.
func (b *IdleBanner) Hide() {
	b.visible = false
	b.remaining = 0
}

// UpdateTime updates the countdown.
func (b *IdleBanner) UpdateTime(remaining time.Duration) {
	b.remaining = remaining
}

// IsVisible returns whether the banner is showing.
func (b *IdleBanner) IsVisible() bool {
	return b.visible
}

// TimeRemaining returns the countdown value last set.
func (b *IdleBanner) TimeRemaining() time.Duration {
	return b.remaining
}

// View renders the banner, or "" when hidden.
func (b *IdleBanner) View() string {
	if !b.visible {
		return ""
	}

	width := b.width
	if width < 20 {
		width = 20
	}

	countdown := b.theme.BannerTime.Render(formatTimeRemaining(b.remaining))
	var text string
	switch b.theme.GetLayoutMode() {
	case styles.LayoutNarrow:
		text = styles.StatusIndicators.Warning + " Signing out in " + countdown
	default:
		text = styles.StatusIndicators.Warning + " You will be signed out in " + countdown +
			" due to inactivity. Press any key to stay signed in."
	}

	return b.theme.Banner.
		Width(width).
		Align(lipgloss.Center).
		Render(text)
}

// formatTimeRemaining formats a duration as M:SS, rounding up so the
// display never shows 0:00 while time is left.
func formatTimeRemaining(d time.Duration) string {
	if d <= 0 {
		return "0:00"
	}
	totalSecs := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%d:%02d", totalSecs/60, totalSecs%60)
}
