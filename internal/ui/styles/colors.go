// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/rkids-tui/internal/identity"
)

// =============================================================================
// BRAND COLORS
// =============================================================================

// Sky - Primary accent, titles, focused inputs
var Sky = lipgloss.AdaptiveColor{Light: "#0284C7", Dark: "#38BDF8"}

// Sunshine - Secondary accent, highlights
var Sunshine = lipgloss.AdaptiveColor{Light: "#CA8A04", Dark: "#FDE047"}

// Purple - Admin accents
var Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// Emerald - Success states
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

// Rose - Errors
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - Warnings, the idle banner
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// AmberDeep - Idle banner background
var AmberDeep = lipgloss.AdaptiveColor{Light: "#FEF3C7", Dark: "#78350F"}

// =============================================================================
// SURFACE AND TEXT COLORS
// =============================================================================

var Surface = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}

var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}
var TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}
var TextInverse = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}

// =============================================================================
// ROLE COLORS
// =============================================================================

// RoleColor returns the badge color for a role.
func RoleColor(r identity.Role) lipgloss.AdaptiveColor {
	switch r {
	case identity.RoleAdmin, identity.RoleSuperAdmin:
		return Purple
	case identity.RoleTeacher:
		return Emerald
	case identity.RoleParent:
		return Sky
	case identity.RoleTeen:
		return Sunshine
	}
	return TextSecondary
}

// =============================================================================
// INDICATORS
// =============================================================================

// StatusIndicators are ASCII-only so they render on any terminal.
var StatusIndicators = struct {
	Success string
	Error   string
	Warning string
	Info    string
	Lock    string
}{
	Success: "[OK]",
	Error:   "[X]",
	Warning: "[!]",
	Info:    "[i]",
	Lock:    "[#]",
}
