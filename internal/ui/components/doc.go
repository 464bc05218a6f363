// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the reusable pieces of the rkids TUI.
//
// # Components
//
//   - IdleBanner: the inactivity warning with an M:SS countdown
//   - Header: brand, display name and role badge
//   - Form: a stack of labelled text inputs with focus cycling
//   - StatusLine: key hints, test-mode marker and transient messages
//
// Components render with a *styles.Theme and hold no session state of
// their own; the app model pushes snapshot fields into them.
package components
