// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the Bubble Tea root model of the rkids console.
//
// The model owns a router. Every route change, whether requested by the
// session manager, by a screen, or forced by a new session snapshot,
// passes through Resolve, which applies the route guard: anonymous users
// are held on the sign-in routes, users without a completed profile are
// held on /update-profile, and each role is kept on its own dashboard.
//
// Every incoming message is shown to the activity hub before anything
// else, so any key or mouse input keeps the session alive.
//
// Calls into the session manager never run on the Update goroutine;
// they are returned as tea.Cmds and their results come back as
// messages.
package app
