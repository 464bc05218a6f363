// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"github.com/jeranaias/rkids-tui/internal/session"
)

// =============================================================================
// SESSION CALL RESULTS
// =============================================================================

// loginResultMsg carries the result of Session.Login.
type loginResultMsg struct {
	outcome session.LoginOutcome
	err     error
}

// verifyResultMsg carries the result of Session.VerifySecondFactor.
type verifyResultMsg struct {
	err error
}

// setPasswordResultMsg carries the result of Session.CompletePasswordSetup.
type setPasswordResultMsg struct {
	outcome session.LoginOutcome
	err     error
}

// logoutDoneMsg reports that Session.Logout returned.
type logoutDoneMsg struct{}

// isCallResult reports whether msg is the result of a session call.
func isCallResult(msg any) bool {
	switch msg.(type) {
	case loginResultMsg, verifyResultMsg, setPasswordResultMsg, logoutDoneMsg:
		return true
	}
	return false
}
