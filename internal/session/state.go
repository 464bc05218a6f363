// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"net/url"
	"time"

	"github.com/jeranaias/rkids-tui/internal/identity"
)

// =============================================================================
// STATE
// =============================================================================

// State is the lifecycle state of the session.
type State int

const (
	Anonymous State = iota
	AwaitingSecondFactor
	Authenticated
	AuthenticatedIdleWarning
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Anonymous:
		return "ANONYMOUS"
	case AwaitingSecondFactor:
		return "AWAITING_SECOND_FACTOR"
	case Authenticated:
		return "AUTHENTICATED"
	case AuthenticatedIdleWarning:
		return "AUTHENTICATED_IDLE_WARNING"
	default:
		return "UNKNOWN"
	}
}

// IsAuthenticated reports whether the state holds an identity.
func (s State) IsAuthenticated() bool {
	return s == Authenticated || s == AuthenticatedIdleWarning
}

// LoginOutcome describes how a successful first-factor call ended.
type LoginOutcome int

const (
	// LoginSecondFactorRequired means the manager is now awaiting a code.
	LoginSecondFactorRequired LoginOutcome = iota + 1

	// LoginAuthenticated means no second factor was needed.
	LoginAuthenticated

	// LoginPasswordSetupRequired means the account has no password yet
	// and the navigator was sent to the password-setup route.
	LoginPasswordSetupRequired
)

func (o LoginOutcome) String() string {
	switch o {
	case LoginSecondFactorRequired:
		return "second_factor_required"
	case LoginAuthenticated:
		return "authenticated"
	case LoginPasswordSetupRequired:
		return "password_setup_required"
	}
	return "none"
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is a consistent copy of the manager's observable state.
// Seq increases with every observable change.
type Snapshot struct {
	Seq                 uint64
	State               State
	Identity            *identity.Identity
	PendingSecondFactor bool
	DemoCode            string
	IdleWarning         bool
	LastActivity        time.Time
	Deadline            time.Time
}

// IsAuthenticated reports whether an identity is held.
func (s Snapshot) IsAuthenticated() bool {
	return s.State.IsAuthenticated()
}

// Remaining returns the time left before idle logout, or zero.
func (s Snapshot) Remaining(now time.Time) time.Duration {
	if !s.IsAuthenticated() {
		return 0
	}
	if d := s.Deadline.Sub(now); d > 0 {
		return d
	}
	return 0
}

// =============================================================================
// NAVIGATION
// =============================================================================

// Well-known routes the manager navigates to.
const (
	RouteRoot        = "/"
	RouteLogin       = "/login"
	RouteSetPassword = "/set-password"
)

// Navigation is a routing side effect requested by the manager.
type Navigation struct {
	Route string
	Query url.Values

	// Reset discards all in-memory UI state, like a full page load.
	Reset bool
}

// String renders the route with its query.
func (n Navigation) String() string {
	if len(n.Query) == 0 {
		return n.Route
	}
	return n.Route + "?" + n.Query.Encode()
}

// Navigator performs navigation side effects.
type Navigator interface {
	Navigate(Navigation)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(Navigation)

// Navigate calls f(n).
func (f NavigatorFunc) Navigate(n Navigation) { f(n) }

// =============================================================================
// READ-ONLY VIEW
// =============================================================================

// View is the read side of the manager for components that only render
// session state.
type View interface {
	Snapshot() Snapshot
	Subscribe(fn func(Snapshot)) (cancel func())
}

// NoSession is a View that is permanently anonymous. It exists for
// test harnesses that render components without a manager; production
// code always injects a real *Manager.
type NoSession struct{}

// Snapshot returns an anonymous snapshot.
func (NoSession) Snapshot() Snapshot { return Snapshot{State: Anonymous} }

// Subscribe never calls fn.
func (NoSession) Subscribe(func(Snapshot)) func() { return func() {} }
