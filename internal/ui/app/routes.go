// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"

	"github.com/jeranaias/rkids-tui/internal/identity"
	"github.com/jeranaias/rkids-tui/internal/session"
)

// Routes served by the console.
const (
	RouteRoot          = session.RouteRoot
	RouteLogin         = session.RouteLogin
	RouteSetPassword   = session.RouteSetPassword
	RouteVerify        = "/verify-mfa"
	RouteUpdateProfile = "/update-profile"
	RouteAdmin         = "/admin"
	RouteTeacher       = "/teacher"
	RouteParent        = "/parent"
	RouteTeen          = "/teen"
)

// dashboards maps each dashboard route to the role it requires.
var dashboards = map[string]identity.Role{
	RouteAdmin:   identity.RoleAdmin,
	RouteTeacher: identity.RoleTeacher,
	RouteParent:  identity.RoleParent,
	RouteTeen:    identity.RoleTeen,
}

// Resolve applies the route guard and returns the route that should be
// shown when route is requested under snap.
func Resolve(route string, snap session.Snapshot) string {
	route = normalizeRoute(route)

	if !snap.IsAuthenticated() || snap.Identity == nil {
		switch route {
		case RouteLogin, RouteSetPassword:
			return route
		case RouteVerify:
			if snap.PendingSecondFactor {
				return RouteVerify
			}
			return RouteLogin
		}
		if snap.PendingSecondFactor {
			return RouteVerify
		}
		return RouteLogin
	}

	id := *snap.Identity
	if id.NeedsProfileSetup() {
		return RouteUpdateProfile
	}
	if route == RouteUpdateProfile {
		return route
	}
	if required, ok := dashboards[route]; ok && id.Role.Satisfies(required) {
		return route
	}
	return id.HomeRoute()
}

// normalizeRoute strips the query and any trailing slash.
func normalizeRoute(route string) string {
	route, _, _ = strings.Cut(route, "?")
	route = strings.TrimSpace(route)
	if len(route) > 1 {
		route = strings.TrimRight(route, "/")
	}
	if route == "" {
		return RouteRoot
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return route
}
