// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/rkids-tui/internal/identity"
	"github.com/jeranaias/rkids-tui/internal/session"
)

func authed(role identity.Role, profileDone bool) session.Snapshot {
	return session.Snapshot{
		State: session.Authenticated,
		Identity: &identity.Identity{
			ID: "9", Email: "x@rkids.church", Role: role, ProfileUpdated: profileDone,
		},
	}
}

func TestResolve(t *testing.T) {
	anon := session.Snapshot{State: session.Anonymous}
	pending := session.Snapshot{State: session.AwaitingSecondFactor, PendingSecondFactor: true}
	warning := authed(identity.RoleParent, true)
	warning.State = session.AuthenticatedIdleWarning

	tests := []struct {
		name  string
		route string
		snap  session.Snapshot
		want  string
	}{
		{"anonymous root", "/", anon, RouteLogin},
		{"anonymous login", "/login", anon, RouteLogin},
		{"anonymous set password", "/set-password", anon, RouteSetPassword},
		{"anonymous dashboard", "/admin", anon, RouteLogin},
		{"anonymous verify", RouteVerify, anon, RouteLogin},
		{"anonymous unknown", "/nope", anon, RouteLogin},
		{"empty route", "", anon, RouteLogin},
		{"query stripped", "/set-password?email=a%40b", anon, RouteSetPassword},

		{"pending root", "/", pending, RouteVerify},
		{"pending verify", RouteVerify, pending, RouteVerify},
		{"pending may restart sign in", "/login", pending, RouteLogin},
		{"pending dashboard", "/teacher", pending, RouteVerify},

		{"teacher root", "/", authed(identity.RoleTeacher, true), RouteTeacher},
		{"teacher login", "/login", authed(identity.RoleTeacher, true), RouteTeacher},
		{"teacher own dashboard", "/teacher/", authed(identity.RoleTeacher, true), RouteTeacher},
		{"teacher admin dashboard", "/admin", authed(identity.RoleTeacher, true), RouteTeacher},
		{"teacher edits profile", "/update-profile", authed(identity.RoleTeacher, true), RouteUpdateProfile},
		{"parent needs profile", "/parent", authed(identity.RoleParent, false), RouteUpdateProfile},
		{"teen needs profile on login", "/login", authed(identity.RoleTeen, false), RouteUpdateProfile},
		{"admin exempt from profile", "/", authed(identity.RoleAdmin, false), RouteAdmin},
		{"super admin home", "/", authed(identity.RoleSuperAdmin, false), RouteAdmin},
		{"super admin on admin", "/admin", authed(identity.RoleSuperAdmin, true), RouteAdmin},
		{"admin on teacher", "/teacher", authed(identity.RoleAdmin, true), RouteAdmin},
		{"warning state keeps route", "/parent", warning, RouteParent},
		{"missing slash", "teen", authed(identity.RoleTeen, true), RouteTeen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.route, tt.snap))
		})
	}
}

func TestResolveAuthenticatedWithoutIdentity(t *testing.T) {
	snap := session.Snapshot{State: session.Authenticated}
	assert.Equal(t, RouteLogin, Resolve("/admin", snap))
}

func TestSplitName(t *testing.T) {
	tests := []struct{ in, first, last string }{
		{"", "", ""},
		{"Cher", "Cher", ""},
		{"Sarah Teacher", "Sarah", "Teacher"},
		{"  Mary Ann   Smith ", "Mary Ann", "Smith"},
	}
	for _, tt := range tests {
		first, last := splitName(tt.in)
		assert.Equal(t, tt.first, first, tt.in)
		assert.Equal(t, tt.last, last, tt.in)
	}
}
