// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package identity

import (
	"fmt"
	"strings"
)

// =============================================================================
// ROLES
// =============================================================================

// Role is the capability class of an authenticated user.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
	RoleTeacher    Role = "teacher"
	RoleParent     Role = "parent"
	RoleTeen       Role = "teen"
)

// Roles lists every recognised role in display order.
var Roles = []Role{RoleAdmin, RoleSuperAdmin, RoleTeacher, RoleParent, RoleTeen}

// ParseRole normalises s and returns the matching Role. The backend
// has emitted both "superadmin" and "super_admin" over time; both map
// to RoleSuperAdmin.
func ParseRole(s string) (Role, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	if normalized == "superadmin" {
		normalized = string(RoleSuperAdmin)
	}
	r := Role(normalized)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// Valid reports whether r is one of the recognised roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSuperAdmin, RoleTeacher, RoleParent, RoleTeen:
		return true
	}
	return false
}

// IsAdmin reports whether r passes admin authorization checks.
// Super admins are admins.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Satisfies reports whether a user holding r may access a surface that
// requires the role required.
func (r Role) Satisfies(required Role) bool {
	if required == RoleAdmin {
		return r.IsAdmin()
	}
	return r == required
}

// HomeRoute returns the dashboard route for the role.
func (r Role) HomeRoute() string {
	switch r {
	case RoleAdmin, RoleSuperAdmin:
		return "/admin"
	case RoleTeacher:
		return "/teacher"
	case RoleParent:
		return "/parent"
	case RoleTeen:
		return "/teen"
	}
	return "/login"
}

// Label returns a human-readable role name.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleSuperAdmin:
		return "Super Admin"
	case RoleTeacher:
		return "Teacher"
	case RoleParent:
		return "Parent"
	case RoleTeen:
		return "Teen"
	}
	return string(r)
}

// UnmarshalText accepts any spelling ParseRole accepts. Unknown roles
// are kept verbatim so that Validate can reject the whole Identity.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		*r = Role(text)
		return nil
	}
	*r = parsed
	return nil
}

// =============================================================================
// ACCOUNT STATUS
// =============================================================================

// Status is the backend account status.
type Status string

const (
	StatusActive          Status = "active"
	StatusPendingPassword Status = "pending_password"
	StatusSuspended       Status = "suspended"
	StatusInactive        Status = "inactive"
)
