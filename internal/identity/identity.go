// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package identity defines the authenticated principal held by the
// session manager and the opaque bearer credential that accompanies it.
package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Errors returned by identity validation.
var (
	ErrUnknownRole    = errors.New("unknown role")
	ErrMissingID      = errors.New("identity has no id")
	ErrMissingEmail   = errors.New("identity has no email")
	ErrMalformedEmail = errors.New("identity email is malformed")
)

// Identity is the authenticated user's profile as returned by the
// Authentication Service.
type Identity struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Role           Role   `json:"role"`
	Name           string `json:"name,omitempty"`
	ProfileUpdated bool   `json:"profile_updated"`
	Status         Status `json:"status,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Address        string `json:"address,omitempty"`
}

// UnmarshalJSON also accepts the camelCase "profileUpdated" spelling
// some endpoints use. Either flag set to true wins.
func (id *Identity) UnmarshalJSON(data []byte) error {
	type plain Identity
	var aux struct {
		plain
		ProfileUpdatedCamel *bool `json:"profileUpdated"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*id = Identity(aux.plain)
	if aux.ProfileUpdatedCamel != nil && *aux.ProfileUpdatedCamel {
		id.ProfileUpdated = true
	}
	return nil
}

// Validate reports whether the identity is complete enough to hold a
// session.
func (id Identity) Validate() error {
	if strings.TrimSpace(id.ID) == "" {
		return ErrMissingID
	}
	if strings.TrimSpace(id.Email) == "" {
		return ErrMissingEmail
	}
	if !strings.Contains(id.Email, "@") {
		return fmt.Errorf("%w: %q", ErrMalformedEmail, id.Email)
	}
	if !id.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRole, string(id.Role))
	}
	return nil
}

// IsAdmin reports whether the identity passes admin checks.
func (id Identity) IsAdmin() bool {
	return id.Role.IsAdmin()
}

// NeedsProfileSetup reports whether the user must complete mandatory
// profile setup before reaching a dashboard. Admins are exempt.
func (id Identity) NeedsProfileSetup() bool {
	return !id.ProfileUpdated && !id.IsAdmin()
}

// HomeRoute returns where the user lands after authenticating.
func (id Identity) HomeRoute() string {
	if id.NeedsProfileSetup() {
		return "/update-profile"
	}
	return id.Role.HomeRoute()
}

// DisplayName returns the name to show for the user. When the backend
// has no name on file, the email local part is title-cased:
// "mary.ann_smith@x" becomes "Mary Ann Smith".
func (id Identity) DisplayName() string {
	if name := strings.TrimSpace(id.Name); name != "" {
		return name
	}
	local, _, _ := strings.Cut(id.Email, "@")
	words := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(words) == 0 {
		return "User"
	}
	return cases.Title(language.English).String(strings.Join(words, " "))
}

// =============================================================================
// PROFILE PATCH
// =============================================================================

// Patch is a partial profile update. Nil fields are left unchanged.
// Role and ID are not patchable.
type Patch struct {
	Name           *string `json:"name,omitempty"`
	Email          *string `json:"email,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	Address        *string `json:"address,omitempty"`
	Status         *Status `json:"status,omitempty"`
	ProfileUpdated *bool   `json:"profile_updated,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil &&
		p.Address == nil && p.Status == nil && p.ProfileUpdated == nil
}

// Apply returns a copy of id with the patch merged in.
func (id Identity) Apply(p Patch) Identity {
	if p.Name != nil {
		id.Name = *p.Name
	}
	if p.Email != nil {
		id.Email = *p.Email
	}
	if p.Phone != nil {
		id.Phone = *p.Phone
	}
	if p.Address != nil {
		id.Address = *p.Address
	}
	if p.Status != nil {
		id.Status = *p.Status
	}
	if p.ProfileUpdated != nil {
		id.ProfileUpdated = *p.ProfileUpdated
	}
	return id
}

// String returns a short description safe for logs.
func (id Identity) String() string {
	return fmt.Sprintf("%s (%s, %s)", id.ID, id.Email, id.Role)
}
