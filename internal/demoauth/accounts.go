// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package demoauth

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jeranaias/rkids-tui/internal/identity"
)

// DemoPassword is the password of every seeded account that has one.
const DemoPassword = "password123"

// AccountSpec seeds one account. An empty Password leaves the account
// in the pending_password state until set-password is called with the
// matching Invitation.
type AccountSpec struct {
	ID             string `toml:"id"`
	Email          string `toml:"email"`
	Password       string `toml:"password"`
	Role           string `toml:"role"`
	Name           string `toml:"name"`
	ProfileUpdated bool   `toml:"profile_updated"`
	Status         string `toml:"status"`
	Invitation     string `toml:"invitation"`
}

// DefaultAccounts returns the demo roster.
func DefaultAccounts() []AccountSpec {
	return []AccountSpec{
		{ID: "1", Email: "admin@rkids.church", Password: DemoPassword, Role: "admin", Name: "Admin User", ProfileUpdated: true},
		{ID: "2", Email: "teacher@rkids.church", Password: DemoPassword, Role: "teacher", Name: "Sarah Teacher", ProfileUpdated: true},
		{ID: "3", Email: "parent@rkids.church", Password: DemoPassword, Role: "parent", Name: "John Parent", ProfileUpdated: true},
		{ID: "4", Email: "teen@rkids.church", Password: DemoPassword, Role: "teen", Name: "Mike Teen", ProfileUpdated: true},
		{ID: "5", Email: "super@rkids.church", Password: DemoPassword, Role: "superadmin", Name: "Pastor Super"},
		{ID: "6", Email: "new.parent@rkids.church", Role: "parent", Invitation: "welcome-6", Status: string(identity.StatusPendingPassword)},
		{ID: "7", Email: "former@rkids.church", Password: DemoPassword, Role: "teacher", Status: string(identity.StatusSuspended)},
	}
}

type account struct {
	identity     identity.Identity
	passwordHash []byte
	invitation   string
}

func (a *account) hasPassword() bool {
	return len(a.passwordHash) > 0
}

func (a *account) checkPassword(password string) bool {
	if !a.hasPassword() {
		return false
	}
	return bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) == nil
}

// hashCost is low on purpose: demo accounts are rebuilt at every start.
const hashCost = bcrypt.MinCost

func newAccount(spec AccountSpec) (*account, error) {
	role, err := identity.ParseRole(spec.Role)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", spec.Email, err)
	}
	email := strings.ToLower(strings.TrimSpace(spec.Email))
	id := spec.ID
	if id == "" {
		id = uuid.NewString()
	}

	status := identity.Status(spec.Status)
	if status == "" {
		status = identity.StatusActive
		if spec.Password == "" {
			status = identity.StatusPendingPassword
		}
	}

	acct := &account{
		identity: identity.Identity{
			ID:             id,
			Email:          email,
			Role:           role,
			Name:           spec.Name,
			ProfileUpdated: spec.ProfileUpdated,
			Status:         status,
		},
		invitation: spec.Invitation,
	}
	if err := acct.identity.Validate(); err != nil {
		return nil, fmt.Errorf("account %s: %w", spec.Email, err)
	}
	if spec.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(spec.Password), hashCost)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", spec.Email, err)
		}
		acct.passwordHash = hash
	}
	return acct, nil
}
