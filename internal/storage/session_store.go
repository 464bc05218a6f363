// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jeranaias/rkids-tui/internal/identity"
)

// =============================================================================
// SESSION STORE
// =============================================================================

// SessionStore persists the Identity snapshot and the Credential under
// their own keys in a KV.
type SessionStore struct {
	kv     KV
	logger *slog.Logger
}

// NewSessionStore wraps kv. A nil logger discards output.
func NewSessionStore(kv KV, logger *slog.Logger) *SessionStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SessionStore{kv: kv, logger: logger}
}

// KV returns the underlying store.
func (s *SessionStore) KV() KV {
	return s.kv
}

// Load returns the stored identity and credential. It returns
// ErrNoSession when nothing is stored, ErrPartialSession when only the
// identity is, and an error wrapping ErrCorrupt when the snapshot
// cannot be decoded or fails validation.
func (s *SessionStore) Load() (identity.Identity, identity.Credential, error) {
	raw, ok, err := s.kv.Get(KeyIdentity)
	if err != nil {
		return identity.Identity{}, "", err
	}
	if !ok {
		return identity.Identity{}, "", ErrNoSession
	}

	id, err := DecodeIdentity(raw)
	if err != nil {
		return identity.Identity{}, "", err
	}

	token, ok, err := s.kv.Get(KeyCredential)
	if err != nil {
		return identity.Identity{}, "", err
	}
	if !ok || token == "" {
		return identity.Identity{}, "", ErrPartialSession
	}

	return id, identity.Credential(token), nil
}

// Credential returns the stored credential, if any. Read errors are
// reported as absence.
func (s *SessionStore) Credential() (identity.Credential, bool) {
	token, ok, err := s.kv.Get(KeyCredential)
	if err != nil {
		s.logger.Debug("credential read failed", "error", err)
		return "", false
	}
	if !ok || token == "" {
		return "", false
	}
	return identity.Credential(token), true
}

// Save writes both keys in one step.
func (s *SessionStore) Save(id identity.Identity, cred identity.Credential) error {
	raw, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}
	return s.kv.Set(map[string]string{
		KeyIdentity:   string(raw),
		KeyCredential: cred.Reveal(),
	})
}

// SaveIdentity rewrites the identity snapshot, leaving the credential
// untouched.
func (s *SessionStore) SaveIdentity(id identity.Identity) error {
	raw, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}
	return s.kv.Set(map[string]string{KeyIdentity: string(raw)})
}

// Clear removes both keys together.
func (s *SessionStore) Clear() error {
	return s.kv.Delete(KeyIdentity, KeyCredential)
}

// DecodeIdentity parses and validates a stored identity snapshot.
func DecodeIdentity(raw string) (identity.Identity, error) {
	var id identity.Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return identity.Identity{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := id.Validate(); err != nil {
		return identity.Identity{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return id, nil
}

// IsCorrupt reports whether err stems from undecodable stored data.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrCorrupt)
}
