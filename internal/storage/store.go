// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Keys owned by the session manager.
const (
	KeyIdentity   = "user"
	KeyCredential = "auth_token"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

var (
	// ErrCorrupt is returned when stored data cannot be decoded.
	ErrCorrupt = errors.New("stored session data is corrupt")

	// ErrNoSession is returned by SessionStore.Load when nothing is stored.
	ErrNoSession = errors.New("no stored session")

	// ErrPartialSession is returned by SessionStore.Load when an identity
	// snapshot is stored without its credential. It matches ErrNoSession.
	ErrPartialSession = fmt.Errorf("%w: identity without credential", ErrNoSession)

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("store is closed")

	// ErrUnknownBackend is returned by Open for an unsupported backend.
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// KV is a small durable string map.
type KV interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool, error)

	// Set writes every entry in one atomic step.
	Set(entries map[string]string) error

	// Delete removes the keys in one atomic step. Missing keys are ignored.
	Delete(keys ...string) error

	// Path returns the on-disk location, or "" for in-memory stores.
	Path() string

	Close() error
}

// Open returns the KV for backend at path. A leading "~/" in path is
// expanded to the user's home directory.
func Open(backend, path string) (KV, error) {
	if backend != BackendMemory {
		expanded, err := ExpandPath(path)
		if err != nil {
			return nil, err
		}
		path = expanded
	}

	switch backend {
	case BackendFile, "":
		return NewFileStore(path)
	case BackendSQLite:
		return NewSQLiteStore(path)
	case BackendMemory:
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
}

// ExpandPath expands a leading "~/" to the home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", errors.New("storage path is empty")
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}

// =============================================================================
// MEMORY STORE
// =============================================================================

// MemoryStore is a KV held in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	data   map[string]string
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", false, ErrClosed
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(entries map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for k, v := range entries {
		s.data[k] = v
	}
	return nil
}

func (s *MemoryStore) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

func (s *MemoryStore) Path() string { return "" }

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
