// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rkids-tui/internal/identity"
)

// =============================================================================
// KV BACKEND TESTS
// =============================================================================

func backends(t *testing.T) map[string]KV {
	t.Helper()
	dir := t.TempDir()

	file, err := NewFileStore(filepath.Join(dir, "session.json"))
	require.NoError(t, err)
	sqlite, err := NewSQLiteStore(filepath.Join(dir, "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]KV{
		BackendFile:   file,
		BackendSQLite: sqlite,
		BackendMemory: NewMemoryStore(),
	}
}

func TestKV_SetGetDelete(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := kv.Get("missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, kv.Set(map[string]string{"a": "1", "b": "2"}))
			v, ok, err := kv.Get("a")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "1", v)

			require.NoError(t, kv.Set(map[string]string{"a": "3"}))
			v, _, _ = kv.Get("a")
			assert.Equal(t, "3", v)

			require.NoError(t, kv.Delete("a", "b", "never-set"))
			_, ok, _ = kv.Get("a")
			assert.False(t, ok)
			_, ok, _ = kv.Get("b")
			assert.False(t, ok)
		})
	}
}

func TestFileStore_PersistsWithOwnerOnlyMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(map[string]string{KeyCredential: "tok"}))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	v, ok, err := reopened.Get(KeyCredential)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", v)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"user": "half-writ`), 0600))

	s, err := NewFileStore(path)
	require.NoError(t, err)

	_, _, err = s.Get(KeyIdentity)
	assert.ErrorIs(t, err, ErrCorrupt)

	// Writes replace the corrupt file.
	require.NoError(t, s.Set(map[string]string{"k": "v"}))
	v, ok, err := s.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(map[string]string{KeyIdentity: "{}", KeyCredential: "tok"}))
	require.NoError(t, s.Close())

	s2, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer s2.Close()

	v, ok, err := s2.Get(KeyCredential)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", v)
}

func TestClosedStores(t *testing.T) {
	m := NewMemoryStore()
	require.NoError(t, m.Close())
	_, _, err := m.Get("x")
	assert.ErrorIs(t, err, ErrClosed)

	f, err := NewFileStore(filepath.Join(t.TempDir(), "s.json"))
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.ErrorIs(t, f.Set(map[string]string{"a": "b"}), ErrClosed)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	kv, err := Open(BackendFile, filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, kv)

	kv, err = Open(BackendSQLite, filepath.Join(dir, "a.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, kv)
	kv.Close()

	kv, err = Open(BackendMemory, "")
	require.NoError(t, err)
	assert.Equal(t, "", kv.Path())

	_, err = Open("redis", filepath.Join(dir, "x"))
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandPath("~/.rkids/session.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".rkids", "session.json"), got)

	got, err = ExpandPath("/tmp/x")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x", got)

	_, err = ExpandPath("")
	assert.Error(t, err)
}

// =============================================================================
// SESSION STORE TESTS
// =============================================================================

var testIdentity = identity.Identity{
	ID:             "u-7",
	Email:          "teacher@rkids.church",
	Role:           identity.RoleTeacher,
	Name:           "Sarah Teacher",
	ProfileUpdated: true,
}

func TestSessionStore_RoundTrip(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := NewSessionStore(kv, nil)

			_, _, err := s.Load()
			assert.ErrorIs(t, err, ErrNoSession)

			require.NoError(t, s.Save(testIdentity, identity.Credential("cred-1")))
			id, cred, err := s.Load()
			require.NoError(t, err)
			assert.Equal(t, testIdentity, id)
			assert.Equal(t, "cred-1", cred.Reveal())

			raw, _, _ := kv.Get(KeyCredential)
			assert.Equal(t, "cred-1", raw, "credential is stored raw under its own key")

			require.NoError(t, s.Clear())
			_, _, err = s.Load()
			assert.ErrorIs(t, err, ErrNoSession)
			_, ok := s.Credential()
			assert.False(t, ok)
		})
	}
}

func TestSessionStore_SaveIdentityKeepsCredential(t *testing.T) {
	s := NewSessionStore(NewMemoryStore(), nil)
	require.NoError(t, s.Save(testIdentity, "cred"))

	updated := testIdentity
	updated.Phone = "555-0100"
	require.NoError(t, s.SaveIdentity(updated))

	id, cred, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "555-0100", id.Phone)
	assert.Equal(t, "cred", cred.Reveal())
}

func TestSessionStore_CorruptSnapshot(t *testing.T) {
	cases := map[string]string{
		"truncated":    `{"id":"u-7","email":"t@r`,
		"not json":     `definitely not json`,
		"unknown role": `{"id":"u-7","email":"t@rkids.church","role":"janitor"}`,
		"missing id":   `{"email":"t@rkids.church","role":"teen"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			kv := NewMemoryStore()
			require.NoError(t, kv.Set(map[string]string{KeyIdentity: raw, KeyCredential: "tok"}))

			_, _, err := NewSessionStore(kv, nil).Load()
			assert.True(t, IsCorrupt(err), "got %v", err)
		})
	}
}

func TestSessionStore_IdentityWithoutCredential(t *testing.T) {
	kv := NewMemoryStore()
	s := NewSessionStore(kv, nil)
	require.NoError(t, s.SaveIdentity(testIdentity))

	_, _, err := s.Load()
	assert.ErrorIs(t, err, ErrPartialSession)
	assert.ErrorIs(t, err, ErrNoSession, "callers that only care about absence still match")

	require.NoError(t, s.Clear())
	_, _, err = s.Load()
	assert.ErrorIs(t, err, ErrNoSession)
	assert.NotErrorIs(t, err, ErrPartialSession)
}

// =============================================================================
// WATCH TESTS
// =============================================================================

func TestWatch_ReportsExternalWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	ours, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, ours.Set(map[string]string{KeyCredential: "tok"}))

	changed := make(chan struct{}, 4)
	w, err := Watch(context.Background(), path, 20*time.Millisecond, nil, func() {
		changed <- struct{}{}
	})
	require.NoError(t, err)
	defer w.Close()

	other, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, other.Delete(KeyCredential))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the external delete")
	}

	_, ok, err := ours.Get(KeyCredential)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWatch_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.json")

	changed := make(chan struct{}, 1)
	w, err := Watch(context.Background(), path, 10*time.Millisecond, nil, func() {
		changed <- struct{}{}
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0600))

	select {
	case <-changed:
		t.Fatal("unrelated file triggered a change")
	case <-time.After(200 * time.Millisecond):
	}
}
