// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides durable local key-value storage for the
// signed-in session.
//
// Exactly two keys are owned by the session manager: the serialized
// Identity snapshot ("user") and the raw Credential ("auth_token").
// Both are written and cleared together through SessionStore.
//
// # Backends
//
//   - FileStore: a single JSON object written atomically with mode 0600
//   - SQLiteStore: a kv table in a local SQLite database (pure Go driver)
//   - MemoryStore: in-process only, for tests and --ephemeral runs
//
// # Usage
//
//	kv, err := storage.Open(storage.BackendFile, "~/.rkids/session.json")
//	if err != nil {
//	    return err
//	}
//	sessions := storage.NewSessionStore(kv, logger)
//	id, cred, err := sessions.Load()
//
// # External Changes
//
// Watch reports writes by other processes, so that a logout performed
// with "rkids logout" in another terminal tears down a running console.
package storage
