// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across rkids.
//
// # Key Functions
//
// String Utilities:
//   - TruncateWidth: terminal-cell aware truncation with ellipsis
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//   - AtomicWriteFileWithDir: the same, creating parents with a given mode
//
// # Usage
//
//	name := util.TruncateWidth(identity.DisplayName(), 24)
//	err := util.AtomicWriteFileWithDir(path, data, 0600, 0700)
package util
