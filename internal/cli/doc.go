// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-interactive
// commands of rkids.
//
// # Key Types
//
//   - Command: Enumeration of the available commands
//   - Args: Parsed global flags and the remaining arguments
//   - Runtime: The store, service client and activity hub behind a
//     session manager, shared with the terminal UI
//   - Prompter: Interactive input; LinePrompter adds line editing and
//     email history on a terminal
//
// # Usage
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdLogin:
//	    err = cli.HandleLogin(args)
//	case cli.CmdStatus:
//	    err = cli.HandleStatus(args)
//	// ... other commands
//	}
//
// All commands accept --json for scripted use. "rkids help TOPIC" prints
// long-form help rendered from markdown.
package cli
