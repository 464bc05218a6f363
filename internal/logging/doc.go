// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the process-wide slog logger.
//
// Output goes to a size-rotated file (~/.rkids/rkids.log by default) so
// the terminal UI owns stdout. Every attribute passes through a redaction
// hook: keys that name secrets are replaced outright and string values
// are scrubbed for bearer tokens, JWTs, and password assignments.
//
// # Usage
//
//	logger, closer, err := logging.New(logging.Options{Level: "info", Path: path})
//	if err != nil {
//	    return err
//	}
//	defer closer.Close()
//	slog.SetDefault(logger)
package logging
