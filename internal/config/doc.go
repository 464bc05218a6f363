// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for rkids.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - APIConfig: Authentication service client settings
//   - SessionConfig: Idle timeout policy and test mode
//   - StorageConfig: Session store backend and location
//   - LoggingConfig: Diagnostic log level, format, and path
//   - DemoConfig: Local demo authentication service
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (RKIDS_*)
//   - ~/.rkids/config.toml
//   - ~/.rkids/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	mgr, err := session.New(cfg.SessionConfig(), deps)
package config
