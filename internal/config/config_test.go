// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rkids-tui/internal/demoauth"
	"github.com/jeranaias/rkids-tui/internal/storage"
)

// withHome points the config directory at a temp dir.
func withHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	return home
}

func writeConfig(t *testing.T, home, body string) string {
	t.Helper()
	dir := filepath.Join(home, ".rkids")
	require.NoError(t, os.MkdirAll(dir, 0700))
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 15*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, time.Minute, cfg.Session.WarningLead)
	assert.False(t, cfg.Session.TestMode)
	assert.Equal(t, storage.BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "http://localhost:5000/api", cfg.API.BaseURL)
}

func TestLoadWithoutFile(t *testing.T) {
	withHome(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadTOML(t *testing.T) {
	home := withHome(t)
	path := writeConfig(t, home, `
[api]
base_url = "https://checkin.example.org/api/"

[session]
idle_timeout = "20m"
warning_lead = "2m"

[storage]
backend = "SQLite"

[[demo.accounts]]
id = "10"
email = "volunteer@rkids.church"
role = "teacher"
password = "password123"
`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://checkin.example.org/api", cfg.API.BaseURL)
	assert.Equal(t, 20*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Session.WarningLead)
	assert.Equal(t, 5*time.Second, cfg.Session.LogoutTimeout, "unset keys keep defaults")
	assert.Equal(t, storage.BackendSQLite, cfg.Storage.Backend)
	require.Len(t, cfg.Demo.Accounts, 1)
	assert.Equal(t, "volunteer@rkids.church", cfg.Demo.Accounts[0].Email)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "permissions are narrowed on load")

	storePath, err := cfg.StoragePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".rkids", "session.db"), storePath)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	home := withHome(t)
	writeConfig(t, home, "[session]\nidle_timout = \"20m\"\n")

	cfg, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.idle_timout")
	assert.Equal(t, Default(), cfg, "a bad file falls back to defaults")
}

func TestLoadInvalidValues(t *testing.T) {
	home := withHome(t)
	writeConfig(t, home, "[session]\nidle_timeout = \"1m\"\nwarning_lead = \"2m\"\n")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "warning lead")
}

func TestEnvOverrides(t *testing.T) {
	home := withHome(t)
	writeConfig(t, home, "[session]\nidle_timeout = \"20m\"\n")

	t.Setenv("RKIDS_API_BASE_URL", "http://127.0.0.1:9999/api")
	t.Setenv("RKIDS_IDLE_TIMEOUT", "10m")
	t.Setenv("RKIDS_WARNING_LEAD", "30s")
	t.Setenv("RKIDS_TEST_MODE", "true")
	t.Setenv("RKIDS_STORAGE_BACKEND", "memory")
	t.Setenv("RKIDS_LOG_LEVEL", "debug")
	t.Setenv("RKIDS_DEMO_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9999/api", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Minute, cfg.Session.IdleTimeout, "environment beats the file")
	assert.Equal(t, 30*time.Second, cfg.Session.WarningLead)
	assert.True(t, cfg.Session.TestMode)
	assert.True(t, cfg.SessionConfig().TestMode)
	assert.Equal(t, storage.BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, []byte("s3cret"), cfg.DemoConfig().Secret)
}

func TestEnvOverrideParseError(t *testing.T) {
	withHome(t)
	t.Setenv("RKIDS_IDLE_TIMEOUT", "forever")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"relative url", func(c *Config) { c.API.BaseURL = "/api" }, "api.base_url"},
		{"ftp url", func(c *Config) { c.API.BaseURL = "ftp://host/api" }, "api.base_url"},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }, "api.timeout"},
		{"negative rps", func(c *Config) { c.API.RequestsPerSecond = -1 }, "api.requests_per_second"},
		{"backend", func(c *Config) { c.Storage.Backend = "redis" }, "storage.backend"},
		{"level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"lead", func(c *Config) { c.Session.WarningLead = c.Session.IdleTimeout }, "session"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var verrs ValidateErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

func TestSaveAndLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")

	cfg := Default()
	cfg.Session.IdleTimeout = 25 * time.Minute
	cfg.Demo.Secret = "hunter2"
	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 25*time.Minute, loaded.Session.IdleTimeout)
	assert.Equal(t, "hunter2", loaded.Demo.Secret)

	jsonPath := filepath.Join(dir, "config.json")
	require.NoError(t, SaveJSON(cfg, jsonPath))
	fromJSON, err := LoadFromPath(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, cfg.Session, fromJSON.Session)
}

func TestStringRedactsSecrets(t *testing.T) {
	cfg := Default()
	cfg.Demo.Secret = "hunter2"
	cfg.Demo.Accounts = demoauth.DefaultAccounts()

	out := cfg.String()
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, demoauth.DemoPassword)
	assert.NotContains(t, out, "welcome-6")
	assert.Contains(t, out, "[REDACTED]")
	assert.Equal(t, "hunter2", cfg.Demo.Secret, "original is untouched")
	assert.Equal(t, demoauth.DemoPassword, cfg.Demo.Accounts[0].Password)
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	v, err := cfg.Get("session.idle_timeout")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, v)

	require.NoError(t, cfg.Set("session.idle_timeout", "20m"))
	assert.Equal(t, 20*time.Minute, cfg.Session.IdleTimeout)

	require.NoError(t, cfg.Set("session.test_mode", "true"))
	assert.True(t, cfg.Session.TestMode)

	require.NoError(t, cfg.Set("api.burst", "3"))
	assert.Equal(t, 3, cfg.API.Burst)

	require.NoError(t, cfg.Set("storage.backend", "sqlite"))
	assert.Equal(t, "sqlite", cfg.Storage.Backend)

	_, err = cfg.Get("session.nope")
	assert.Error(t, err)
	assert.Error(t, cfg.Set("session.idle_timeout", "soon"))
	assert.Error(t, cfg.Set("api.base_url.host", "x"))
}

func TestGetAllKeys(t *testing.T) {
	keys := GetAllKeys()
	assert.Contains(t, keys, "api.base_url")
	assert.Contains(t, keys, "session.idle_timeout")
	assert.Contains(t, keys, "storage.backend")
	assert.Contains(t, keys, "demo.secret")
	assert.NotContains(t, keys, "demo.accounts")

	cfg := Default()
	for _, k := range keys {
		_, err := cfg.Get(k)
		assert.NoError(t, err, k)
	}
}

func TestDemoConfig(t *testing.T) {
	cfg := Default()
	cfg.Demo.MFA = false
	demo := cfg.DemoConfig()
	assert.False(t, demo.RequireMFA)
	assert.True(t, demo.ExposeCode)
	assert.Nil(t, demo.Accounts, "nil uses the built-in roster")
}

func TestLogPath(t *testing.T) {
	home := withHome(t)
	cfg := Default()
	p, err := cfg.LogPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".rkids", "rkids.log"), p)

	cfg.Logging.Path = "~/logs/x.log"
	p, err = cfg.LogPath()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p, home))
}
