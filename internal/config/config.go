// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/jeranaias/rkids-tui/internal/demoauth"
	"github.com/jeranaias/rkids-tui/internal/session"
	"github.com/jeranaias/rkids-tui/internal/storage"
	"github.com/jeranaias/rkids-tui/internal/util"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RKIDS_"

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = "1"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete rkids configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Authentication service client
	API APIConfig `toml:"api" json:"api"`

	// Idle policy
	Session SessionConfig `toml:"session" json:"session"`

	// Where the signed-in identity and credential live
	Storage StorageConfig `toml:"storage" json:"storage"`

	Logging LoggingConfig `toml:"logging" json:"logging"`

	// Local demo authentication service
	Demo DemoConfig `toml:"demo" json:"demo"`
}

// APIConfig configures the authentication service client.
type APIConfig struct {
	BaseURL           string        `toml:"base_url" json:"base_url" env:"API_BASE_URL"`
	Timeout           time.Duration `toml:"timeout" json:"timeout" env:"API_TIMEOUT"`
	RequestsPerSecond float64       `toml:"requests_per_second" json:"requests_per_second" env:"API_REQUESTS_PER_SECOND"`
	Burst             int           `toml:"burst" json:"burst" env:"API_BURST"`
}

// SessionConfig configures the idle policy.
type SessionConfig struct {
	IdleTimeout   time.Duration `toml:"idle_timeout" json:"idle_timeout" env:"IDLE_TIMEOUT"`
	WarningLead   time.Duration `toml:"warning_lead" json:"warning_lead" env:"WARNING_LEAD"`
	LogoutTimeout time.Duration `toml:"logout_timeout" json:"logout_timeout" env:"LOGOUT_TIMEOUT"`

	// TestMode enables the role switcher. Never enable in production.
	TestMode bool `toml:"test_mode" json:"test_mode" env:"TEST_MODE"`
}

// StorageConfig selects the session store.
type StorageConfig struct {
	// Backend is "file", "sqlite", or "memory".
	Backend string `toml:"backend" json:"backend" env:"STORAGE_BACKEND"`

	// Path defaults to session.json or session.db in the config dir.
	Path string `toml:"path" json:"path" env:"STORAGE_PATH"`

	// Watch follows changes made by other rkids processes.
	Watch bool `toml:"watch" json:"watch" env:"STORAGE_WATCH"`
}

// LoggingConfig configures the diagnostic log.
type LoggingConfig struct {
	Level  string `toml:"level" json:"level" env:"LOG_LEVEL"`
	Format string `toml:"format" json:"format" env:"LOG_FORMAT"`
	Path   string `toml:"path" json:"path" env:"LOG_PATH"`
}

// DemoConfig configures `rkids demo-server`.
type DemoConfig struct {
	Addr     string                 `toml:"addr" json:"addr" env:"DEMO_ADDR"`
	Secret   string                 `toml:"secret" json:"secret" env:"DEMO_SECRET"`
	MFA      bool                   `toml:"mfa" json:"mfa" env:"DEMO_MFA"`
	CodeTTL  time.Duration          `toml:"code_ttl" json:"code_ttl" env:"DEMO_CODE_TTL"`
	Accounts []demoauth.AccountSpec `toml:"accounts,omitempty" json:"accounts,omitempty"`
}

// =============================================================================
// DEFAULT CONFIG
// =============================================================================

// Default returns a configuration with the reference defaults.
func Default() *Config {
	sess := session.DefaultConfig()
	return &Config{
		Version: CurrentVersion,
		API: APIConfig{
			BaseURL:           "http://localhost:5000/api",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 5,
			Burst:             10,
		},
		Session: SessionConfig{
			IdleTimeout:   sess.IdleTimeout,
			WarningLead:   sess.WarningLead,
			LogoutTimeout: sess.LogoutTimeout,
		},
		Storage: StorageConfig{
			Backend: storage.BackendFile,
			Watch:   true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Demo: DemoConfig{
			Addr:    demoauth.DefaultAddr,
			MFA:     true,
			CodeTTL: demoauth.DefaultCodeTTL,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the rkids configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".rkids"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ensureSecurePermissions narrows a config file to 0600. It may hold
// the demo signing secret.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads ~/.rkids/config.toml, falling back to config.json and then
// to defaults. Environment overrides are applied last. A file that
// fails to parse is reported alongside the defaults.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	for _, candidate := range []struct {
		path func() (string, error)
		load func(*Config, string) error
	}{
		{ConfigPathTOML, LoadTOML},
		{ConfigPathJSON, LoadJSON},
	} {
		path, err := candidate.path()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		if err := candidate.load(cfg, path); err != nil {
			loadErr = fmt.Errorf("failed to load config %s: %w", path, err)
			cfg = Default()
			continue
		}
		if err := cfg.finish(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// LoadFromPath loads configuration from a specific file path with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	load := LoadTOML
	if strings.HasSuffix(path, ".json") {
		load = LoadJSON
	}
	if err := load(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) finish() error {
	if err := c.ApplyEnvOverrides(); err != nil {
		return err
	}
	if err := c.Migrate(); err != nil {
		return fmt.Errorf("config migration failed: %w", err)
	}
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML atomically writes cfg as TOML with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# rkids configuration file\n")
	buf.WriteString("# Durations use Go syntax: \"15m\", \"30s\".\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, buf.Bytes(), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON atomically writes cfg as JSON with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, data, 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	validBackends   = map[string]bool{storage.BackendFile: true, storage.BackendSQLite: true, storage.BackendMemory: true}
	validLogLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validLogFormats = map[string]bool{"text": true, "json": true}
)

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// API
	if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "api.base_url",
			Message: fmt.Sprintf("must be an absolute http(s) URL, got %q", c.API.BaseURL),
		})
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, ValidationError{Field: "api.timeout", Message: "must be positive"})
	}
	if c.API.RequestsPerSecond < 0 {
		errs = append(errs, ValidationError{Field: "api.requests_per_second", Message: "cannot be negative"})
	}
	if c.API.Burst < 0 {
		errs = append(errs, ValidationError{Field: "api.burst", Message: "cannot be negative"})
	}

	// Session
	if err := c.SessionConfig().Validate(); err != nil {
		errs = append(errs, ValidationError{Field: "session", Message: err.Error()})
	}
	if c.Session.LogoutTimeout < 0 {
		errs = append(errs, ValidationError{Field: "session.logout_timeout", Message: "cannot be negative"})
	}

	// Storage
	if !validBackends[c.Storage.Backend] {
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: file, sqlite, memory", c.Storage.Backend),
		})
	}

	// Logging
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Logging.Level),
		})
	}
	if !validLogFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid format '%s', must be one of: text, json", c.Logging.Format),
		})
	}

	// Demo
	if c.Demo.CodeTTL <= 0 {
		errs = append(errs, ValidationError{Field: "demo.code_ttl", Message: "must be positive"})
	}
	for i, acct := range c.Demo.Accounts {
		if acct.ID == "" || !strings.Contains(acct.Email, "@") {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("demo.accounts[%d]", i),
				Message: "needs an id and an email",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values left by a partial file.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Version == "" {
		c.Version = d.Version
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = d.API.BaseURL
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.Timeout == 0 {
		c.API.Timeout = d.API.Timeout
	}
	if c.Session.IdleTimeout == 0 {
		c.Session.IdleTimeout = d.Session.IdleTimeout
	}
	if c.Session.WarningLead == 0 {
		c.Session.WarningLead = d.Session.WarningLead
	}
	if c.Session.LogoutTimeout == 0 {
		c.Session.LogoutTimeout = d.Session.LogoutTimeout
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	c.Storage.Backend = strings.ToLower(c.Storage.Backend)
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = d.Logging.Format
	}
	if c.Demo.Addr == "" {
		c.Demo.Addr = d.Demo.Addr
	}
	if c.Demo.CodeTTL == 0 {
		c.Demo.CodeTTL = d.Demo.CodeTTL
	}
}

// Migrate upgrades older config versions in place.
func (c *Config) Migrate() error {
	switch c.Version {
	case "", CurrentVersion:
		c.Version = CurrentVersion
		return nil
	default:
		return fmt.Errorf("unsupported config version %q", c.Version)
	}
}

// =============================================================================
// DERIVED SETTINGS
// =============================================================================

// SessionConfig converts the [session] table for the session manager.
func (c *Config) SessionConfig() session.Config {
	return session.Config{
		IdleTimeout:   c.Session.IdleTimeout,
		WarningLead:   c.Session.WarningLead,
		LogoutTimeout: c.Session.LogoutTimeout,
		TestMode:      c.Session.TestMode,
	}
}

// StoragePath returns the session store location, defaulting by backend.
func (c *Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return storage.ExpandPath(c.Storage.Path)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	switch c.Storage.Backend {
	case storage.BackendSQLite:
		return filepath.Join(dir, "session.db"), nil
	case storage.BackendMemory:
		return "", nil
	default:
		return filepath.Join(dir, "session.json"), nil
	}
}

// LogPath returns the diagnostic log location.
func (c *Config) LogPath() (string, error) {
	if c.Logging.Path != "" {
		return storage.ExpandPath(c.Logging.Path)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "rkids.log"), nil
}

// DemoConfig converts the [demo] table for the demo service.
func (c *Config) DemoConfig() demoauth.Config {
	cfg := demoauth.DefaultConfig()
	cfg.RequireMFA = c.Demo.MFA
	cfg.CodeTTL = c.Demo.CodeTTL
	if c.Demo.Secret != "" {
		cfg.Secret = []byte(c.Demo.Secret)
	}
	if len(c.Demo.Accounts) > 0 {
		cfg.Accounts = append([]demoauth.AccountSpec(nil), c.Demo.Accounts...)
	}
	return cfg
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies RKIDS_* environment variables. Only set
// variables change the config.
//
// Supported environment variables:
//   - RKIDS_API_BASE_URL, RKIDS_API_TIMEOUT
//   - RKIDS_API_REQUESTS_PER_SECOND, RKIDS_API_BURST
//   - RKIDS_IDLE_TIMEOUT, RKIDS_WARNING_LEAD, RKIDS_LOGOUT_TIMEOUT
//   - RKIDS_TEST_MODE
//   - RKIDS_STORAGE_BACKEND, RKIDS_STORAGE_PATH, RKIDS_STORAGE_WATCH
//   - RKIDS_LOG_LEVEL, RKIDS_LOG_FORMAT, RKIDS_LOG_PATH
//   - RKIDS_DEMO_ADDR, RKIDS_DEMO_SECRET, RKIDS_DEMO_MFA, RKIDS_DEMO_CODE_TTL
func (c *Config) ApplyEnvOverrides() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}
	return nil
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "session.idle_timeout").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "storage.backend").
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		result.WriteString(strings.ToUpper(part[:1]))
		result.WriteString(strings.ToLower(part[1:]))
	}
	return result.String()
}

var durationType = reflect.TypeOf(time.Duration(0))

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		if field.Type() == durationType {
			d, err := time.ParseDuration(strVal)
			if err != nil {
				return fmt.Errorf("invalid duration value: %v", err)
			}
			field.SetInt(int64(d))
			return nil
		}
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(strVal)
			if err != nil {
				boolVal = strings.EqualFold(strVal, "yes")
			}
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && val.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all scalar configuration keys in dot notation.
func GetAllKeys() []string {
	var keys []string
	collectKeys(reflect.TypeOf(Config{}), "", &keys)
	return keys
}

func collectKeys(t reflect.Type, prefix string, keys *[]string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "" || name == "-" {
			continue
		}
		key := prefix + name
		switch {
		case f.Type.Kind() == reflect.Struct:
			collectKeys(f.Type, key+".", keys)
		case f.Type.Kind() == reflect.Slice:
			// Tables such as demo.accounts are edited in the file.
		default:
			*keys = append(*keys, key)
		}
	}
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Demo.Accounts != nil {
		clone.Demo.Accounts = append([]demoauth.AccountSpec(nil), c.Demo.Accounts...)
	}
	return &clone
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	safe := c.Clone()
	if safe.Demo.Secret != "" {
		safe.Demo.Secret = "[REDACTED]"
	}
	for i := range safe.Demo.Accounts {
		if safe.Demo.Accounts[i].Password != "" {
			safe.Demo.Accounts[i].Password = "[REDACTED]"
		}
		if safe.Demo.Accounts[i].Invitation != "" {
			safe.Demo.Accounts[i].Invitation = "[REDACTED]"
		}
	}
	return safe
}

// String returns the config as TOML with secrets redacted.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c.Redacted()); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return buf.String()
}
