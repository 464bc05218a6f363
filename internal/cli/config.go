// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation for rkids.
//
// Command: config [subcommand]
// Short:   View and modify configuration
//
// Subcommands:
//   show (default)      Display current configuration (secrets redacted)
//   path                Show configuration file path
//   init [--force]      Write a default configuration file
//   get <key>           Print one value
//   set <key> <value>   Change one value in the file
//   keys                List settable keys
//
// Examples:
//   rkids config
//   rkids config show --json
//   rkids config set api.base_url https://checkin.example.org/api
//   rkids config set session.idle_timeout 20m
//   rkids config set storage.backend sqlite
//   rkids config get session.warning_lead
//
// Values set here are written to the file. RKIDS_* environment
// variables still override them at runtime.

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jeranaias/rkids-tui/internal/config"
)

// HandleConfig handles the "config" command.
func HandleConfig(args Args) error {
	return runConfig(args, os.Stdout)
}

func runConfig(args Args, w io.Writer) error {
	switch args.Subcommand {
	case "", "show":
		return handleConfigShow(args, w)
	case "path":
		return handleConfigPath(args, w)
	case "init":
		return handleConfigInit(args, w)
	case "get":
		return handleConfigGet(args, w)
	case "set":
		return handleConfigSet(args, w)
	case "keys":
		return handleConfigKeys(args, w)
	default:
		return &UsageError{Command: "config " + args.Subcommand}
	}
}

// configFile returns the file config commands read and write.
func configFile(args Args) (string, error) {
	if args.Config != "" {
		return args.Config, nil
	}
	return config.ConfigPathTOML()
}

// loadFileOnly reads the file over the defaults without environment
// overrides, so set never persists a value that came from RKIDS_*.
func loadFileOnly(path string) (*config.Config, error) {
	cfg := config.Default()
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	load := config.LoadTOML
	if strings.HasSuffix(path, ".json") {
		load = config.LoadJSON
	}
	if err := load(cfg, path); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	return cfg, nil
}

func handleConfigShow(args Args, w io.Writer) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	safe := cfg.Redacted()

	if args.JSON {
		return NewJSONResponse("config show", safe).Write(w)
	}

	path, _ := configFile(args)
	fmt.Fprintln(w, TitleStyle.Render("rkids configuration"))
	section := ""
	for _, key := range config.GetAllKeys() {
		table, name, _ := strings.Cut(key, ".")
		if table != section {
			fmt.Fprintln(w, SectionStyle.Render("["+table+"]"))
			section = table
		}
		v, err := safe.Get(key)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %s%s\n", RenderLabel(name+":"), ValueStyle.Render(formatValue(v)))
	}
	if n := len(cfg.Demo.Accounts); n > 0 {
		fmt.Fprintf(w, "  %s%s\n", RenderLabel("accounts:"), ValueStyle.Render(fmt.Sprintf("%d configured", n)))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, RenderSeparator(41))
	fmt.Fprintf(w, "Config file: %s\n", DimStyle.Render(path))
	return nil
}

func handleConfigPath(args Args, w io.Writer) error {
	path, err := configFile(args)
	if err != nil {
		return err
	}
	_, statErr := os.Stat(path)
	if args.JSON {
		return NewJSONResponse("config path", ConfigPathData{Path: path, Exists: statErr == nil}).Write(w)
	}
	fmt.Fprintln(w, path)
	return nil
}

func handleConfigInit(args Args, w io.Writer) error {
	path, err := configFile(args)
	if err != nil {
		return err
	}
	force := NewArgParser(args.Raw).BoolFlag("force")
	if _, err := os.Stat(path); err == nil && !force {
		return NewCommandError("config", "initialize", path+" already exists (use --force to overwrite)", nil)
	}

	cfg := config.Default()
	if strings.HasSuffix(path, ".json") {
		err = config.SaveJSON(cfg, path)
	} else {
		err = config.SaveTOML(cfg, path)
	}
	if err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("config init", ConfigPathData{Path: path, Exists: true}).Write(w)
	}
	if !args.Quiet {
		fmt.Fprintf(w, "%s Wrote %s\n", RenderStatus("ok"), path)
	}
	return nil
}

func handleConfigGet(args Args, w io.Writer) error {
	if args.ConfigKey == "" {
		return ErrMissingArgument("key", "rkids config get session.idle_timeout")
	}
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	v, err := cfg.Redacted().Get(args.ConfigKey)
	if err != nil {
		return NewValidationErrorWithExample("key", args.ConfigKey, err.Error(), "rkids config keys")
	}

	if args.JSON {
		return NewJSONResponse("config get", ConfigValueData{Key: args.ConfigKey, Value: formatValue(v)}).Write(w)
	}
	fmt.Fprintln(w, formatValue(v))
	return nil
}

func handleConfigSet(args Args, w io.Writer) error {
	if args.ConfigKey == "" || args.ConfigVal == "" {
		return ErrMissingArgument("key and value", "rkids config set session.idle_timeout 20m")
	}
	path, err := configFile(args)
	if err != nil {
		return err
	}
	cfg, err := loadFileOnly(path)
	if err != nil {
		return err
	}

	if err := cfg.Set(args.ConfigKey, args.ConfigVal); err != nil {
		return NewValidationErrorWithExample("value", args.ConfigVal, err.Error(), "")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if strings.HasSuffix(path, ".json") {
		err = config.SaveJSON(cfg, path)
	} else {
		err = config.SaveTOML(cfg, path)
	}
	if err != nil {
		return err
	}

	v, _ := cfg.Redacted().Get(args.ConfigKey)
	if args.JSON {
		return NewJSONResponse("config set", ConfigValueData{Key: args.ConfigKey, Value: formatValue(v)}).Write(w)
	}
	if !args.Quiet {
		fmt.Fprintf(w, "%s %s = %s\n", RenderStatus("ok"), args.ConfigKey, formatValue(v))
	}
	return nil
}

func handleConfigKeys(args Args, w io.Writer) error {
	keys := config.GetAllKeys()
	if args.JSON {
		return NewJSONResponse("config keys", keys).Write(w)
	}
	for _, k := range keys {
		fmt.Fprintln(w, k)
	}
	return nil
}

// formatValue prints durations in config syntax.
func formatValue(v interface{}) string {
	switch t := v.(type) {
	case time.Duration:
		return t.String()
	case string:
		return t
	}
	return fmt.Sprint(v)
}
