// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// args.go - Argument parsing shared by the rkids subcommands.

package cli

import (
	"fmt"
	"net/mail"
	"strings"
)

// switches never take a value, so "--password-stdin teacher@rkids.church"
// leaves the address positional instead of reading it as the switch value.
var switches = map[string]bool{
	"json":           true,
	"password-stdin": true,
	"verify":         true,
	"force":          true,
}

// ArgParser splits subcommand arguments into flags and positionals.
//
//	--email a@b.org     value flag
//	--addr=:5000        value flag
//	--json, --json=true switch
//	show, KEY, VALUE    positionals; the first is the subcommand
type ArgParser struct {
	flags      map[string]string
	switches   map[string]bool
	positional []string
}

// NewArgParser parses raw.
func NewArgParser(raw []string) *ArgParser {
	p := &ArgParser{
		flags:    make(map[string]string),
		switches: make(map[string]bool),
	}

	for i := 0; i < len(raw); i++ {
		arg := raw[i]
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			p.positional = append(p.positional, arg)
			continue
		}

		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		switch {
		case hasValue && switches[name]:
			on, err := ParseBoolString(value)
			p.switches[name] = on && err == nil
		case hasValue:
			p.flags[name] = value
		case switches[name]:
			p.switches[name] = true
		case i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-"):
			p.flags[name] = raw[i+1]
			i++
		default:
			p.switches[name] = true
		}
	}
	return p
}

// Subcommand returns the first positional argument, e.g. "show" in
// "config show".
func (p *ArgParser) Subcommand() string {
	return p.Positional(0)
}

// Flag returns the value of --name, or "".
func (p *ArgParser) Flag(name string) string {
	return p.flags[name]
}

// FlagOrDefault returns the value of --name, or def when it is unset.
func (p *ArgParser) FlagOrDefault(name, def string) string {
	if v := p.flags[name]; v != "" {
		return v
	}
	return def
}

// BoolFlag reports whether the switch --name is on.
func (p *ArgParser) BoolFlag(name string) bool {
	return p.switches[name]
}

// Email returns the account address given with --name, trimmed and
// lowercased. An unset flag yields "" so the caller can prompt.
func (p *ArgParser) Email(name string) (string, error) {
	raw := strings.TrimSpace(p.flags[name])
	if raw == "" {
		if p.switches[name] {
			return "", NewValidationErrorWithExample(name, "", "needs an address", "--"+name+" teacher@rkids.church")
		}
		return "", nil
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", NewValidationErrorWithExample(name, raw, "not an email address", "--"+name+" teacher@rkids.church")
	}
	return strings.ToLower(addr.Address), nil
}

// Positional returns the positional argument at index, or "".
func (p *ArgParser) Positional(index int) string {
	if index < 0 || index >= len(p.positional) {
		return ""
	}
	return p.positional[index]
}

// Joined returns the positionals from index on, space separated. Config
// values containing spaces arrive split across several arguments.
func (p *ArgParser) Joined(index int) string {
	if index < 0 || index >= len(p.positional) {
		return ""
	}
	return strings.Join(p.positional[index:], " ")
}

// ParseBoolString parses true/false, yes/no, y/n, 1/0 and on/off in any case.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "on":
		return true, nil
	case "false", "no", "n", "0", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value: %s", s)
	}
}
