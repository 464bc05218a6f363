// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command handlers for rkids.
package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdLogin
	CmdLogout
	CmdStatus
	CmdConfig
	CmdDemoServer
	CmdVersion
	CmdHelp
)

// String returns the command name used in JSON output.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdLogin:
		return "login"
	case CmdLogout:
		return "logout"
	case CmdStatus:
		return "status"
	case CmdConfig:
		return "config"
	case CmdDemoServer:
		return "demo-server"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	}
	return "unknown"
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet    bool
	Verbose  bool
	JSON     bool   // Output in JSON format
	TestMode bool   // Enables the role switcher for this run
	Config   string // Alternate config file
	APIURL   string // Overrides api.base_url

	// Command-specific
	Subcommand string
	ConfigKey  string
	ConfigVal  string

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `rkids - children's ministry check-in terminal

Sign in as an admin, teacher, parent, or teen and land on the matching
dashboard. Sessions end after a period of inactivity.

Usage:
  rkids                      Start the check-in terminal (default)
  rkids login                Sign in from the command line
  rkids logout               Sign out and forget the stored session
  rkids status, whoami       Show who is signed in
  rkids config [subcommand]  View and modify configuration
  rkids demo-server          Run the local demo authentication service
  rkids version              Show version information
  rkids help [topic]         Show this help, or a topic (login, status,
                             config, demo-server, sessions)

Global flags:
  --json                Output in JSON format
  --config PATH         Use an alternate config file
  --api URL             Authentication service base URL
  --test-mode           Enable the role switcher (never in production)
  -q, --quiet           Suppress informational output
  -v, --verbose         Write diagnostic logs to stderr

Login flags:
  --email EMAIL         Account email (prompted when omitted)
  --password-stdin      Read the password from stdin
  --code CODE           One-time verification code
  --invitation TOKEN    Set a first password using an invitation token

Status flags:
  --verify              Ask the service whether the credential is still valid

Config subcommands:
  show (default)        Display current configuration
  path                  Show configuration file path
  init                  Write a default configuration file
  get <key>             Print one value
  set <key> <value>     Change one value
  keys                  List settable keys

Demo server flags:
  --addr HOST:PORT      Listen address (default 127.0.0.1:5000)

Examples:
  rkids demo-server
  rkids login --email teacher@rkids.church
  rkids whoami --json
  rkids config set session.idle_timeout 20m

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("rkids version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses os.Args and returns the command and args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses args (without the program name).
func ParseArgs(args []string) (Command, Args) {
	// Parse global flags first
	remaining, parsedArgs := parseGlobalFlags(args)

	// If no remaining args, default to TUI
	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs

	case "login", "signin":
		return CmdLogin, parsedArgs

	case "logout", "signout":
		return CmdLogout, parsedArgs

	case "status", "whoami", "s":
		return CmdStatus, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "demo-server", "demo":
		return CmdDemoServer, parsedArgs

	case "version", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		if len(remaining) > 0 {
			parsedArgs.Subcommand = strings.ToLower(remaining[0])
			parsedArgs.Raw = nil
		}
		return CmdHelp, parsedArgs

	default:
		parsedArgs.Raw = append([]string{cmd}, remaining...)
		return CmdHelp, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	parsedArgs := Args{}

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		case "--test-mode":
			parsedArgs.TestMode = true
		case "--config":
			if i+1 < len(args) {
				i++
				parsedArgs.Config = args[i]
			}
		case "--api":
			if i+1 < len(args) {
				i++
				parsedArgs.APIURL = args[i]
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--config="):
				parsedArgs.Config = strings.TrimPrefix(arg, "--config=")
			case strings.HasPrefix(arg, "--api="):
				parsedArgs.APIURL = strings.TrimPrefix(arg, "--api=")
			default:
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsedArgs
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	p := NewArgParser(remaining)
	args.Subcommand = p.Subcommand()
	args.ConfigKey = p.Positional(1)
	args.ConfigVal = p.Joined(2)
}

// HandleVersionWithJSON handles the "version" command with JSON output support.
func HandleVersionWithJSON(args Args) error {
	if args.JSON {
		data := VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}
		return NewJSONResponse(CmdVersion.String(), data).Print()
	}
	PrintVersion()
	return nil
}

// HandleHelp handles the "help" command. An unrecognized command is
// reported before the usage text and yields a usage error.
func HandleHelp(args Args) error {
	if args.Subcommand != "" {
		return printHelpTopic(os.Stdout, args.Subcommand, IsStdoutTTY() && ColorsEnabled())
	}
	if len(args.Raw) > 0 {
		fmt.Fprintf(os.Stderr, "%s unknown command %q\n\n", ErrorStyle.Render("Error:"), args.Raw[0])
		PrintUsage()
		return &UsageError{Command: args.Raw[0]}
	}
	PrintUsage()
	return nil
}
