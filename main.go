// rkids - Check-in terminal for children's ministry volunteers and families.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rkids-tui/internal/cli"
	"github.com/jeranaias/rkids-tui/internal/session"
	"github.com/jeranaias/rkids-tui/internal/ui/app"
	"github.com/jeranaias/rkids-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global program reference for messages sent from session goroutines
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	var err error
	switch cmd {
	case cli.CmdTUI:
		err = runTUI(args)
	case cli.CmdLogin:
		err = cli.HandleLogin(args)
	case cli.CmdLogout:
		err = cli.HandleLogout(args)
	case cli.CmdStatus:
		err = cli.HandleStatus(args)
	case cli.CmdConfig:
		err = cli.HandleConfig(args)
	case cli.CmdDemoServer:
		err = cli.HandleDemoServer(args)
	case cli.CmdVersion:
		err = cli.HandleVersionWithJSON(args)
	case cli.CmdHelp:
		err = cli.HandleHelp(args)
	}

	if err != nil {
		// Help already explained an unknown command.
		var usage *cli.UsageError
		if cmd == cli.CmdHelp && errors.As(err, &usage) {
			os.Exit(cli.ExitUsageError)
		}
		cli.HandleErrorAndExit(cmd.String(), err, args.JSON)
	}
}

// send delivers msg to the running program. Messages that arrive
// before the program starts or after it exits are dropped.
func send(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func runTUI(args cli.Args) error {
	if err := cli.RequiresTTY("run the check-in terminal"); err != nil {
		return err
	}

	cfg, err := cli.LoadConfig(args)
	if err != nil {
		return err
	}
	// Diagnostics never go to the terminal the UI draws on.
	if args.Verbose {
		cfg.Logging.Level = "debug"
		args.Verbose = false
	}
	logger, logCloser, err := cli.NewLogger(cfg, args)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	rt, err := cli.NewRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	mgr, err := rt.NewManager(session.ProgramNavigator(send))
	if err != nil {
		return err
	}
	defer mgr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := rt.Watch(ctx, mgr); err != nil {
		logger.Warn("session store watch disabled", "error", err)
	}

	model := app.New(app.Options{
		Session:  mgr,
		Activity: rt.Hub,
		Theme:    styles.NewTheme(),
		Clock:    rt.Clock,
		Context:  ctx,
	})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),      // Use alternate screen buffer
		tea.WithMouseAllMotion(), // Pointer movement counts as activity
		tea.WithContext(ctx),
	)

	programMu.Lock()
	programRef = p
	programMu.Unlock()
	defer func() {
		programMu.Lock()
		programRef = nil
		programMu.Unlock()
	}()

	stopBridge := session.Bridge(mgr, send)
	defer stopBridge()

	logger.Info("terminal started", "api", cfg.API.BaseURL, "test_mode", cfg.Session.TestMode)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running rkids: %w", err)
	}
	return nil
}
