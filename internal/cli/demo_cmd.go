// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// demo_cmd.go - Local demo authentication service.
//
// Command: demo-server
// Short:   Run the demo authentication service
// Aliases: demo
//
// Flags:
//   --addr HOST:PORT    Listen address (default from demo.addr)
//   --mfa on|off        Require the one-time code step
//
// Examples:
//   rkids demo-server
//   rkids demo-server --addr 127.0.0.1:5050 --mfa off

package cli

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeranaias/rkids-tui/internal/config"
	"github.com/jeranaias/rkids-tui/internal/demoauth"
	"github.com/jeranaias/rkids-tui/internal/logging"
)

// HandleDemoServer handles the "demo-server" command. It serves until
// interrupted.
func HandleDemoServer(args Args) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}

	p := NewArgParser(args.Raw)
	demoCfg := cfg.DemoConfig()
	if v := p.Flag("mfa"); v != "" {
		on, err := ParseBoolString(v)
		if err != nil {
			return NewValidationErrorWithExample("mfa", v, err.Error(), "--mfa off")
		}
		demoCfg.RequireMFA = on
	}
	addr := p.FlagOrDefault("addr", cfg.Demo.Addr)

	level := cfg.Logging.Level
	if args.Verbose {
		level = "debug"
	}
	logger, closer, err := logging.New(logging.Options{Level: level, Format: cfg.Logging.Format, Writer: os.Stderr})
	if err != nil {
		return err
	}
	defer closer.Close()

	srv, err := demoauth.New(demoCfg, nil, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx, addr, func(bound net.Addr) {
		if args.Quiet {
			return
		}
		printDemoBanner(os.Stdout, bound, demoCfg, cfg)
	})
}

func printDemoBanner(w io.Writer, bound net.Addr, demoCfg demoauth.Config, cfg *config.Config) {
	base := fmt.Sprintf("http://%s/api", bound.String())
	fmt.Fprintln(w, TitleStyle.Render("rkids demo authentication service"))
	fmt.Fprintln(w, RenderField("API", base))
	mfa := "off"
	if demoCfg.RequireMFA {
		mfa = "on (codes are shown in the terminal UI)"
	}
	fmt.Fprintln(w, RenderField("Verification", mfa))

	accounts := demoCfg.Accounts
	if accounts == nil {
		accounts = demoauth.DefaultAccounts()
	}
	fmt.Fprintln(w, SectionStyle.Render("Accounts"))
	for _, a := range accounts {
		note := a.Role
		switch {
		case a.Invitation != "":
			note += ", invitation " + a.Invitation
		case a.Status != "":
			note += ", " + a.Status
		}
		fmt.Fprintf(w, "  %s%s\n", RenderLabel(a.Email, 28), DimStyle.Render(note))
	}
	if demoCfg.Accounts == nil {
		fmt.Fprintf(w, "\nSeeded accounts use the password %s\n", HighlightStyle.Render(demoauth.DemoPassword))
	}
	if cfg.API.BaseURL != base {
		fmt.Fprintf(w, "%s\n", DimStyle.Render("Point the terminal at it with: rkids --api "+base))
	}
	fmt.Fprintln(w, DimStyle.Render("Press Ctrl+C to stop."))
}
