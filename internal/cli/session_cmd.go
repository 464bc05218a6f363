// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// session_cmd.go - Sign-in commands for rkids.
//
// Command: login
// Short:   Sign in from the command line
//
// Flags:
//   --email EMAIL       Account email (prompted when omitted)
//   --password-stdin    Read the password from stdin instead of a terminal
//   --code CODE         One-time verification code (prompted when omitted)
//   --invitation TOKEN  Choose a first password using an invitation token
//
// Command: logout
// Short:   Sign out and forget the stored session
//
// Command: status
// Short:   Show who is signed in
// Aliases: whoami, s
//
// Flags:
//   --verify            Ask the service whether the credential is still valid
//   --json              Output in JSON format
//
// Examples:
//   rkids login --email teacher@rkids.church
//   echo "$PASSWORD" | rkids login --email parent@rkids.church --password-stdin --code 123456
//   rkids login --email new.parent@rkids.church --invitation welcome-6
//   rkids whoami --verify --json
//   rkids logout

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/jeranaias/rkids-tui/internal/authapi"
	"github.com/jeranaias/rkids-tui/internal/identity"
	"github.com/jeranaias/rkids-tui/internal/session"
)

// =============================================================================
// SHARED SETUP
// =============================================================================

// withManager loads config, builds the runtime and a manager, runs fn,
// and tears everything down. The persisted session survives.
func withManager(args Args, fn func(ctx context.Context, rt *Runtime, m *session.Manager) error) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	logger, logCloser, err := NewLogger(cfg, args)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	rt, err := NewRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	m, err := rt.NewManager(nil)
	if err != nil {
		return err
	}
	defer m.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return fn(ctx, rt, m)
}

// =============================================================================
// LOGIN
// =============================================================================

// LoginArgs holds parsed login arguments.
type LoginArgs struct {
	Email         string
	Code          string
	Invitation    string
	PasswordStdin bool
	JSON          bool
	Quiet         bool
}

func parseLoginArgs(args Args) (LoginArgs, error) {
	p := NewArgParser(args.Raw)
	email, err := p.Email("email")
	if err != nil {
		return LoginArgs{}, err
	}
	return LoginArgs{
		Email:         email,
		Code:          p.Flag("code"),
		Invitation:    p.Flag("invitation"),
		PasswordStdin: p.BoolFlag("password-stdin"),
		JSON:          args.JSON || p.BoolFlag("json"),
		Quiet:         args.Quiet,
	}, nil
}

// HandleLogin handles the "login" command.
func HandleLogin(args Args) error {
	opts, err := parseLoginArgs(args)
	if err != nil {
		return err
	}
	if !opts.PasswordStdin {
		if err := RequiresTTY("read a password"); err != nil {
			return NewValidationErrorWithExample("password", "", err.Error(), "--password-stdin")
		}
	}

	return withManager(args, func(ctx context.Context, _ *Runtime, m *session.Manager) error {
		var prompter Prompter = NewTerminalPrompter()
		if !opts.PasswordStdin && !opts.JSON && IsStdoutTTY() {
			lp := NewLinePrompter()
			defer lp.Close()
			prompter = lp
		}
		id, err := runLogin(ctx, m, opts, prompter, os.Stderr)
		if err != nil {
			return err
		}
		return printLogin(os.Stdout, m, id, opts)
	})
}

// runLogin drives the manager through the first factor, an optional
// password setup, and the second factor. Prompts and notices go to out.
func runLogin(ctx context.Context, m *session.Manager, opts LoginArgs, p Prompter, out io.Writer) (identity.Identity, error) {
	if id, ok := m.Identity(); ok {
		return identity.Identity{}, NewCommandError("login", "sign in",
			fmt.Sprintf("already signed in as %s; run 'rkids logout' first", id.Email),
			session.ErrAlreadyAuthenticated)
	}

	email := opts.Email
	if email == "" {
		line, err := p.Line("Email: ")
		if err != nil {
			return identity.Identity{}, err
		}
		email = line
	}

	var (
		outcome session.LoginOutcome
		err     error
	)
	if opts.Invitation != "" {
		password, perr := p.Secret("New password: ")
		if perr != nil {
			return identity.Identity{}, perr
		}
		if !opts.PasswordStdin {
			confirm, cerr := p.Secret("Confirm password: ")
			if cerr != nil {
				return identity.Identity{}, cerr
			}
			if confirm != password {
				return identity.Identity{}, NewValidationErrorWithExample("password", "", "passwords do not match", "")
			}
		}
		outcome, err = m.CompletePasswordSetup(ctx, email, password, opts.Invitation)
	} else {
		password, perr := p.Secret("Password: ")
		if perr != nil {
			return identity.Identity{}, perr
		}
		outcome, err = m.Login(ctx, email, password)
	}
	if err != nil {
		return identity.Identity{}, err
	}

	switch outcome {
	case session.LoginPasswordSetupRequired:
		return identity.Identity{}, NewCommandError("login", "sign in",
			"this account has no password yet; rerun with --invitation TOKEN from your invitation email",
			authapi.ErrPasswordNotSet)

	case session.LoginSecondFactorRequired:
		if code := m.DemoCode(); code != "" && !opts.Quiet {
			fmt.Fprintf(out, "%s %s\n", DimStyle.Render("Demo code:"), HighlightStyle.Render(code))
		}
		code := opts.Code
		if code == "" {
			line, lerr := p.Line("Verification code: ")
			if lerr != nil {
				return identity.Identity{}, lerr
			}
			code = line
		}
		if err := m.VerifySecondFactor(ctx, code); err != nil {
			return identity.Identity{}, err
		}
	}

	id, ok := m.Identity()
	if !ok {
		return identity.Identity{}, ErrNotSignedIn
	}
	return id, nil
}

func printLogin(w io.Writer, m *session.Manager, id identity.Identity, opts LoginArgs) error {
	if opts.JSON {
		return NewJSONResponse(CmdLogin.String(), LoginData{
			User:      statusUser(id, m.Credential()),
			HomeRoute: id.HomeRoute(),
		}).Write(w)
	}
	if opts.Quiet {
		return nil
	}
	fmt.Fprintf(w, "%s Signed in as %s (%s)\n", RenderStatus("ok"), id.DisplayName(), RenderRole(id.Role))
	if id.NeedsProfileSetup() {
		fmt.Fprintln(w, WarningStyle.Render("Your profile is incomplete. Run 'rkids' to finish it."))
	}
	return nil
}

// =============================================================================
// LOGOUT
// =============================================================================

// HandleLogout handles the "logout" command.
func HandleLogout(args Args) error {
	return withManager(args, func(ctx context.Context, _ *Runtime, m *session.Manager) error {
		return runLogout(ctx, m, os.Stdout, args)
	})
}

func runLogout(ctx context.Context, m *session.Manager, w io.Writer, args Args) error {
	id, signedIn := m.Identity()
	if signedIn {
		m.Logout(ctx)
		m.Wait()
	}

	if args.JSON {
		return NewJSONResponse(CmdLogout.String(), map[string]bool{"signed_out": signedIn}).Write(w)
	}
	if args.Quiet {
		return nil
	}
	if !signedIn {
		fmt.Fprintln(w, DimStyle.Render("Not signed in."))
		return nil
	}
	fmt.Fprintf(w, "%s Signed out %s\n", RenderStatus("ok"), id.Email)
	return nil
}

// =============================================================================
// STATUS
// =============================================================================

// HandleStatus handles the "status" and "whoami" commands.
func HandleStatus(args Args) error {
	return withManager(args, func(ctx context.Context, rt *Runtime, m *session.Manager) error {
		verify := NewArgParser(args.Raw).BoolFlag("verify")
		data, err := collectStatus(ctx, rt, m, verify)
		if err != nil {
			return err
		}
		if args.JSON {
			return NewJSONResponse(CmdStatus.String(), data).Write(os.Stdout)
		}
		printStatus(os.Stdout, data)
		return nil
	})
}

func collectStatus(ctx context.Context, rt *Runtime, m *session.Manager, verify bool) (StatusData, error) {
	cfg := m.Config()
	data := StatusData{
		Session: StatusPolicy{
			IdleTimeout: session.FormatDuration(cfg.IdleTimeout),
			WarningLead: session.FormatDuration(cfg.WarningLead),
			TestMode:    cfg.TestMode,
		},
		Storage: StatusStore{
			Backend: rt.Config.Storage.Backend,
			Path:    rt.KV.Path(),
		},
	}

	id, ok := m.Identity()
	if !ok {
		return data, nil
	}

	if verify {
		valid := true
		if _, err := rt.Client.Me(ctx); err != nil {
			if !errors.Is(err, authapi.ErrUnauthorized) {
				return data, err
			}
			// The unauthorized hook has already cleared the session.
			valid = false
		}
		data.Verified = &valid
		if !valid {
			return data, nil
		}
	}

	data.SignedIn = true
	user := statusUser(id, m.Credential())
	data.User = &user
	return data, nil
}

func statusUser(id identity.Identity, cred identity.Credential) StatusUser {
	u := StatusUser{
		ID:             id.ID,
		Email:          id.Email,
		Name:           id.Name,
		Role:           string(id.Role),
		HomeRoute:      id.HomeRoute(),
		ProfileUpdated: id.ProfileUpdated,
	}
	if exp, ok := cred.ExpiresAt(); ok {
		u.CredentialExpires = exp.UTC().Format(time.RFC3339)
	}
	return u
}

func printStatus(w io.Writer, data StatusData) {
	fmt.Fprintln(w, TitleStyle.Render("rkids session"))

	if data.Verified != nil && !*data.Verified {
		fmt.Fprintf(w, "%s The service no longer accepts the stored credential. You have been signed out.\n", RenderStatus("rejected"))
	}

	if data.User == nil {
		fmt.Fprintln(w, RenderField("Signed in", "no"))
	} else {
		u := data.User
		role, _ := identity.ParseRole(u.Role)
		fmt.Fprintln(w, RenderField("Signed in", "yes"))
		if u.Name != "" {
			fmt.Fprintln(w, RenderField("Name", u.Name))
		}
		fmt.Fprintln(w, RenderField("Email", u.Email))
		fmt.Fprintln(w, RenderLabel("Role")+RenderRole(role))
		fmt.Fprintln(w, RenderField("Dashboard", u.HomeRoute))
		profile := "complete"
		if !u.ProfileUpdated {
			profile = "needs setup"
		}
		fmt.Fprintln(w, RenderField("Profile", profile))
		if u.CredentialExpires != "" {
			fmt.Fprintln(w, RenderField("Expires", u.CredentialExpires))
		}
		if data.Verified != nil {
			fmt.Fprintln(w, RenderLabel("Verified")+RenderStatus("ok"))
		}
	}

	fmt.Fprintln(w, SectionStyle.Render("Policy"))
	fmt.Fprintln(w, RenderField("Idle timeout", data.Session.IdleTimeout))
	fmt.Fprintln(w, RenderField("Warning", data.Session.WarningLead+" before"))
	if data.Session.TestMode {
		fmt.Fprintln(w, RenderLabel("Test mode")+WarningStyle.Render("on"))
	}
	store := data.Storage.Backend
	if data.Storage.Path != "" {
		store += " (" + data.Storage.Path + ")"
	}
	fmt.Fprintln(w, RenderField("Store", store))
}
