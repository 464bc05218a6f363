// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// runtime.go - Builds the session stack shared by the terminal UI and
// the login, logout and status commands.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jeranaias/rkids-tui/internal/activity"
	"github.com/jeranaias/rkids-tui/internal/authapi"
	"github.com/jeranaias/rkids-tui/internal/clock"
	"github.com/jeranaias/rkids-tui/internal/config"
	"github.com/jeranaias/rkids-tui/internal/logging"
	"github.com/jeranaias/rkids-tui/internal/session"
	"github.com/jeranaias/rkids-tui/internal/storage"
)

// LoadConfig loads the configuration named by --config, or the default
// file, and applies --api and --test-mode. A default file that fails to
// parse is reported on stderr and the defaults are used.
func LoadConfig(args Args) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if args.Config != "" {
		cfg, err = config.LoadFromPath(args.Config)
		if err != nil {
			return nil, err
		}
	} else {
		cfg, err = config.Load()
		if cfg == nil {
			return nil, err
		}
		if err != nil && !args.Quiet {
			fmt.Fprintf(os.Stderr, "%s %v (using defaults)\n", WarningStyle.Render("Warning:"), err)
		}
	}

	if args.APIURL != "" {
		cfg.API.BaseURL = strings.TrimRight(args.APIURL, "/")
	}
	if args.TestMode {
		cfg.Session.TestMode = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewLogger builds the diagnostic logger. --verbose writes debug
// output to stderr; otherwise the configured log file is used.
func NewLogger(cfg *config.Config, args Args) (*slog.Logger, io.Closer, error) {
	if args.Verbose {
		return logging.New(logging.Options{
			Level:  "debug",
			Format: cfg.Logging.Format,
			Writer: os.Stderr,
		})
	}
	path, err := cfg.LogPath()
	if err != nil {
		return nil, nil, err
	}
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Path:   path,
	})
}

// Runtime is the wired stack behind a session manager.
type Runtime struct {
	Config *config.Config
	Logger *slog.Logger
	KV     storage.KV
	Store  *storage.SessionStore
	Client *authapi.Client
	Hub    *activity.Hub
	Clock  clock.Clock

	closers []io.Closer
}

// NewRuntime opens the store and builds the service client. Close
// releases everything it opened.
func NewRuntime(cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	path, err := cfg.StoragePath()
	if err != nil {
		return nil, err
	}
	kv, err := storage.Open(cfg.Storage.Backend, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	client := authapi.New(cfg.API.BaseURL).
		WithTimeout(cfg.API.Timeout).
		WithRateLimit(cfg.API.RequestsPerSecond, cfg.API.Burst).
		WithLogger(logger).
		WithUserAgent("rkids/" + Version)

	return &Runtime{
		Config:  cfg,
		Logger:  logger,
		KV:      kv,
		Store:   storage.NewSessionStore(kv, logger),
		Client:  client,
		Hub:     activity.NewHub(),
		Clock:   clock.Real(),
		closers: []io.Closer{kv},
	}, nil
}

// NewManager builds a session manager over the runtime and connects
// the client's credential hooks to it. nav may be nil.
func (r *Runtime) NewManager(nav session.Navigator) (*session.Manager, error) {
	m, err := session.New(r.Config.SessionConfig(), session.Deps{
		Auth:      r.Client,
		Store:     r.Store,
		Navigator: nav,
		Clock:     r.Clock,
		Activity:  r.Hub,
		Logger:    r.Logger,
	})
	if err != nil {
		return nil, err
	}
	r.Client.WithCredentialSource(m.Credential).OnUnauthorized(m.RejectCredential)
	return m, nil
}

// Watch follows writes to the store by other rkids processes when
// storage.watch is enabled. In-memory stores are never watched.
func (r *Runtime) Watch(ctx context.Context, m *session.Manager) error {
	if !r.Config.Storage.Watch || r.KV.Path() == "" {
		return nil
	}
	w, err := storage.Watch(ctx, r.KV.Path(), 0, r.Logger, m.SyncFromStore)
	if err != nil {
		return err
	}
	// The watcher must stop before the store closes.
	r.closers = append([]io.Closer{w}, r.closers...)
	return nil
}

// Close releases the watcher and the store.
func (r *Runtime) Close() error {
	var errs []error
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}
