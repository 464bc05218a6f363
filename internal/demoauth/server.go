// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package demoauth is a self-contained Authentication Service that
// speaks the same wire contract as the production backend.
//
// It backs "rkids demo-server" for local development and the
// integration tests of the API client and session manager. Accounts
// live in memory; one-time codes are six-digit TOTP values valid for
// CodeTTL; credentials are HS256 JWTs.
package demoauth

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/jeranaias/rkids-tui/internal/clock"
	"github.com/jeranaias/rkids-tui/internal/identity"
)

// Defaults.
const (
	DefaultAddr     = "127.0.0.1:5000"
	DefaultIssuer   = "rkids-demo"
	DefaultCodeTTL  = 10 * time.Minute
	DefaultTokenTTL = 12 * time.Hour

	// MinPasswordLength mirrors the client-side rule.
	MinPasswordLength = 8
)

// Config controls the demo service.
type Config struct {
	// Secret signs credentials. Empty generates a random per-process key.
	Secret []byte

	Issuer string

	// RequireMFA sends every login through the one-time code step.
	RequireMFA bool

	// ExposeCode returns the one-time code in the login response so the
	// console can display it. Never enable against real users.
	ExposeCode bool

	CodeTTL  time.Duration
	TokenTTL time.Duration

	// Accounts seeds the roster. Nil uses DefaultAccounts.
	Accounts []AccountSpec
}

// DefaultConfig returns a demo configuration with MFA and visible codes.
func DefaultConfig() Config {
	return Config{
		Issuer:     DefaultIssuer,
		RequireMFA: true,
		ExposeCode: true,
		CodeTTL:    DefaultCodeTTL,
		TokenTTL:   DefaultTokenTTL,
	}
}

// Server is the demo Authentication Service.
type Server struct {
	cfg    Config
	clock  clock.Clock
	logger *slog.Logger

	mu       sync.Mutex
	accounts map[string]*account
	pending  map[string]*pendingLogin
	revoked  map[string]time.Time
}

// New builds a server. A nil clock uses the real clock; a nil logger
// discards output.
func New(cfg Config, clk clock.Clock, logger *slog.Logger) (*Server, error) {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.CodeTTL < time.Second {
		cfg.CodeTTL = DefaultCodeTTL
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	if len(cfg.Secret) == 0 {
		cfg.Secret = make([]byte, 32)
		if _, err := rand.Read(cfg.Secret); err != nil {
			return nil, fmt.Errorf("failed to generate signing key: %w", err)
		}
	}
	specs := cfg.Accounts
	if specs == nil {
		specs = DefaultAccounts()
	}

	s := &Server{
		cfg:      cfg,
		clock:    clk,
		logger:   logger,
		accounts: make(map[string]*account, len(specs)),
		pending:  make(map[string]*pendingLogin),
		revoked:  make(map[string]time.Time),
	}
	for _, spec := range specs {
		acct, err := newAccount(spec)
		if err != nil {
			return nil, err
		}
		if _, dup := s.accounts[acct.identity.Email]; dup {
			return nil, fmt.Errorf("duplicate account %s", acct.identity.Email)
		}
		s.accounts[acct.identity.Email] = acct
	}
	return s, nil
}

// Router returns the HTTP handler. All routes live under /api so that
// the client's default base URL points at them.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.requestLogger)
	r.Use(chimw.CleanPath)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", s.handleLogin)
			auth.Post("/verify-mfa", s.handleVerifyMFA)
			auth.Post("/set-password", s.handleSetPassword)
			auth.With(s.authenticate).Post("/logout", s.handleLogout)
			auth.With(s.authenticate).Get("/me", s.handleMe)
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts
// down gracefully. ready, if non-nil, receives the bound address.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(net.Addr)) error {
	if addr == "" {
		addr = DefaultAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	s.logger.Info("demo auth service listening", "addr", ln.Addr().String(), "mfa", s.cfg.RequireMFA)
	if ready != nil {
		ready(ln.Addr())
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// PendingCode returns the outstanding one-time code for a pre-auth
// token. It exists for tests and for the demo-server console output.
func (s *Server) PendingCode(preAuth string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[preAuth]
	if !ok {
		return "", false
	}
	return p.code, true
}

// Account returns a copy of the account's identity.
func (s *Server) Account(email string) (identity.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[normalizeEmail(email)]
	if !ok {
		return identity.Identity{}, false
	}
	return a.identity, true
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

type claimsKey struct{}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Authentication required", "")
			return
		}
		claims, err := s.verifyCredential(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token", "")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("demo auth request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()))
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeData(w http.ResponseWriter, payload any) {
	writeJSON(w, http.StatusOK, map[string]any{"data": payload})
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	body := map[string]string{"error": message}
	if code != "" {
		body["code"] = code
	}
	writeJSON(w, status, body)
}
