// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/jeranaias/rkids-tui/internal/activity"
	"github.com/jeranaias/rkids-tui/internal/authapi"
	"github.com/jeranaias/rkids-tui/internal/clock"
	"github.com/jeranaias/rkids-tui/internal/identity"
	"github.com/jeranaias/rkids-tui/internal/storage"
)

var (
	// ErrAlreadyAuthenticated is returned by Login while a session is held.
	ErrAlreadyAuthenticated = errors.New("already signed in")

	// ErrNoPendingSecondFactor is returned by VerifySecondFactor when no
	// first factor is awaiting a code.
	ErrNoPendingSecondFactor = errors.New("no sign-in is waiting for a verification code")

	// ErrNotAuthenticated is returned by operations that need an identity.
	ErrNotAuthenticated = errors.New("not signed in")

	// ErrTestModeDisabled is returned by SetRole outside test mode.
	ErrTestModeDisabled = errors.New("role override is only available in test mode")

	// ErrIncompleteResponse means the service completed a sign-in
	// without returning the user.
	ErrIncompleteResponse = errors.New("sign-in response did not include the user")

	// ErrStale means the session changed while the request was in
	// flight; the response was discarded.
	ErrStale = errors.New("session changed while the request was in flight")

	// ErrPasswordTooShort is returned by CompletePasswordSetup.
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
)

// MinPasswordLength is the shortest password accepted at setup.
const MinPasswordLength = 8

// =============================================================================
// COLLABORATORS
// =============================================================================

// Authenticator is the remote Authentication Service.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*authapi.LoginResult, error)
	VerifySecondFactor(ctx context.Context, code string, preAuth identity.Credential) (*authapi.VerifyResult, error)
	SetPassword(ctx context.Context, email, password, invitation string) (*authapi.LoginResult, error)
	Logout(ctx context.Context, cred identity.Credential) error
}

// Store is durable storage for the identity snapshot and credential.
type Store interface {
	Load() (identity.Identity, identity.Credential, error)
	Credential() (identity.Credential, bool)
	Save(id identity.Identity, cred identity.Credential) error
	SaveIdentity(id identity.Identity) error
	Clear() error
}

// Deps are the manager's injected collaborators. Auth and Store are
// required; the rest default to no-ops or real implementations.
type Deps struct {
	Auth      Authenticator
	Store     Store
	Navigator Navigator
	Clock     clock.Clock
	Activity  activity.Source
	Logger    *slog.Logger
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds the timing policy.
type Config struct {
	// IdleTimeout is the inactivity period that ends a session.
	IdleTimeout time.Duration

	// WarningLead is how long before IdleTimeout the warning is raised.
	WarningLead time.Duration

	// LogoutTimeout bounds the best-effort logout notification.
	LogoutTimeout time.Duration

	// TestMode enables SetRole. Never set in production.
	TestMode bool
}

// DefaultConfig returns the reference policy: 15 minutes idle, warning
// one minute before.
func DefaultConfig() Config {
	return Config{
		IdleTimeout:   15 * time.Minute,
		WarningLead:   1 * time.Minute,
		LogoutTimeout: 5 * time.Second,
	}
}

// Validate checks the timing policy.
func (c Config) Validate() error {
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("idle timeout must be positive, got %v", c.IdleTimeout)
	}
	if c.WarningLead <= 0 || c.WarningLead >= c.IdleTimeout {
		return fmt.Errorf("warning lead must be between 0 and the idle timeout (%v), got %v", c.IdleTimeout, c.WarningLead)
	}
	return nil
}

// =============================================================================
// SESSION MANAGER
// =============================================================================

type pendingSecondFactor struct {
	email    string
	preAuth  identity.Credential
	demoCode string
}

// Manager is the session lifecycle state machine. All methods are safe
// for concurrent use.
type Manager struct {
	mu sync.Mutex

	cfg    Config
	auth   Authenticator
	store  Store
	nav    Navigator
	clock  clock.Clock
	logger *slog.Logger

	state        State
	ident        *identity.Identity
	cred         identity.Credential
	pending      *pendingSecondFactor
	lastActivity time.Time

	// Timers are re-armed as a pair. timerEpoch changes on every arm and
	// stop so a callback already in flight can tell it is stale.
	warningTimer clock.Timer
	expireTimer  clock.Timer
	timerEpoch   uint64

	// generation changes on every teardown and every completed sign-in.
	generation uint64

	// seq numbers observable changes for subscribers.
	seq         uint64
	subs        map[int]func(Snapshot)
	nextSubID   int
	emitMu      sync.Mutex
	lastEmitted uint64

	unsubscribeActivity func()
	closed              bool
	tasks               sync.WaitGroup
}

// New creates a manager and restores any persisted session. A missing,
// corrupt, or expired snapshot starts the manager Anonymous.
func New(cfg Config, deps Deps) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Auth == nil {
		return nil, errors.New("session: authenticator is required")
	}
	if deps.Store == nil {
		return nil, errors.New("session: store is required")
	}
	if cfg.LogoutTimeout <= 0 {
		cfg.LogoutTimeout = DefaultConfig().LogoutTimeout
	}
	if deps.Navigator == nil {
		deps.Navigator = NavigatorFunc(func(Navigation) {})
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}

	m := &Manager{
		cfg:    cfg,
		auth:   deps.Auth,
		store:  deps.Store,
		nav:    deps.Navigator,
		clock:  deps.Clock,
		logger: deps.Logger,
		state:  Anonymous,
		subs:   make(map[int]func(Snapshot)),
	}

	m.mu.Lock()
	m.restoreLocked()
	m.mu.Unlock()

	if deps.Activity != nil {
		m.unsubscribeActivity = deps.Activity.Subscribe(m.RecordActivity)
	}
	return m, nil
}

// restoreLocked loads the persisted session and reports whether one was
// adopted. Caller holds m.mu.
func (m *Manager) restoreLocked() bool {
	id, cred, err := m.store.Load()
	switch {
	case errors.Is(err, storage.ErrPartialSession):
		m.logEvent(slog.LevelWarn, "SESSION_RESTORE_DISCARDED", "reason", "missing_credential")
		m.clearStoreLocked()
		return false
	case errors.Is(err, storage.ErrNoSession):
		return false
	case storage.IsCorrupt(err):
		m.logEvent(slog.LevelWarn, "SESSION_RESTORE_DISCARDED", "reason", "corrupt", "error", err)
		m.clearStoreLocked()
		return false
	case err != nil:
		m.logEvent(slog.LevelWarn, "SESSION_RESTORE_FAILED", "error", err)
		return false
	}

	if cred.Expired(m.clock.Now()) {
		m.logEvent(slog.LevelInfo, "SESSION_RESTORE_DISCARDED", "reason", "credential_expired", "user", id.ID)
		m.clearStoreLocked()
		return false
	}

	m.ident = &id
	m.cred = cred
	m.state = Authenticated
	m.lastActivity = m.clock.Now()
	m.seq++
	m.armTimersLocked()
	m.logEvent(slog.LevelInfo, "SESSION_RESTORED", "user", id.ID, "role", string(id.Role))
	return true
}

// Close stops the timers and the activity subscription and waits for
// background logout notifications. The persisted session is kept so a
// later New can restore it.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.stopTimersLocked()
	unsubscribe := m.unsubscribeActivity
	m.unsubscribeActivity = nil
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	m.tasks.Wait()
}

// =============================================================================
// AUTHENTICATION
// =============================================================================

// Login submits the first factor. On success the manager is either
// awaiting a second factor or authenticated. An account without a
// password yields LoginPasswordSetupRequired, a nil error, and a
// navigation to the password-setup route carrying the email.
func (m *Manager) Login(ctx context.Context, email, password string) (LoginOutcome, error) {
	email = strings.TrimSpace(email)
	return m.firstFactor(ctx, "LOGIN", email, func(ctx context.Context) (*authapi.LoginResult, error) {
		return m.auth.Login(ctx, email, password)
	})
}

// CompletePasswordSetup chooses a password for an invited account and
// continues exactly like Login.
func (m *Manager) CompletePasswordSetup(ctx context.Context, email, password, invitation string) (LoginOutcome, error) {
	if len(password) < MinPasswordLength {
		return 0, ErrPasswordTooShort
	}
	email = strings.TrimSpace(email)
	return m.firstFactor(ctx, "PASSWORD_SETUP", email, func(ctx context.Context) (*authapi.LoginResult, error) {
		return m.auth.SetPassword(ctx, email, password, invitation)
	})
}

func (m *Manager) firstFactor(ctx context.Context, op, email string, call func(context.Context) (*authapi.LoginResult, error)) (LoginOutcome, error) {
	m.mu.Lock()
	if m.state.IsAuthenticated() {
		m.mu.Unlock()
		return 0, ErrAlreadyAuthenticated
	}
	gen := m.generation
	m.mu.Unlock()

	res, err := call(ctx)
	if err != nil {
		if errors.Is(err, authapi.ErrPasswordNotSet) {
			return m.redirectToPasswordSetup(gen, email)
		}
		m.logEvent(slog.LevelInfo, op+"_FAILED", "email", maskEmail(email), "error", err)
		return 0, fmt.Errorf("sign in: %w", err)
	}

	m.mu.Lock()
	if m.generation != gen || m.state.IsAuthenticated() {
		m.mu.Unlock()
		m.logEvent(slog.LevelInfo, "STALE_RESPONSE_DROPPED", "op", op)
		if !res.Credential.IsZero() {
			m.notifyLogout(ctx, res.Credential)
		}
		return 0, ErrStale
	}

	if res.RequiresSecondFactor {
		m.pending = &pendingSecondFactor{email: email, preAuth: res.PreAuthToken, demoCode: res.DemoCode}
		m.state = AwaitingSecondFactor
		m.seq++
		m.mu.Unlock()

		m.logEvent(slog.LevelInfo, op+"_SECOND_FACTOR_REQUIRED", "email", maskEmail(email))
		m.emit()
		return LoginSecondFactorRequired, nil
	}

	if res.Identity == nil {
		m.mu.Unlock()
		m.logEvent(slog.LevelWarn, op+"_FAILED", "email", maskEmail(email), "error", ErrIncompleteResponse)
		m.notifyLogout(ctx, res.Credential)
		return 0, ErrIncompleteResponse
	}

	id := *res.Identity
	m.completeLocked(id, res.Credential)
	m.mu.Unlock()

	m.logEvent(slog.LevelInfo, op+"_SUCCESS", "user", id.ID, "role", string(id.Role))
	m.nav.Navigate(Navigation{Route: id.HomeRoute()})
	m.emit()
	return LoginAuthenticated, nil
}

func (m *Manager) redirectToPasswordSetup(gen uint64, email string) (LoginOutcome, error) {
	m.mu.Lock()
	stale := m.generation != gen
	m.mu.Unlock()
	if stale {
		return 0, ErrStale
	}

	m.logEvent(slog.LevelInfo, "PASSWORD_SETUP_REQUIRED", "email", maskEmail(email))
	m.nav.Navigate(Navigation{
		Route: RouteSetPassword,
		Query: url.Values{"email": []string{email}},
	})
	return LoginPasswordSetupRequired, nil
}

// VerifySecondFactor submits the one-time code for the pending sign-in.
// On failure the pending sign-in is kept so the user can retry.
func (m *Manager) VerifySecondFactor(ctx context.Context, code string) error {
	m.mu.Lock()
	if m.state != AwaitingSecondFactor || m.pending == nil {
		m.mu.Unlock()
		return ErrNoPendingSecondFactor
	}
	pending := *m.pending
	gen := m.generation
	m.mu.Unlock()

	res, err := m.auth.VerifySecondFactor(ctx, strings.TrimSpace(code), pending.preAuth)
	if err != nil {
		m.logEvent(slog.LevelInfo, "SECOND_FACTOR_FAILED", "email", maskEmail(pending.email), "error", err)
		return fmt.Errorf("verify code: %w", err)
	}

	m.mu.Lock()
	if m.generation != gen || m.pending == nil || m.pending.preAuth != pending.preAuth {
		m.mu.Unlock()
		m.logEvent(slog.LevelInfo, "STALE_RESPONSE_DROPPED", "op", "VERIFY")
		m.notifyLogout(ctx, res.Credential)
		return ErrStale
	}
	m.completeLocked(res.Identity, res.Credential)
	m.mu.Unlock()

	m.logEvent(slog.LevelInfo, "LOGIN_SUCCESS", "user", res.Identity.ID, "role", string(res.Identity.Role))
	m.nav.Navigate(Navigation{Route: res.Identity.HomeRoute()})
	m.emit()
	return nil
}

// completeLocked enters Authenticated with a fresh idle window.
// Caller holds m.mu.
func (m *Manager) completeLocked(id identity.Identity, cred identity.Credential) {
	m.ident = &id
	m.cred = cred
	m.pending = nil
	m.state = Authenticated
	m.lastActivity = m.clock.Now()
	m.generation++
	m.seq++
	m.armTimersLocked()

	if err := m.store.Save(id, cred); err != nil {
		m.logEvent(slog.LevelError, "SESSION_PERSIST_FAILED", "user", id.ID, "error", err)
	}
}

// =============================================================================
// TEARDOWN
// =============================================================================

// Logout ends the session. Local teardown always completes: timers are
// cancelled, memory and durable storage are cleared, and the navigator
// is reset to the root route. The service is then notified in the
// background; a failure there is only logged. Calling Logout with no
// session is harmless.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	user, cred := m.teardownLocked(true)
	m.mu.Unlock()

	m.logEvent(slog.LevelInfo, "LOGOUT", "user", user)
	m.nav.Navigate(Navigation{Route: RouteRoot, Reset: true})
	if !cred.IsZero() {
		m.notifyLogout(ctx, cred)
	}
	m.emit()
}

// Invalidate tears the session down locally without notifying the
// service, for a credential the service has already rejected.
func (m *Manager) Invalidate(reason string) {
	m.mu.Lock()
	if m.ident == nil && m.pending == nil {
		m.mu.Unlock()
		return
	}
	user, _ := m.teardownLocked(true)
	m.mu.Unlock()

	m.logEvent(slog.LevelInfo, "SESSION_INVALIDATED", "user", user, "reason", reason)
	m.nav.Navigate(Navigation{Route: RouteRoot, Reset: true})
	m.emit()
}

// RejectCredential invalidates the session if rejected is the credential
// currently held. It is the hook for 401 responses, which may arrive
// for a credential that has since been replaced.
func (m *Manager) RejectCredential(rejected identity.Credential) {
	m.mu.Lock()
	current := !m.cred.IsZero() && m.cred == rejected
	m.mu.Unlock()
	if current {
		m.Invalidate("credential_rejected")
	}
}

// SyncFromStore compares durable storage with memory. An anonymous
// manager adopts a session another process signed in; a held session is
// dropped if another process logged out or signed in as someone else.
// Storage is left as the other process wrote it.
func (m *Manager) SyncFromStore() {
	m.mu.Lock()
	if m.closed || m.pending != nil {
		m.mu.Unlock()
		return
	}
	if m.ident == nil {
		m.adoptFromStoreLocked()
		return
	}
	stored, ok := m.store.Credential()
	if ok && stored == m.cred {
		m.mu.Unlock()
		return
	}
	user, _ := m.teardownLocked(false)
	m.mu.Unlock()

	m.logEvent(slog.LevelInfo, "SESSION_INVALIDATED", "user", user, "reason", "external_change")
	m.nav.Navigate(Navigation{Route: RouteRoot, Reset: true})
	m.emit()
}

// adoptFromStoreLocked restores a session written by another process
// and sends the user home. Caller holds m.mu; it is released here.
func (m *Manager) adoptFromStoreLocked() {
	if !m.restoreLocked() {
		m.mu.Unlock()
		return
	}
	m.generation++
	home := m.ident.HomeRoute()
	user := m.ident.ID
	m.mu.Unlock()

	m.logEvent(slog.LevelInfo, "SESSION_ADOPTED", "user", user, "reason", "external_change")
	m.nav.Navigate(Navigation{Route: home, Reset: true})
	m.emit()
}

// teardownLocked returns to Anonymous and reports the departing user
// and credential. Caller holds m.mu.
func (m *Manager) teardownLocked(clearStore bool) (string, identity.Credential) {
	m.stopTimersLocked()

	user := ""
	if m.ident != nil {
		user = m.ident.ID
	}
	cred := m.cred
	changed := m.state != Anonymous

	m.ident = nil
	m.cred = ""
	m.pending = nil
	m.state = Anonymous
	m.generation++
	if changed {
		m.seq++
	}

	if clearStore {
		m.clearStoreLocked()
	}
	return user, cred
}

func (m *Manager) clearStoreLocked() {
	if err := m.store.Clear(); err != nil {
		m.logEvent(slog.LevelError, "SESSION_CLEAR_FAILED", "error", err)
	}
}

// notifyLogout revokes cred in the background. The request outlives
// ctx's cancellation but not LogoutTimeout.
func (m *Manager) notifyLogout(ctx context.Context, cred identity.Credential) {
	if cred.IsZero() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	detached := context.WithoutCancel(ctx)

	m.tasks.Add(1)
	go func() {
		defer m.tasks.Done()
		callCtx, cancel := context.WithTimeout(detached, m.cfg.LogoutTimeout)
		defer cancel()
		if err := m.auth.Logout(callCtx, cred); err != nil {
			m.logEvent(slog.LevelWarn, "LOGOUT_NOTIFY_FAILED", "error", err)
		}
	}()
}

// Wait blocks until background logout notifications have finished.
func (m *Manager) Wait() {
	m.tasks.Wait()
}

// =============================================================================
// ACTIVITY TRACKING
// =============================================================================

// RecordActivity restarts the idle window and clears any warning. It is
// ignored unless a session is held.
func (m *Manager) RecordActivity(kind activity.Kind) {
	m.mu.Lock()
	if m.closed || !m.state.IsAuthenticated() {
		m.mu.Unlock()
		return
	}
	m.lastActivity = m.clock.Now()
	clearedWarning := m.state == AuthenticatedIdleWarning
	m.state = Authenticated
	m.armTimersLocked()
	if clearedWarning {
		m.seq++
	}
	m.mu.Unlock()

	if clearedWarning {
		m.logEvent(slog.LevelDebug, "IDLE_WARNING_CLEARED", "activity", kind.String())
		m.emit()
	}
}

// armTimersLocked replaces both idle timers. Caller holds m.mu.
func (m *Manager) armTimersLocked() {
	m.stopTimersLocked()
	if m.closed {
		return
	}
	epoch := m.timerEpoch

	m.warningTimer = m.clock.AfterFunc(m.cfg.IdleTimeout-m.cfg.WarningLead, func() {
		m.onWarningTimer(epoch)
	})
	m.expireTimer = m.clock.AfterFunc(m.cfg.IdleTimeout, func() {
		m.onExpireTimer(epoch)
	})
}

// stopTimersLocked cancels both timers and invalidates any callback
// already past its Stop. Caller holds m.mu.
func (m *Manager) stopTimersLocked() {
	if m.warningTimer != nil {
		m.warningTimer.Stop()
		m.warningTimer = nil
	}
	if m.expireTimer != nil {
		m.expireTimer.Stop()
		m.expireTimer = nil
	}
	m.timerEpoch++
}

func (m *Manager) onWarningTimer(epoch uint64) {
	m.mu.Lock()
	if epoch != m.timerEpoch || m.state != Authenticated {
		m.mu.Unlock()
		return
	}
	m.warningTimer = nil
	m.state = AuthenticatedIdleWarning
	m.seq++
	user := m.ident.ID
	m.mu.Unlock()

	m.logEvent(slog.LevelInfo, "IDLE_WARNING", "user", user, "expires_in", m.cfg.WarningLead)
	m.emit()
}

func (m *Manager) onExpireTimer(epoch uint64) {
	m.mu.Lock()
	if epoch != m.timerEpoch || !m.state.IsAuthenticated() {
		m.mu.Unlock()
		return
	}
	m.expireTimer = nil
	user, cred := m.teardownLocked(true)
	m.mu.Unlock()

	m.logEvent(slog.LevelInfo, "IDLE_TIMEOUT", "user", user, "idle", m.cfg.IdleTimeout)
	m.nav.Navigate(Navigation{Route: RouteRoot, Reset: true})
	m.notifyLogout(context.Background(), cred)
	m.emit()
}

// =============================================================================
// PROFILE
// =============================================================================

// UpdateProfile merges p into the current identity, persists it, and
// returns the merged identity. With no identity held it does nothing
// and reports false.
func (m *Manager) UpdateProfile(p identity.Patch) (identity.Identity, bool) {
	m.mu.Lock()
	if m.ident == nil {
		m.mu.Unlock()
		return identity.Identity{}, false
	}
	merged := m.ident.Apply(p)
	m.ident = &merged
	m.seq++
	if err := m.store.SaveIdentity(merged); err != nil {
		m.logEvent(slog.LevelError, "SESSION_PERSIST_FAILED", "user", merged.ID, "error", err)
	}
	m.mu.Unlock()

	m.logEvent(slog.LevelInfo, "PROFILE_UPDATED", "user", merged.ID)
	m.emit()
	return merged, true
}

// SetRole overwrites the current identity's role without asking the
// service. It exists for exercising role-specific screens and is
// refused unless the manager was built with Config.TestMode.
func (m *Manager) SetRole(role identity.Role) error {
	if !m.cfg.TestMode {
		return ErrTestModeDisabled
	}
	if !role.Valid() {
		return fmt.Errorf("%w: %q", identity.ErrUnknownRole, string(role))
	}

	m.mu.Lock()
	if m.ident == nil {
		m.mu.Unlock()
		return ErrNotAuthenticated
	}
	updated := *m.ident
	updated.Role = role
	m.ident = &updated
	m.seq++
	if err := m.store.SaveIdentity(updated); err != nil {
		m.logEvent(slog.LevelError, "SESSION_PERSIST_FAILED", "user", updated.ID, "error", err)
	}
	m.mu.Unlock()

	m.logEvent(slog.LevelWarn, "ROLE_OVERRIDDEN", "user", updated.ID, "role", string(role))
	m.emit()
	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Identity returns a copy of the current identity.
func (m *Manager) Identity() (identity.Identity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ident == nil {
		return identity.Identity{}, false
	}
	return *m.ident, true
}

// Credential returns the bearer credential for authenticated requests.
func (m *Manager) Credential() identity.Credential {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cred
}

// IsAuthenticated reports whether an identity is held.
func (m *Manager) IsAuthenticated() bool {
	return m.State().IsAuthenticated()
}

// PendingSecondFactor reports whether a sign-in awaits its code.
func (m *Manager) PendingSecondFactor() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending != nil
}

// DemoCode returns the one-time code surfaced by a demo service, if any.
func (m *Manager) DemoCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return ""
	}
	return m.pending.demoCode
}

// IdleWarning reports whether the session-expiring warning is active.
func (m *Manager) IdleWarning() bool {
	return m.State() == AuthenticatedIdleWarning
}

// LastActivity returns when the idle window last restarted.
func (m *Manager) LastActivity() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastActivity
}

// Remaining returns the time left before idle logout, or zero.
func (m *Manager) Remaining() time.Duration {
	return m.Snapshot().Remaining(m.clock.Now())
}

// PendingTimers returns how many idle timers are armed.
func (m *Manager) PendingTimers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	if m.warningTimer != nil {
		n++
	}
	if m.expireTimer != nil {
		n++
	}
	return n
}

// Config returns the timing policy.
func (m *Manager) Config() Config {
	return m.cfg
}

// Snapshot returns a consistent copy of the observable state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	s := Snapshot{
		Seq:          m.seq,
		State:        m.state,
		IdleWarning:  m.state == AuthenticatedIdleWarning,
		LastActivity: m.lastActivity,
	}
	if m.ident != nil {
		id := *m.ident
		s.Identity = &id
		s.Deadline = m.lastActivity.Add(m.cfg.IdleTimeout)
	}
	if m.pending != nil {
		s.PendingSecondFactor = true
		s.DemoCode = m.pending.demoCode
	}
	return s
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// Subscribe registers fn to receive a snapshot after each observable
// change. Snapshots arrive in increasing Seq order; intermediate ones
// may be skipped under contention. fn runs on the goroutine that caused
// the change and must not call Manager methods that change state.
func (m *Manager) Subscribe(fn func(Snapshot)) (cancel func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSubID
	m.nextSubID++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

func (m *Manager) emit() {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()

	m.mu.Lock()
	snap := m.snapshotLocked()
	if snap.Seq <= m.lastEmitted {
		m.mu.Unlock()
		return
	}
	m.lastEmitted = snap.Seq
	fns := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// logEvent records a session event. Credentials never reach here.
func (m *Manager) logEvent(level slog.Level, event string, attrs ...any) {
	m.logger.Log(context.Background(), level, "session event", append([]any{"event", event}, attrs...)...)
}

// maskEmail keeps the domain and first letter: "t***@rkids.church".
func maskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return "***"
	}
	first, _ := utf8.DecodeRuneInString(local)
	return string(first) + "***@" + domain
}

// FormatDuration returns a human-readable duration string.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if secs == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dm %ds", mins, secs)
}
