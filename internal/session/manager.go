package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/streamlyhq/streamly/internal/shared"
	"github.com/streamlyhq/streamly/internal/streamly"
)

// State is the manager's view of whether a user is signed in.
type State int

const (
	// StateUnknown means restore has not yet resolved the session.
	StateUnknown State = iota
	// StateAuthenticated means a user is signed in.
	StateAuthenticated
	// StateAnonymous means no user is signed in.
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Session is a snapshot of the signed-in user.
type Session struct {
	User      *streamly.User
	StartedAt time.Time
}

// AuthAPI is the slice of the backend client the manager depends on.
type AuthAPI interface {
	Me(ctx context.Context) (*streamly.User, error)
	Login(ctx context.Context, email, password string) (*streamly.User, string, error)
	Logout(ctx context.Context) (string, error)
	Refresh(ctx context.Context) error
}

// Manager owns the session lifecycle: restore, login, logout, silent renewal,
// and reacting to logout signals from other processes.
//
// It also serves as the gateway's renewer, so a 401 anywhere in the app funnels
// through the same renewal path as the background timer.
type Manager struct {
	auth      AuthAPI
	tokens    *TokenStore
	conf      shared.AuthConfig
	broadcast *Broadcaster
	logger    *log.Logger

	mu            sync.Mutex
	state         State
	session       *Session
	cancelRenewal context.CancelFunc
	onChange      func(State)

	// renewalOverride replaces the computed renewal interval in tests.
	renewalOverride time.Duration
}

// NewManager creates a Manager. broadcast may be nil when cross-process
// propagation is disabled.
func NewManager(auth AuthAPI, tokens *TokenStore, conf shared.AuthConfig, broadcast *Broadcaster, logger *log.Logger) *Manager {
	return &Manager{
		auth:      auth,
		tokens:    tokens,
		conf:      conf,
		broadcast: broadcast,
		logger:    logger,
		state:     StateUnknown,
	}
}

// OnChange registers a callback fired after each state transition.
func (m *Manager) OnChange(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// Current returns the session snapshot and state. The snapshot is nil unless
// the state is StateAuthenticated.
func (m *Manager) Current() (*Session, State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session, m.state
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Restore resolves the initial state from whatever ambient credentials exist.
//
// Failure is not an error condition: an unreachable backend or a stale
// credential both resolve to StateAnonymous without surfacing anything to the
// caller.
func (m *Manager) Restore(ctx context.Context) State {
	if err := m.tokens.Load(); err != nil {
		m.logger.Debug("no usable cached credential", "err", err)
	}

	user, err := m.auth.Me(ctx)
	if err != nil {
		m.logger.Debug("session restore resolved anonymous", "err", err)
		if errors.Is(err, shared.ErrNotAuthenticated) {
			m.clearLocal()
		} else {
			// An unreachable backend says nothing about the credential;
			// keep it on disk so the next start can try again.
			m.resolveAnonymous()
		}
		return StateAnonymous
	}

	m.establish(user, m.tokens.Lifetime(m.conf.TokenLifetime()))
	return StateAuthenticated
}

// Login authenticates with the given credentials and starts a session.
//
// Returns [shared.ErrAlreadyLoggedIn] when a session is already active.
// Backend failures propagate verbatim so the caller can display them.
func (m *Manager) Login(ctx context.Context, email, password string) (*streamly.User, error) {
	m.mu.Lock()
	if m.state == StateAuthenticated {
		m.mu.Unlock()
		return nil, shared.ErrAlreadyLoggedIn
	}
	m.mu.Unlock()

	user, accessToken, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	lifetime := m.conf.TokenLifetime()
	if accessToken != "" {
		lifetime = credentialLifetime(accessToken, lifetime)
		if err := m.tokens.Save(accessToken, time.Now().Add(lifetime)); err != nil {
			m.logger.Warn("failed to persist credential", "err", err)
		}
	}

	m.logger.Info("logged in", "email", user.Email, "role", user.Role)
	m.establish(user, lifetime)
	return user, nil
}

// Adopt starts a session from a credential issued out of band, e.g. handed to
// the loopback callback by an identity-provider redirect.
//
// Returns [shared.ErrAlreadyLoggedIn] when a session is already active.
func (m *Manager) Adopt(ctx context.Context, accessToken string) (*streamly.User, error) {
	m.mu.Lock()
	if m.state == StateAuthenticated {
		m.mu.Unlock()
		return nil, shared.ErrAlreadyLoggedIn
	}
	m.mu.Unlock()

	if accessToken == "" {
		return nil, shared.ErrMissingCredentials
	}

	lifetime := credentialLifetime(accessToken, m.conf.TokenLifetime())
	if err := m.tokens.Save(accessToken, time.Now().Add(lifetime)); err != nil {
		m.logger.Warn("failed to persist credential", "err", err)
	}

	user, err := m.auth.Me(ctx)
	if err != nil {
		m.tokens.Clear()
		return nil, err
	}

	m.logger.Info("logged in", "email", user.Email, "role", user.Role, "provider", user.Provider)
	m.establish(user, lifetime)
	return user, nil
}

// Logout ends the session everywhere: the backend call is best effort, local
// state is cleared unconditionally, and other processes are signalled.
func (m *Manager) Logout(ctx context.Context) error {
	if _, err := m.auth.Logout(ctx); err != nil {
		m.logger.Warn("backend logout failed, clearing local session anyway", "err", err)
	}

	m.clearLocal()

	if m.broadcast != nil {
		if err := m.broadcast.Broadcast(); err != nil {
			m.logger.Warn("failed to signal logout to other processes", "err", err)
		}
	}
	return nil
}

// Refresh re-synchronizes the snapshot with the backend's view of the session.
// A definitive "not signed in" answer resolves to anonymous; transport
// failures propagate without changing state.
func (m *Manager) Refresh(ctx context.Context) error {
	user, err := m.auth.Me(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			m.clearLocal()
			return nil
		}
		return err
	}

	m.mu.Lock()
	if m.state == StateAuthenticated && m.session != nil {
		m.session.User = user
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	m.establish(user, m.tokens.Lifetime(m.conf.TokenLifetime()))
	return nil
}

// Renew performs one silent credential renewal against the backend. The
// gateway calls this when a request comes back 401.
func (m *Manager) Renew(ctx context.Context) error {
	if err := m.auth.Refresh(ctx); err != nil {
		return err
	}
	// The renewed credential lives in the cookie jar; drop the stale bearer
	// so subsequent requests ride on the cookie.
	m.tokens.Clear()
	return nil
}

// Expire clears the local session after a terminal authentication failure or
// a logout signalled by another process. It neither calls the backend nor
// re-broadcasts, so signal handling cannot loop.
func (m *Manager) Expire() {
	m.clearLocal()
}

// Close stops the renewal timer.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopRenewalLocked()
}

func (m *Manager) establish(user *streamly.User, lifetime time.Duration) {
	m.mu.Lock()
	m.state = StateAuthenticated
	m.session = &Session{User: user, StartedAt: time.Now()}
	fn := m.onChange
	m.mu.Unlock()

	m.scheduleRenewal(lifetime)

	if fn != nil {
		fn(StateAuthenticated)
	}
}

func (m *Manager) clearLocal() {
	m.tokens.Clear()
	m.resolveAnonymous()
}

// resolveAnonymous drops the in-memory session and stops the renewal timer
// without touching the persisted credential.
func (m *Manager) resolveAnonymous() {
	m.mu.Lock()
	changed := m.state != StateAnonymous
	m.state = StateAnonymous
	m.session = nil
	m.stopRenewalLocked()
	fn := m.onChange
	m.mu.Unlock()

	if changed && fn != nil {
		fn(StateAnonymous)
	}
}

// scheduleRenewal (re)starts the silent-renewal timer. At most one timer runs
// per manager; scheduling cancels any predecessor.
func (m *Manager) scheduleRenewal(lifetime time.Duration) {
	interval := m.conf.RenewalInterval(lifetime)
	if m.renewalOverride > 0 {
		interval = m.renewalOverride
	}

	m.mu.Lock()
	m.stopRenewalLocked()
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelRenewal = cancel
	m.mu.Unlock()

	m.logger.Debug("silent renewal scheduled", "interval", interval)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.auth.Refresh(ctx); err != nil {
					m.logger.Warn("silent renewal failed, ending session", "err", err)
					m.Logout(context.WithoutCancel(ctx))
					return
				}
				m.tokens.Clear()
				m.logger.Debug("session renewed silently")
			}
		}
	}()
}

func (m *Manager) stopRenewalLocked() {
	if m.cancelRenewal != nil {
		m.cancelRenewal()
		m.cancelRenewal = nil
	}
}
