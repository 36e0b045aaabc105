// Package session owns the process-wide authenticated-user state: the
// hydrate-once mount sequence, the Hydrating/Authenticated/Anonymous state
// machine, and the single invalidation path every sign-out funnels into.
package session

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"fittrack/config"
	"fittrack/models"
	"fittrack/services/tokenstore"
)

// State identifies where the session lifecycle currently stands.
type State int

const (
	// StateHydrating is the initial state, until the mount sequence ends.
	StateHydrating State = iota
	StateAuthenticated
	StateAnonymous
)

// String returns a short label for the state.
func (s State) String() string {
	switch s {
	case StateHydrating:
		return "hydrating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// Snapshot is the read view handed to consumers. CurrentUser and Profile
// always change together; IsLoading is true only while hydration runs.
type Snapshot struct {
	CurrentUser *models.User
	Profile     *models.Profile
	IsLoading   bool
}

// AuthService is the slice of the auth layer the manager drives.
type AuthService interface {
	CurrentUser(ctx context.Context) (models.User, error)
	Logout(ctx context.Context) error
}

// ProfileService fetches the expanded profile record.
type ProfileService interface {
	Get(ctx context.Context, id int) (models.Profile, error)
}

// Manager is the single source of truth for who is signed in. It is built
// once at process start and injected into everything that reads auth state.
type Manager struct {
	mu         sync.RWMutex
	state      State
	user       *models.User
	profile    *models.Profile
	hydrated   bool
	generation uint64

	tokens   *tokenstore.Store
	auth     AuthService
	profiles ProfileService

	// redirected guards the sign-in redirect: at most one per
	// signed-out period, reset by the next successful sign-in.
	redirected       atomic.Bool
	onSignInRedirect func()
	onNotice         func(string)
	settings         *config.Manager
}

// NewManager creates the manager in the Hydrating state.
func NewManager(tokens *tokenstore.Store, auth AuthService, profiles ProfileService) *Manager {
	return &Manager{
		state:    StateHydrating,
		tokens:   tokens,
		auth:     auth,
		profiles: profiles,
	}
}

// SetOnSignInRedirect registers the navigation hook fired when the session
// becomes unrecoverable. Wire during construction, before any request.
func (m *Manager) SetOnSignInRedirect(fn func()) {
	m.mu.Lock()
	m.onSignInRedirect = fn
	m.mu.Unlock()
}

// SetOnNotice registers the user-visible notice hook ("session expired").
func (m *Manager) SetOnNotice(fn func(string)) {
	m.mu.Lock()
	m.onNotice = fn
	m.mu.Unlock()
}

// SetSettingsManager wires the persisted client settings, used to remember
// the last signed-in username.
func (m *Manager) SetSettingsManager(settings *config.Manager) {
	m.mu.Lock()
	m.settings = settings
	m.mu.Unlock()
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Snapshot returns the consumer view in a single observable read.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		CurrentUser: m.user,
		Profile:     m.profile,
		IsLoading:   m.state == StateHydrating,
	}
}

// Hydrate runs the mount sequence once per process lifetime: read the
// persisted token, fetch the user, fetch the expanded profile, and settle
// in Authenticated or Anonymous. Further calls are no-ops, and a call with
// no stored token settles in Anonymous without touching the network.
func (m *Manager) Hydrate(ctx context.Context) {
	m.mu.Lock()
	if m.hydrated {
		m.mu.Unlock()
		return
	}
	m.hydrated = true
	generation := m.generation
	m.mu.Unlock()

	if _, ok := m.tokens.Token(); !ok {
		m.settle(generation, nil, nil)
		return
	}

	user, err := m.auth.CurrentUser(ctx)
	if err != nil {
		log.Printf("[session] hydration failed: %v", err)
		m.expire()
		return
	}
	if !user.HasProfile() {
		log.Printf("[session] hydration got a user record without a profile, treating session as invalid")
		m.expire()
		return
	}

	profile, err := m.profiles.Get(ctx, user.Profile.ID)
	if err != nil {
		log.Printf("[session] profile fetch during hydration failed: %v", err)
		m.expire()
		return
	}

	m.settle(generation, &user, &profile)
}

// SetCurrentUser replaces the signed-in user wholesale after a successful
// login or registration. Partial-field mutation is not offered: "user
// changed" stays a single observable event.
func (m *Manager) SetCurrentUser(user models.User) {
	m.mu.Lock()
	u := user
	m.user = &u
	m.profile = nil
	m.state = StateAuthenticated
	m.generation++
	settings := m.settings
	m.mu.Unlock()

	m.redirected.Store(false)

	if settings != nil && user.Username != "" {
		if err := settings.Update(func(s *config.Settings) {
			s.LastUsername = user.Username
		}); err != nil {
			log.Printf("[session] remember username: %v", err)
		}
	}
}

// LoadProfile fetches the expanded profile for the current user. A sign-out
// racing the fetch wins: the stale result is dropped.
func (m *Manager) LoadProfile(ctx context.Context) error {
	m.mu.RLock()
	user := m.user
	generation := m.generation
	m.mu.RUnlock()

	if user == nil || !user.HasProfile() {
		return nil
	}

	profile, err := m.profiles.Get(ctx, user.Profile.ID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if generation == m.generation {
		p := profile
		m.profile = &p
	}
	m.mu.Unlock()
	return nil
}

// Logout signs out: best-effort against the server, unconditional locally.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.auth.Logout(ctx); err != nil {
		log.Printf("[session] logout: %v", err)
	}
	m.Invalidate("")
}

// Invalidate drops the authenticated session. Token, user, and profile are
// cleared together, and the sign-in redirect fires at most once until the
// next successful sign-in.
func (m *Manager) Invalidate(notice string) {
	if err := m.tokens.Clear(); err != nil {
		log.Printf("[session] clear token: %v", err)
	}

	m.mu.Lock()
	m.user = nil
	m.profile = nil
	m.state = StateAnonymous
	m.generation++
	notify := m.onNotice
	redirect := m.onSignInRedirect
	m.mu.Unlock()

	// The interceptor's expired-session hook and the hydration failure
	// path can both land here for one failure; only the first sink of a
	// signed-out period speaks to the user.
	if !m.redirected.CompareAndSwap(false, true) {
		return
	}
	if notice != "" && notify != nil {
		notify(notice)
	}
	if redirect != nil {
		redirect()
	}
}

// expire is the hydration-failure path: same invalidation, fixed notice.
func (m *Manager) expire() {
	m.Invalidate("your session has expired, please sign in again")
}

// settle finishes hydration. A sign-out that raced the fetches wins over
// the hydration result.
func (m *Manager) settle(generation uint64, user *models.User, profile *models.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if generation != m.generation {
		if m.state == StateHydrating {
			m.state = StateAnonymous
		}
		return
	}

	if user != nil {
		m.user = user
		m.profile = profile
		m.state = StateAuthenticated
	} else {
		m.user = nil
		m.profile = nil
		m.state = StateAnonymous
	}
}
