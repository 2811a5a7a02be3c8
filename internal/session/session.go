package session

import (
	"context"
	"sync"
	"time"

	"attendanceportal/internal/auth"
	"attendanceportal/internal/cookiestore"
)

// Role names the two independent session kinds.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// State is the observable session state: either unauthenticated or
// authenticated with an identity (email for students, username for admins).
type State struct {
	Identity      string
	Authenticated bool
}

// Backup is the secondary session channel. The cookie is authoritative;
// the backup is consulted read-only when the cookie yields nothing and is
// only ever written alongside a cookie write.
type Backup interface {
	SessionBackup(ctx context.Context, key string) string
	SaveSessionBackup(ctx context.Context, key, identity string, ttl time.Duration) error
	DropSessionBackup(ctx context.Context, key string) error
}

// Config describes one role's session policy.
type Config struct {
	Role       Role
	CookieName string
	TTL        time.Duration
	JWTIssuer  string
	SigningKey string
}

// TokenCookie is the name of the signed companion cookie for this role.
func (c Config) TokenCookie() string { return c.CookieName + "_token" }

func (c Config) backupKey(identity string) string {
	return string(c.Role) + ":" + identity
}

// Manager builds per-request Holders for one role.
type Manager struct {
	cfg    Config
	backup Backup
}

// NewManager creates a manager. backup may be nil.
func NewManager(cfg Config, backup Backup) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &Manager{cfg: cfg, backup: backup}
}

// Config returns the manager's session policy.
func (m *Manager) Config() Config { return m.cfg }

// Bind attaches a jar (one browser's cookies) and returns an unhydrated Holder.
func (m *Manager) Bind(jar cookiestore.Jar) *Holder {
	return &Holder{cfg: m.cfg, jar: jar, backup: m.backup}
}

// Holder carries the current session state for one role and one jar.
// All transitions go through Login and Logout; every transition is
// broadcast to OnChange subscribers.
type Holder struct {
	cfg    Config
	jar    cookiestore.Jar
	backup Backup

	mu       sync.Mutex
	hydrated bool
	state    State
	epoch    uint64
	subs     []func(State)
}

// Hydrate reads persisted state once. Subsequent calls are no-ops.
//
// The cookie is the primary source. When it is missing, a still-valid
// companion token can restore the session, but only if the backup channel
// (when configured) still mirrors the identity; logout drops the mirror,
// so a leftover token alone cannot resurrect a session.
func (h *Holder) Hydrate(ctx context.Context) State {
	h.mu.Lock()
	if h.hydrated {
		st := h.state
		h.mu.Unlock()
		return st
	}
	h.hydrated = true

	identity, ok := h.jar.Get(h.cfg.CookieName)
	if !ok {
		identity, ok = h.recover(ctx)
	}
	if ok && identity != "" {
		h.state = State{Identity: identity, Authenticated: true}
	}
	st := h.state
	subs := append([]func(State){}, h.subs...)
	h.mu.Unlock()

	if st.Authenticated {
		notify(subs, st)
	}
	return st
}

func (h *Holder) recover(ctx context.Context) (string, bool) {
	tok, ok := h.jar.Get(h.cfg.TokenCookie())
	if !ok {
		return "", false
	}
	claims, err := auth.ParseSessionToken(tok, h.cfg.SigningKey, h.cfg.JWTIssuer)
	if err != nil || claims.Role != string(h.cfg.Role) || claims.Identity == "" {
		return "", false
	}
	if h.backup != nil {
		if h.backup.SessionBackup(ctx, h.cfg.backupKey(claims.Identity)) != claims.Identity {
			return "", false
		}
	}
	return claims.Identity, true
}

// State returns the current state without hydrating.
func (h *Holder) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Authenticated reports whether an identity is held.
func (h *Holder) Authenticated() bool { return h.State().Authenticated }

// Identity returns the held identity, or "".
func (h *Holder) Identity() string { return h.State().Identity }

// Login transitions to Authenticated(identity), overwriting any prior
// identity, and persists: identity cookie first (primary), then the signed
// companion token, then the backup mirror. Cookie and mirror writes are
// best effort; the returned error reports the primary write only.
func (h *Holder) Login(ctx context.Context, identity string) error {
	h.mu.Lock()
	h.hydrated = true
	if h.state.Authenticated && h.state.Identity != identity {
		h.epoch++
	}
	h.state = State{Identity: identity, Authenticated: true}
	st := h.state
	subs := append([]func(State){}, h.subs...)
	h.mu.Unlock()

	err := h.jar.Set(h.cfg.CookieName, identity, h.cfg.TTL)

	if tok, terr := auth.IssueSessionToken(identity, string(h.cfg.Role), h.cfg.JWTIssuer, h.cfg.SigningKey, h.cfg.TTL); terr == nil {
		_ = h.jar.Set(h.cfg.TokenCookie(), tok, h.cfg.TTL)
	}
	if h.backup != nil {
		_ = h.backup.SaveSessionBackup(ctx, h.cfg.backupKey(identity), identity, h.cfg.TTL)
	}

	notify(subs, st)
	return err
}

// Logout transitions to Unauthenticated, clears every channel holding the
// identity and invalidates outstanding fetches by bumping the epoch.
func (h *Holder) Logout(ctx context.Context) {
	h.mu.Lock()
	h.hydrated = true
	prev := h.state
	h.state = State{}
	h.epoch++
	st := h.state
	subs := append([]func(State){}, h.subs...)
	h.mu.Unlock()

	h.jar.Remove(h.cfg.CookieName)
	h.jar.Remove(h.cfg.TokenCookie())
	if h.backup != nil && prev.Identity != "" {
		_ = h.backup.DropSessionBackup(ctx, h.cfg.backupKey(prev.Identity))
	}

	notify(subs, st)
}

// Epoch returns the invalidation counter. Capture it before issuing
// fetches and check StillValid before applying their results.
func (h *Holder) Epoch() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.epoch
}

// StillValid reports whether results from fetches issued at epoch may
// still be applied.
func (h *Holder) StillValid(epoch uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.epoch == epoch && h.state.Authenticated
}

// OnChange registers fn to run after every state transition.
func (h *Holder) OnChange(fn func(State)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs = append(h.subs, fn)
}

func notify(subs []func(State), st State) {
	for _, fn := range subs {
		fn(st)
	}
}
