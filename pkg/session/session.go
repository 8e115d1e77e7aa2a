// Package session persists the signed-in user's backend token and profile
// across page loads, on top of gorilla/sessions.
//
// A Session is created at login (Set), read by the route guard on every page
// (Get) and destroyed at logout or when the backend rejects the token (Clear).
package session

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/bidzilla/bidzilla-web/pkg/models"
)

// Session value keys.
const (
	KeyToken = "token"
	KeyUser  = "user" // JSON-encoded models.User
	KeyRole  = "role"
)

// Session is the authentication state of one browser.
type Session struct {
	Token string
	User  *models.User
}

// Authenticated reports whether both a token and a user are present.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != "" && s.User != nil
}

// Role returns the signed-in user's role, or "" when signed out.
func (s *Session) Role() models.Role {
	if s == nil || s.User == nil {
		return ""
	}
	return s.User.Role
}

// FlashKind distinguishes failure alerts from success acknowledgments.
type FlashKind string

const (
	FlashAlert  FlashKind = "alert"
	FlashNotice FlashKind = "notice"
)

var flashKinds = []FlashKind{FlashAlert, FlashNotice}

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    FlashKind
	Message string
}

func flashKey(kind FlashKind) string {
	return "_flash_" + string(kind)
}

// Store reads and writes sessions for HTTP requests.
type Store interface {
	Get(r *http.Request) (*Session, error)
	Set(w http.ResponseWriter, r *http.Request, user models.User, token string) error
	Clear(w http.ResponseWriter, r *http.Request) error
	AddFlash(w http.ResponseWriter, r *http.Request, kind FlashKind, message string) error
	Flashes(w http.ResponseWriter, r *http.Request) ([]Flash, error)
}

// TokenSealer encrypts the backend token at rest in the session.
type TokenSealer interface {
	Seal(token string) (string, error)
	Open(sealed string) (string, error)
}

// Manager implements Store over any gorilla sessions.Store.
type Manager struct {
	store  sessions.Store
	name   string
	sealer TokenSealer
	logger *zap.Logger
}

var _ Store = (*Manager)(nil)

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithTokenSealer stores the token sealed instead of in the clear.
func WithTokenSealer(s TokenSealer) ManagerOption {
	return func(m *Manager) { m.sealer = s }
}

// NewManager wraps a gorilla store. name is the session cookie name.
func NewManager(store sessions.Store, name string, logger *zap.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:  store,
		name:   name,
		logger: logger.Named("session"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewCookieStore creates a store that keeps the whole session in a signed cookie.
//
// The secret can be any passphrase; it is SHA-256 hashed to derive a 32-byte
// signing key. It must be consistent across restarts and across servers in a
// load-balanced deployment. Values are signed, not encrypted.
func NewCookieStore(secret string, settings CookieSettings, maxAge int) *sessions.CookieStore {
	key := sha256.Sum256([]byte(secret))

	store := sessions.NewCookieStore(key[:])
	store.Options = settings.Options(maxAge)
	store.MaxAge(maxAge)
	return store
}

// load returns the underlying gorilla session. A cookie that fails to decode
// (rotated secret, tampering) yields a fresh empty session rather than an error.
func (m *Manager) load(r *http.Request) (*sessions.Session, error) {
	sess, err := m.store.Get(r, m.name)
	if err != nil {
		if sess == nil {
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
		m.logger.Debug("Discarding undecodable session cookie", zap.Error(err))
	}
	return sess, nil
}

// Get returns the persisted token and user, or an empty Session.
func (m *Manager) Get(r *http.Request) (*Session, error) {
	sess, err := m.load(r)
	if err != nil {
		return nil, err
	}

	token, _ := sess.Values[KeyToken].(string)
	rawUser, _ := sess.Values[KeyUser].(string)
	if token == "" || rawUser == "" {
		return &Session{}, nil
	}

	var user models.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		m.logger.Warn("Stored user is not valid JSON; treating session as signed out", zap.Error(err))
		return &Session{}, nil
	}

	if m.sealer != nil {
		opened, err := m.sealer.Open(token)
		if err != nil {
			m.logger.Warn("Stored token could not be opened; treating session as signed out", zap.Error(err))
			return &Session{}, nil
		}
		token = opened
	}

	return &Session{Token: token, User: &user}, nil
}

// Set persists the user and token.
func (m *Manager) Set(w http.ResponseWriter, r *http.Request, user models.User, token string) error {
	sess, err := m.load(r)
	if err != nil {
		return err
	}

	rawUser, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	if m.sealer != nil {
		if token, err = m.sealer.Seal(token); err != nil {
			return fmt.Errorf("failed to seal token: %w", err)
		}
	}

	sess.Values[KeyToken] = token
	sess.Values[KeyUser] = string(rawUser)
	sess.Values[KeyRole] = string(user.Role)

	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear removes the token, user and role. Pending flashes are kept so a
// "signed out" or "session expired" message can still be shown.
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) error {
	sess, err := m.load(r)
	if err != nil {
		return err
	}

	delete(sess.Values, KeyToken)
	delete(sess.Values, KeyUser)
	delete(sess.Values, KeyRole)

	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// AddFlash queues a message for the next rendered page.
func (m *Manager) AddFlash(w http.ResponseWriter, r *http.Request, kind FlashKind, message string) error {
	sess, err := m.load(r)
	if err != nil {
		return err
	}

	sess.AddFlash(message, flashKey(kind))
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Flashes returns and consumes all queued messages, alerts first.
func (m *Manager) Flashes(w http.ResponseWriter, r *http.Request) ([]Flash, error) {
	sess, err := m.load(r)
	if err != nil {
		return nil, err
	}

	var out []Flash
	for _, kind := range flashKinds {
		for _, v := range sess.Flashes(flashKey(kind)) {
			if msg, ok := v.(string); ok {
				out = append(out, Flash{Kind: kind, Message: msg})
			}
		}
	}

	if len(out) == 0 {
		return nil, nil
	}
	if err := sess.Save(r, w); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return out, nil
}
