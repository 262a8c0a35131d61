package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/rs/zerolog"
)

// DefaultCookieName is the session cookie name
const DefaultCookieName = "equitylab_session"

// ManagerConfig configures the session cookie
type ManagerConfig struct {
	Secret     string
	TTL        time.Duration
	CookieName string
	Secure     bool
}

// Manager loads and saves request sessions. The cookie carries only the
// signed session id; values live in the Store.
type Manager struct {
	store  Store
	codec  *securecookie.SecureCookie
	ttl    time.Duration
	cookie string
	secure bool
	now    func() time.Time
	log    zerolog.Logger
}

// NewManager creates a session manager
func NewManager(store Store, cfg ManagerConfig, log zerolog.Logger) *Manager {
	name := cfg.CookieName
	if name == "" {
		name = DefaultCookieName
	}

	codec := securecookie.New([]byte(cfg.Secret), nil)
	codec.MaxAge(int(cfg.TTL.Seconds()))

	return &Manager{
		store:  store,
		codec:  codec,
		ttl:    cfg.TTL,
		cookie: name,
		secure: cfg.Secure,
		now:    time.Now,
		log:    log.With().Str("component", "session").Logger(),
	}
}

// Load returns the session of the request, or a new empty one
func (m *Manager) Load(r *http.Request) *Session {
	c, err := r.Cookie(m.cookie)
	if err != nil {
		return m.fresh()
	}

	var id string
	if err := m.codec.Decode(m.cookie, c.Value, &id); err != nil {
		m.log.Debug().Err(err).Msg("Rejected session cookie")
		return m.fresh()
	}

	s, err := m.store.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.log.Error().Err(err).Msg("Failed to load session")
		}
		return m.fresh()
	}
	return s
}

// Save persists the session, extends its expiry and writes the cookie
func (m *Manager) Save(w http.ResponseWriter, r *http.Request, s *Session) error {
	s.ExpiresAt = m.now().Add(m.ttl)
	if err := m.store.Save(r.Context(), s); err != nil {
		return err
	}

	encoded, err := m.codec.Encode(m.cookie, s.ID)
	if err != nil {
		return fmt.Errorf("failed to encode session cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	s.isNew = false
	s.dirty = false
	return nil
}

// Regenerate moves the session values to a new id, deleting the old one
func (m *Manager) Regenerate(w http.ResponseWriter, r *http.Request, s *Session) error {
	if !s.isNew {
		if err := m.store.Delete(r.Context(), s.ID); err != nil {
			return err
		}
	}
	s.ID = uuid.NewString()
	s.dirty = true
	return m.Save(w, r, s)
}

// Destroy deletes the session and expires the cookie
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request, s *Session) error {
	err := m.store.Delete(r.Context(), s.ID)

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	s.Values = make(map[string]string)
	s.dirty = false
	return err
}

// Middleware loads the session into the request context
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := m.Load(r)
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), s)))
	})
}

func (m *Manager) fresh() *Session {
	return newSession(uuid.NewString(), m.now().Add(m.ttl))
}
