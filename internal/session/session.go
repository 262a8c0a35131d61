// Package session provides server-side sessions keyed by a signed cookie.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a session does not exist or has expired
var ErrNotFound = errors.New("session not found")

// Session is the server-side state of one browser
type Session struct {
	ID        string
	Values    map[string]string
	ExpiresAt time.Time

	isNew bool
	dirty bool
}

// Store persists sessions. Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

func newSession(id string, expiresAt time.Time) *Session {
	return &Session{
		ID:        id,
		Values:    make(map[string]string),
		ExpiresAt: expiresAt,
		isNew:     true,
	}
}

// Get returns a value, or "" when unset
func (s *Session) Get(key string) string {
	return s.Values[key]
}

// Set stores a value
func (s *Session) Set(key, value string) {
	if s.Values == nil {
		s.Values = make(map[string]string)
	}
	if old, ok := s.Values[key]; ok && old == value {
		return
	}
	s.Values[key] = value
	s.dirty = true
}

// Delete removes a value
func (s *Session) Delete(key string) {
	if _, ok := s.Values[key]; ok {
		delete(s.Values, key)
		s.dirty = true
	}
}

// IsNew reports whether the session was created by this request
func (s *Session) IsNew() bool {
	return s.isNew
}

// Modified reports whether values changed since the session was loaded
func (s *Session) Modified() bool {
	return s.dirty
}

// Expired reports whether the session has expired at now
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

func (s *Session) clone() *Session {
	values := make(map[string]string, len(s.Values))
	for k, v := range s.Values {
		values[k] = v
	}
	return &Session{ID: s.ID, Values: values, ExpiresAt: s.ExpiresAt}
}

type contextKey struct{}

// NewContext returns a context carrying s
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the request session, or nil when none was loaded
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}
