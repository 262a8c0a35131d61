// Package auth delegates login to an OAuth2 identity provider and guards
// routes on the presence of a session profile.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Colin123/equitylab-ui/internal/session"
)

// Session keys
const (
	SessionKeyProfile    = "profile"
	SessionKeyJWTPayload = "jwt_payload"
	SessionKeyState      = "oauth_state"
	SessionKeyReturnTo   = "return_to"
)

var (
	// ErrStateMismatch is returned when the callback state does not match the session
	ErrStateMismatch = errors.New("oauth state mismatch")
	// ErrMissingSubject is returned when user info carries no subject
	ErrMissingSubject = errors.New("user info has no subject")
)

// Profile is the identity stored in the session after login
type Profile struct {
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	Email   string `json:"email"`
}

// ProfileFromUserInfo derives a profile from a provider user-info document
func ProfileFromUserInfo(info map[string]interface{}) (*Profile, error) {
	sub, _ := info["sub"].(string)
	if sub == "" {
		return nil, ErrMissingSubject
	}
	str := func(key string) string {
		v, _ := info[key].(string)
		return v
	}
	return &Profile{
		UserID:  sub,
		Name:    str("name"),
		Picture: str("picture"),
		Email:   str("email"),
	}, nil
}

// DisplayName is the name shown in navigation
func (p *Profile) DisplayName() string {
	switch {
	case p.Name != "":
		return p.Name
	case p.Email != "":
		return p.Email
	default:
		return p.UserID
	}
}

// StoreProfile writes the profile and raw user info to the session
func StoreProfile(s *session.Session, p *Profile, info map[string]interface{}) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	s.Set(SessionKeyProfile, string(data))

	if info != nil {
		raw, err := json.Marshal(info)
		if err != nil {
			return fmt.Errorf("failed to encode user info: %w", err)
		}
		s.Set(SessionKeyJWTPayload, string(raw))
	}
	return nil
}

// ProfileFromSession reads the stored profile, or nil when absent or unreadable
func ProfileFromSession(s *session.Session) *Profile {
	if s == nil {
		return nil
	}
	raw := s.Get(SessionKeyProfile)
	if raw == "" {
		return nil
	}
	var p Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil || p.UserID == "" {
		return nil
	}
	return &p
}

type contextKey struct{}

// NewContext returns a context carrying the identity
func NewContext(ctx context.Context, p *Profile) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the request identity, or nil for anonymous requests
func FromContext(ctx context.Context) *Profile {
	p, _ := ctx.Value(contextKey{}).(*Profile)
	return p
}
