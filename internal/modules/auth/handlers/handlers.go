// Package handlers provides the login, callback, logout and profile pages.
package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/Colin123/equitylab-ui/internal/modules/auth"
	"github.com/Colin123/equitylab-ui/internal/session"
	"github.com/Colin123/equitylab-ui/pkg/embedded"
)

// Login outcomes reported to the LoginRecorder
const (
	OutcomeSuccess       = "success"
	OutcomeStateMismatch = "state_mismatch"
	OutcomeProviderError = "provider_error"
	OutcomeExchangeError = "exchange_failed"
	OutcomeUserInfoError = "userinfo_failed"
)

// LoginRecorder counts login attempts by outcome
type LoginRecorder interface {
	RecordLogin(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordLogin(string) {}

// Handler handles authentication HTTP requests
type Handler struct {
	provider auth.Provider
	sessions *session.Manager
	renderer *embedded.Renderer
	baseURL  string
	recorder LoginRecorder
	log      zerolog.Logger
}

// NewHandler creates a new auth handler. recorder may be nil.
func NewHandler(
	provider auth.Provider,
	sessions *session.Manager,
	renderer *embedded.Renderer,
	baseURL string,
	recorder LoginRecorder,
	log zerolog.Logger,
) *Handler {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Handler{
		provider: provider,
		sessions: sessions,
		renderer: renderer,
		baseURL:  baseURL,
		recorder: recorder,
		log:      log.With().Str("handler", "auth").Logger(),
	}
}

type indexPage struct {
	embedded.Page
	Error string
}

type dashboardPage struct {
	embedded.Page
	Profile *auth.Profile
}

// HandleIndex handles GET /
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexPage{
		Page:  pageFor(r, "Home"),
		Error: r.URL.Query().Get("error"),
	}
	h.render(w, "index", data)
}

// HandleLogin handles GET /login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		http.Error(w, "Session unavailable", http.StatusInternalServerError)
		return
	}

	state, err := auth.NewState()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create login state")
		http.Error(w, "Failed to start login", http.StatusInternalServerError)
		return
	}

	sess.Set(auth.SessionKeyState, state)
	if err := h.sessions.Save(w, r, sess); err != nil {
		h.log.Error().Err(err).Msg("Failed to save session")
		http.Error(w, "Failed to start login", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusFound)
}

// HandleCallback handles GET /callback
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		http.Error(w, "Session unavailable", http.StatusInternalServerError)
		return
	}
	q := r.URL.Query()

	if providerErr := q.Get("error"); providerErr != "" {
		h.fail(w, r, OutcomeProviderError, errors.New(providerErr), q.Get("error_description"))
		return
	}

	expected := sess.Get(auth.SessionKeyState)
	sess.Delete(auth.SessionKeyState)
	if expected == "" || q.Get("state") != expected {
		h.fail(w, r, OutcomeStateMismatch, auth.ErrStateMismatch, "invalid login state")
		return
	}

	token, err := h.provider.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		h.fail(w, r, OutcomeExchangeError, err, "could not complete login")
		return
	}

	info, err := h.provider.UserInfo(r.Context(), token)
	if err != nil {
		h.fail(w, r, OutcomeUserInfoError, err, "could not fetch user profile")
		return
	}

	profile, err := auth.ProfileFromUserInfo(info)
	if err != nil {
		h.fail(w, r, OutcomeUserInfoError, err, "could not fetch user profile")
		return
	}

	if err := auth.StoreProfile(sess, profile, info); err != nil {
		h.fail(w, r, OutcomeUserInfoError, err, "could not store user profile")
		return
	}
	if err := h.sessions.Regenerate(w, r, sess); err != nil {
		h.log.Error().Err(err).Msg("Failed to save session")
		http.Error(w, "Failed to complete login", http.StatusInternalServerError)
		return
	}

	h.recorder.RecordLogin(OutcomeSuccess)
	h.log.Info().Str("user_id", profile.UserID).Msg("User logged in")
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// HandleLogout handles GET /logout
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := session.FromContext(r.Context()); sess != nil {
		if err := h.sessions.Destroy(w, r, sess); err != nil {
			h.log.Warn().Err(err).Msg("Failed to delete session")
		}
	}
	http.Redirect(w, r, h.provider.LogoutURL(h.baseURL+"/"), http.StatusFound)
}

// HandleDashboard handles GET /dashboard
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	data := dashboardPage{
		Page:    pageFor(r, "Dashboard"),
		Profile: auth.FromContext(r.Context()),
	}
	h.render(w, "dashboard", data)
}

// fail logs and counts a login failure, then sends the user back to the landing page
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, outcome string, err error, message string) {
	h.recorder.RecordLogin(outcome)
	h.log.Warn().Err(err).Str("outcome", outcome).Msg("Login failed")

	if sess := session.FromContext(r.Context()); sess != nil && sess.Modified() {
		if err := h.sessions.Save(w, r, sess); err != nil {
			h.log.Error().Err(err).Msg("Failed to save session")
		}
	}

	if message == "" {
		message = "login failed"
	}
	http.Redirect(w, r, "/?error="+url.QueryEscape(message), http.StatusFound)
}

func (h *Handler) render(w http.ResponseWriter, name string, data interface{}) {
	if err := h.renderer.HTML(w, http.StatusOK, name, data); err != nil {
		h.log.Error().Err(err).Str("page", name).Msg("Failed to render page")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

func pageFor(r *http.Request, title string) embedded.Page {
	p := embedded.Page{Title: title}
	if profile := auth.FromContext(r.Context()); profile != nil {
		p.LoggedIn = true
		p.UserName = profile.DisplayName()
	}
	return p
}
