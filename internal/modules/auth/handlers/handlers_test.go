package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/Colin123/equitylab-ui/internal/modules/auth"
	"github.com/Colin123/equitylab-ui/internal/session"
	"github.com/Colin123/equitylab-ui/pkg/embedded"
)

type fakeProvider struct {
	exchangeErr error
	userInfo    map[string]interface{}
	userInfoErr error
}

func (f *fakeProvider) AuthCodeURL(state string) string {
	return "https://tenant.example.com/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return &oauth2.Token{AccessToken: "tok"}, nil
}

func (f *fakeProvider) UserInfo(ctx context.Context, token *oauth2.Token) (map[string]interface{}, error) {
	return f.userInfo, f.userInfoErr
}

func (f *fakeProvider) LogoutURL(returnTo string) string {
	return "https://tenant.example.com/v2/logout?returnTo=" + url.QueryEscape(returnTo)
}

type countingRecorder map[string]int

func (c countingRecorder) RecordLogin(outcome string) { c[outcome]++ }

type testEnv struct {
	router   http.Handler
	store    *session.MemoryStore
	recorder countingRecorder
}

func setup(t *testing.T, provider auth.Provider) *testEnv {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	store := session.NewMemoryStore()
	manager := session.NewManager(store, session.ManagerConfig{Secret: "test-secret", TTL: time.Hour}, logger)
	renderer, err := embedded.NewRenderer()
	require.NoError(t, err)

	recorder := countingRecorder{}
	handler := NewHandler(provider, manager, renderer, "http://localhost:8050", recorder, logger)

	r := chi.NewRouter()
	r.Use(manager.Middleware)
	r.Use(auth.Identity)
	handler.RegisterRoutes(r)

	return &testEnv{router: r, store: store, recorder: recorder}
}

func (e *testEnv) do(t *testing.T, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func cookiesOf(w *httptest.ResponseRecorder) []*http.Cookie {
	return w.Result().Cookies()
}

func okProvider() *fakeProvider {
	return &fakeProvider{userInfo: map[string]interface{}{
		"sub":     "auth0|123",
		"name":    "Ada Lovelace",
		"email":   "ada@example.com",
		"picture": "https://example.com/ada.png",
	}}
}

func TestDashboard_EmptySessionRedirectsToLogin(t *testing.T) {
	env := setup(t, okProvider())

	w := env.do(t, "/dashboard", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestIndex(t *testing.T) {
	env := setup(t, okProvider())

	w := env.do(t, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `href="/login"`)

	w = env.do(t, "/?error=invalid+login+state", nil)
	assert.Contains(t, w.Body.String(), "Login failed: invalid login state")
}

// login starts the flow and returns the state and session cookies
func login(t *testing.T, env *testEnv) (string, []*http.Cookie) {
	w := env.do(t, "/login", nil)
	require.Equal(t, http.StatusFound, w.Code)

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)
	return state, cookiesOf(w)
}

func TestLoginFlow(t *testing.T) {
	env := setup(t, okProvider())

	state, cookies := login(t, env)

	w := env.do(t, "/callback?code=abc&state="+url.QueryEscape(state), cookies)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
	assert.Equal(t, 1, env.recorder[OutcomeSuccess])

	authed := cookiesOf(w)
	w = env.do(t, "/dashboard", authed)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Ada Lovelace")
	assert.Contains(t, body, "ada@example.com")
	assert.Contains(t, body, "User ID: auth0|123")

	// the pre-login session id is no longer valid
	w = env.do(t, "/dashboard", cookies)
	assert.Equal(t, http.StatusFound, w.Code)

	w = env.do(t, "/logout", authed)
	require.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "https://tenant.example.com/v2/logout?"))
	assert.Contains(t, w.Header().Get("Location"), url.QueryEscape("http://localhost:8050/"))
	assert.Equal(t, 0, env.store.Len())

	w = env.do(t, "/dashboard", authed)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestCallbackFailures(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
		query    func(state string) string
		outcome  string
	}{
		{
			name:     "state mismatch",
			provider: okProvider(),
			query:    func(string) string { return "code=abc&state=forged" },
			outcome:  OutcomeStateMismatch,
		},
		{
			name:     "provider error",
			provider: okProvider(),
			query:    func(string) string { return "error=access_denied&error_description=denied" },
			outcome:  OutcomeProviderError,
		},
		{
			name:     "exchange failure",
			provider: &fakeProvider{exchangeErr: errors.New("invalid_grant")},
			query:    func(s string) string { return "code=abc&state=" + url.QueryEscape(s) },
			outcome:  OutcomeExchangeError,
		},
		{
			name:     "user info failure",
			provider: &fakeProvider{userInfoErr: errors.New("timeout")},
			query:    func(s string) string { return "code=abc&state=" + url.QueryEscape(s) },
			outcome:  OutcomeUserInfoError,
		},
		{
			name:     "user info without subject",
			provider: &fakeProvider{userInfo: map[string]interface{}{"name": "x"}},
			query:    func(s string) string { return "code=abc&state=" + url.QueryEscape(s) },
			outcome:  OutcomeUserInfoError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setup(t, tt.provider)
			state, cookies := login(t, env)

			w := env.do(t, "/callback?"+tt.query(state), cookies)
			require.Equal(t, http.StatusFound, w.Code)
			assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/?error="))
			assert.Equal(t, 1, env.recorder[tt.outcome])
			assert.Zero(t, env.recorder[OutcomeSuccess])

			w = env.do(t, "/dashboard", cookies)
			assert.Equal(t, http.StatusFound, w.Code)
		})
	}
}

func TestCallback_StateIsSingleUse(t *testing.T) {
	env := setup(t, &fakeProvider{exchangeErr: errors.New("boom")})
	state, cookies := login(t, env)

	env.do(t, "/callback?code=abc&state="+url.QueryEscape(state), cookies)
	env.do(t, "/callback?code=abc&state="+url.QueryEscape(state), cookies)

	assert.Equal(t, 1, env.recorder[OutcomeExchangeError])
	assert.Equal(t, 1, env.recorder[OutcomeStateMismatch])
}
