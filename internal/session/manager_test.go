package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(store Store) *Manager {
	return NewManager(store, ManagerConfig{
		Secret: "0123456789abcdef0123456789abcdef",
		TTL:    time.Hour,
	}, zerolog.New(nil).Level(zerolog.Disabled))
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == DefaultCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie set", DefaultCookieName)
	return nil
}

func TestManager_LoadWithoutCookieIsNew(t *testing.T) {
	m := newTestManager(NewMemoryStore())

	s := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, s.IsNew())
	assert.NotEmpty(t, s.ID)
	assert.Empty(t, s.Values)
}

func TestManager_SaveThenLoad(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(store)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	s := m.Load(req)
	s.Set("state", "xyz")
	assert.True(t, s.Modified())

	w := httptest.NewRecorder()
	require.NoError(t, m.Save(w, req, s))
	assert.False(t, s.Modified())

	cookie := sessionCookie(t, w)
	assert.True(t, cookie.HttpOnly)
	assert.NotContains(t, cookie.Value, "xyz")

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookie)
	loaded := m.Load(next)
	assert.False(t, loaded.IsNew())
	assert.Equal(t, s.ID, loaded.ID)
	assert.Equal(t, "xyz", loaded.Get("state"))
}

func TestManager_RejectsTamperedCookie(t *testing.T) {
	m := newTestManager(NewMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "forged"})

	assert.True(t, m.Load(req).IsNew())
}

func TestManager_Destroy(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(store)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	s := m.Load(req)
	s.Set("profile", "p")
	require.NoError(t, m.Save(httptest.NewRecorder(), req, s))
	require.Equal(t, 1, store.Len())

	w := httptest.NewRecorder()
	require.NoError(t, m.Destroy(w, req, s))

	assert.Equal(t, 0, store.Len())
	assert.Empty(t, s.Values)
	assert.Less(t, sessionCookie(t, w).MaxAge, 0)
}

func TestManager_RegenerateChangesID(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(store)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	s := m.Load(req)
	s.Set("k", "v")
	require.NoError(t, m.Save(httptest.NewRecorder(), req, s))
	oldID := s.ID

	require.NoError(t, m.Regenerate(httptest.NewRecorder(), req, s))
	assert.NotEqual(t, oldID, s.ID)

	_, err := store.Get(context.Background(), oldID)
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := store.Get(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, "v", got.Get("k"))
}

func TestManager_Middleware(t *testing.T) {
	m := newTestManager(NewMemoryStore())

	var seen *Session
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, seen)
	assert.True(t, seen.IsNew())

	assert.Nil(t, FromContext(context.Background()))
}
