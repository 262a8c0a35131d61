package auth

import (
	"net/http"

	"github.com/Colin123/equitylab-ui/internal/session"
)

// LoginPath is where unauthenticated requests are sent
const LoginPath = "/login"

// Identity resolves the session profile into the request context.
// It must run after the session middleware.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := ProfileFromSession(session.FromContext(r.Context())); p != nil {
			r = r.WithContext(NewContext(r.Context(), p))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireProfile redirects requests without an identity to the login page.
// The wrapped handler is not invoked in that case.
func RequireProfile(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()) == nil {
			http.Redirect(w, r, LoginPath, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
