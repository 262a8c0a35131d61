package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the dashboard and demo routes. The app routes are
// not wrapped by the session gate; the page router consults it on every event.
// /login and /callback belong to the auth routes, so the page router's
// LoginRedirect state is answered here with a redirect to /login.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/app", h.HandleApp)
	r.Get("/app/*", h.HandleApp)
	r.Get("/hello", h.HandleHello)
	r.Get("/demo", h.HandleDemo)
}
