package handlers

import (
	"github.com/go-chi/chi/v5"

	"github.com/Colin123/equitylab-ui/internal/modules/auth"
)

// RegisterRoutes registers the login flow and profile routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleIndex)
	r.Get("/login", h.HandleLogin)
	r.Get("/callback", h.HandleCallback)
	r.Get("/logout", h.HandleLogout)
	r.With(auth.RequireProfile).Get("/dashboard", h.HandleDashboard)
}
