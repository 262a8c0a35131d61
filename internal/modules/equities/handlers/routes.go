package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers stock list routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/equities", func(r chi.Router) {
		r.Get("/", h.HandleGetEquities)
		r.Get("/export.xlsx", h.HandleExport)
	})
}
