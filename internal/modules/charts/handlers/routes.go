package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers chart routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/charts", func(r chi.Router) {
		r.Get("/sectors", h.HandleGetSectors)
		r.Get("/sector/{sector}", h.HandleGetSector)
		r.Get("/industry/{sector}/{industry}", h.HandleGetIndustry)
		r.Get("/demo", h.HandleGetDemo)
	})
}
