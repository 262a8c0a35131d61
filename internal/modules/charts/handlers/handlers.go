// Package handlers provides HTTP handlers for RRG chart figures.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/Colin123/equitylab-ui/internal/modules/charts"
)

// Handler handles chart HTTP requests
type Handler struct {
	service *charts.Service
	log     zerolog.Logger
}

// NewHandler creates a new charts handler
func NewHandler(service *charts.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "charts").Logger(),
	}
}

// HandleGetSectors handles GET /api/charts/sectors
func (h *Handler) HandleGetSectors(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"options": h.service.SectorOptions(),
			"default": h.service.DefaultSector(),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetSector handles GET /api/charts/sector/{sector}
func (h *Handler) HandleGetSector(w http.ResponseWriter, r *http.Request) {
	sector := pathParam(r, "sector")

	result, err := h.service.SectorChart(sector)
	if err != nil {
		h.writeError(w, err, sector, "")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetIndustry handles GET /api/charts/industry/{sector}/{industry}
func (h *Handler) HandleGetIndustry(w http.ResponseWriter, r *http.Request) {
	sector := pathParam(r, "sector")
	industry := pathParam(r, "industry")

	fig, err := h.service.IndustryChart(sector, industry)
	if err != nil {
		h.writeError(w, err, sector, industry)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"sector":   sector,
			"industry": industry,
			"figure":   fig,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetDemo handles GET /api/charts/demo
func (h *Handler) HandleGetDemo(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": charts.DemoFigure(),
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error, sector, industry string) {
	switch {
	case errors.Is(err, charts.ErrUnknownSector), errors.Is(err, charts.ErrUnknownIndustry):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		h.log.Error().Err(err).Str("sector", sector).Str("industry", industry).Msg("Failed to build chart")
		http.Error(w, "Failed to build chart", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// pathParam returns a decoded chi URL parameter
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
