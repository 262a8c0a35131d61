// Package handlers provides HTTP handlers for snapshot file discovery.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/Colin123/equitylab-ui/internal/modules/snapshots"
)

// Handler handles snapshot HTTP requests
type Handler struct {
	resolver *snapshots.Resolver
	dirs     snapshots.Dirs
	log      zerolog.Logger
}

// NewHandler creates a new snapshot handler
func NewHandler(resolver *snapshots.Resolver, dirs snapshots.Dirs, log zerolog.Logger) *Handler {
	return &Handler{
		resolver: resolver,
		dirs:     dirs,
		log:      log.With().Str("handler", "snapshots").Logger(),
	}
}

// HandleGetLatest returns the newest file of every snapshot source
func (h *Handler) HandleGetLatest(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": h.resolver.Status(h.dirs),
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetSource lists every file of one source, newest first
func (h *Handler) HandleGetSource(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")

	files, ok := h.resolver.Source(h.dirs, source)
	if !ok {
		http.Error(w, "unknown snapshot source", http.StatusNotFound)
		return
	}
	if files == nil {
		files = []snapshots.Match{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": files,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"source":    source,
			"count":     len(files),
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
