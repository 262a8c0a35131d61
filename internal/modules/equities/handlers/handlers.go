// Package handlers provides HTTP handlers for the stock list.
package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/Colin123/equitylab-ui/internal/modules/equities"
)

// RecordLoader rebuilds the equity records on every call
type RecordLoader interface {
	Load() []equities.Record
}

// Handler handles stock list HTTP requests
type Handler struct {
	loader        RecordLoader
	writeWorkbook func(io.Writer, []equities.Record) error
	log           zerolog.Logger
}

// NewHandler creates a new equities handler
func NewHandler(loader RecordLoader, log zerolog.Logger) *Handler {
	return &Handler{
		loader:        loader,
		writeWorkbook: WriteWorkbook,
		log:           log.With().Str("handler", "equities").Logger(),
	}
}

// HandleGetEquities handles GET /api/equities
//
// Query parameters: q (filter), sort, desc, page, page_size.
func (h *Handler) HandleGetEquities(w http.ResponseWriter, r *http.Request) {
	query := parseQuery(r)
	page := query.Apply(h.loader.Load())

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": page,
		"metadata": map[string]interface{}{
			"columns":   equities.Columns,
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleExport handles GET /api/equities/export.xlsx
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	query := parseQuery(r)
	records := h.loader.Load()
	query.Page = 1
	query.PageSize = len(records)
	page := query.Apply(records)

	// Buffered so a failed export can still answer with an error status
	var buf bytes.Buffer
	if err := h.writeWorkbook(&buf, page.Records); err != nil {
		h.log.Error().Err(err).Msg("Failed to export stock list")
		http.Error(w, "Failed to export stock list", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename(time.Now())+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		h.log.Warn().Err(err).Msg("Failed to send stock list export")
		return
	}

	h.log.Debug().Int("rows", len(page.Records)).Msg("Exported stock list")
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func parseQuery(r *http.Request) equities.Query {
	q := r.URL.Query()

	query := equities.Query{
		Filter:   q.Get("q"),
		SortBy:   q.Get("sort"),
		Page:     1,
		PageSize: equities.DefaultPageSize,
	}
	if desc, err := strconv.ParseBool(q.Get("desc")); err == nil {
		query.Desc = desc
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		query.Page = page
	}
	if size, err := strconv.Atoi(q.Get("page_size")); err == nil && size > 0 {
		query.PageSize = size
	}
	return query
}

func exportFilename(now time.Time) string {
	return "stock_list_" + now.Format("20060102_150405") + ".xlsx"
}
