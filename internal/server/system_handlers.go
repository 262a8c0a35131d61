package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/Colin123/equitylab-ui/internal/config"
	"github.com/Colin123/equitylab-ui/internal/modules/snapshots"
)

// SystemHandlers serves process and data-directory status
type SystemHandlers struct {
	log         zerolog.Logger
	cfg         *config.Config
	resolver    *snapshots.Resolver
	startupTime time.Time
	statsFn     func() (float64, float64)
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, cfg *config.Config, resolver *snapshots.Resolver) *SystemHandlers {
	if resolver == nil {
		resolver = snapshots.NewResolver(log)
	}
	h := &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		cfg:         cfg,
		resolver:    resolver,
		startupTime: time.Now(),
	}
	h.statsFn = h.getSystemStats
	return h
}

// SystemStatusResponse is the payload of GET /api/system/status
type SystemStatusResponse struct {
	Status         string                      `json:"status"`
	UptimeHours    float64                     `json:"uptime_hours"`
	CPUPercent     float64                     `json:"cpu_percent"`
	RAMPercent     float64                     `json:"ram_percent"`
	GoVersion      string                      `json:"go_version"`
	Goroutines     int                         `json:"goroutines"`
	SessionBackend string                      `json:"session_backend"`
	Snapshots      map[string]snapshots.Status `json:"snapshots"`
	LastCheck      string                      `json:"last_check"`
}

// HandleSystemStatus returns process stats and the latest snapshot files
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, ramPercent := h.statsFn()

	response := SystemStatusResponse{
		Status:         "healthy",
		UptimeHours:    time.Since(h.startupTime).Hours(),
		CPUPercent:     cpuPercent,
		RAMPercent:     ramPercent,
		GoVersion:      runtime.Version(),
		Goroutines:     runtime.NumGoroutine(),
		SessionBackend: h.cfg.Session.Backend,
		Snapshots:      h.resolver.Status(snapshotDirs(h.cfg)),
		LastCheck:      time.Now().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode system status")
	}
}

func snapshotDirs(cfg *config.Config) snapshots.Dirs {
	return snapshots.Dirs{
		OpenInterest:   cfg.Data.OIDir(),
		Classification: cfg.Data.KClassDir(),
	}
}

// getSystemStats calculates CPU and RAM usage percentages
// Uses a short interval (100ms) so the request is not held for long
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil || len(cpuPercent) == 0 {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return cpuPercent[0], 0
	}

	return cpuPercent[0], memStat.UsedPercent
}
