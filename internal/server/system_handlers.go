package server

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/tmarkov/tradebook/internal/database"
)

// SystemHandlers serves the health and system status endpoints.
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	ledgerDB  *database.DB
	cacheDB   *database.DB
	startedAt time.Time
}

// NewSystemHandlers creates system handlers.
func NewSystemHandlers(log zerolog.Logger, dataDir string, ledgerDB, cacheDB *database.DB) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		dataDir:   dataDir,
		ledgerDB:  ledgerDB,
		cacheDB:   cacheDB,
		startedAt: time.Now(),
	}
}

// DBStatusInfo describes one database in the system status response.
type DBStatusInfo struct {
	Name      string  `json:"name"`
	Path      string  `json:"path"`
	SizeMB    float64 `json:"size_mb"`
	WALSizeMB float64 `json:"wal_size_mb"`
	PageCount int64   `json:"page_count"`
}

// SystemStatusResponse is the GET /api/system payload.
type SystemStatusResponse struct {
	Status        string         `json:"status"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	GoVersion     string         `json:"go_version"`
	NumGoroutines int            `json:"num_goroutines"`
	CPUPercent    float64        `json:"cpu_percent"`
	MemoryPercent float64        `json:"memory_percent"`
	DataDir       string         `json:"data_dir"`
	Databases     []DBStatusInfo `json:"databases"`
	CheckedAt     string         `json:"checked_at"`
}

// HandleHealth handles GET /api/health. It pings both databases; any failure
// reports 503. With ?deep=true it runs the full integrity check instead of a
// plain ping, which is slower but catches on-disk corruption.
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	deep := r.URL.Query().Get("deep") == "true"

	timeout := 2 * time.Second
	if deep {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	check := (*database.DB).QuickCheck
	if deep {
		check = (*database.DB).HealthCheck
	}

	for _, db := range []*database.DB{h.ledgerDB, h.cacheDB} {
		if err := check(db, ctx); err != nil {
			h.log.Error().Err(err).Str("database", db.Name()).Msg("Health check failed")
			h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleSystemStatus handles GET /api/system
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuAvg, memPercent := h.systemStats()

	response := SystemStatusResponse{
		Status:        "running",
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		CPUPercent:    cpuAvg,
		MemoryPercent: memPercent,
		DataDir:       h.dataDir,
		CheckedAt:     time.Now().Format(time.RFC3339),
	}

	for _, db := range []*database.DB{h.ledgerDB, h.cacheDB} {
		info := DBStatusInfo{Name: db.Name(), Path: db.Path()}
		if stats, err := db.GetStats(); err == nil {
			info.SizeMB = float64(stats.SizeBytes) / 1024 / 1024
			info.WALSizeMB = float64(stats.WALSizeBytes) / 1024 / 1024
			info.PageCount = stats.PageCount
		} else {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to get database stats")
		}
		response.Databases = append(response.Databases, info)
	}

	h.writeJSON(w, http.StatusOK, response)
}

// systemStats samples CPU over a short window to keep the endpoint fast.
func (h *SystemHandlers) systemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
