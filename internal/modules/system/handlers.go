// Package system provides system-wide monitoring endpoints for the shell's
// diagnostics page.
package system

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Handlers handles system monitoring endpoints
type Handlers struct {
	log         zerolog.Logger
	startupTime time.Time
}

// NewHandlers creates new system handlers
func NewHandlers(log zerolog.Logger) *Handlers {
	return &Handlers{
		log:         log.With().Str("handler", "system").Logger(),
		startupTime: time.Now(),
	}
}

// StatusResponse is the body of GET /api/system/status
type StatusResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsedMB  float64 `json:"memory_used_mb"`
	Goroutines    int     `json:"goroutines"`
	GoVersion     string  `json:"go_version"`
}

// HandleStatus handles GET /api/system/status
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	response := StatusResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(h.startupTime).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
		GoVersion:     runtime.Version(),
	}

	// CPU and memory stats are best effort; a probe failure downgrades the
	// fields, not the endpoint.
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		response.CPUPercent = percents[0]
	} else if err != nil {
		h.log.Warn().Err(err).Msg("Failed to read CPU usage")
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		response.MemoryPercent = vm.UsedPercent
		response.MemoryUsedMB = float64(vm.Used) / 1024 / 1024
	} else {
		h.log.Warn().Err(err).Msg("Failed to read memory usage")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
