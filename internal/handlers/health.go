package handlers

import (
	"net/http"
	"runtime"
	"time"

	"image-browser/internal/startup"
)

const statusHealthy = "healthy"

// HealthResponse contains the health check response
type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	Uptime     string `json:"uptime"`
	LoadedRows int    `json:"loadedRows"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Status:       statusHealthy,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		LoadedRows:   h.store.LoadedRows(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSONStatus(w, "alive")
	}
}

// ReadinessCheck returns 200 once the store has finished loading.
// The store is constructed after the disk database is mirrored into
// memory, so a reachable handler is a ready handler.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSONStatus(w, "ready")
}
