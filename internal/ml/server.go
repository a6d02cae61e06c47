package ml

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// ModelServer exposes read-only information about the loaded models
type ModelServer struct {
	models    *ModelSet
	startTime time.Time
}

// ModelInfo describes one loaded model
type ModelInfo struct {
	Name      string        `json:"name"`
	Format    Format        `json:"format"`
	Path      string        `json:"path,omitempty"`
	Version   string        `json:"version"`
	TrainedAt *time.Time    `json:"trained_at,omitempty"`
	LoadedAt  time.Time     `json:"loaded_at"`
	Columns   []string      `json:"columns"`
	Metadata  ModelMetadata `json:"metadata"`
}

// HealthStatus reports whether all models are loaded
type HealthStatus struct {
	Healthy       bool     `json:"healthy"`
	ModelsLoaded  []string `json:"models_loaded"`
	UptimeSeconds float64  `json:"uptime_seconds"`
}

// NewModelServer creates the handlers for models
func NewModelServer(models *ModelSet) *ModelServer {
	return &ModelServer{models: models, startTime: time.Now()}
}

// Info returns the description of every model in load order
func (ms *ModelServer) Info() []ModelInfo {
	var infos []ModelInfo
	for _, m := range ms.models.Models() {
		if m == nil {
			continue
		}
		info := ModelInfo{
			Name:     m.Name,
			Format:   m.Format,
			Path:     m.Path,
			Version:  m.Metadata.Version,
			LoadedAt: m.LoadedAt,
			Columns:  []string(m.Schema.Clone()),
			Metadata: m.Metadata,
		}
		if !m.Metadata.TrainedAt.IsZero() {
			t := m.Metadata.TrainedAt
			info.TrainedAt = &t
		}
		infos = append(infos, info)
	}
	return infos
}

// Health returns the current health status
func (ms *ModelServer) Health() HealthStatus {
	status := HealthStatus{UptimeSeconds: time.Since(ms.startTime).Seconds()}
	if ms.models == nil {
		return status
	}
	for _, m := range ms.models.Models() {
		if m != nil {
			status.ModelsLoaded = append(status.ModelsLoaded, m.Name)
		}
	}
	status.Healthy = len(status.ModelsLoaded) == 3
	return status
}

// HandleModelInfo serves GET /model/info
func (ms *ModelServer) HandleModelInfo(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]interface{}{"models": ms.Info()})
}

// HandleHealth serves GET /health
func (ms *ModelServer) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := ms.Health()

	status := http.StatusOK
	if !health.Healthy {
		status = http.StatusServiceUnavailable
	}

	respondJSON(w, r, status, health)
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Failed to encode response")
	}
}
