package handlers

import (
	"net/http"
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/sitepulse-ai/sitepulse-engine/pkg/config"
	"github.com/sitepulse-ai/sitepulse-engine/pkg/llm"
)

// PingResponse contains service status and version information.
type PingResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Service     string `json:"service"`
	GoVersion   string `json:"go_version"`
	Hostname    string `json:"hostname"`
	Environment string `json:"environment"`
}

// HealthResponse reports service readiness and the LLM collaborator state.
type HealthResponse struct {
	Status      string `json:"status"`
	LLMEnabled  bool   `json:"llm_enabled"`
	LLMModel    string `json:"llm_model"`
	LLMEndpoint string `json:"llm_endpoint,omitempty"`
	Version     string `json:"version"`
}

// HealthHandler handles health check and ping endpoints.
type HealthHandler struct {
	cfg    *config.Config
	llm    llm.LLMClient
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler with the given configuration.
func NewHealthHandler(cfg *config.Config, llmClient llm.LLMClient, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, llm: llmClient, logger: logger}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/ping", h.Ping)
}

// Health handles GET /health requests.
// Reports whether the LLM collaborator is configured alongside the version.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:      "ok",
		LLMEnabled:  h.llm.Enabled(),
		LLMModel:    h.llm.GetModel(),
		LLMEndpoint: h.llm.GetEndpoint(),
		Version:     h.cfg.Version,
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode health response", zap.Error(err))
	}
}

// Ping handles GET /ping requests.
// Returns detailed service information including version and environment.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		http.Error(w, "failed to get hostname", http.StatusInternalServerError)
		return
	}

	response := PingResponse{
		Status:      "ok",
		Version:     h.cfg.Version,
		Service:     "sitepulse-engine",
		GoVersion:   runtime.Version(),
		Hostname:    hostname,
		Environment: h.cfg.Env,
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}
