package handlers

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/bidzilla/bidzilla-web/pkg/config"
)

// ServiceName identifies this binary in status responses.
const ServiceName = "bidzilla-web"

// PingResponse contains service status and version information.
type PingResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Service     string `json:"service"`
	GoVersion   string `json:"go_version"`
	Hostname    string `json:"hostname"`
	Environment string `json:"environment"`
	Backend     string `json:"backend"`
}

// BackendChecker reports whether the marketplace backend answers.
type BackendChecker interface {
	Reachable(ctx context.Context) error
}

// HealthHandler handles health check and ping endpoints.
type HealthHandler struct {
	cfg     *config.Config
	backend BackendChecker
	logger  *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. backend may be nil.
func NewHealthHandler(cfg *config.Config, backend BackendChecker, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, backend: backend, logger: logger}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ping", h.Ping)
}

// Health handles GET /health requests.
// Liveness only: the backend being down does not make this process unhealthy.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ping handles GET /ping requests.
// Returns service information plus backend reachability.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "failed to get hostname"); err != nil {
			h.logger.Error("Failed to encode error response", zap.Error(err))
		}
		return
	}

	response := PingResponse{
		Status:      "ok",
		Version:     h.cfg.Version,
		Service:     ServiceName,
		GoVersion:   runtime.Version(),
		Hostname:    hostname,
		Environment: h.cfg.Env,
		Backend:     h.backendStatus(r.Context()),
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}

func (h *HealthHandler) backendStatus(ctx context.Context) string {
	if h.backend == nil {
		return "unknown"
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := h.backend.Reachable(ctx); err != nil {
		h.logger.Warn("Marketplace backend unreachable", zap.Error(err))
		return "unreachable"
	}
	return "ok"
}
