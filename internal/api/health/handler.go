package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"aegis/internal/agents"
	"aegis/pkg/logger"
)

// Handler provides health check endpoints
type Handler struct {
	log         *logger.Logger
	deps        agents.Deps
	startTime   time.Time
	serviceName string
	version     string
}

// New creates a new health check handler
func New(log *logger.Logger, deps agents.Deps, serviceName, version string) *Handler {
	return &Handler{
		log:         log,
		deps:        deps,
		startTime:   time.Now(),
		serviceName: serviceName,
		version:     version,
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string                     `json:"status"` // "healthy", "degraded", "unhealthy"
	Service   string                     `json:"service"`
	Version   string                     `json:"version"`
	Uptime    string                     `json:"uptime"`
	Timestamp string                     `json:"timestamp"`
	Checks    map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// referenceSymbol is the whitelisted protocol probed by readiness checks.
const referenceSymbol = "aave"

// HandleLiveness returns 200 OK if service is running
// Used by Kubernetes liveness probe
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "alive",
	})
}

// HandleReadiness checks if the data providers are ready to serve the
// analysis workflows. Used by Kubernetes readiness probe.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := h.runChecks(ctx)

	allHealthy := true
	for _, c := range checks {
		if c.Status != "healthy" {
			allHealthy = false
		}
	}

	status := HealthStatus{
		Status:    "healthy",
		Service:   h.serviceName,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    checks,
	}

	statusCode := http.StatusOK
	if !allHealthy {
		status.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
		h.log.Warn("Readiness check failed", "checks", checks)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(status)
}

// HandleHealth returns detailed health status (includes all checks)
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	checks := h.runChecks(ctx)

	healthyCount := 0
	for _, c := range checks {
		if c.Status == "healthy" {
			healthyCount++
		}
	}

	status := HealthStatus{
		Status:    "healthy",
		Service:   h.serviceName,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    checks,
	}

	statusCode := http.StatusOK
	if healthyCount == 0 {
		status.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	} else if healthyCount < len(checks) {
		status.Status = "degraded" // still return 200 for degraded
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(status)
}

func (h *Handler) runChecks(ctx context.Context) map[string]ComponentHealth {
	return map[string]ComponentHealth{
		"protocol_data": h.check(func() error {
			_, err := h.deps.Protocols.Fetch(ctx, referenceSymbol)
			return err
		}),
		"market_data": h.check(func() error {
			_, err := h.deps.Market.Fetch(ctx, referenceSymbol)
			return err
		}),
		"compliance_rules": h.check(func() error {
			_, err := h.deps.Compliance.JurisdictionScores(ctx, referenceSymbol)
			return err
		}),
	}
}

func (h *Handler) check(probe func() error) ComponentHealth {
	start := time.Now()
	err := probe()
	elapsed := time.Since(start)

	if err != nil {
		h.log.Error("Provider health check failed", "error", err, "elapsed", elapsed)
		return ComponentHealth{
			Status:       "unhealthy",
			ResponseTime: elapsed.String(),
			Error:        err.Error(),
		}
	}

	return ComponentHealth{
		Status:       "healthy",
		ResponseTime: elapsed.String(),
	}
}
