package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"coinpulse/pkg/logger"
)

// Checker is a dependency that can report its connectivity
type Checker interface {
	Health(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker
type CheckerFunc func(ctx context.Context) error

// Health implements Checker
func (f CheckerFunc) Health(ctx context.Context) error { return f(ctx) }

// Component is a named dependency. Optional components degrade health but never fail readiness.
type Component struct {
	Name     string
	Checker  Checker
	Optional bool
}

// Handler provides health check endpoints
type Handler struct {
	log         *logger.Logger
	components  []Component
	startTime   time.Time
	serviceName string
	version     string
}

// New creates a new health check handler
func New(log *logger.Logger, serviceName, version string, components ...Component) *Handler {
	return &Handler{
		log:         log,
		components:  components,
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

// HandleLiveness returns 200 OK if service is running
// Used by Kubernetes liveness probe
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// HandleReadiness returns 503 unless every required component is healthy
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks, _, requiredDown := h.runChecks(ctx)

	status := h.status(checks)
	statusCode := http.StatusOK
	if requiredDown > 0 {
		status.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
		h.log.Warnw("Readiness check failed", "checks", checks)
	}

	writeJSON(w, statusCode, status)
}

// HandleHealth returns detailed health status. Any failing component makes it degraded;
// a failing required component makes it unhealthy.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	checks, down, requiredDown := h.runChecks(ctx)

	status := h.status(checks)
	statusCode := http.StatusOK
	switch {
	case requiredDown > 0:
		status.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	case down > 0:
		status.Status = "degraded"
	}

	writeJSON(w, statusCode, status)
}

func (h *Handler) runChecks(ctx context.Context) (checks map[string]ComponentHealth, down, requiredDown int) {
	checks = make(map[string]ComponentHealth, len(h.components))
	for _, c := range h.components {
		result := h.check(ctx, c)
		checks[c.Name] = result
		if result.Status != "healthy" {
			down++
			if !c.Optional {
				requiredDown++
			}
		}
	}
	return checks, down, requiredDown
}

func (h *Handler) check(ctx context.Context, c Component) ComponentHealth {
	start := time.Now()
	err := c.Checker.Health(ctx)
	elapsed := time.Since(start)

	if err != nil {
		h.log.Warnw("Health check failed", "component", c.Name, "error", err, "elapsed", elapsed)
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

func (h *Handler) status(checks map[string]ComponentHealth) HealthStatus {
	return HealthStatus{
		Status:    "healthy",
		Service:   h.serviceName,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
