package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"
)

const healthCheckTimeout = 5 * time.Second

// HealthCheckFunc checks one dependency
type HealthCheckFunc func(ctx context.Context) error

// HealthChecker handles health check requests
type HealthChecker struct {
	checks map[string]HealthCheckFunc
}

// NewHealthChecker creates a health checker running checks in extended mode.
// Nil checks are skipped.
func NewHealthChecker(checks map[string]HealthCheckFunc) *HealthChecker {
	hc := &HealthChecker{checks: make(map[string]HealthCheckFunc, len(checks))}
	for name, check := range checks {
		if check != nil {
			hc.checks[name] = check
		}
	}
	return hc
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// RegisterRoutes registers health and version routes on the root router
func (h *HealthChecker) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", VersionInfo).Methods(http.MethodGet)
}

// HealthCheck handles /healthz; ?mode=extended also checks dependencies and
// answers 503 if any of them fails.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if r.URL.Query().Get("mode") != "extended" {
		writeJSON(w, http.StatusOK, response)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	response.Checks = make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			response.Status = "unhealthy"
			response.Checks[name] = "unhealthy: " + err.Error()
			continue
		}
		response.Checks[name] = "healthy"
	}

	status := http.StatusOK
	if response.Status == "unhealthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

// Version is reported by /version
var Version = "dev"

// VersionInfo handles /version
func VersionInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version":   Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
