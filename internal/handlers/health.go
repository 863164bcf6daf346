package handlers

import (
	"context"
	"net/http"
	"time"
)

const version = "0.1.0"

const healthTimeout = 3 * time.Second

// Check represents the status of a health check.
type Check struct {
	Status  string `json:"status"`            // "pass" or "fail"
	Latency string `json:"latency,omitempty"` // e.g., "2ms"
	Message string `json:"message,omitempty"`
}

func (c Check) passed() bool {
	return c.Status == "pass"
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string           `json:"status"` // "healthy" or "degraded"
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
	Timestamp string           `json:"timestamp"`
}

// runChecks checks every dependency readiness depends on. Redis is only
// checked when configured.
func (h *Handler) runChecks(ctx context.Context) (map[string]Check, bool) {
	checks := make(map[string]Check)

	if h.ingest != nil && h.ingest.SecretConfigured() {
		checks["webhook_secret"] = Check{Status: "pass"}
	} else {
		checks["webhook_secret"] = Check{Status: "fail", Message: "not configured"}
	}

	if h.store != nil {
		start := time.Now()
		if h.store.HealthCheck(ctx) {
			checks["database"] = Check{Status: "pass", Latency: time.Since(start).String()}
		} else {
			checks["database"] = Check{Status: "fail", Message: "connection failed"}
		}
	} else {
		checks["database"] = Check{Status: "fail", Message: "not configured"}
	}

	if h.redis != nil {
		start := time.Now()
		if err := h.redis.Ping(ctx); err != nil {
			h.logger.Error().Err(err).Msg("redis health check failed")
			checks["redis"] = Check{Status: "fail", Message: "connection failed"}
		} else {
			checks["redis"] = Check{Status: "pass", Latency: time.Since(start).String()}
		}
	}

	allHealthy := true
	for _, c := range checks {
		if !c.passed() {
			allHealthy = false
		}
	}
	return checks, allHealthy
}

// Health handles the detailed health check endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	checks, allHealthy := h.runChecks(ctx)

	status := "healthy"
	statusCode := http.StatusOK
	if !allHealthy {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	h.JSON(w, statusCode, HealthResponse{
		Status:    status,
		Version:   version,
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Live reports that the process is serving requests.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// ReadyResponse lists failing checks when the service is not ready.
type ReadyResponse struct {
	Status string           `json:"status"`
	Failed map[string]Check `json:"failed,omitempty"`
}

// Ready returns 200 only when a webhook secret is configured and every
// dependency answers.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	checks, allHealthy := h.runChecks(ctx)
	if allHealthy {
		h.JSON(w, http.StatusOK, ReadyResponse{Status: "ready"})
		return
	}

	failed := make(map[string]Check)
	for name, c := range checks {
		if !c.passed() {
			failed[name] = c
		}
	}
	h.JSON(w, http.StatusServiceUnavailable, ReadyResponse{Status: "not ready", Failed: failed})
}

// RootResponse represents the root endpoint response.
type RootResponse struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}

// Root handles the root endpoint.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, RootResponse{
		Name:    "webhookd",
		Version: version,
		Endpoints: []string{
			"POST /webhook",
			"GET /messages",
			"GET /stats",
			"GET /health",
			"GET /health/live",
			"GET /health/ready",
		},
	})
}
