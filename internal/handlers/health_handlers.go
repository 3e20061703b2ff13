package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
)

const healthCheckTimeout = 3 * time.Second

// Pinger is implemented by every backing service the API depends on.
type Pinger interface {
	Ping(ctx context.Context) error
}

// JobStatusProvider reports the state of the background scheduler.
type JobStatusProvider interface {
	GetJobStatus() map[string]interface{}
}

// HealthHandlers handles health check and monitoring endpoints
type HealthHandlers struct {
	database Pinger
	cache    Pinger
	storage  Pinger
	jobs     JobStatusProvider
	version  string
	started  time.Time
}

// NewHealthHandlers creates a new health handlers instance
func NewHealthHandlers(database, cache, storage Pinger, jobs JobStatusProvider, version string) *HealthHandlers {
	return &HealthHandlers{
		database: database,
		cache:    cache,
		storage:  storage,
		jobs:     jobs,
		version:  version,
		started:  time.Now(),
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status     string                 `json:"status"`
	Timestamp  string                 `json:"timestamp"`
	Services   map[string]CheckResult `json:"services"`
	Uptime     string                 `json:"uptime"`
	Version    string                 `json:"version"`
	Goroutines int                    `json:"goroutines"`
	Jobs       map[string]interface{} `json:"jobs,omitempty"`
}

type CheckResult struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// HealthCheck pings every dependency. Any failure marks the service degraded.
func (h *HealthHandlers) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	health := &HealthStatus{
		Status:     "healthy",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Services:   make(map[string]CheckResult, 3),
		Uptime:     time.Since(h.started).Round(time.Second).String(),
		Version:    h.version,
		Goroutines: runtime.NumGoroutine(),
	}
	if h.jobs != nil {
		health.Jobs = h.jobs.GetJobStatus()
	}

	for name, p := range map[string]Pinger{"database": h.database, "redis": h.cache, "storage": h.storage} {
		result := check(ctx, p)
		if result.Status != "healthy" {
			health.Status = "degraded"
		}
		health.Services[name] = result
	}

	statusCode := http.StatusOK
	if health.Status == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}
	return c.JSON(statusCode, health)
}

// ReadinessCheck determines if the application is ready to serve traffic
func (h *HealthHandlers) ReadinessCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	if check(ctx, h.database).Status != "healthy" || check(ctx, h.cache).Status != "healthy" {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":  "not_ready",
			"message": "Critical services unavailable",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ready",
		"message": "All systems operational",
	})
}

func check(ctx context.Context, p Pinger) CheckResult {
	if p == nil {
		return CheckResult{Status: "unhealthy", Message: "not configured"}
	}
	start := time.Now()
	err := p.Ping(ctx)
	result := CheckResult{Status: "healthy", LatencyMS: time.Since(start).Milliseconds()}
	if err != nil {
		result.Status = "unhealthy"
		result.Message = err.Error()
	}
	return result
}
