package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"
)

// HealthStatus represents the health status of the service
type HealthStatus struct {
	Status       string                      `json:"status"`
	Service      string                      `json:"service"`
	Timestamp    string                      `json:"timestamp"`
	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

// DependencyStatus represents the status of a dependency
type DependencyStatus struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

// HealthCheckFunc 检查单个依赖是否可用。
type HealthCheckFunc func(ctx context.Context) error

// HealthCheckHandler 存活探针，进程能响应即健康。
func HealthCheckHandler(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, http.StatusOK, HealthStatus{
			Status:    "healthy",
			Service:   service,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// ReadinessHandler 就绪探针，逐个执行依赖检查，任一失败返回 503。
func ReadinessHandler(service string, checks map[string]HealthCheckFunc) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := HealthStatus{
			Status:       "healthy",
			Service:      service,
			Timestamp:    time.Now().UTC().Format(time.RFC3339),
			Dependencies: make(map[string]DependencyStatus, len(names)),
		}
		code := http.StatusOK

		for _, name := range names {
			start := time.Now()
			err := checks[name](ctx)
			dep := DependencyStatus{Status: "healthy", LatencyMs: time.Since(start).Milliseconds()}
			if err != nil {
				dep.Status = "unhealthy"
				dep.Message = err.Error()
				status.Status = "unhealthy"
				code = http.StatusServiceUnavailable
			}
			status.Dependencies[name] = dep
		}

		writeHealth(w, code, status)
	}
}

func writeHealth(w http.ResponseWriter, code int, status HealthStatus) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}
