package handlers

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// PingFunc checks one dependency. A nil error means the dependency is
// reachable.
type PingFunc func(ctx context.Context) error

// RedisPing adapts a redis client to a PingFunc.
func RedisPing(client *redis.Client) PingFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

// HealthHandler pings every registered dependency on each check.
type HealthHandler struct {
	deps map[string]PingFunc
}

// NewHealthHandler creates a health handler with no dependencies registered.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{deps: make(map[string]PingFunc)}
}

// Dependency registers a named dependency check and returns the handler for
// chaining.
func (h *HealthHandler) Dependency(name string, ping PingFunc) *HealthHandler {
	h.deps[name] = ping

	return h
}

// HealthResponse is the response for the health check endpoint.
type HealthResponse struct {
	Body struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies,omitempty"`
	}
}

// Check pings every dependency. Any unreachable dependency degrades the
// overall status but never fails the request.
func (h *HealthHandler) Check(ctx context.Context, _ *struct{}) (*HealthResponse, error) {
	resp := &HealthResponse{}
	resp.Body.Status = "ok"

	if len(h.deps) > 0 {
		resp.Body.Dependencies = make(map[string]string, len(h.deps))
	}

	for name, ping := range h.deps {
		if err := ping(ctx); err != nil {
			resp.Body.Dependencies[name] = "down"
			resp.Body.Status = "degraded"

			continue
		}

		resp.Body.Dependencies[name] = "up"
	}

	return resp, nil
}
