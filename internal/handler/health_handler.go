package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/skillopus-api/internal/config"
	"github.com/noah-isme/skillopus-api/internal/utils"
)

const healthCheckTimeout = 2 * time.Second

// Health states reported for the service and each dependency.
const (
	HealthOK          = "ok"
	HealthDegraded    = "degraded"
	HealthUnavailable = "unavailable"
	HealthDown        = "down"
)

// HealthDependency is a backing service pinged on every health request.
// A failing Required dependency turns the response into a 503.
type HealthDependency struct {
	Name     string
	Required bool
	Ping     func(ctx context.Context) error
}

// DependencyHealth is the reachability of one backing service.
type DependencyHealth struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status       string                      `json:"status"`
	Timestamp    time.Time                   `json:"timestamp"`
	Service      string                      `json:"service"`
	Environment  string                      `json:"environment"`
	Dependencies map[string]DependencyHealth `json:"dependencies,omitempty"`
}

// HealthCheck returns a handler that reports the service and its dependencies.
// Postgres is required; the cache and event bus only degrade the service.
func HealthCheck(cfg config.Config, dependencies ...HealthDependency) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      HealthOK,
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
		}
		if len(dependencies) > 0 {
			payload.Dependencies = make(map[string]DependencyHealth, len(dependencies))
		}

		for _, dep := range dependencies {
			result := pingDependency(c.UserContext(), dep)
			payload.Dependencies[dep.Name] = result
			if result.Status == HealthOK {
				continue
			}
			if dep.Required {
				payload.Status = HealthUnavailable
			} else if payload.Status == HealthOK {
				payload.Status = HealthDegraded
			}
		}

		switch payload.Status {
		case HealthUnavailable:
			return utils.Fail(c, fiber.StatusServiceUnavailable, "service unavailable", payload)
		case HealthDegraded:
			return utils.SendSuccess(c, "service degraded", payload)
		}
		return utils.SendSuccess(c, "service healthy", payload)
	}
}

func pingDependency(ctx context.Context, dep HealthDependency) DependencyHealth {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	started := time.Now()
	err := dep.Ping(ctx)
	result := DependencyHealth{Status: HealthOK, LatencyMS: time.Since(started).Milliseconds()}
	if err != nil {
		result.Status = HealthDown
		result.Error = err.Error()
	}
	return result
}
