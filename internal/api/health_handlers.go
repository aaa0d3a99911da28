package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/api/v1/health",
		Summary:     "Health check",
		Description: "Reports the database, search index and event stream status. Always answers 200; read the status field.",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// Component and overall health states, from best to worst.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

var statusRank = map[string]int{statusHealthy: 0, statusDegraded: 1, statusUnhealthy: 2}

// === DTOs ===

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" enum:"healthy,degraded,unhealthy" doc:"Component status"`
	Latency string `json:"latency,omitempty" doc:"Time the check took"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse is the overall status and every component check.
type HealthResponse struct {
	Status     string                     `json:"status" enum:"healthy,degraded,unhealthy" doc:"Worst component status"`
	Components map[string]ComponentHealth `json:"components" doc:"Status per component"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

// === Handlers ===

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	checks := map[string]func(context.Context) ComponentHealth{
		"database": s.checkDatabase,
		"search":   s.checkSearchIndex,
		"sse":      s.checkSSEManager,
	}

	resp := HealthResponse{Status: statusHealthy, Components: make(map[string]ComponentHealth, len(checks))}
	for name, check := range checks {
		c := check(ctx)
		resp.Components[name] = c
		if statusRank[c.Status] > statusRank[resp.Status] {
			resp.Status = c.Status
		}
	}
	return &HealthOutput{Body: resp}, nil
}

// timed runs probe and stamps its duration on the result.
func timed(probe func() ComponentHealth) ComponentHealth {
	start := time.Now()
	c := probe()
	c.Latency = time.Since(start).String()
	return c
}

func (s *Server) checkDatabase(ctx context.Context) ComponentHealth {
	if s.store == nil {
		return ComponentHealth{Status: statusDegraded, Message: "database not configured"}
	}
	return timed(func() ComponentHealth {
		if _, err := s.store.Users.Count(ctx); err != nil {
			s.logger.Warn("health: database read failed", "error", err)
			return ComponentHealth{Status: statusUnhealthy, Message: "database read failed"}
		}
		return ComponentHealth{Status: statusHealthy}
	})
}

// checkSearchIndex treats an empty index as degraded: nothing is searchable
// until the first signup or a reindex finishes.
func (s *Server) checkSearchIndex(context.Context) ComponentHealth {
	if s.services == nil || s.services.Search == nil {
		return ComponentHealth{Status: statusDegraded, Message: "search service not configured"}
	}
	return timed(func() ComponentHealth {
		n := s.services.Search.DocumentCount()
		if n == 0 {
			return ComponentHealth{Status: statusDegraded, Message: "search index empty"}
		}
		return ComponentHealth{Status: statusHealthy, Message: strconv.FormatUint(n, 10) + " documents"}
	})
}

func (s *Server) checkSSEManager(context.Context) ComponentHealth {
	if s.sseManager == nil {
		return ComponentHealth{Status: statusDegraded, Message: "SSE manager not configured"}
	}
	return ComponentHealth{Status: statusHealthy, Message: formatSSEStatus(s.sseManager.ClientCount())}
}

func formatSSEStatus(count int) string {
	switch count {
	case 0:
		return "no connected clients"
	case 1:
		return "1 connected client"
	}
	return strconv.Itoa(count) + " connected clients"
}
