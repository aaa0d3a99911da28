package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/inkwellapp/inkwell-server/internal/config"
	"github.com/inkwellapp/inkwell-server/internal/generate"
	"github.com/inkwellapp/inkwell-server/internal/logger"
	"github.com/inkwellapp/inkwell-server/internal/metrics"
	"github.com/inkwellapp/inkwell-server/internal/telemetry"
)

// ProvideMetrics provides the Prometheus collectors, with gauges over live
// server state.
func ProvideMetrics(i do.Injector) (*metrics.Metrics, error) {
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	bootstrap := do.MustInvoke[*Bootstrap](i)
	coord := do.MustInvoke[*generate.Coordinator](i)

	m := metrics.New()
	m.RegisterGauge("sse_clients", "Connected event stream clients.", func() float64 {
		return float64(sseHandle.ClientCount())
	})
	m.RegisterGauge("posts", "Published posts.", func() float64 {
		return float64(bootstrap.Posts.Len())
	})
	m.RegisterGauge("users", "Registered users.", func() float64 {
		return float64(bootstrap.Users.Len())
	})
	m.RegisterGauge("generations_in_flight", "Generation tasks currently running.", func() float64 {
		return float64(coord.InFlight())
	})

	return m, nil
}

// TelemetryHandle wraps the tracer provider with shutdown capability.
type TelemetryHandle struct {
	*telemetry.Provider
}

// Shutdown implements do.Shutdownable.
func (h *TelemetryHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Provider.Shutdown(ctx)
}

// ProvideTelemetry provides OTLP tracing. Without an endpoint the provider
// is disabled and the HTTP handler is left unwrapped.
func ProvideTelemetry(i do.Injector) (*TelemetryHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	provider, err := telemetry.Init(context.Background(), telemetry.Config{
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: cfg.Telemetry.ServiceName,
		Environment: cfg.App.Environment,
		SampleRatio: cfg.Telemetry.SampleRatio,
		Insecure:    cfg.App.Environment == "development",
	}, log.Logger)
	if err != nil {
		return nil, err
	}

	return &TelemetryHandle{Provider: provider}, nil
}
