package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/inkwellapp/inkwell-server/internal/api"
	"github.com/inkwellapp/inkwell-server/internal/config"
	"github.com/inkwellapp/inkwell-server/internal/logger"
	"github.com/inkwellapp/inkwell-server/internal/metrics"
	"github.com/inkwellapp/inkwell-server/internal/service"
	"github.com/inkwellapp/inkwell-server/internal/telemetry"
)

// Version is reported in the OpenAPI document. Set at build time.
var Version = "dev"

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	authLimiter := do.MustInvoke[*AuthLimiterHandle](i)
	tracing := do.MustInvoke[*TelemetryHandle](i)

	services := &api.Services{
		Auth:       do.MustInvoke[*service.AuthService](i),
		Session:    do.MustInvoke[*service.SessionService](i),
		Post:       do.MustInvoke[*service.PostService](i),
		Profile:    do.MustInvoke[*service.ProfileService](i),
		Search:     do.MustInvoke[*service.SearchService](i),
		Image:      do.MustInvoke[*service.ImageService](i),
		Generation: do.MustInvoke[*service.GenerationService](i),
	}

	server := api.NewServer(storeHandle.Store, services, sseHandle.Manager, m, authLimiter.KeyedRateLimiter, api.Options{
		Version:     Version,
		CORSOrigins: cfg.Server.CORSOrigins,
	}, log.Logger)

	var handler http.Handler = server
	if tracing.Enabled() {
		handler = telemetry.Handler(server, cfg.Server.Name)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		serverLog := log.WithFields(map[string]any{"addr": srv.Addr, "version": Version})
		serverLog.Info("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLog.WithError(err).Error("HTTP server error")
		}
	}()

	log.Info("Server running", "addr", srv.Addr, "tracing", tracing.Enabled())

	return &HTTPServerHandle{Server: srv}, nil
}
