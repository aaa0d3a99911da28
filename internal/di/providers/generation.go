package providers

import (
	"time"

	"github.com/samber/do/v2"

	"github.com/inkwellapp/inkwell-server/internal/config"
	"github.com/inkwellapp/inkwell-server/internal/generate"
	"github.com/inkwellapp/inkwell-server/internal/logger"
	"github.com/inkwellapp/inkwell-server/internal/ratelimit"
)

const (
	// generationsPerMinute caps how often one user may ask for a draft.
	generationsPerMinute = 10
	generationBurst      = 3

	// authAttemptsPerMinute caps signup and login attempts per client IP.
	authAttemptsPerMinute = 20
	authBurst             = 5
)

// ProvideGenerator provides the content generation client.
func ProvideGenerator(i do.Injector) (*generate.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := generate.NewClient(generate.Config{
		APIKey:        cfg.Generation.APIKey,
		Model:         cfg.Generation.Model,
		BaseURL:       cfg.Generation.BaseURL,
		Timeout:       cfg.Generation.Timeout,
		RatePerMinute: cfg.Generation.RatePerMinute,
	}, log.Logger)

	if !client.Configured() {
		log.Warn("No generation API key configured, drafts will report the failure inline")
	} else {
		log.Info("Content generation enabled", "model", client.Model())
	}

	return client, nil
}

// ProvideCoordinator provides the per-user generation task coordinator.
func ProvideCoordinator(i do.Injector) (*generate.Coordinator, error) {
	client := do.MustInvoke[*generate.Client](i)
	log := do.MustInvoke[*logger.Logger](i)

	return generate.NewCoordinator(client, log.Logger), nil
}

// GenerationLimiterHandle limits generation requests per user.
type GenerationLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// ProvideGenerationLimiter provides the per-user generation limiter.
func ProvideGenerationLimiter(i do.Injector) (*GenerationLimiterHandle, error) {
	return &GenerationLimiterHandle{
		KeyedRateLimiter: ratelimit.PerInterval(generationsPerMinute, time.Minute, generationBurst),
	}, nil
}

// AuthLimiterHandle limits signup and login attempts per client IP.
type AuthLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// ProvideAuthLimiter provides the per-IP auth limiter.
func ProvideAuthLimiter(i do.Injector) (*AuthLimiterHandle, error) {
	return &AuthLimiterHandle{
		KeyedRateLimiter: ratelimit.PerInterval(authAttemptsPerMinute, time.Minute, authBurst,
			// Client addresses churn; drop them sooner than user keys.
			ratelimit.WithIdleTTL(2*time.Minute)),
	}, nil
}
