package providers

import (
	"github.com/samber/do/v2"

	"github.com/inkwellapp/inkwell-server/internal/auth"
	"github.com/inkwellapp/inkwell-server/internal/config"
	"github.com/inkwellapp/inkwell-server/internal/generate"
	"github.com/inkwellapp/inkwell-server/internal/logger"
	"github.com/inkwellapp/inkwell-server/internal/media/covers"
	"github.com/inkwellapp/inkwell-server/internal/media/images"
	"github.com/inkwellapp/inkwell-server/internal/metrics"
	"github.com/inkwellapp/inkwell-server/internal/service"
	"github.com/inkwellapp/inkwell-server/internal/validation"
)

// ProvideValidator provides the shared request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideSessionService provides the session service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	sessions := do.MustInvoke[*SessionManagerHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(sessions.Manager, tokens, log.Logger), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	bootstrap := do.MustInvoke[*Bootstrap](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sessions := do.MustInvoke[*service.SessionService](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	emitter := do.MustInvoke[*EmitterHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(bootstrap.Users, storeHandle.Store, sessions, searchService, emitter, m, v, log.Logger), nil
}

// ProvidePostService provides the post service.
func ProvidePostService(i do.Injector) (*service.PostService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	bootstrap := do.MustInvoke[*Bootstrap](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	emitter := do.MustInvoke[*EmitterHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewPostService(bootstrap.Posts, storeHandle.Store, searchService, emitter, m, v, cfg.Blog.PageSize, log.Logger), nil
}

// ProvideProfileService provides the profile service.
func ProvideProfileService(i do.Injector) (*service.ProfileService, error) {
	bootstrap := do.MustInvoke[*Bootstrap](i)
	return service.NewProfileService(bootstrap.Users, bootstrap.Posts), nil
}

// ProvideImageService provides the image service.
func ProvideImageService(i do.Injector) (*service.ImageService, error) {
	processor := do.MustInvoke[*images.Processor](i)
	downloader := do.MustInvoke[*covers.Downloader](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewImageService(processor, downloader, storeHandle.Store, log.Logger), nil
}

// ProvideGenerationService provides the generation service.
func ProvideGenerationService(i do.Injector) (*service.GenerationService, error) {
	coord := do.MustInvoke[*generate.Coordinator](i)
	limiter := do.MustInvoke[*GenerationLimiterHandle](i)
	emitter := do.MustInvoke[*EmitterHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewGenerationService(coord, limiter.KeyedRateLimiter, emitter, m, v, log.Logger), nil
}
