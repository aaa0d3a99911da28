package api

import (
	"github.com/inkwellapp/inkwell-server/internal/service"
)

// Services groups the business logic services used by the API server.
type Services struct {
	Auth       *service.AuthService
	Session    *service.SessionService
	Post       *service.PostService
	Profile    *service.ProfileService
	Search     *service.SearchService
	Image      *service.ImageService
	Generation *service.GenerationService
}
