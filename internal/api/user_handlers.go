package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/inkwellapp/inkwell-server/internal/service"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getUserProfile",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{id}",
		Summary:     "Get user profile",
		Description: "Returns a user's public profile and the posts they wrote, newest first",
		Tags:        []string{"Users"},
	}, s.handleGetUserProfile)
}

// UserIDInput identifies a user.
type UserIDInput struct {
	ID int64 `path:"id" doc:"User ID"`
}

// ProfileOutput wraps a profile for Huma.
type ProfileOutput struct {
	Body *service.ProfileView
}

func (s *Server) handleGetUserProfile(ctx context.Context, input *UserIDInput) (*ProfileOutput, error) {
	profile, err := s.services.Profile.Get(ctx, currentUser(ctx), input.ID)
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: profile}, nil
}
