package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/inkwellapp/inkwell-server/internal/service"
)

func (s *Server) registerGenerateRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "generateContent",
		Method:      http.MethodPost,
		Path:        "/api/v1/generate",
		Summary:     "Generate content",
		Description: "Drafts text for a topic and appends it to the given draft. " +
			"A backend failure is reported in the body with failed set. " +
			"A newer request from the same user supersedes this one with 409.",
		Tags:     []string{"Generation"},
		Security: []map[string][]string{{"bearer": {}}},
	}, s.handleGenerate)

	huma.Register(s.api, huma.Operation{
		OperationID: "cancelGeneration",
		Method:      http.MethodDelete,
		Path:        "/api/v1/generate",
		Summary:     "Cancel generation",
		Description: "Cancels the signed-in user's running generation, if any",
		Tags:        []string{"Generation"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCancelGeneration)
}

// === DTOs ===

// GenerateRequest is the request body for content generation.
type GenerateRequest struct {
	Prompt string `json:"prompt" doc:"Topic to write about"`
	Draft  string `json:"draft,omitempty" doc:"Current post body; generated text is appended to it"`
}

// GenerateInput wraps the generate request for Huma.
type GenerateInput struct {
	Body GenerateRequest
}

// GenerateOutput wraps the generate response for Huma.
type GenerateOutput struct {
	Body *service.GenerateResponse
}

// CancelGenerationResponse reports whether a generation was running.
type CancelGenerationResponse struct {
	Canceled bool `json:"canceled" doc:"True when a running generation was canceled"`
}

// CancelGenerationOutput wraps the cancel response for Huma.
type CancelGenerationOutput struct {
	Body CancelGenerationResponse
}

// === Handlers ===

func (s *Server) handleGenerate(ctx context.Context, input *GenerateInput) (*GenerateOutput, error) {
	resp, err := s.services.Generation.Generate(ctx, currentUser(ctx), service.GenerateRequest{
		Prompt: input.Body.Prompt,
		Draft:  input.Body.Draft,
	})
	if err != nil {
		return nil, err
	}
	return &GenerateOutput{Body: resp}, nil
}

func (s *Server) handleCancelGeneration(ctx context.Context, _ *struct{}) (*CancelGenerationOutput, error) {
	canceled, err := s.services.Generation.Cancel(currentUser(ctx))
	if err != nil {
		return nil, err
	}
	return &CancelGenerationOutput{Body: CancelGenerationResponse{Canceled: canceled}}, nil
}
