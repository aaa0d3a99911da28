package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/inkwellapp/inkwell-server/internal/media/images"
	"github.com/inkwellapp/inkwell-server/internal/service"
)

func (s *Server) registerImageRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "uploadImage",
		Method:        http.MethodPost,
		Path:          "/api/v1/images",
		Summary:       "Upload image",
		Description:   "Stores a JPEG, PNG or GIF for use as a post cover",
		Tags:          []string{"Images"},
		DefaultStatus: http.StatusCreated,
		MaxBodyBytes:  images.MaxUploadSize,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleUploadImage)

	huma.Register(s.api, huma.Operation{
		OperationID:   "importImage",
		Method:        http.MethodPost,
		Path:          "/api/v1/images/import",
		Summary:       "Import image",
		Description:   "Downloads a remote image and stores it as an upload",
		Tags:          []string{"Images"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleImportImage)

	huma.Register(s.api, huma.Operation{
		OperationID: "getImage",
		Method:      http.MethodGet,
		Path:        "/api/v1/images/{id}",
		Summary:     "Get image",
		Description: "Returns the bytes of an uploaded image",
		Tags:        []string{"Images"},
	}, s.handleGetImage)
}

// === DTOs ===

// UploadImageInput carries the raw image bytes.
type UploadImageInput struct {
	RawBody []byte `contentType:"application/octet-stream"`
}

// ImportImageRequest names a remote image.
type ImportImageRequest struct {
	URL string `json:"url" format:"uri" doc:"http or https URL of the image"`
}

// ImportImageInput wraps the import request for Huma.
type ImportImageInput struct {
	Body ImportImageRequest
}

// ImageOutput wraps an image description for Huma.
type ImageOutput struct {
	Body *service.ImageView
}

// ImageIDInput identifies an image.
type ImageIDInput struct {
	ID string `path:"id" doc:"Image ID"`
}

// ImageFileOutput is the raw image.
type ImageFileOutput struct {
	ContentType   string `header:"Content-Type"`
	ContentLength string `header:"Content-Length"`
	CacheControl  string `header:"Cache-Control"`
	ETag          string `header:"ETag"`
	Body          []byte
}

// === Handlers ===

func (s *Server) handleUploadImage(ctx context.Context, input *UploadImageInput) (*ImageOutput, error) {
	img, err := s.services.Image.Upload(ctx, currentUser(ctx), input.RawBody)
	if err != nil {
		return nil, err
	}
	return &ImageOutput{Body: img}, nil
}

func (s *Server) handleImportImage(ctx context.Context, input *ImportImageInput) (*ImageOutput, error) {
	img, err := s.services.Image.Import(ctx, currentUser(ctx), input.Body.URL)
	if err != nil {
		return nil, err
	}
	return &ImageOutput{Body: img}, nil
}

func (s *Server) handleGetImage(ctx context.Context, input *ImageIDInput) (*ImageFileOutput, error) {
	img, data, err := s.services.Image.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ImageFileOutput{
		ContentType:   img.ContentType,
		ContentLength: strconv.Itoa(len(data)),
		// Image ids are content-independent and never reused.
		CacheControl: "public, max-age=31536000, immutable",
		ETag:         `"` + images.Hash(data) + `"`,
		Body:         data,
	}, nil
}
