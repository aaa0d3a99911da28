package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	domainerrors "github.com/inkwellapp/inkwell-server/internal/errors"
	"github.com/inkwellapp/inkwell-server/internal/media/covers"
	"github.com/inkwellapp/inkwell-server/internal/media/images"
	"github.com/inkwellapp/inkwell-server/internal/store"
)

// ImagePath is the API path an uploaded image is served from.
func ImagePath(imageID string) string {
	return "/api/v1/images/" + imageID
}

// ImageView describes a stored image.
type ImageView struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	BlurHash    string `json:"blur_hash,omitempty"`
}

// NewImageView builds the view of img.
func NewImageView(img *domain.Image) *ImageView {
	return &ImageView{
		ID:          img.ID,
		URL:         ImagePath(img.ID),
		ContentType: img.ContentType,
		Size:        img.Size,
		Width:       img.Width,
		Height:      img.Height,
		BlurHash:    img.BlurHash,
	}
}

// ImageService accepts cover image uploads and serves them back.
type ImageService struct {
	processor  *images.Processor
	downloader *covers.Downloader
	store      *store.Store
	logger     *slog.Logger
}

// NewImageService creates a new image service.
func NewImageService(processor *images.Processor, downloader *covers.Downloader, db *store.Store, logger *slog.Logger) *ImageService {
	return &ImageService{
		processor:  processor,
		downloader: downloader,
		store:      db,
		logger:     logger,
	}
}

// Upload stores image bytes uploaded by actor.
func (s *ImageService) Upload(ctx context.Context, actor *domain.User, data []byte) (*ImageView, error) {
	if actor == nil {
		return nil, domainerrors.Unauthenticated("you must be logged in to upload images")
	}

	img, err := s.processor.Process(ctx, actor.ID, data)
	if err != nil {
		return nil, err
	}

	if err := s.store.Images.Create(ctx, img.ID, img); err != nil {
		if delErr := s.processor.Storage().Delete(ctx, img.Key); delErr != nil {
			s.logger.Warn("failed to remove orphaned image", "key", img.Key, "error", delErr)
		}
		return nil, fmt.Errorf("persist image: %w", err)
	}

	s.logger.Info("image uploaded", "image_id", img.ID, "owner_id", actor.ID, "size", img.Size)
	return NewImageView(img), nil
}

// Import downloads a remote image and stores it as if actor uploaded it.
func (s *ImageService) Import(ctx context.Context, actor *domain.User, rawURL string) (*ImageView, error) {
	if actor == nil {
		return nil, domainerrors.Unauthenticated("you must be logged in to import images")
	}

	data, err := s.downloader.Fetch(ctx, rawURL)
	switch {
	case errors.Is(err, covers.ErrInvalidURL), errors.Is(err, covers.ErrTooLarge),
		errors.Is(err, covers.ErrPrivateAddress), errors.Is(err, covers.ErrTooManyRedirects):
		return nil, domainerrors.Validation(err.Error())
	case err != nil:
		return nil, domainerrors.Validation("image could not be downloaded").WithCause(err)
	}

	return s.Upload(ctx, actor, data)
}

// Get returns the image record and its bytes.
func (s *ImageService) Get(ctx context.Context, imageID string) (*domain.Image, []byte, error) {
	img, err := s.store.Images.Get(ctx, imageID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, domainerrors.NotFoundf("image %s not found", imageID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load image: %w", err)
	}

	data, err := s.processor.Storage().Get(ctx, img.Key)
	if errors.Is(err, images.ErrNotFound) {
		return nil, nil, domainerrors.NotFoundf("image %s not found", imageID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read image: %w", err)
	}
	return img, data, nil
}
