package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	domainerrors "github.com/inkwellapp/inkwell-server/internal/errors"
	"github.com/inkwellapp/inkwell-server/internal/id"
)

// MaxUploadSize bounds an uploaded image.
const MaxUploadSize = 10 << 20

// extensions maps accepted content types to stored key extensions.
var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Processor validates uploads, computes their placeholders and stores them.
type Processor struct {
	storage Storage
	logger  *slog.Logger
	now     func() time.Time
}

// NewProcessor creates a Processor writing to storage.
func NewProcessor(storage Storage, logger *slog.Logger) *Processor {
	return &Processor{
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// Storage returns the backing storage.
func (p *Processor) Storage() Storage {
	return p.storage
}

// Process decodes data, computes its BlurHash and stores it for owner under
// a random object key.
// Unsupported or undecodable data is a validation error. The returned
// record is not yet persisted.
func (p *Processor) Process(ctx context.Context, ownerID int64, data []byte) (*domain.Image, error) {
	if len(data) == 0 {
		return nil, domainerrors.Validation("image is empty")
	}
	if len(data) > MaxUploadSize {
		return nil, domainerrors.Validationf("image exceeds %d bytes", MaxUploadSize)
	}

	contentType := http.DetectContentType(data)
	ext, ok := extensions[contentType]
	if !ok {
		return nil, domainerrors.Validationf("unsupported image type %s", contentType)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domainerrors.Validation("image could not be decoded").WithCause(err)
	}

	hash, err := ComputeBlurHash(img)
	if err != nil {
		// The placeholder is optional; the upload still succeeds.
		p.logger.Warn("failed to compute blurhash", "format", format, "error", err)
	}

	imageID, err := id.Generate("img")
	if err != nil {
		return nil, fmt.Errorf("generate image id: %w", err)
	}

	rec := &domain.Image{
		ID:          imageID,
		Key:         uuid.NewString() + ext,
		ContentType: contentType,
		Size:        int64(len(data)),
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		BlurHash:    hash,
		OwnerID:     ownerID,
		CreatedAt:   p.now().UTC(),
	}

	if err := p.storage.Save(ctx, rec.Key, contentType, data); err != nil {
		return nil, fmt.Errorf("save image: %w", err)
	}

	p.logger.Debug("stored image",
		"image_id", rec.ID,
		"owner_id", ownerID,
		"size", rec.Size,
		"width", rec.Width,
		"height", rec.Height,
	)

	return rec, nil
}
