package images

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/inkwellapp/inkwell-server/internal/errors"
)

func setupTestProcessor(t *testing.T) (*Processor, *DiskStorage) {
	t.Helper()
	storage := setupTestStorage(t)
	return NewProcessor(storage, slog.New(slog.DiscardHandler)), storage
}

// gradientPNG encodes a w x h PNG with a horizontal gradient.
func gradientPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessor_Process(t *testing.T) {
	ctx := context.Background()
	processor, storage := setupTestProcessor(t)
	data := gradientPNG(t, 200, 100)

	rec, err := processor.Process(ctx, 7, data)
	require.NoError(t, err)

	assert.Contains(t, rec.ID, "img-")
	assert.True(t, strings.HasSuffix(rec.Key, ".png"))
	assert.NotContains(t, rec.Key, rec.ID)
	assert.Equal(t, "image/png", rec.ContentType)
	assert.Equal(t, int64(len(data)), rec.Size)
	assert.Equal(t, 200, rec.Width)
	assert.Equal(t, 100, rec.Height)
	assert.Equal(t, int64(7), rec.OwnerID)
	assert.NotEmpty(t, rec.BlurHash)
	assert.False(t, rec.CreatedAt.IsZero())

	stored, err := storage.Get(ctx, rec.Key)
	require.NoError(t, err)
	assert.Equal(t, data, stored)
}

func TestProcessor_Rejects(t *testing.T) {
	ctx := context.Background()
	processor, _ := setupTestProcessor(t)

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "text", data: []byte("definitely not an image")},
		{name: "truncated png", data: gradientPNG(t, 10, 10)[:40]},
		{name: "too large", data: make([]byte, MaxUploadSize+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := processor.Process(ctx, 1, tt.data)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
			assert.Nil(t, rec)
		})
	}
}

func TestComputeBlurHash(t *testing.T) {
	t.Run("small image used directly", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 16, 16))
		assert.Same(t, img, resizeForBlurHash(img))

		hash, err := ComputeBlurHash(img)
		require.NoError(t, err)
		assert.NotEmpty(t, hash)
	})

	t.Run("large image is downscaled keeping aspect", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 640, 160))
		thumb := resizeForBlurHash(img)
		assert.Equal(t, 64, thumb.Bounds().Dx())
		assert.Equal(t, 16, thumb.Bounds().Dy())
	})

	t.Run("extreme aspect keeps one pixel", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 1, 1000))
		thumb := resizeForBlurHash(img)
		assert.Equal(t, 1, thumb.Bounds().Dx())
		assert.Equal(t, 64, thumb.Bounds().Dy())
	})

	t.Run("same image same hash", func(t *testing.T) {
		data := gradientPNG(t, 120, 80)
		img, _, err := image.Decode(bytes.NewReader(data))
		require.NoError(t, err)

		a, err := ComputeBlurHash(img)
		require.NoError(t, err)
		b, err := ComputeBlurHash(img)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}
