package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/do/v2"

	"github.com/inkwellapp/inkwell-server/internal/config"
	"github.com/inkwellapp/inkwell-server/internal/logger"
	"github.com/inkwellapp/inkwell-server/internal/media/covers"
	"github.com/inkwellapp/inkwell-server/internal/media/images"
)

// ProvideImageStorage provides the storage for uploaded images: the data
// directory, or an S3 bucket when STORAGE_BACKEND=s3.
func ProvideImageStorage(i do.Injector) (images.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Storage.Backend != "s3" {
		storage, err := images.NewDiskStorage(cfg.Data.BasePath, "images")
		if err != nil {
			return nil, fmt.Errorf("image storage: %w", err)
		}
		log.Info("Image storage initialized", "backend", "local")
		return storage, nil
	}

	storage, err := images.NewS3Storage(images.S3Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		UseSSL:    cfg.Storage.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := storage.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("image bucket: %w", err)
	}

	log.Info("Image storage initialized", "backend", "s3", "endpoint", cfg.Storage.Endpoint, "bucket", cfg.Storage.Bucket)
	return storage, nil
}

// ProvideImageProcessor provides the image processor for cover uploads.
func ProvideImageProcessor(i do.Injector) (*images.Processor, error) {
	storage := do.MustInvoke[images.Storage](i)
	log := do.MustInvoke[*logger.Logger](i)

	return images.NewProcessor(storage, log.Logger), nil
}

// ProvideCoverDownloader provides the downloader for remote cover imports.
func ProvideCoverDownloader(i do.Injector) (*covers.Downloader, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return covers.NewDownloader(log.Logger), nil
}
