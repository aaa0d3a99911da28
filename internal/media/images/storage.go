// Package images stores uploaded cover images, computes their BlurHash
// placeholders and builds fallback image URLs.
package images

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotFound is returned when no object exists under a key.
var ErrNotFound = errors.New("image not found")

// Storage is where image bytes live.
type Storage interface {
	Save(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) bool
	Delete(ctx context.Context, key string) error
}

// DiskStorage keeps images as files in one directory.
// Safe for concurrent use.
type DiskStorage struct {
	basePath string
	mu       sync.RWMutex
}

// NewDiskStorage creates disk storage in {basePath}/{subdir}, creating the
// directory if needed.
func NewDiskStorage(basePath, subdir string) (*DiskStorage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	if subdir == "" {
		return nil, fmt.Errorf("subdirectory cannot be empty")
	}

	storagePath := filepath.Join(basePath, subdir)
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", subdir, err)
	}

	return &DiskStorage{basePath: storagePath}, nil
}

func validKey(key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}

// Save writes data under key. The content type is implied by the key's
// extension on disk.
func (s *DiskStorage) Save(ctx context.Context, key, _ string, data []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("image data cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(s.Path(key), data, 0o644); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}
	return nil
}

// Get reads the image stored under key.
func (s *DiskStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}
	return data, nil
}

// Exists checks whether key is stored.
func (s *DiskStorage) Exists(_ context.Context, key string) bool {
	if validKey(key) != nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.Path(key))
	return err == nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *DiskStorage) Delete(_ context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image file: %w", err)
	}
	return nil
}

// Path returns the filesystem path for key.
func (s *DiskStorage) Path(key string) string {
	return filepath.Join(s.basePath, key)
}

// Hash returns the hex SHA-256 of data, used as an ETag.
func Hash(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}
