package images

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStorage(t *testing.T) *DiskStorage {
	t.Helper()
	storage, err := NewDiskStorage(t.TempDir(), "images")
	require.NoError(t, err)
	return storage
}

func TestNewDiskStorage(t *testing.T) {
	t.Run("creates storage directory", func(t *testing.T) {
		tmpDir := t.TempDir()

		storage, err := NewDiskStorage(tmpDir, "images")
		require.NoError(t, err)
		require.NotNil(t, storage)

		info, err := os.Stat(filepath.Join(tmpDir, "images"))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("returns error for empty path", func(t *testing.T) {
		storage, err := NewDiskStorage("", "images")
		assert.Error(t, err)
		assert.Nil(t, storage)
		assert.Contains(t, err.Error(), "base path cannot be empty")
	})

	t.Run("returns error for empty subdir", func(t *testing.T) {
		_, err := NewDiskStorage(t.TempDir(), "")
		assert.Error(t, err)
	})

	t.Run("creates nested directories if needed", func(t *testing.T) {
		nestedPath := filepath.Join(t.TempDir(), "nested", "path")

		_, err := NewDiskStorage(nestedPath, "images")
		require.NoError(t, err)

		info, err := os.Stat(filepath.Join(nestedPath, "images"))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})
}

func TestDiskStorage_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	storage := setupTestStorage(t)
	data := []byte("test image data")

	require.NoError(t, storage.Save(ctx, "img-1.png", "image/png", data))
	assert.True(t, storage.Exists(ctx, "img-1.png"))

	onDisk, err := os.ReadFile(storage.Path("img-1.png"))
	require.NoError(t, err)
	assert.Equal(t, data, onDisk)

	got, err := storage.Get(ctx, "img-1.png")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, storage.Delete(ctx, "img-1.png"))
	assert.False(t, storage.Exists(ctx, "img-1.png"))

	// Deleting again is not an error.
	require.NoError(t, storage.Delete(ctx, "img-1.png"))
}

func TestDiskStorage_Overwrite(t *testing.T) {
	ctx := context.Background()
	storage := setupTestStorage(t)

	require.NoError(t, storage.Save(ctx, "img-1.png", "image/png", []byte("old")))
	require.NoError(t, storage.Save(ctx, "img-1.png", "image/png", []byte("new")))

	got, err := storage.Get(ctx, "img-1.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)
}

func TestDiskStorage_Errors(t *testing.T) {
	ctx := context.Background()
	storage := setupTestStorage(t)

	tests := []struct {
		name string
		run  func() error
	}{
		{name: "save empty key", run: func() error { return storage.Save(ctx, "", "image/png", []byte("x")) }},
		{name: "save empty data", run: func() error { return storage.Save(ctx, "a.png", "image/png", nil) }},
		{name: "save traversal", run: func() error { return storage.Save(ctx, "../escape.png", "image/png", []byte("x")) }},
		{name: "delete empty key", run: func() error { return storage.Delete(ctx, "") }},
		{name: "get traversal", run: func() error { _, err := storage.Get(ctx, "..\\x"); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.run())
		})
	}

	_, err := storage.Get(ctx, "missing.png")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, storage.Exists(ctx, ""))
}

func TestDiskStorage_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	storage := setupTestStorage(t)
	assert.ErrorIs(t, storage.Save(ctx, "a.png", "image/png", []byte("x")), context.Canceled)
}

func TestDiskStorage_Concurrent(t *testing.T) {
	ctx := context.Background()
	storage := setupTestStorage(t)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := "img-" + string(rune('a'+i)) + ".png"
			assert.NoError(t, storage.Save(ctx, key, "image/png", []byte{byte(i) + 1}))
			_, err := storage.Get(ctx, key)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestHash(t *testing.T) {
	assert.Equal(t, Hash([]byte("abc")), Hash([]byte("abc")))
	assert.NotEqual(t, Hash([]byte("abc")), Hash([]byte("abd")))
	assert.Len(t, Hash([]byte("abc")), 64)
}

func TestS3Storage(t *testing.T) {
	endpoint := os.Getenv("S3_TEST_ENDPOINT")
	if endpoint == "" {
		t.Skip("S3_TEST_ENDPOINT not set")
	}

	ctx := context.Background()
	storage, err := NewS3Storage(S3Config{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("S3_TEST_ACCESS_KEY"),
		SecretKey: os.Getenv("S3_TEST_SECRET_KEY"),
		Bucket:    "inkwell-test",
	})
	require.NoError(t, err)
	require.NoError(t, storage.EnsureBucket(ctx))

	require.NoError(t, storage.Save(ctx, "img-s3.png", "image/png", []byte("png bytes")))
	assert.True(t, storage.Exists(ctx, "img-s3.png"))

	got, err := storage.Get(ctx, "img-s3.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png bytes"), got)

	require.NoError(t, storage.Delete(ctx, "img-s3.png"))
	_, err = storage.Get(ctx, "img-s3.png")
	assert.ErrorIs(t, err, ErrNotFound)
}
