package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/stop-survey/internal/domain/survey"
	"github.com/yanqian/stop-survey/internal/infra/config"
	"github.com/yanqian/stop-survey/internal/infra/storage"
)

func TestProvideImageStoreDrivers(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := &config.Config{Storage: config.StorageConfig{Driver: "memory"}}
	images, err := provideImageStore(cfg, logger)
	require.NoError(t, err)
	require.IsType(t, &storage.MemoryStorage{}, images)

	obj, err := images.Put(context.Background(), survey.ImageKey("s1"), []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	require.Equal(t, survey.ImageKey("s1"), obj.Key)

	cfg = &config.Config{Storage: config.StorageConfig{Driver: "local", LocalDir: filepath.Join(t.TempDir(), "images")}}
	images, err = provideImageStore(cfg, logger)
	require.NoError(t, err)
	require.IsType(t, &storage.LocalStorage{}, images)
}
