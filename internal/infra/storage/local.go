package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yanqian/stop-survey/internal/domain/survey"
)

// ErrNotFound is returned by Get when no object exists under the key. It matches fs.ErrNotExist.
var ErrNotFound = fmt.Errorf("object not found: %w", fs.ErrNotExist)

// ErrInvalidKey rejects keys that would resolve outside the storage root.
var ErrInvalidKey = errors.New("invalid object key")

// LocalStorage keeps objects as files under a root directory.
type LocalStorage struct {
	root string
}

// NewLocalStorage constructs storage rooted at dir.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve storage dir: %w", err)
	}
	return &LocalStorage{root: root}, nil
}

// Put writes the object, replacing any previous version.
func (s *LocalStorage) Put(_ context.Context, key string, data []byte, mimeType string) (survey.StoredObject, error) {
	path, err := s.resolve(key)
	if err != nil {
		return survey.StoredObject{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return survey.StoredObject{}, fmt.Errorf("create object dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return survey.StoredObject{}, fmt.Errorf("write object: %w", err)
	}
	hash := md5.Sum(data)
	return survey.StoredObject{
		Key:      key,
		Size:     int64(len(data)),
		MimeType: mimeType,
		ETag:     hex.EncodeToString(hash[:]),
	}, nil
}

// Get opens the object for reading.
func (s *LocalStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *LocalStorage) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(key, "/")))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.root, clean), nil
}

var _ survey.ImageStore = (*LocalStorage)(nil)
