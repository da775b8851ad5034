package storage

import (
	"context"
	"os"
	"path"

	"github.com/spf13/afero"

	"jobpilot/internal/errors"
)

// FSStore keeps resumes under a directory of an afero filesystem
type FSStore struct {
	fs      afero.Fs
	baseURL string
}

// NewFSStore stores files below dir on the local disk
func NewFSStore(dir, baseURL string) (*FSStore, error) {
	if dir == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "storage directory is required", nil)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeStorageFailed, "failed to create storage directory", err).
			WithContext("dir", dir)
	}
	return NewFSStoreOn(afero.NewBasePathFs(afero.NewOsFs(), dir), baseURL), nil
}

// NewFSStoreOn wraps an existing filesystem, typically afero.NewMemMapFs in tests
func NewFSStoreOn(fs afero.Fs, baseURL string) *FSStore {
	return &FSStore{fs: fs, baseURL: baseURL}
}

func (s *FSStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	if err := s.fs.MkdirAll(path.Dir(key), 0o750); err != nil {
		return "", storageFailed("failed to create directory", key, err)
	}
	if err := afero.WriteFile(s.fs, key, data, 0o640); err != nil {
		return "", storageFailed("failed to write file", key, err)
	}
	return publicURL(s.baseURL, "file:///", key), nil
}

func (s *FSStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, key)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError(errors.ErrCodeFileNotFound, "file not found", err).WithContext("key", key)
		}
		return nil, storageFailed("failed to read file", key, err)
	}
	return data, nil
}

// Delete removes key; a missing file is not an error
func (s *FSStore) Delete(_ context.Context, key string) error {
	if err := s.fs.Remove(key); err != nil && !os.IsNotExist(err) {
		return storageFailed("failed to delete file", key, err)
	}
	return nil
}
