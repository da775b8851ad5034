// Package storage keeps uploaded resume files in object storage or on disk.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"jobpilot/internal/config"
	"jobpilot/internal/errors"
)

// Store persists resume files by key
type Store interface {
	// Put stores data under key and returns the URL recorded on the resume
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// New creates the store selected by cfg.Backend
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "s3":
		return NewS3Store(ctx, cfg)
	case "local", "":
		return NewFSStore(cfg.LocalDir, cfg.PublicBaseURL)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unsupported storage backend: %s", cfg.Backend), nil)
	}
}

// ObjectKey returns the key for a file uploaded by userID at the given time:
// <userId>/<unixMillis>.<ext>
func ObjectKey(userID, ext string, at time.Time) string {
	return fmt.Sprintf("%s/%d.%s", userID, at.UnixMilli(), ext)
}

// KeyFromURL recovers the object key from a URL produced by Put
func KeyFromURL(url, baseURL string) string {
	if baseURL != "" {
		if rest, ok := strings.CutPrefix(url, strings.TrimRight(baseURL, "/")+"/"); ok {
			return rest
		}
	}
	if i := strings.Index(url, "://"); i >= 0 {
		// scheme://bucket/key
		rest := url[i+3:]
		if j := strings.IndexByte(rest, '/'); j >= 0 {
			return rest[j+1:]
		}
	}
	return url
}

func publicURL(baseURL, fallbackPrefix, key string) string {
	if baseURL != "" {
		return strings.TrimRight(baseURL, "/") + "/" + key
	}
	return fallbackPrefix + key
}

func storageFailed(message, key string, err error) *errors.AppError {
	return errors.NewStorageError(errors.ErrCodeStorageFailed, message, err).WithContext("key", key)
}
