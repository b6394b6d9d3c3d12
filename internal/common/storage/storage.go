// Package storage writes applicant documents to a blob backend.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"recruitment-portal/internal/common/config"
	"recruitment-portal/internal/common/logger"
)

var (
	ErrObjectExists = errors.New("object already exists")
	ErrInvalidKey   = errors.New("invalid object key")
	ErrNotFound     = errors.New("object not found")
)

// BlobStore stores immutable objects. Put never overwrites an existing key.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// New builds the backend selected in configuration.
func New(ctx context.Context, cfg config.StorageConfig, log logger.Logger) (BlobStore, func() error, error) {
	switch cfg.Backend {
	case "gcs":
		g, err := NewGCS(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	case "", "local":
		l, err := NewLocal(cfg.BaseDir, cfg.PublicBaseURL)
		if err != nil {
			return nil, nil, err
		}
		return l, func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// validateKey accepts only relative slash-separated keys without dot segments.
func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}

func publicURL(base, fallbackPrefix, key string) string {
	if base != "" {
		return strings.TrimRight(base, "/") + "/" + key
	}
	return fallbackPrefix + key
}

// retry runs fn up to attempts times with linear backoff while it returns a
// retryable error.
func retry(ctx context.Context, attempts int, backoff time.Duration, retryable func(error) bool, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil || !retryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff * time.Duration(i+1)):
		}
	}
	return err
}
