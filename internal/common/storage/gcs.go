// internal/common/storage/gcs.go
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"recruitment-portal/internal/common/config"
	"recruitment-portal/internal/common/logger"
)

// GCS stores documents in a Cloud Storage bucket with a DoesNotExist
// precondition so a key is written at most once.
type GCS struct {
	client     *storage.Client
	bucket     *storage.BucketHandle
	bucketName string
	publicBase string
	maxRetries int
	backoff    time.Duration
	log        logger.Logger
}

func NewGCS(ctx context.Context, cfg config.StorageConfig, log logger.Logger) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCS{
		client:     client,
		bucket:     client.Bucket(cfg.Bucket),
		bucketName: cfg.Bucket,
		publicBase: cfg.PublicBaseURL,
		maxRetries: cfg.MaxRetries,
		backoff:    200 * time.Millisecond,
		log:        log.WithFields(map[string]interface{}{"component": "gcs", "bucket": cfg.Bucket}),
	}, nil
}

func (g *GCS) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}

	err := retry(ctx, g.maxRetries, g.backoff, isTransient, func() error {
		return g.write(ctx, key, data, contentType)
	})
	if err != nil {
		g.log.Error("object write failed", map[string]interface{}{"key": key, "error": err})
		return "", err
	}
	return publicURL(g.publicBase, "gs://"+g.bucketName+"/", key), nil
}

func (g *GCS) write(ctx context.Context, key string, data []byte, contentType string) error {
	w := g.bucket.Object(key).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return classify(key, err)
	}
	if err := w.Close(); err != nil {
		return classify(key, err)
	}
	return nil
}

func (g *GCS) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	r, err := g.bucket.Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("open object %s: %w", key, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (g *GCS) Close() error {
	return g.client.Close()
}

func classify(key string, err error) error {
	if isPreconditionFailed(err) {
		return fmt.Errorf("%w: %s", ErrObjectExists, key)
	}
	return fmt.Errorf("failed to write to GCS: %w", err)
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}

// isTransient retries throttling and server errors only.
func isTransient(err error) bool {
	if errors.Is(err, ErrObjectExists) || errors.Is(err, context.Canceled) {
		return false
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500
	}
	return true
}
