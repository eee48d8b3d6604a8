package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"sellnext/pkg/logger"
)

const imageFolder = "public/products"

// GCSImageStore writes listing images to a Cloud Storage bucket and returns
// their public URL.
type GCSImageStore struct {
	client     *storage.Client
	bucketName string
}

func NewGCSImageStore(ctx context.Context, bucketName string, allowedOrigins []string, opts ...option.ClientOption) (*GCSImageStore, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	store := &GCSImageStore{
		client:     client,
		bucketName: bucketName,
	}

	if err := store.setBucketCORS(ctx, allowedOrigins); err != nil {
		logger.Warn("Failed to set bucket CORS configuration: %v", err)
	}

	return store, nil
}

func (s *GCSImageStore) setBucketCORS(ctx context.Context, origins []string) error {
	bucket := s.client.Bucket(s.bucketName)

	attrs, err := bucket.Attrs(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bucket attributes: %w", err)
	}
	if len(attrs.CORS) > 0 {
		return nil
	}

	_, err = bucket.Update(ctx, storage.BucketAttrsToUpdate{
		CORS: []storage.CORS{{
			MaxAge:          3600,
			Methods:         []string{"GET", "HEAD"},
			Origins:         origins,
			ResponseHeaders: []string{"Content-Type"},
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to update bucket CORS: %w", err)
	}
	return nil
}

func (s *GCSImageStore) Save(ctx context.Context, name, contentType string, data []byte) (string, error) {
	objectName := imageFolder + "/" + name
	obj := s.client.Bucket(s.bucketName).Object(objectName)

	wc := obj.NewWriter(ctx)
	wc.ContentType = contentType
	wc.CacheControl = "public, max-age=86400"

	if _, err := io.Copy(wc, bytes.NewReader(data)); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("failed to copy image to GCS: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %w", err)
	}

	if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		return "", fmt.Errorf("failed to set ACL: %w", err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucketName, objectName), nil
}

func (s *GCSImageStore) Close() error {
	return s.client.Close()
}
