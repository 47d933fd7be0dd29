package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"mileage-service/common/env"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MediaStore wraps an S3-compatible bucket (Cloudflare R2) holding safety
// media uploads.
type MediaStore struct {
	client *minio.Client
	bucket string
}

// NewMediaStoreFromEnv builds a MediaStore from R2_* environment variables
func NewMediaStoreFromEnv() (*MediaStore, error) {
	endpoint := env.Get("R2_ENDPOINT", "")
	if endpoint == "" {
		return nil, fmt.Errorf("R2_ENDPOINT is not set")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds: credentials.NewStaticV4(
			env.Get("R2_ACCESS_KEY_ID", ""),
			env.Get("R2_SECRET_ACCESS_KEY", ""),
			"",
		),
		Secure: true,
		Region: "auto",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create R2 client: %w", err)
	}

	return &MediaStore{
		client: client,
		bucket: env.Get("R2_BUCKET", "safety-media"),
	}, nil
}

// Upload stores an object and returns its key
func (s *MediaStore) Upload(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", objectKey, err)
	}
	return nil
}

// PresignedURL returns a time-limited download URL for an object
func (s *MediaStore) PresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", objectKey, err)
	}
	return u.String(), nil
}

// Remove deletes an object from the bucket
func (s *MediaStore) Remove(ctx context.Context, objectKey string) error {
	return s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{})
}
