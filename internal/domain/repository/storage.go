package repository

import (
	"context"
	"io"
	"time"
)

// ObjectStorage defines the interface for object storage operations.
// Implementations should be provided by the infrastructure layer (e.g., MinIO, S3).
type ObjectStorage interface {
	// Upload stores an object in the storage.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error

	// GeneratePresignedDownloadURL creates a presigned URL for downloading an object.
	// The URL is valid for the specified duration.
	GeneratePresignedDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}
