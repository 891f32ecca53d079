package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hszk-dev/moviecollections/internal/domain/repository"
)

// minioClient defines the subset of *minio.Client used for exports.
// This abstraction allows for easier unit testing with mocks.
type minioClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// ClientConfig holds configuration for the MinIO client.
type ClientConfig struct {
	Endpoint       string
	PublicEndpoint string // Optional: external-facing endpoint for presigned URLs
	AccessKey      string
	SecretKey      string
	Bucket         string
	UseSSL         bool
	CreateBucket   bool // Create the bucket on startup instead of failing when it is missing
}

// Client wraps a MinIO client and implements repository.ObjectStorage.
type Client struct {
	client          minioClient
	presignedClient minioClient // Separate client for presigned URLs (may use public endpoint)
	bucket          string
}

// Compile-time verification that Client implements repository.ObjectStorage.
var _ repository.ObjectStorage = (*Client)(nil)

// NewClient creates a new MinIO client.
// It verifies the bucket exists during initialization to fail fast on misconfiguration.
// If PublicEndpoint is set, a separate client is created for presigned URL generation.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	var presigned minioClient = client
	if cfg.PublicEndpoint != "" {
		presignedClient, err := minio.New(cfg.PublicEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create presigned minio client: %w", err)
		}
		presigned = presignedClient
	}

	return newClientWithMinioClient(ctx, client, presigned, cfg.Bucket, cfg.CreateBucket)
}

// newClientWithMinioClient creates a Client with a given minioClient implementation.
// This is used for dependency injection in tests.
func newClientWithMinioClient(ctx context.Context, client, presignedClient minioClient, bucket string, create bool) (*Client, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if !create {
			return nil, fmt.Errorf("%w: %s", repository.ErrBucketNotFound, bucket)
		}
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
	}

	return &Client{
		client:          client,
		presignedClient: presignedClient,
		bucket:          bucket,
	}, nil
}

// sizer is implemented by bytes.Reader, bytes.Buffer and strings.Reader.
type sizer interface {
	Len() int
}

// Upload stores an object in the storage.
// Readers that report their length are uploaded in a single request.
func (c *Client) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	size := int64(-1)
	if s, ok := reader.(sizer); ok {
		size = int64(s.Len())
	}

	_, err := c.client.PutObject(ctx, c.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

// GeneratePresignedDownloadURL creates a presigned URL for downloading an object.
// The URL asks the browser to save the object under its base name.
func (c *Client) GeneratePresignedDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	reqParams := make(url.Values)
	reqParams.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", path.Base(key)))

	presignedURL, err := c.presignedClient.PresignedGetObject(ctx, c.bucket, key, expiry, reqParams)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned download URL: %w", err)
	}
	return presignedURL.String(), nil
}

// Ping verifies the MinIO connection is alive by checking bucket access.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to ping minio: %w", err)
	}
	return nil
}

// Bucket returns the configured bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}
