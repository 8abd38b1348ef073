package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/a3tai/sensitive-scan/internal/logger"
)

const (
	// uploads are attempted once and retried twice
	uploadAttempts = 3
	uploadDelay    = time.Second
	uploadMaxDelay = 10 * time.Second
)

// Config holds connection settings for an S3-compatible object store
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
}

// MinioStore keeps documents in a MinIO or S3 bucket
type MinioStore struct {
	client *minio.Client
	bucket string
	config *Config
	delay  time.Duration
}

// NewMinioStore creates a store client. No request is made until first use.
func NewMinioStore(cfg *Config) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioStore{
		client: client,
		bucket: cfg.Bucket,
		config: cfg,
		delay:  uploadDelay,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.config.Region})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// Upload stores data under a fresh key, retrying with exponential backoff
func (s *MinioStore) Upload(ctx context.Context, filename string, data []byte, contentType string) (Object, error) {
	if contentType == "" {
		contentType = "application/pdf"
	}
	key := ObjectKey(filename)

	err := retry.Do(
		func() error {
			_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
				minio.PutObjectOptions{ContentType: contentType})
			return err
		},
		retry.Context(ctx),
		retry.Attempts(uploadAttempts),
		retry.Delay(s.delay),
		retry.MaxDelay(uploadMaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn(ctx, "retrying document upload", "key", key, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return Object{}, fmt.Errorf("failed to upload file: %w", err)
	}

	return Object{
		Key:          key,
		Name:         NameFromKey(key),
		Size:         int64(len(data)),
		ContentType:  contentType,
		LastModified: time.Now().UTC(),
		URL:          s.GetPublicURL(key),
	}, nil
}

// Get returns the content of the object at key
func (s *MinioStore) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.translate(key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.translate(key, err)
	}
	return data, nil
}

// List returns the objects whose key starts with prefix
func (s *MinioStore) List(ctx context.Context, prefix string) ([]Object, error) {
	objects := []Object{}
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if info.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", info.Err)
		}
		objects = append(objects, Object{
			Key:          info.Key,
			Name:         NameFromKey(info.Key),
			Size:         info.Size,
			ContentType:  info.ContentType,
			LastModified: info.LastModified,
			URL:          s.GetPublicURL(info.Key),
		})
	}
	return objects, nil
}

// GetPublicURL returns the path-style URL of the object at key
func (s *MinioStore) GetPublicURL(key string) string {
	protocol := "http"
	if s.config.UseSSL {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", protocol, s.config.Endpoint, s.bucket, key)
}

func (s *MinioStore) translate(key string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%s: %w", key, ErrObjectNotFound)
	}
	return fmt.Errorf("failed to get object %s: %w", key, err)
}

var _ Store = (*MinioStore)(nil)
