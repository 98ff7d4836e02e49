package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/straye-as/sds-catalog-api/internal/config"
	"go.uber.org/zap"
)

var (
	// ErrObjectExists is returned by Put when overwrite is false and the path is taken
	ErrObjectExists = errors.New("object already exists")
	// ErrObjectNotFound is returned when a path has no object
	ErrObjectNotFound = errors.New("object not found")
	// ErrInvalidPath is returned for empty paths or paths escaping the bucket
	ErrInvalidPath = errors.New("invalid object path")
)

// Storage is a bucket of objects addressed by slash-separated paths
type Storage interface {
	Put(ctx context.Context, path, contentType string, data io.Reader, size int64, overwrite bool) error
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	Copy(ctx context.Context, srcPath, dstPath string) error
	PublicURL(path string) string
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}

// NewStorage creates a storage backend for the configured mode:
// "local" (filesystem), "azure"/"cloud" (Azure Blob Storage) or "s3"/"minio".
func NewStorage(cfg *config.StorageConfig, publicBaseURL string, logger *zap.Logger) (Storage, error) {
	switch cfg.Mode {
	case "local":
		return NewLocalStorage(cfg.LocalBasePath, publicBaseURL, cfg.LocalSigningKey)
	case "cloud", "azure":
		if cfg.CloudConnectionString == "" {
			return nil, fmt.Errorf("cloud connection string required for azure storage")
		}
		return NewAzureBlobStorage(cfg.CloudConnectionString, cfg.Bucket, logger)
	case "s3", "minio":
		if cfg.S3Endpoint == "" {
			return nil, fmt.Errorf("s3 endpoint required for s3 storage")
		}
		return NewS3Storage(&S3Options{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
			Region:    cfg.S3Region,
			Bucket:    cfg.Bucket,
		}, logger)
	default:
		return nil, fmt.Errorf("unsupported storage mode: %s", cfg.Mode)
	}
}

// CleanPath normalises an object path and rejects traversal
func CleanPath(path string) (string, error) {
	p := strings.Trim(strings.ReplaceAll(path, "\\", "/"), "/")
	if p == "" {
		return "", ErrInvalidPath
	}
	for _, segment := range strings.Split(p, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return "", fmt.Errorf("%w: %s", ErrInvalidPath, path)
		}
	}
	return p, nil
}
