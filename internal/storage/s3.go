package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// S3Options configures an S3-compatible backend
type S3Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
	Bucket    string
}

// S3Storage implements Storage for S3-compatible object stores such as MinIO
type S3Storage struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

// NewS3Storage connects to the endpoint and creates the bucket when missing
func NewS3Storage(opts *S3Options, logger *zap.Logger) (*S3Storage, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	logger.Info("S3 storage initialized",
		zap.String("endpoint", opts.Endpoint),
		zap.String("bucket", opts.Bucket),
	)

	return &S3Storage{client: client, bucket: opts.Bucket, logger: logger}, nil
}

func isNoSuchKey(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

// Put uploads an object. S3 has no create-only put, so without overwrite the
// object is checked first; two concurrent writers can still race.
func (s *S3Storage) Put(ctx context.Context, path, contentType string, data io.Reader, size int64, overwrite bool) error {
	key, err := CleanPath(path)
	if err != nil {
		return err
	}

	if !overwrite {
		exists, err := s.Exists(ctx, key)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s", ErrObjectExists, key)
		}
	}

	info, err := s.client.PutObject(ctx, s.bucket, key, data, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}

	s.logger.Info("File uploaded to S3 storage",
		zap.String("key", key),
		zap.String("bucket", s.bucket),
		zap.Bool("overwrite", overwrite),
		zap.Int64("size", info.Size),
	)
	return nil
}

// Get opens an object for reading
func (s *S3Storage) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	key, err := CleanPath(path)
	if err != nil {
		return nil, err
	}

	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	// GetObject is lazy; Stat surfaces a missing key before the caller reads
	if _, err := object.Stat(); err != nil {
		object.Close()
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}
	return object, nil
}

// Delete removes an object; S3 treats missing keys as deleted
func (s *S3Storage) Delete(ctx context.Context, path string) error {
	key, err := CleanPath(path)
	if err != nil {
		return err
	}

	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// Exists reports whether an object is stored at path
func (s *S3Storage) Exists(ctx context.Context, path string) (bool, error) {
	key, err := CleanPath(path)
	if err != nil {
		return false, err
	}

	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object: %w", err)
	}
	return true, nil
}

// Copy performs a server-side copy, replacing dstPath
func (s *S3Storage) Copy(ctx context.Context, srcPath, dstPath string) error {
	srcKey, err := CleanPath(srcPath)
	if err != nil {
		return err
	}
	dstKey, err := CleanPath(dstPath)
	if err != nil {
		return err
	}

	_, err = s.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: s.bucket, Object: dstKey},
		minio.CopySrcOptions{Bucket: s.bucket, Object: srcKey},
	)
	if err != nil {
		if isNoSuchKey(err) {
			return fmt.Errorf("%w: %s", ErrObjectNotFound, srcKey)
		}
		return fmt.Errorf("failed to copy object: %w", err)
	}
	return nil
}

// PublicURL returns the path-style object URL
func (s *S3Storage) PublicURL(path string) string {
	endpoint := s.client.EndpointURL()
	return strings.TrimSuffix(endpoint.String(), "/") + "/" + s.bucket + "/" + escapePath(path)
}

// SignedURL returns a presigned GET URL valid for ttl
func (s *S3Storage) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	key, err := CleanPath(path)
	if err != nil {
		return "", err
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign url: %w", err)
	}
	return u.String(), nil
}
