package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
	"go.uber.org/zap"
)

// AzureBlobStorage implements Storage for Azure Blob Storage
type AzureBlobStorage struct {
	client        *azblob.Client
	containerName string
	logger        *zap.Logger
}

// NewAzureBlobStorage creates a new Azure Blob Storage instance
func NewAzureBlobStorage(connectionString, containerName string, logger *zap.Logger) (*AzureBlobStorage, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	// Ensure container exists
	_, err = client.CreateContainer(context.Background(), containerName, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	logger.Info("Azure Blob Storage initialized",
		zap.String("container", containerName),
	)

	return &AzureBlobStorage{
		client:        client,
		containerName: containerName,
		logger:        logger,
	}, nil
}

func (s *AzureBlobStorage) blobClient(path string) *blob.Client {
	return s.client.ServiceClient().NewContainerClient(s.containerName).NewBlobClient(path)
}

// Put uploads a blob. Without overwrite the upload carries If-None-Match: *
// so the service rejects it when the blob already exists.
func (s *AzureBlobStorage) Put(ctx context.Context, path, contentType string, data io.Reader, size int64, overwrite bool) error {
	blobName, err := CleanPath(path)
	if err != nil {
		return err
	}

	uploadOptions := &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: &contentType,
		},
	}
	if !overwrite {
		etag := azcore.ETagAny
		uploadOptions.AccessConditions = &blob.AccessConditions{
			ModifiedAccessConditions: &blob.ModifiedAccessConditions{IfNoneMatch: &etag},
		}
	}

	reader := &countingReader{r: data}
	if _, err := s.client.UploadStream(ctx, s.containerName, blobName, reader, uploadOptions); err != nil {
		if bloberror.HasCode(err, bloberror.BlobAlreadyExists, bloberror.ConditionNotMet) {
			return fmt.Errorf("%w: %s", ErrObjectExists, blobName)
		}
		return fmt.Errorf("failed to upload blob: %w", err)
	}

	s.logger.Info("File uploaded to Azure Blob Storage",
		zap.String("blobName", blobName),
		zap.String("container", s.containerName),
		zap.String("contentType", contentType),
		zap.Bool("overwrite", overwrite),
		zap.Int64("size", reader.count),
	)

	return nil
}

// countingReader wraps an io.Reader and counts the number of bytes read
type countingReader struct {
	r     io.Reader
	count int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.count += int64(n)
	return n, err
}

// Get downloads a blob
func (s *AzureBlobStorage) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	blobName, err := CleanPath(path)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.DownloadStream(ctx, s.containerName, blobName, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, blobName)
		}
		return nil, fmt.Errorf("failed to download blob: %w", err)
	}

	return resp.Body, nil
}

// Delete deletes a blob from Azure Blob Storage
func (s *AzureBlobStorage) Delete(ctx context.Context, path string) error {
	blobName, err := CleanPath(path)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteBlob(ctx, s.containerName, blobName, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			s.logger.Debug("Blob already deleted or not found",
				zap.String("blobName", blobName),
				zap.String("container", s.containerName),
			)
			return nil
		}
		return fmt.Errorf("failed to delete blob: %w", err)
	}

	s.logger.Info("File deleted from Azure Blob Storage",
		zap.String("blobName", blobName),
		zap.String("container", s.containerName),
	)

	return nil
}

// Exists reports whether the blob is present
func (s *AzureBlobStorage) Exists(ctx context.Context, path string) (bool, error) {
	blobName, err := CleanPath(path)
	if err != nil {
		return false, err
	}

	if _, err := s.blobClient(blobName).GetProperties(ctx, nil); err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read blob properties: %w", err)
	}
	return true, nil
}

// Copy re-uploads the source blob to dstPath, replacing it
func (s *AzureBlobStorage) Copy(ctx context.Context, srcPath, dstPath string) error {
	srcName, err := CleanPath(srcPath)
	if err != nil {
		return err
	}

	props, err := s.blobClient(srcName).GetProperties(ctx, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return fmt.Errorf("%w: %s", ErrObjectNotFound, srcName)
		}
		return fmt.Errorf("failed to read blob properties: %w", err)
	}

	src, err := s.Get(ctx, srcName)
	if err != nil {
		return err
	}
	defer src.Close()

	contentType := ""
	if props.ContentType != nil {
		contentType = *props.ContentType
	}
	size := int64(-1)
	if props.ContentLength != nil {
		size = *props.ContentLength
	}
	return s.Put(ctx, dstPath, contentType, src, size, true)
}

// PublicURL returns the unsigned blob URL
func (s *AzureBlobStorage) PublicURL(path string) string {
	return strings.TrimSuffix(s.client.URL(), "/") + "/" + s.containerName + "/" + escapePath(path)
}

// SignedURL returns a read-only SAS URL valid for ttl
func (s *AzureBlobStorage) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	blobName, err := CleanPath(path)
	if err != nil {
		return "", err
	}

	signed, err := s.blobClient(blobName).GetSASURL(sas.BlobPermissions{Read: true}, time.Now().Add(ttl), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create sas url: %w", err)
	}
	return signed, nil
}
