// Package storage provides an S3-compatible blob store adapter used by the
// documents module. It is domain-agnostic; document metadata lives in the
// database and only the raw bytes land here.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DownloadURLTTL is the lifetime of presigned download links.
const DownloadURLTTL = 15 * time.Minute

// PresignedURL is a time-limited link to an object.
type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// BlobStore is the object storage boundary.
type BlobStore interface {
	EnsureBucketExists(ctx context.Context, bucket string) error
	UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error)
	DownloadFile(ctx context.Context, bucket, fileKey string) (io.ReadCloser, error)
	GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*PresignedURL, error)
	DeleteObject(ctx context.Context, bucket, fileKey string) error
	ValidateContentType(contentType string) error
	ValidateFileSize(sizeBytes int64) error
}

// Config is the configuration surface the adapter needs.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	IsMinIOEnabled() bool
}

// MinIOStore implements BlobStore using MinIO.
type MinIOStore struct {
	client      *minio.Client
	maxFileSize int64
}

// NewMinIOStore creates a MinIO-backed blob store.
func NewMinIOStore(cfg Config) (*MinIOStore, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("minio is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinIOStore{client: client, maxFileSize: cfg.GetMinIOMaxFileSize()}, nil
}

var _ BlobStore = (*MinIOStore)(nil)

// EnsureBucketExists creates the bucket when missing.
func (s *MinIOStore) EnsureBucketExists(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}
	return nil
}

// UploadFile streams an object into the store. The key gets a random suffix
// so repeated uploads of the same file name never overwrite each other.
func (s *MinIOStore) UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error) {
	ext := path.Ext(fileName)
	base := strings.TrimSuffix(fileName, ext)
	fileKey := path.Join(folder, fmt.Sprintf("%s_%s%s", base, uuid.NewString()[:8], ext))

	_, err := s.client.PutObject(ctx, bucket, fileKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", fileKey, err)
	}
	return fileKey, nil
}

// DownloadFile streams an object from the store. The caller closes the reader.
func (s *MinIOStore) DownloadFile(ctx context.Context, bucket, fileKey string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, bucket, fileKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", fileKey, err)
	}
	return obj, nil
}

// GenerateDownloadURL creates a presigned GET link.
func (s *MinIOStore) GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*PresignedURL, error) {
	expiresAt := time.Now().Add(DownloadURLTTL)
	presigned, err := s.client.PresignedGetObject(ctx, bucket, fileKey, DownloadURLTTL, url.Values{})
	if err != nil {
		return nil, fmt.Errorf("presign %s: %w", fileKey, err)
	}
	return &PresignedURL{URL: presigned.String(), FileKey: fileKey, ExpiresAt: expiresAt}, nil
}

// DeleteObject removes an object.
func (s *MinIOStore) DeleteObject(ctx context.Context, bucket, fileKey string) error {
	if err := s.client.RemoveObject(ctx, bucket, fileKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object %s: %w", fileKey, err)
	}
	return nil
}

// allowedContentTypes is the closed set of MIME types accepted for customs
// paperwork uploads.
var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,

	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"text/plain": true,
	"text/csv":   true,
}

// ValidateContentType checks the MIME type against the allow list.
func (s *MinIOStore) ValidateContentType(contentType string) error {
	normalized := strings.TrimSpace(strings.ToLower(strings.Split(contentType, ";")[0]))
	if !allowedContentTypes[normalized] {
		return fmt.Errorf("content type %q is not allowed", contentType)
	}
	return nil
}

// ValidateFileSize checks the declared size against the configured limit.
func (s *MinIOStore) ValidateFileSize(sizeBytes int64) error {
	if sizeBytes <= 0 {
		return fmt.Errorf("file size must be greater than 0")
	}
	if sizeBytes > s.maxFileSize {
		return fmt.Errorf("file size %d exceeds the %d byte limit", sizeBytes, s.maxFileSize)
	}
	return nil
}
