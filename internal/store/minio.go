package store

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/Lllllllleong/financialstatementflow/internal/config"
	"github.com/Lllllllleong/financialstatementflow/internal/models"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioBlobs stores files in an S3-compatible bucket; the object name is the file id.
type MinioBlobs struct {
	client *minio.Client
	bucket string
}

func NewMinioBlobs(cfg config.MinioConfig) (*MinioBlobs, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &MinioBlobs{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *MinioBlobs) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

func (s *MinioBlobs) Put(ctx context.Context, name string, data []byte, meta models.FileMetadata) (string, error) {
	objectName := fmt.Sprintf("%s/%s", uuid.New().String(), name)
	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  meta.ContentType,
		UserMetadata: metadataStrings(meta),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	return objectName, nil
}

func (s *MinioBlobs) Get(ctx context.Context, fileID string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, fileID, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return data, nil
}
