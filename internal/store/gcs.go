package store

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/financialstatementflow/internal/gcp"
	"github.com/Lllllllleong/financialstatementflow/internal/models"
	"github.com/google/uuid"
)

// GCSBlobs stores files as objects named <uuid>/<name>; the object name is the file id.
type GCSBlobs struct {
	bucket *storage.BucketHandle
}

func NewGCSBlobs(client *storage.Client, bucket string) *GCSBlobs {
	return &GCSBlobs{bucket: client.Bucket(bucket)}
}

func (s *GCSBlobs) Put(ctx context.Context, name string, data []byte, meta models.FileMetadata) (string, error) {
	objectName := fmt.Sprintf("%s/%s", uuid.New().String(), name)
	err := gcp.SaveToGCSAtomically(ctx, s.bucket, gcp.ObjectSpec{
		Name:        objectName,
		ContentType: meta.ContentType,
		Metadata:    metadataStrings(meta),
	}, data)
	if err != nil {
		return "", err
	}
	return objectName, nil
}

func (s *GCSBlobs) Get(ctx context.Context, fileID string) ([]byte, error) {
	data, err := gcp.ReadObject(ctx, s.bucket, fileID)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}
