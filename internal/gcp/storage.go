package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// ErrObjectExists is returned by SaveToGCSAtomically when the object is already present.
var ErrObjectExists = errors.New("object already exists")

// ObjectSpec describes an object to be written.
type ObjectSpec struct {
	Name        string
	ContentType string
	Metadata    map[string]string
}

// SaveToGCSAtomically writes content to a GCS object only if it doesn't already exist.
func SaveToGCSAtomically(ctx context.Context, bucket *storage.BucketHandle, spec ObjectSpec, content []byte) error {
	writer := bucket.Object(spec.Name).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = spec.ContentType
	writer.Metadata = spec.Metadata

	if _, err := io.Copy(writer, bytes.NewReader(content)); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write to GCS: %w", classify(err))
	}

	if err := writer.Close(); err != nil {
		slog.Error("Failed to close GCS writer.", "gcsObject", spec.Name, "error", err)
		return fmt.Errorf("failed to finalize GCS write: %w", classify(err))
	}
	return nil
}

// classify maps a failed precondition onto ErrObjectExists.
func classify(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == 412 {
		return ErrObjectExists
	}
	return err
}

// ReadObject downloads a whole object into memory.
func ReadObject(ctx context.Context, bucket *storage.BucketHandle, name string) ([]byte, error) {
	r, err := bucket.Object(name).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open gs://%s/%s: %w", bucket.BucketName(), name, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", bucket.BucketName(), name, err)
	}
	return data, nil
}

// BucketReader reads whole objects from any bucket the client can access.
type BucketReader struct {
	client *storage.Client
}

func NewBucketReader(client *storage.Client) *BucketReader {
	return &BucketReader{client: client}
}

func (r *BucketReader) Read(ctx context.Context, bucket, name string) ([]byte, error) {
	return ReadObject(ctx, r.client.Bucket(bucket), name)
}
