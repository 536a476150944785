// Package store persists extracted CSV files and their reference records.
package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/Lllllllleong/financialstatementflow/internal/models"
)

const csvContentType = "text/csv"

// BlobStore holds raw file content.
type BlobStore interface {
	Put(ctx context.Context, name string, data []byte, meta models.FileMetadata) (string, error)
	Get(ctx context.Context, fileID string) ([]byte, error)
}

// RecordStore holds the reference documents.
type RecordStore interface {
	Insert(ctx context.Context, rec models.StatementRecord) (string, error)
	Get(ctx context.Context, id string) (*models.StatementRecord, error)
}

// Backend is one connected pair of stores.
type Backend struct {
	Blobs   BlobStore
	Records RecordStore
	Close   func() error
}

// Connector establishes a Backend. It is called lazily and again after a failure.
type Connector func(ctx context.Context) (*Backend, error)

// PersistRequest is the input of Gateway.Persist. Analysis, Model and
// SourceHash are optional.
type PersistRequest struct {
	CSV        string
	Filename   string
	Analysis   string
	Model      string
	SourceHash string
}

// PersistResult carries the generated identifiers.
type PersistResult struct {
	FileID   string
	RecordID string
}

// Gateway writes a CSV blob plus a reference record.
type Gateway struct {
	connect Connector
	now     func() time.Time

	mu      sync.Mutex
	backend *Backend
}

// NewGateway creates a gateway. A nil connector yields ErrNotConnected on use.
func NewGateway(connect Connector) *Gateway {
	return &Gateway{
		connect: connect,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// NewGatewayWithBackend creates a gateway over an already connected backend.
func NewGatewayWithBackend(b *Backend) *Gateway {
	return NewGateway(func(context.Context) (*Backend, error) { return b, nil })
}

func (g *Gateway) conn(ctx context.Context) (*Backend, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.backend != nil {
		return g.backend, nil
	}
	if g.connect == nil {
		return nil, &PersistenceError{Op: "connect", Err: ErrNotConnected}
	}
	b, err := g.connect(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "connect", Err: err}
	}
	g.backend = b
	slog.Info("Persistence backend connected.")
	return b, nil
}

// Persist stores the CSV and creates exactly one new record. Identical input
// stored twice produces two records.
func (g *Gateway) Persist(ctx context.Context, req PersistRequest) (*PersistResult, error) {
	b, err := g.conn(ctx)
	if err != nil {
		return nil, err
	}

	meta := ParseCSVMeta(req.CSV)
	data := []byte(req.CSV)
	csvFilename := req.Filename + ".csv"
	uploaded := g.now()

	fileID, err := b.Blobs.Put(ctx, csvFilename, data, models.FileMetadata{
		OriginalFilename: req.Filename,
		UploadDate:       uploaded,
		ContentType:      csvContentType,
		RowCount:         meta.RowCount,
		Columns:          meta.Columns,
	})
	if err != nil {
		return nil, &PersistenceError{Op: "store csv file", Err: err}
	}

	recordID, err := b.Records.Insert(ctx, models.StatementRecord{
		OriginalFilename: req.Filename,
		CSVFilename:      csvFilename,
		StoredFileID:     fileID,
		UploadDate:       uploaded,
		FileSize:         int64(len(data)),
		RowCount:         meta.RowCount,
		Columns:          meta.Columns,
		Status:           models.StatusCompleted,
		SourceSHA256:     req.SourceHash,
		Analysis:         req.Analysis,
		Model:            req.Model,
	})
	if err != nil {
		return nil, &PersistenceError{Op: "insert reference record", Err: err}
	}

	slog.Info("CSV file stored with reference.", "fileId", fileID, "recordId", recordID, "rowCount", meta.RowCount)
	return &PersistResult{FileID: fileID, RecordID: recordID}, nil
}

// Record fetches a reference record by id.
func (g *Gateway) Record(ctx context.Context, id string) (*models.StatementRecord, error) {
	b, err := g.conn(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := b.Records.Get(ctx, id)
	if err != nil {
		return nil, &PersistenceError{Op: "get record", Err: err}
	}
	return rec, nil
}

// File fetches stored file content by its stored-file id.
func (g *Gateway) File(ctx context.Context, fileID string) ([]byte, error) {
	b, err := g.conn(ctx)
	if err != nil {
		return nil, err
	}
	data, err := b.Blobs.Get(ctx, fileID)
	if err != nil {
		return nil, &PersistenceError{Op: "get file", Err: err}
	}
	return data, nil
}

// Close releases the backend if one was connected.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.backend == nil || g.backend.Close == nil {
		return nil
	}
	err := g.backend.Close()
	g.backend = nil
	return err
}

// metadataStrings flattens blob metadata for stores that only accept string maps.
func metadataStrings(meta models.FileMetadata) map[string]string {
	columns, _ := json.Marshal(meta.Columns)
	return map[string]string{
		"original_filename": meta.OriginalFilename,
		"upload_date":       meta.UploadDate.Format(time.RFC3339),
		"content_type":      meta.ContentType,
		"row_count":         strconv.Itoa(meta.RowCount),
		"columns":           string(columns),
	}
}
